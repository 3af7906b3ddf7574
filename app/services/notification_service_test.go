package services

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurodigital/sms-panel/utils"
)

func sampleReport() *CampaignReport {
	return &CampaignReport{
		Username:       "acme_marketing",
		CampaignUUID:   "f47ac10b-58cc-4372-a567-0e02b2c3d479",
		SentAt:         time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		TotalNumbers:   3,
		SuccessCount:   2,
		FailureCount:   1,
		CoinsUsed:      3,
		SenderName:     "PROMO",
		MessageContent: "spring sale <tomorrow>",
		Outcomes: []DeliveryOutcome{
			{PhoneNumber: "+15550000001", Delivered: true},
			{PhoneNumber: "+15550000002", Delivered: true},
			{PhoneNumber: "+15550000003", Delivered: false, FailureReason: utils.FailedDeliveryMessage},
		},
	}
}

func TestRenderOutcomesCSV(t *testing.T) {
	data, err := renderOutcomesCSV(sampleReport().Outcomes)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "phone_number,status,error", lines[0])
	assert.Equal(t, "+15550000001,success,", lines[1])
	assert.Equal(t, "+15550000002,success,", lines[2])
	assert.Equal(t, "+15550000003,failed,delivery failed", lines[3])
}

func TestRenderReportText(t *testing.T) {
	text := renderReportText(sampleReport())

	assert.Contains(t, text, "acme_marketing")
	assert.Contains(t, text, "Total recipients: 3")
	assert.Contains(t, text, "Delivered: 2")
	assert.Contains(t, text, "Failed: 1")
	assert.Contains(t, text, "Coins used: 3")
	assert.Contains(t, text, "spring sale <tomorrow>")
}

func TestRenderReportHTML_EscapesContent(t *testing.T) {
	html := renderReportHTML(sampleReport())

	assert.Contains(t, html, "spring sale &lt;tomorrow&gt;")
	assert.NotContains(t, html, "<tomorrow>")
}

func TestBuildReportBody(t *testing.T) {
	body, contentType, err := buildReportBody(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, contentType, "multipart/mixed")

	payload := string(body)
	assert.Contains(t, payload, "multipart/alternative")
	assert.Contains(t, payload, "text/plain")
	assert.Contains(t, payload, "text/html")
	assert.Contains(t, payload, `attachment; filename="campaign_results.csv"`)

	// The CSV attachment decodes back to the outcome rows
	csvData, err := renderOutcomesCSV(sampleReport().Outcomes)
	require.NoError(t, err)
	assert.Contains(t, payload, base64.StdEncoding.EncodeToString(csvData))
}

func TestMockNotificationService(t *testing.T) {
	mock := NewMockNotificationService()

	require.NoError(t, mock.SendCampaignReport(context.Background(), sampleReport()))
	require.Len(t, mock.Reports, 1)
	assert.Equal(t, "acme_marketing", mock.Reports[0].Username)

	mock.Err = errors.New("smtp down")
	assert.Error(t, mock.SendCampaignReport(context.Background(), sampleReport()))
	assert.Len(t, mock.Reports, 1)
}
