// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"html"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/taurodigital/sms-panel/config"
)

// CampaignReport carries everything the operator email needs about one dispatch
type CampaignReport struct {
	Username       string
	CampaignUUID   string
	SentAt         time.Time
	TotalNumbers   int
	SuccessCount   int
	FailureCount   int
	CoinsUsed      uint64
	SenderName     string
	MessageContent string
	Outcomes       []DeliveryOutcome
}

// NotificationService delivers campaign reports to the platform operators.
// Sending is best-effort from the caller's point of view: dispatch never
// fails because a report could not be sent.
type NotificationService interface {
	SendCampaignReport(ctx context.Context, report *CampaignReport) error
}

// SMTPNotificationService emails campaign reports to a fixed operator
// allowlist taken from configuration. Recipients outside the allowlist are
// never contacted.
type SMTPNotificationService struct {
	config *config.EmailConfig
}

// NewSMTPNotificationService creates an SMTP-backed notification service
func NewSMTPNotificationService(cfg *config.EmailConfig) NotificationService {
	return &SMTPNotificationService{config: cfg}
}

// SendCampaignReport builds a multipart email (plain text, HTML, CSV
// attachment of per-recipient outcomes) and sends it to every operator.
func (s *SMTPNotificationService) SendCampaignReport(ctx context.Context, report *CampaignReport) error {
	if len(s.config.OperatorEmails) == 0 {
		return fmt.Errorf("no operator emails configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Campaign report: %s (%d sent)", report.Username, report.TotalNumbers)

	body, contentType, err := buildReportBody(report)
	if err != nil {
		return fmt.Errorf("failed to build campaign report email: %w", err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", s.config.FromEmail)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(s.config.OperatorEmails, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: %s\r\n\r\n", contentType)
	msg.Write(body)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)

	if err := smtp.SendMail(addr, auth, s.config.FromEmail, s.config.OperatorEmails, msg.Bytes()); err != nil {
		return fmt.Errorf("failed to send campaign report email: %w", err)
	}

	return nil
}

// buildReportBody assembles multipart/mixed content: an alternative part
// with text and HTML renderings, plus the outcomes CSV as an attachment.
func buildReportBody(report *CampaignReport) ([]byte, string, error) {
	var buf bytes.Buffer
	mixed := multipart.NewWriter(&buf)

	altBuf := &bytes.Buffer{}
	alternative := multipart.NewWriter(altBuf)

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	textPart, err := alternative.CreatePart(textHeader)
	if err != nil {
		return nil, "", err
	}
	fmt.Fprint(textPart, renderReportText(report))

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	htmlPart, err := alternative.CreatePart(htmlHeader)
	if err != nil {
		return nil, "", err
	}
	fmt.Fprint(htmlPart, renderReportHTML(report))

	if err := alternative.Close(); err != nil {
		return nil, "", err
	}

	altHeader := textproto.MIMEHeader{}
	altHeader.Set("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", alternative.Boundary()))
	altPart, err := mixed.CreatePart(altHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := altPart.Write(altBuf.Bytes()); err != nil {
		return nil, "", err
	}

	csvData, err := renderOutcomesCSV(report.Outcomes)
	if err != nil {
		return nil, "", err
	}

	attachHeader := textproto.MIMEHeader{}
	attachHeader.Set("Content-Type", "text/csv; charset=utf-8")
	attachHeader.Set("Content-Transfer-Encoding", "base64")
	attachHeader.Set("Content-Disposition", `attachment; filename="campaign_results.csv"`)
	attachPart, err := mixed.CreatePart(attachHeader)
	if err != nil {
		return nil, "", err
	}
	encoded := base64.StdEncoding.EncodeToString(csvData)
	if _, err := attachPart.Write([]byte(encoded)); err != nil {
		return nil, "", err
	}

	if err := mixed.Close(); err != nil {
		return nil, "", err
	}

	contentType := fmt.Sprintf("multipart/mixed; boundary=%q", mixed.Boundary())
	return buf.Bytes(), contentType, nil
}

func renderReportText(report *CampaignReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Campaign dispatched by %s\n\n", report.Username)
	fmt.Fprintf(&b, "Campaign ID: %s\n", report.CampaignUUID)
	fmt.Fprintf(&b, "Sent at: %s\n", report.SentAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Sender name: %s\n", report.SenderName)
	fmt.Fprintf(&b, "Total recipients: %d\n", report.TotalNumbers)
	fmt.Fprintf(&b, "Delivered: %d\n", report.SuccessCount)
	fmt.Fprintf(&b, "Failed: %d\n", report.FailureCount)
	fmt.Fprintf(&b, "Coins used: %d\n\n", report.CoinsUsed)
	fmt.Fprintf(&b, "Message:\n%s\n", report.MessageContent)
	return b.String()
}

func renderReportHTML(report *CampaignReport) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Campaign dispatched by %s</h2>", html.EscapeString(report.Username))
	b.WriteString("<table border=\"1\" cellpadding=\"4\">")
	fmt.Fprintf(&b, "<tr><td>Campaign ID</td><td>%s</td></tr>", html.EscapeString(report.CampaignUUID))
	fmt.Fprintf(&b, "<tr><td>Sent at</td><td>%s</td></tr>", report.SentAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "<tr><td>Sender name</td><td>%s</td></tr>", html.EscapeString(report.SenderName))
	fmt.Fprintf(&b, "<tr><td>Total recipients</td><td>%d</td></tr>", report.TotalNumbers)
	fmt.Fprintf(&b, "<tr><td>Delivered</td><td>%d</td></tr>", report.SuccessCount)
	fmt.Fprintf(&b, "<tr><td>Failed</td><td>%d</td></tr>", report.FailureCount)
	fmt.Fprintf(&b, "<tr><td>Coins used</td><td>%d</td></tr>", report.CoinsUsed)
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p><b>Message:</b><br>%s</p>", html.EscapeString(report.MessageContent))
	b.WriteString("</body></html>")
	return b.String()
}

func renderOutcomesCSV(outcomes []DeliveryOutcome) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"phone_number", "status", "error"}); err != nil {
		return nil, err
	}
	for _, o := range outcomes {
		status := "success"
		if !o.Delivered {
			status = "failed"
		}
		if err := w.Write([]string{o.PhoneNumber, status, o.FailureReason}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MockNotificationService implements NotificationService for testing
type MockNotificationService struct {
	Reports []*CampaignReport
	Err     error
}

// NewMockNotificationService creates a new mock notification service
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendCampaignReport records the report
func (m *MockNotificationService) SendCampaignReport(ctx context.Context, report *CampaignReport) error {
	if m.Err != nil {
		return m.Err
	}
	m.Reports = append(m.Reports, report)
	return nil
}
