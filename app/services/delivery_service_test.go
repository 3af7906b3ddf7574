package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurodigital/sms-panel/config"
	"github.com/taurodigital/sms-panel/utils"
)

func batchRecipients(n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("+1555%07d", i))
	}
	return out
}

func TestSimulatedDelivery_OutcomeShape(t *testing.T) {
	svc := NewSimulatedDeliveryService(1)
	recipients := batchRecipients(10)

	outcomes, err := svc.Deliver(context.Background(), recipients, "PROMO", "hi")
	require.NoError(t, err)
	require.Len(t, outcomes, len(recipients))

	// Outcomes preserve recipient order
	for i, o := range outcomes {
		assert.Equal(t, recipients[i], o.PhoneNumber)
	}
}

func TestSimulatedDelivery_SuccessPrefix(t *testing.T) {
	// Successes always form a prefix of the batch: once an outcome fails,
	// every later outcome fails too.
	for seed := int64(0); seed < 50; seed++ {
		svc := NewSimulatedDeliveryService(seed)
		outcomes, err := svc.Deliver(context.Background(), batchRecipients(20), "", "hi")
		require.NoError(t, err)

		seenFailure := false
		for _, o := range outcomes {
			if !o.Delivered {
				seenFailure = true
				assert.Equal(t, utils.FailedDeliveryMessage, o.FailureReason)
			} else {
				assert.False(t, seenFailure, "delivered outcome after a failed one (seed %d)", seed)
				assert.Empty(t, o.FailureReason)
			}
		}
	}
}

func TestSimulatedDelivery_RateBounds(t *testing.T) {
	// floor(n*rate) with rate in [0.80, 0.95) bounds the success count.
	const n = 100
	lo := int(math.Floor(n * utils.MinSuccessRate))
	hi := int(math.Floor(n * utils.MaxSuccessRate))

	for seed := int64(0); seed < 50; seed++ {
		svc := NewSimulatedDeliveryService(seed)
		outcomes, err := svc.Deliver(context.Background(), batchRecipients(n), "", "hi")
		require.NoError(t, err)

		successCount := 0
		for _, o := range outcomes {
			if o.Delivered {
				successCount++
			}
		}
		assert.GreaterOrEqual(t, successCount, lo, "seed %d", seed)
		assert.LessOrEqual(t, successCount, hi, "seed %d", seed)
	}
}

func TestSimulatedDelivery_SingleRecipientCanFail(t *testing.T) {
	// floor(1*rate) is always 0 for rate < 1, so a batch of one never succeeds
	// under the simulator. The charge still applies either way.
	svc := NewSimulatedDeliveryService(7)
	outcomes, err := svc.Deliver(context.Background(), batchRecipients(1), "", "hi")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Delivered)
}

func TestSimulatedDelivery_Deterministic(t *testing.T) {
	a, err := NewSimulatedDeliveryService(99).Deliver(context.Background(), batchRecipients(30), "", "hi")
	require.NoError(t, err)
	b, err := NewSimulatedDeliveryService(99).Deliver(context.Background(), batchRecipients(30), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSimulatedDelivery_EmptyBatch(t *testing.T) {
	svc := NewSimulatedDeliveryService(1)
	outcomes, err := svc.Deliver(context.Background(), nil, "", "hi")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestSimulatedDelivery_CancelledContext(t *testing.T) {
	svc := NewSimulatedDeliveryService(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Deliver(ctx, batchRecipients(3), "", "hi")
	assert.Error(t, err)
}

// rewriteTransport redirects carrier requests to a local test server
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rewritten, err := http.NewRequestWithContext(req.Context(), req.Method, rt.target+req.URL.Path, req.Body)
	if err != nil {
		return nil, err
	}
	rewritten.Header = req.Header
	return http.DefaultTransport.RoundTrip(rewritten)
}

func newTestHTTPDeliveryService(t *testing.T, server *httptest.Server) *HTTPDeliveryService {
	t.Helper()
	return &HTTPDeliveryService{
		config: &config.CarrierConfig{
			ProviderDomain:    "carrier.test",
			APIKey:            "test-key",
			DefaultSenderName: "DEFAULT",
		},
		client: &http.Client{Transport: rewriteTransport{target: server.URL}},
	}
}

func TestHTTPDelivery_MapsCarrierResponses(t *testing.T) {
	var gotPath, gotAPIKey string
	var gotPayload []carrierRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		results := []carrierResponse{
			{MessageID: 1, Recipient: "+15550000001", Status: "ACCEPTED", StatusCode: 200},
			{MessageID: 2, Recipient: "+15550000002", Status: "REJECTED", StatusCode: 400},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}))
	defer server.Close()

	svc := newTestHTTPDeliveryService(t, server)

	outcomes, err := svc.Deliver(context.Background(), []string{"+15550000001", "+15550000002"}, "PROMO", "hello")
	require.NoError(t, err)

	assert.Equal(t, "/api/v3.0.1/send", gotPath)
	assert.Equal(t, "test-key", gotAPIKey)
	require.Len(t, gotPayload, 2)
	assert.Equal(t, "PROMO", gotPayload[0].SrcName)
	assert.Equal(t, "hello", gotPayload[0].Body)

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Delivered)
	assert.False(t, outcomes[1].Delivered)
	assert.Equal(t, utils.FailedDeliveryMessage, outcomes[1].FailureReason)
}

func TestHTTPDelivery_MissingRecipientInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]carrierResponse{})
	}))
	defer server.Close()

	svc := newTestHTTPDeliveryService(t, server)

	outcomes, err := svc.Deliver(context.Background(), []string{"+15550000001"}, "", "hello")
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Delivered)
}
