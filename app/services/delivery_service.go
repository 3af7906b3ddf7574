// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"sync"

	"github.com/taurodigital/sms-panel/config"
	"github.com/taurodigital/sms-panel/utils"
)

// DeliveryOutcome is the per-recipient result of a carrier hand-off
type DeliveryOutcome struct {
	PhoneNumber   string
	Delivered     bool
	FailureReason string
}

// DeliveryService hands a batch of recipients to a carrier and reports the
// per-recipient outcome. Implementations must return one outcome per
// recipient, in the recipients' order.
type DeliveryService interface {
	Deliver(ctx context.Context, recipients []string, senderName, message string) ([]DeliveryOutcome, error)
}

// SimulatedDeliveryService models carrier behavior without any network:
// each batch draws a uniform success rate in [MinSuccessRate, MaxSuccessRate)
// and delivers floor(n*rate) recipients, counted from the front of the batch.
type SimulatedDeliveryService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedDeliveryService creates a simulated carrier with the given seed
func NewSimulatedDeliveryService(seed int64) *SimulatedDeliveryService {
	return &SimulatedDeliveryService{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Deliver simulates a batch hand-off
func (s *SimulatedDeliveryService) Deliver(ctx context.Context, recipients []string, senderName, message string) ([]DeliveryOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(recipients)
	if n == 0 {
		return nil, nil
	}

	s.mu.Lock()
	rate := utils.MinSuccessRate + s.rng.Float64()*(utils.MaxSuccessRate-utils.MinSuccessRate)
	s.mu.Unlock()

	successCount := int(math.Floor(float64(n) * rate))

	outcomes := make([]DeliveryOutcome, 0, n)
	for i, phone := range recipients {
		outcome := DeliveryOutcome{PhoneNumber: phone}
		if i < successCount {
			outcome.Delivered = true
		} else {
			outcome.FailureReason = utils.FailedDeliveryMessage
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// HTTPDeliveryService sends batches to a real carrier gateway over HTTP
type HTTPDeliveryService struct {
	config *config.CarrierConfig
	client *http.Client
}

// carrierRequest represents one message in the carrier batch payload
type carrierRequest struct {
	SrcName   string `json:"srcName"`
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Type      int    `json:"type"` // Always 1
}

// carrierResponse represents one per-recipient result from the carrier API
type carrierResponse struct {
	MessageID  int64  `json:"messageId"`
	Recipient  string `json:"recipient"`
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
}

// NewHTTPDeliveryService creates a carrier-backed delivery service
func NewHTTPDeliveryService(cfg *config.CarrierConfig) DeliveryService {
	return &HTTPDeliveryService{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Deliver sends the whole batch in a single carrier API call
func (s *HTTPDeliveryService) Deliver(ctx context.Context, recipients []string, senderName, message string) ([]DeliveryOutcome, error) {
	if len(recipients) == 0 {
		return nil, nil
	}

	if senderName == "" {
		senderName = s.config.DefaultSenderName
	}

	requests := make([]carrierRequest, 0, len(recipients))
	for _, r := range recipients {
		requests = append(requests, carrierRequest{
			SrcName:   senderName,
			Recipient: r,
			Body:      message,
			Type:      1,
		})
	}

	requestBody, err := json.Marshal(requests)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal carrier batch request: %w", err)
	}

	url := fmt.Sprintf("https://%s/api/v3.0.1/send", s.config.ProviderDomain)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send carrier batch request: %w", err)
	}
	defer resp.Body.Close()

	var results []carrierResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode carrier batch response: %w", err)
	}

	byRecipient := make(map[string]carrierResponse, len(results))
	for _, r := range results {
		byRecipient[r.Recipient] = r
	}

	outcomes := make([]DeliveryOutcome, 0, len(recipients))
	for _, phone := range recipients {
		outcome := DeliveryOutcome{PhoneNumber: phone}
		if r, ok := byRecipient[phone]; ok && r.StatusCode == 200 && r.Status == "ACCEPTED" {
			outcome.Delivered = true
		} else {
			outcome.FailureReason = utils.FailedDeliveryMessage
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// MockDeliveryService implements DeliveryService for testing
type MockDeliveryService struct {
	Calls    []MockDeliveryCall
	Outcomes []DeliveryOutcome
	Err      error
}

// MockDeliveryCall captures the arguments of one Deliver invocation
type MockDeliveryCall struct {
	Recipients []string
	SenderName string
	Message    string
}

// NewMockDeliveryService creates a new mock delivery service
func NewMockDeliveryService() *MockDeliveryService {
	return &MockDeliveryService{}
}

// Deliver records the call and returns the configured outcomes. When no
// outcomes are configured, every recipient is reported delivered.
func (m *MockDeliveryService) Deliver(ctx context.Context, recipients []string, senderName, message string) ([]DeliveryOutcome, error) {
	m.Calls = append(m.Calls, MockDeliveryCall{
		Recipients: recipients,
		SenderName: senderName,
		Message:    message,
	})

	if m.Err != nil {
		return nil, m.Err
	}

	if m.Outcomes != nil {
		return m.Outcomes, nil
	}

	outcomes := make([]DeliveryOutcome, 0, len(recipients))
	for _, phone := range recipients {
		outcomes = append(outcomes, DeliveryOutcome{PhoneNumber: phone, Delivered: true})
	}
	return outcomes, nil
}
