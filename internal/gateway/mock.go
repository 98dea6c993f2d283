package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/microlearn/payments/internal/domain/errors"
)

// MockClient is a configurable in-memory gateway for tests and local runs.
type MockClient struct {
	mu sync.Mutex

	failureRate      float64 // 0.0 to 1.0
	latency          time.Duration
	failValidations  int    // fail the first N Validate calls, then succeed
	validationStatus string // status returned by Validate once it answers
	initCalls        int
	validateCalls    int
}

type MockOption func(*MockClient)

func WithFailureRate(rate float64) MockOption {
	return func(c *MockClient) { c.failureRate = rate }
}

func WithLatency(d time.Duration) MockOption {
	return func(c *MockClient) { c.latency = d }
}

// WithFailingValidations makes the first n Validate calls fail with a
// gateway-unavailable error before succeeding.
func WithFailingValidations(n int) MockOption {
	return func(c *MockClient) { c.failValidations = n }
}

// WithValidationStatus overrides the status Validate reports (default VALID).
func WithValidationStatus(status string) MockOption {
	return func(c *MockClient) { c.validationStatus = status }
}

func NewMockClient(opts ...MockOption) *MockClient {
	c := &MockClient{validationStatus: StatusValid}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *MockClient) Init(ctx context.Context, req InitRequest) (*InitResult, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.initCalls++
	c.mu.Unlock()

	if rand.Float64() < c.failureRate {
		return &InitResult{FailureReason: "simulated init failure"},
			fmt.Errorf("%w: simulated init failure", errors.ErrGatewayInitFailed)
	}

	session := "mock_session_" + uuid.New().String()[:8]
	return &InitResult{
		SessionKey:  session,
		CheckoutURL: "https://gateway.example/checkout/" + session,
	}, nil
}

func (c *MockClient) Validate(ctx context.Context, validationID string) (*ValidateResult, error) {
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.validateCalls++
	shouldFail := c.validateCalls <= c.failValidations
	status := c.validationStatus
	c.mu.Unlock()

	if shouldFail || rand.Float64() < c.failureRate {
		return nil, fmt.Errorf("%w: simulated validate failure", errors.ErrGatewayUnavailable)
	}

	return &ValidateResult{
		Status:            status,
		TransactionID:     validationID,
		BankTransactionID: "mock_bank_" + uuid.New().String()[:8],
		CardType:          "VISA-Dutch Bangla",
		CardBrand:         "VISA",
	}, nil
}

// InitCalls reports how many Init calls were made.
func (c *MockClient) InitCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initCalls
}

// ValidateCalls reports how many Validate calls were made.
func (c *MockClient) ValidateCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateCalls
}

func (c *MockClient) sleep(ctx context.Context) error {
	if c.latency <= 0 {
		return nil
	}
	select {
	case <-time.After(c.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
