package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/pkg/retry"
)

const (
	sandboxBaseURL = "https://sandbox.sslcommerz.com"
	liveBaseURL    = "https://securepay.sslcommerz.com"

	initPath     = "/gwprocess/v4/api.php"
	validatePath = "/validator/api/validationserverAPI.php"

	maxProductNameLen     = 100
	maxProductCategoryLen = 50
	maxCustomerNameLen    = 50
)

// SSLCommerzConfig configures the SSLCommerz client.
type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	Live          bool
	Timeout       time.Duration
}

// SSLCommerz is the HTTP adapter for the SSLCommerz gateway. Init and
// Validate share one circuit breaker; Validate additionally retries, since
// it is a read-only call.
type SSLCommerz struct {
	cfg      SSLCommerzConfig
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	retryCfg retry.Config
}

// NewSSLCommerz creates an SSLCommerz client.
func NewSSLCommerz(cfg SSLCommerzConfig) *SSLCommerz {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	baseURL := sandboxBaseURL
	if cfg.Live {
		baseURL = liveBaseURL
	}
	return &SSLCommerz{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "sslcommerz",
			MaxRequests: 10,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 10 && failureRatio >= 0.6
			},
		}),
		retryCfg: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
	}
}

type initResponse struct {
	Status         string `json:"status"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
	FailedReason   string `json:"failedreason"`
}

// Init starts a hosted checkout session.
func (s *SSLCommerz) Init(ctx context.Context, req InitRequest) (*InitResult, error) {
	form := url.Values{}
	form.Set("store_id", s.cfg.StoreID)
	form.Set("store_passwd", s.cfg.StorePassword)
	form.Set("total_amount", centsToAmount(req.AmountCents))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.PaymentID.String())
	form.Set("success_url", req.SuccessURL)
	form.Set("fail_url", req.FailURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("ipn_url", req.IPNURL)

	form.Set("product_name", truncate(req.ProductName, maxProductNameLen))
	form.Set("product_category", truncate(req.ProductCategory, maxProductCategoryLen))
	form.Set("product_profile", "digital-goods")

	form.Set("cus_name", truncate(req.CustomerName, maxCustomerNameLen))
	form.Set("cus_email", req.CustomerEmail)
	form.Set("cus_phone", req.CustomerPhone)
	form.Set("cus_add1", "Dhaka")
	form.Set("cus_city", "Dhaka")
	form.Set("cus_state", "Dhaka")
	form.Set("cus_postcode", "1000")
	form.Set("cus_country", "Bangladesh")

	form.Set("shipping_method", "NO")
	form.Set("num_of_item", "1")

	form.Set("value_a", req.UserID.String())
	form.Set("value_b", req.CourseID.String())
	form.Set("value_c", req.PaymentID.String())

	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.postForm(ctx, s.baseURL+initPath, form)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: init: %v", errors.ErrGatewayUnavailable, err)
	}

	var resp initResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: init: decode response: %v", errors.ErrGatewayUnavailable, err)
	}

	result := &InitResult{
		SessionKey:    resp.SessionKey,
		CheckoutURL:   resp.GatewayPageURL,
		FailureReason: resp.FailedReason,
	}
	if resp.Status != "SUCCESS" || resp.GatewayPageURL == "" {
		reason := resp.FailedReason
		if reason == "" {
			reason = "unknown error"
		}
		return result, fmt.Errorf("%w: %s", errors.ErrGatewayInitFailed, reason)
	}
	return result, nil
}

type validateResponse struct {
	Status      string `json:"status"`
	TranID      string `json:"tran_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency_type"`
	BankTranID  string `json:"bank_tran_id"`
	CardType    string `json:"card_type"`
	CardBrand   string `json:"card_brand"`
	APIConnect  string `json:"APIConnect"`
	ValidatedOn string `json:"validated_on"`
}

// Validate confirms a transaction with the gateway. The call is idempotent,
// so transient failures are retried before surfacing.
func (s *SSLCommerz) Validate(ctx context.Context, validationID string) (*ValidateResult, error) {
	q := url.Values{}
	q.Set("val_id", validationID)
	q.Set("store_id", s.cfg.StoreID)
	q.Set("store_passwd", s.cfg.StorePassword)
	q.Set("format", "json")
	q.Set("v", "1")

	endpoint := s.baseURL + validatePath + "?" + q.Encode()

	body, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]byte, error) {
		return s.breaker.Execute(func() ([]byte, error) {
			return s.get(ctx, endpoint)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: validate: %v", errors.ErrGatewayUnavailable, err)
	}

	var resp validateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: validate: decode response: %v", errors.ErrGatewayUnavailable, err)
	}

	return &ValidateResult{
		Status:            resp.Status,
		TransactionID:     resp.TranID,
		BankTransactionID: resp.BankTranID,
		CardType:          resp.CardType,
		CardBrand:         resp.CardBrand,
		AmountCents:       amountToCents(resp.Amount),
		Currency:          resp.Currency,
	}, nil
}

func (s *SSLCommerz) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *SSLCommerz) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

func (s *SSLCommerz) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func centsToAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

func amountToCents(amount string) int64 {
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
