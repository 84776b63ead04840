package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	paymentsvc "github.com/jgstylez/blackowndemand-backend/internal/payments"
	"github.com/jgstylez/blackowndemand-backend/pkg/config"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubPaymentService struct {
	details *paymentsvc.PaymentDetails
	err     error
}

func (s *stubPaymentService) Process(ctx context.Context, req paymentsvc.PaymentRequest) (*paymentsvc.PaymentDetails, error) {
	return s.details, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		RateLimit: config.RateLimitConfig{
			PaymentWindow:     time.Minute,
			PaymentIPLimit:    20,
			PaymentEmailLimit: 5,
		},
	}
}

func newTestRouter(svc *stubPaymentService) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(testConfig(), logg, stubPinger{}, nil, svc, prometheus.NewRegistry())
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(&stubPaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterHealthReady(t *testing.T) {
	router := newTestRouter(&stubPaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterProcessPayment(t *testing.T) {
	svc := &stubPaymentService{details: &paymentsvc.PaymentDetails{
		Success:       true,
		TransactionID: "tx-1",
		Status:        "approved",
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/process", strings.NewReader(`{"amount":1200,"payment_method":{"card_number":"4929123456789012","expiry_date":"12/28","cvv":"123"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	router := newTestRouter(&stubPaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/process", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Error != "Method not allowed" {
		t.Fatalf("unexpected error message %q", payload.Error)
	}
}

func TestRouterPaymentPreflight(t *testing.T) {
	router := newTestRouter(&stubPaymentService{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/payments/process", nil)
	req.Header.Set("Origin", "https://blackowndemand.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Fatalf("expected POST in allowed methods, got %q", got)
	}
}

func TestRouterBareOptionsOnProcess(t *testing.T) {
	router := newTestRouter(&stubPaymentService{})

	// No Origin, no Access-Control-Request-Method: not a browser preflight,
	// but the route still answers 200 with the wildcard headers.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/payments/process", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestRouterPostWithoutOriginCarriesCORSHeaders(t *testing.T) {
	svc := &stubPaymentService{details: &paymentsvc.PaymentDetails{
		Success:       true,
		TransactionID: "tx-1",
		Status:        "approved",
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/process", strings.NewReader(`{"amount":1200,"payment_method":{"card_number":"4929123456789012","expiry_date":"12/28","cvv":"123"}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Fatalf("expected POST in allowed methods, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "apikey") {
		t.Fatalf("expected apikey in allowed headers, got %q", got)
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	router := newTestRouter(&stubPaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
