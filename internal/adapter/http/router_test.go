package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/kiamesdavies/money-transfer/internal/adapter/http/handler"
	"github.com/kiamesdavies/money-transfer/internal/domain"
)

type paymentStub struct{}

func (paymentStub) Transfer(ctx context.Context, from, to string, mt domain.MoneyTransfer) (string, error) {
	return "tx-1", nil
}

func (paymentStub) Balance(ctx context.Context, accountID string) (domain.BalanceSnapshot, error) {
	return domain.BalanceSnapshot{AccountID: accountID, Balance: decimal.NewFromInt(10000)}, nil
}

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		PaymentHandler: handler.NewPaymentHandler(paymentStub{}),
		HealthHandler:  handler.NewHealthHandler(nil),
		Logger:         zerolog.Nop(),
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestRouterBalanceRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1/balance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
