package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"servicedesk/backend/internal/domain"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	handler, _ := newTestAPI(t)
	res := do(t, handler, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, res.Header().Get("Referrer-Policy"))
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightShortCircuits(t *testing.T) {
	handler, _ := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/settlements/today", nil)
	res := httptest.NewRecorder()

	handler.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Contains(t, res.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestLoginRateLimitReturns429(t *testing.T) {
	handler, _ := newTestAPI(t)

	for i := 0; i < 6; i++ {
		res := do(t, handler, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: "wrong-pass"})
		if i < 5 {
			assert.Equal(t, http.StatusUnauthorized, res.Code, "attempt %d", i+1)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, res.Code)
		}
	}
}

func TestCashierCannotApprove(t *testing.T) {
	handler, _ := newTestAPI(t)
	cashier := login(t, handler, "cashier", testCashierPassword)

	for _, action := range []string{"verify", "reject"} {
		res := do(t, handler, http.MethodPost, "/api/v1/settlements/set-any/"+action, cashier, domain.RejectRequest{Reason: "x"})
		assert.Equal(t, http.StatusForbidden, res.Code, action)
	}
}
