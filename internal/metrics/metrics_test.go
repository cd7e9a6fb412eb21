package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()

	c.LoginAttempt("success")
	c.LoginAttempt("success")
	c.LoginAttempt("locked")
	c.SessionRejected("TOKEN_EXPIRED")
	c.AuthorizationDenied("FORBIDDEN")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.loginAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.loginAttempts.WithLabelValues("locked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionRejected.WithLabelValues("TOKEN_EXPIRED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authorizerDenied.WithLabelValues("FORBIDDEN")))
}

func TestCollector_RequestStarted(t *testing.T) {
	c := NewCollector()

	done := c.RequestStarted()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpInFlight))
	done("GET", "/api/v1/auth/me", "200", 0.01)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.httpInFlight))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/v1/auth/me", "200")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.LoginAttempt("invalid_credentials")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ems_login_attempts_total{outcome="invalid_credentials"} 1`)
}
