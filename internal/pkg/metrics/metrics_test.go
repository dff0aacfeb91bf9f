package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry

	assert.NotPanics(t, func() {
		r.ObserveRequest("GET", "/health", 200, time.Millisecond)
		r.SessionCreated()
		r.SessionsDeleted(3)
		r.AuthFailure("expired")
		r.WebsocketConnected()
		r.WebsocketDisconnected()
	})
}

func TestRegistryCounts(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("GET", "/api/v1/venues", 200, 5*time.Millisecond)
	r.ObserveRequest("GET", "/api/v1/venues", 404, 5*time.Millisecond)
	r.SessionCreated()
	r.SessionsDeleted(2)
	r.AuthFailure("")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.requestsTotal.WithLabelValues("GET", "/api/v1/venues", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.sessionsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.sessionsDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.authFailures.WithLabelValues("unknown")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.SessionCreated()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "singr_sessions_created_total 1"))
}
