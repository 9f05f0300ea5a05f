package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket/internal/health"
)

func ok(context.Context) error { return nil }

func readiness(t *testing.T, h health.Handler) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	return rr.Code, status
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadyWithOptionalDependencies(t *testing.T) {
	code, status := readiness(t, health.Handler{Probes: map[string]health.Probe{
		"db":    health.ProbeFunc(ok),
		"redis": nil,
	}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]string{"db": "ok", "redis": "disabled"}, status)
}

func TestReadyFailure(t *testing.T) {
	code, status := readiness(t, health.Handler{Probes: map[string]health.Probe{
		"db": health.ProbeFunc(func(context.Context) error { return errors.New("db down") }),
	}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "db down", status["db"])
}

func TestReadyProbeTimeout(t *testing.T) {
	slow := health.ProbeFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	code, _ := readiness(t, health.Handler{Probes: map[string]health.Probe{"redis": slow}, Timeout: 10 * time.Millisecond})
	require.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReadinessAfterShutdown(t *testing.T) {
	h := health.Handler{Probes: map[string]health.Probe{"db": health.ProbeFunc(ok)}}

	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })
	code, status := readiness(t, h)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "shutting down", status["server"])
}
