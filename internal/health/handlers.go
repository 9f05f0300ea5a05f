package health

import (
	"context"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/noah-isme/supermarket/internal/common"
)

const (
	statusOK       = "ok"
	statusDisabled = "disabled"
)

var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady flips the process readiness flag; shutdown sets it to false so
// load balancers drain the instance before the listener closes.
func SetReady(v bool) {
	ready.Store(v)
}

// Probe checks one backing service.
type Probe interface {
	Ping(ctx context.Context) error
}

// ProbeFunc adapts a function to Probe.
type ProbeFunc func(ctx context.Context) error

// Ping implements Probe.
func (f ProbeFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler exposes liveness and readiness endpoints. A dependency mapped to
// a nil Probe is reported as disabled and does not affect readiness.
type Handler struct {
	Probes  map[string]Probe
	Timeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency probes.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.Probes))
	for name := range h.Probes {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := ready.Load()
	status := map[string]string{}
	for _, name := range names {
		probe := h.Probes[name]
		if probe == nil {
			status[name] = statusDisabled
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout())
		err := probe.Ping(ctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = statusOK
	}
	if !ready.Load() {
		status["server"] = "shutting down"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}

func (h Handler) timeout() time.Duration {
	if h.Timeout <= 0 {
		return 500 * time.Millisecond
	}
	return h.Timeout
}
