package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/supermarket/internal/catalog"
)

func init() {
	MustRegisterMetrics("test", prometheus.NewRegistry())
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestBreaker(minRequests int, openFor time.Duration) (*Breaker, *clock) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	b := NewBreaker(minRequests, 0.5, openFor)
	b.now = c.now
	return b, c
}

func TestBreakerTransitions(t *testing.T) {
	b, clk := newTestBreaker(2, time.Second)
	b.WithTarget("transitions")
	ctx := context.Background()

	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerState.WithLabelValues("transitions")))

	clk.t = clk.t.Add(time.Second)
	require.True(t, b.Allow(ctx))
	require.Equal(t, HalfOpen, b.State())
	b.Report(ctx, true)
	require.Equal(t, Closed, b.State())

	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("transitions", "closed", "open")))
	require.Equal(t, 1.0, testutil.ToFloat64(BreakerTransitions.WithLabelValues("transitions", "half_open", "closed")))
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clk := newTestBreaker(1, time.Second)
	ctx := context.Background()
	b.Report(ctx, false)
	clk.t = clk.t.Add(2 * time.Second)
	require.True(t, b.Allow(ctx))
	b.Report(ctx, false)
	require.Equal(t, Open, b.State())
	require.False(t, b.Allow(ctx))
}

type scriptedCatalog struct{ err error }

func (s *scriptedCatalog) UnitPrice(context.Context, catalog.Product) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	return 1.99, nil
}

func TestCatalogGuard(t *testing.T) {
	src := &scriptedCatalog{}
	b, _ := newTestBreaker(2, time.Minute)
	guarded := Catalog{Source: src, Breaker: b}
	ctx := context.Background()
	apples := catalog.Product{Name: "apples", Unit: catalog.Kilo}

	src.err = fmt.Errorf("wrapped: %w", catalog.ErrPriceNotFound)
	for i := 0; i < 3; i++ {
		_, err := guarded.UnitPrice(ctx, apples)
		require.ErrorIs(t, err, catalog.ErrPriceNotFound)
	}
	require.Equal(t, Closed, b.State())

	src.err = errors.New("connection refused")
	for i := 0; i < 10 && b.State() != Open; i++ {
		_, err := guarded.UnitPrice(ctx, apples)
		require.NotErrorIs(t, err, ErrOpenCircuit)
	}
	require.Equal(t, Open, b.State())

	src.err = nil
	_, err := guarded.UnitPrice(ctx, apples)
	require.ErrorIs(t, err, ErrOpenCircuit)
}
