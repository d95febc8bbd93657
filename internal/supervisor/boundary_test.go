package supervisor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDo_HealthyPassthrough(t *testing.T) {
	b := New("component:lookup")

	err := b.Do(func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, Healthy, b.State())

	sentinel := errors.New("remote fetch failed")
	err = b.Do(func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	// A returned error is normal flow, not a fault.
	assert.Equal(t, Healthy, b.State())
}

func TestDo_PanicTripsBoundary(t *testing.T) {
	b := New("component:lookup")

	err := b.Do(func() error { panic("nil map write") })
	assert.Error(t, err)
	assert.Equal(t, Faulted, b.State())

	f, ok := b.LastFault()
	assert.True(t, ok)
	assert.Equal(t, "component:lookup", f.Scope)
	assert.Contains(t, f.Message, "nil map write")
	assert.NotEmpty(t, f.Stack)
}

func TestDo_RefusesWhileFaulted(t *testing.T) {
	b := New("route:reports")
	_ = b.Do(func() error { panic("boom") })

	ran := false
	err := b.Do(func() error { ran = true; return nil })
	assert.ErrorIs(t, err, ErrFaulted)
	assert.False(t, ran)
}

func TestRetry_ClearsFaultAndCounts(t *testing.T) {
	b := New("component:lookup")

	_ = b.Do(func() error { panic("boom") })
	assert.Equal(t, Faulted, b.State())
	assert.Equal(t, 0, b.RetryCount())

	b.Retry()
	assert.Equal(t, Healthy, b.State())
	assert.Equal(t, 1, b.RetryCount())
	_, ok := b.LastFault()
	assert.False(t, ok)

	// Children run again from scratch; an immediate re-fault re-enters
	// Faulted with the counter advanced by exactly one per retry.
	_ = b.Do(func() error { panic("boom again") })
	assert.Equal(t, Faulted, b.State())

	b.Retry()
	assert.Equal(t, 2, b.RetryCount())
}

func TestRetry_NoOpWhenHealthy(t *testing.T) {
	b := New("app")
	b.Retry()
	b.Retry()
	assert.Equal(t, 0, b.RetryCount())
	assert.Equal(t, Healthy, b.State())
}

func TestIsolation_SiblingAndOuterBoundariesUnaffected(t *testing.T) {
	app := New("app")
	route := New("route:rentals")
	left := New("component:rental-table")
	right := New("component:rental-summary")

	err := app.Do(func() error {
		return route.Do(func() error {
			// The left component faults; its sibling still runs.
			_ = left.Do(func() error { panic("render fault") })
			return right.Do(func() error { return nil })
		})
	})

	assert.NoError(t, err)
	assert.Equal(t, Faulted, left.State())
	assert.Equal(t, Healthy, right.State())
	assert.Equal(t, Healthy, route.State())
	assert.Equal(t, Healthy, app.State())
}

func TestNesting_UnhandledInnerFaultStopsAtNearestTier(t *testing.T) {
	app := New("app")
	route := New("route:rentals")

	// A panic not wrapped by any component boundary is handled by the
	// route tier, and the application tier stays healthy.
	err := app.Do(func() error {
		inner := route.Do(func() error { panic("page blew up") })
		assert.Error(t, inner)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, Faulted, route.State())
	assert.Equal(t, Healthy, app.State())
}

func TestFaultHook_ObservesEveryTransition(t *testing.T) {
	var seen []Fault
	b := New("component:lookup", WithFaultHook(func(f Fault) { seen = append(seen, f) }))

	_ = b.Do(func() error { panic("one") })
	b.Retry()
	_ = b.Do(func() error { panic("two") })

	assert.Len(t, seen, 2)
	assert.Equal(t, 0, seen[0].RetryCount)
	assert.Equal(t, 1, seen[1].RetryCount)
}

func TestFaultHook_PanickingHookIsContained(t *testing.T) {
	b := New("component:lookup", WithFaultHook(func(Fault) { panic("broken tracker") }))

	err := b.Do(func() error { panic("boom") })
	assert.Error(t, err)
	assert.Equal(t, Faulted, b.State())
}

func TestFallback_DefaultNamesScope(t *testing.T) {
	b := New("route:reports")
	_ = b.Do(func() error { panic("boom") })

	payload := b.Fallback()
	assert.Equal(t, "route:reports", payload["scope"])
	assert.Equal(t, true, payload["retryable"])
	assert.Contains(t, payload["error"], "boom")
}

func TestFallback_BrokenCustomRendererDegradesToDefault(t *testing.T) {
	b := New("component:lookup", WithFallback(func(Fault) map[string]any {
		panic("fallback itself faults")
	}))
	_ = b.Do(func() error { panic("boom") })

	payload := b.Fallback()
	assert.Equal(t, "component:lookup", payload["scope"])
}

func TestFallback_CustomRenderer(t *testing.T) {
	b := New("component:lookup", WithFallback(func(f Fault) map[string]any {
		return map[string]any{"scope": f.Scope, "compact": true}
	}))
	_ = b.Do(func() error { panic("boom") })

	payload := b.Fallback()
	assert.Equal(t, true, payload["compact"])
}
