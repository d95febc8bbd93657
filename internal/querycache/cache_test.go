package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rentdesk/internal/bus"
)

type reservationFilter struct {
	Status   string `json:"status"`
	Location string `json:"location"`
}

func newTestCache(opts Options) *Cache {
	return New(nil, "rentdesk:test", opts)
}

func TestGetFetchesOnceWhileFresh(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Minute, MaxAge: time.Hour})
	var calls int32

	fetch := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"RES-1001", "RES-1002"}, nil
	}

	first, res := Fetch(context.Background(), c, "reservations", reservationFilter{Status: "Confirmed"}, fetch)
	assert.NoError(t, res.Err)
	assert.Equal(t, []string{"RES-1001", "RES-1002"}, first)

	second, res := Fetch(context.Background(), c, "reservations", reservationFilter{Status: "Confirmed"}, fetch)
	assert.NoError(t, res.Err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDistinctParamsGetDistinctEntries(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Minute, MaxAge: time.Hour})
	var calls int32

	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "data", nil
	}

	Fetch(context.Background(), c, "reservations", reservationFilter{Status: "Confirmed"}, fetch)
	Fetch(context.Background(), c, "reservations", reservationFilter{Status: "Rented"}, fetch)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestConcurrentReadsShareOneFetch(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Minute, MaxAge: time.Hour})
	var calls int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, res := Fetch(context.Background(), c, "reports", nil, fetch)
			assert.NoError(t, res.Err)
			results[i] = v
		}(i)
	}

	// Give every goroutine time to either start the fetch or join it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestRetryRecoversFromTransientFailure(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Minute, MaxAge: time.Hour, RetryAttempts: 2, RetryDelay: time.Millisecond})
	var calls int32

	fetch := func(ctx context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	}

	v, res := Fetch(context.Background(), c, "vehicles", nil, fetch)
	assert.NoError(t, res.Err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestExhaustedRetriesSurfaceAsResultError(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Minute, MaxAge: time.Hour, RetryAttempts: 1, RetryDelay: time.Millisecond})
	boom := errors.New("db down")

	fetch := func(ctx context.Context) (string, error) { return "", boom }

	v, res := Fetch(context.Background(), c, "vehicles", nil, fetch)
	assert.ErrorIs(t, res.Err, boom)
	assert.Empty(t, v)
	assert.False(t, res.Stale)
}

func TestStaleValueServedAlongsideFetchError(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Millisecond, MaxAge: time.Hour, RetryAttempts: 0})
	var healthy int32 = 1

	fetch := func(ctx context.Context) (string, error) {
		if atomic.LoadInt32(&healthy) == 1 {
			return "good", nil
		}
		return "", errors.New("db down")
	}

	v, res := Fetch(context.Background(), c, "reports", nil, fetch)
	assert.NoError(t, res.Err)
	assert.Equal(t, "good", v)

	atomic.StoreInt32(&healthy, 0)
	time.Sleep(5 * time.Millisecond) // let the entry go stale

	v, res = Fetch(context.Background(), c, "reports", nil, fetch)
	assert.Error(t, res.Err)
	assert.True(t, res.Stale)
	assert.Equal(t, "good", v)
}

func TestInvalidateEntityScopedByEntity(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Hour, MaxAge: time.Hour})
	var reservationCalls, vehicleCalls int32

	fetchReservations := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&reservationCalls, 1)
		return "reservations", nil
	}
	fetchVehicles := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&vehicleCalls, 1)
		return "vehicles", nil
	}

	Fetch(context.Background(), c, "reservations", nil, fetchReservations)
	Fetch(context.Background(), c, "vehicles", nil, fetchVehicles)

	c.InvalidateEntity(context.Background(), "reservations")

	Fetch(context.Background(), c, "reservations", nil, fetchReservations)
	Fetch(context.Background(), c, "vehicles", nil, fetchVehicles)

	assert.Equal(t, int32(2), atomic.LoadInt32(&reservationCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&vehicleCalls))
}

func TestDataChangedMessageInvalidates(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Hour, MaxAge: time.Hour})
	b := bus.New()
	unsubscribe := c.BindBus(b)
	defer unsubscribe()

	var calls int32
	fetch := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "data", nil
	}

	Fetch(context.Background(), c, "reservations", nil, fetch)
	b.Publish(bus.DataChanged{Entity: "reservations", ID: "RES-1001"})
	Fetch(context.Background(), c, "reservations", nil, fetch)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGCRemovesOnlyExpiredEntries(t *testing.T) {
	c := newTestCache(Options{StaleAfter: time.Millisecond, MaxAge: 20 * time.Millisecond})

	Fetch(context.Background(), c, "old", nil, func(ctx context.Context) (string, error) { return "a", nil })
	time.Sleep(30 * time.Millisecond)
	Fetch(context.Background(), c, "new", nil, func(ctx context.Context) (string, error) { return "b", nil })

	removed := c.GC()
	assert.Equal(t, 1, removed)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.mem, 1)
}

func TestKeyStableAcrossFieldOrder(t *testing.T) {
	c := newTestCache(Options{})

	a := c.Key("reservations", map[string]any{"status": "Confirmed", "location": "DEL"})
	b := c.Key("reservations", map[string]any{"location": "DEL", "status": "Confirmed"})
	assert.Equal(t, a, b)

	other := c.Key("reservations", map[string]any{"status": "Rented", "location": "DEL"})
	assert.NotEqual(t, a, other)
}
