package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFetch = errors.New("fetch failed")

func run(b *Breaker, ok bool) error {
	_, err := Do(b, func() (string, error) {
		if ok {
			return "ok", nil
		}
		return "", errFetch
	})
	return err
}

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		settings      Settings
		requests      []bool
		expectedState State
	}{
		{
			name:          "stays closed on successes",
			settings:      Settings{Interval: time.Minute, Timeout: time.Minute},
			requests:      []bool{true, true, true},
			expectedState: StateClosed,
		},
		{
			name:          "opens after consecutive failures",
			settings:      Settings{Interval: time.Minute, Timeout: time.Minute, ReadyToTrip: tripAfter(3)},
			requests:      []bool{false, false, false},
			expectedState: StateOpen,
		},
		{
			name:          "success resets the failure streak",
			settings:      Settings{Interval: time.Minute, Timeout: time.Minute, ReadyToTrip: tripAfter(2)},
			requests:      []bool{false, true, false},
			expectedState: StateClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", tt.settings)
			for _, ok := range tt.requests {
				_ = run(b, ok)
			}
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerCounts(t *testing.T) {
	b := New("test", Settings{Interval: time.Minute, Timeout: time.Minute})

	require.NoError(t, run(b, true))
	counts := b.Counts()
	assert.Equal(t, uint32(1), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalSuccesses)

	assert.ErrorIs(t, run(b, false), errFetch)
	counts = b.Counts()
	assert.Equal(t, uint32(2), counts.Requests)
	assert.Equal(t, uint32(1), counts.TotalFailures)
	assert.Equal(t, uint32(1), counts.ConsecutiveFailures)
	assert.Equal(t, uint32(0), counts.ConsecutiveSuccesses)
}

func TestBreakerOpenRejects(t *testing.T) {
	b := New("test", Settings{Interval: time.Minute, Timeout: time.Minute, ReadyToTrip: tripAfter(2)})
	_ = run(b, false)
	_ = run(b, false)

	called := false
	_, err := Do(b, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: tripAfter(2),
	})
	_ = run(b, false)
	_ = run(b, false)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, run(b, true))
	require.NoError(t, run(b, true))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	b := New("origin", Settings{
		Interval:    time.Minute,
		Timeout:     10 * time.Millisecond,
		ReadyToTrip: tripAfter(1),
		OnStateChange: func(name string, from, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = run(b, false)
	time.Sleep(20 * time.Millisecond)
	_ = run(b, false)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"origin:closed->open",
		"origin:open->half-open",
		"origin:half-open->open",
	}, transitions)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{Interval: time.Minute, Timeout: time.Minute, ReadyToTrip: tripAfter(1)})

	assert.Panics(t, func() {
		_, _ = Do(b, func() (int, error) { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

func TestGroup(t *testing.T) {
	g := NewGroup(Settings{Interval: time.Minute, Timeout: time.Minute, ReadyToTrip: tripAfter(1)})

	ads := g.Get("https://ads.test")
	assert.Same(t, ads, g.Get("https://ads.test"))

	_ = run(ads, false)
	require.NoError(t, run(g.Get("https://site.test"), true))

	states := g.States()
	assert.Equal(t, StateOpen, states["https://ads.test"])
	assert.Equal(t, StateClosed, states["https://site.test"])
}
