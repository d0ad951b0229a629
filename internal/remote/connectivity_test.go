package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollMonitor_ReportsConnected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	m := NewPollMonitor(ts.URL, 10*time.Millisecond, logging.Discard())
	m.Start(context.Background())
	defer m.Stop()

	assert.True(t, m.IsConnected(), "initial probe should succeed")
}

func TestPollMonitor_AnyResponseCountsAsReachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	m := NewPollMonitor(ts.URL, 10*time.Millisecond, logging.Discard())
	m.Start(context.Background())
	defer m.Stop()

	assert.True(t, m.IsConnected(), "a 403 still proves the network is up")
}

func TestPollMonitor_CallbackOncePerTransition(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var transitions atomic.Int32
	var lastState atomic.Bool
	lastState.Store(true)

	m := NewPollMonitor(ts.URL, 10*time.Millisecond, logging.Discard())
	m.OnChange(func(connected bool) {
		transitions.Add(1)
		lastState.Store(connected)
	})
	m.Start(context.Background())
	defer m.Stop()

	require.True(t, m.IsConnected())

	// Take the host down; repeated failed probes must produce one callback.
	ts.Close()

	require.Eventually(t, func() bool { return !m.IsConnected() }, time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond) // a few more failed probes go by

	assert.Equal(t, int32(1), transitions.Load(), "exactly one callback per transition")
	assert.False(t, lastState.Load())
}

func TestPollMonitor_StartsDisconnectedWhenHostUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close() // nothing listens here anymore

	m := NewPollMonitor(url, 10*time.Millisecond, logging.Discard())
	m.Start(context.Background())
	defer m.Stop()

	assert.False(t, m.IsConnected())
}
