package remote

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkovalev/hubsync/internal/logging"
)

// Monitor reports network reachability and notifies on transitions.
type Monitor interface {
	// IsConnected returns the last observed reachability state.
	IsConnected() bool

	// OnChange registers fn to be invoked exactly once per
	// connected↔disconnected transition.
	OnChange(fn func(connected bool))
}

// PollMonitor probes the API host on a fixed interval and tracks the
// reachability state. A probe is a lightweight HEAD request; any response,
// regardless of status, counts as reachable.
type PollMonitor struct {
	probeURL string
	interval time.Duration
	http     *http.Client
	log      logging.Logger

	mu        sync.Mutex
	connected bool
	callback  func(bool)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

var _ Monitor = (*PollMonitor)(nil)

func NewPollMonitor(probeURL string, interval time.Duration, log logging.Logger) *PollMonitor {
	return &PollMonitor{
		probeURL: probeURL,
		interval: interval,
		http:     &http.Client{Timeout: 3 * time.Second},
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start performs an initial synchronous probe, then keeps probing on the
// configured interval until Stop or ctx cancellation. The first observation
// establishes the baseline state; it is not reported as a transition.
func (m *PollMonitor) Start(ctx context.Context) {
	initial := m.probe(ctx)
	m.mu.Lock()
	m.connected = initial
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.setConnected(ctx, m.probe(ctx))
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the probe loop. Safe to call more than once.
func (m *PollMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	<-m.done
}

func (m *PollMonitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *PollMonitor) OnChange(fn func(connected bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callback = fn
}

func (m *PollMonitor) probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.probeURL, nil)
	if err != nil {
		return false
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// setConnected records the new state and fires the callback on transitions
// only. The callback runs outside the lock so it may call back into the
// monitor.
func (m *PollMonitor) setConnected(ctx context.Context, connected bool) {
	m.mu.Lock()
	changed := connected != m.connected
	m.connected = connected
	cb := m.callback
	m.mu.Unlock()

	if !changed {
		return
	}
	m.log.Info(ctx, "connectivity changed", "connected", connected)
	if cb != nil {
		cb(connected)
	}
}
