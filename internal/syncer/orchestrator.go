// Package syncer combines the remote fetch layer, the local store, and the
// connectivity monitor into an offline-tolerant, paginated, searchable view
// of the record directory.
package syncer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/dkovalev/hubsync/internal/models"
)

// Storage is the slice of the local store the sync layer uses.
type Storage interface {
	UpsertRecords(ctx context.Context, recs []models.Record) (int, error)
	MergeProfile(ctx context.Context, login string, p *models.RecordProfile) error
	SaveNote(ctx context.Context, login string, content string) (bool, error)
	ListAll(ctx context.Context) ([]models.LocalRecord, error)
	FindByLogin(ctx context.Context, login string) (*models.LocalRecord, error)
}

// Fetcher is the slice of the remote client the sync layer uses.
type Fetcher interface {
	FetchPageWithRetry(ctx context.Context, since int64, perPage int) ([]models.Record, error)
	FetchProfileWithRetry(ctx context.Context, login string) (*models.RecordProfile, error)
}

// Monitor reports reachability; see remote.Monitor.
type Monitor interface {
	IsConnected() bool
	OnChange(fn func(connected bool))
}

// ListItem is the row shape handed to the presentation layer.
type ListItem struct {
	Login     string
	Note      string
	AvatarURL string
	HasNote   bool
	IsSeen    bool
}

// Orchestrator is the long-lived sync state machine. It pages through the
// remote listing using the highest locally-known id as cursor, persists each
// page, serves reads from the local store, and rides out connectivity loss
// with a periodic reconnect check.
type Orchestrator struct {
	store   Storage
	client  Fetcher
	monitor Monitor
	log     logging.Logger

	pageSize      int
	retryInterval time.Duration

	mu           sync.Mutex
	records      []models.LocalRecord
	filtered     []models.LocalRecord
	query        string
	loading      bool
	offline      bool
	searchActive bool
	retryStop    chan struct{}
	onFetched    func()
}

func NewOrchestrator(store Storage, client Fetcher, monitor Monitor, pageSize int, retryInterval time.Duration, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		store:         store,
		client:        client,
		monitor:       monitor,
		log:           log,
		pageSize:      pageSize,
		retryInterval: retryInterval,
	}
}

// OnFetched registers a callback invoked after the view contents change.
func (o *Orchestrator) OnFetched(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onFetched = fn
}

// LoadInitial reads the local store first — with cached data the view is
// never empty on launch, even fully offline — then hooks connectivity
// transitions and attempts a network sync.
func (o *Orchestrator) LoadInitial(ctx context.Context) error {
	list, err := o.store.ListAll(ctx)
	if err != nil {
		o.log.Error(ctx, "initial local read failed", "err", err)
	} else {
		o.mu.Lock()
		o.records = list
		cb := o.onFetched
		o.mu.Unlock()
		if cb != nil {
			cb()
		}
	}

	o.monitor.OnChange(func(connected bool) {
		if connected {
			o.mu.Lock()
			o.offline = false
			o.stopRetryTimerLocked()
			o.mu.Unlock()
			_ = o.FetchNextPage(ctx)
			return
		}
		o.mu.Lock()
		o.offline = true
		o.mu.Unlock()
	})

	return o.FetchNextPage(ctx)
}

// FetchNextPage requests one page past the highest locally-known id and
// folds it into the store. It is a no-op while a fetch is in flight or a
// search is active (search is a local-only view; it must not drive remote
// paging). When offline it records the offline state and returns nil.
func (o *Orchestrator) FetchNextPage(ctx context.Context) error {
	o.mu.Lock()
	if o.loading || o.searchActive {
		o.mu.Unlock()
		return nil
	}
	if !o.monitor.IsConnected() {
		o.offline = true
		o.mu.Unlock()
		return nil
	}
	o.loading = true
	since := o.cursorLocked()
	o.mu.Unlock()

	recs, err := o.client.FetchPageWithRetry(ctx, since, o.pageSize)
	if err != nil {
		o.log.Warn(ctx, "page fetch failed", "since", since, "err", err)
		o.mu.Lock()
		o.loading = false
		if !o.monitor.IsConnected() {
			o.offline = true
			o.startRetryTimerLocked(ctx)
		}
		o.mu.Unlock()
		return err
	}

	if _, err := o.store.UpsertRecords(ctx, recs); err != nil {
		o.log.Error(ctx, "page upsert failed", "err", err)
		o.mu.Lock()
		o.loading = false
		o.mu.Unlock()
		return err
	}

	list, lerr := o.store.ListAll(ctx)

	o.mu.Lock()
	o.loading = false
	o.offline = false
	if lerr != nil {
		// keep serving the previous window rather than fail
		o.log.Error(ctx, "local re-read failed", "err", lerr)
	} else {
		o.records = list
	}
	cb := o.onFetched
	o.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

// cursorLocked returns the pagination cursor: the highest id currently
// loaded. records is id-ascending, so that is the last element.
func (o *Orchestrator) cursorLocked() int64 {
	if len(o.records) == 0 {
		return 0
	}
	return o.records[len(o.records)-1].ID
}

// startRetryTimerLocked launches the reconnect check loop. Idempotent:
// starting a new timer always invalidates any prior one first, so at most
// one loop is ever live. Caller holds o.mu.
func (o *Orchestrator) startRetryTimerLocked(ctx context.Context) {
	o.stopRetryTimerLocked()
	stop := make(chan struct{})
	o.retryStop = stop
	go o.retryLoop(ctx, stop)
}

func (o *Orchestrator) stopRetryTimerLocked() {
	if o.retryStop != nil {
		close(o.retryStop)
		o.retryStop = nil
	}
}

// retryLoop re-checks connectivity on every tick while disconnected. The
// instant connectivity returns, the loop cancels itself and retries the
// fetch — unless a newer loop or the reconnect callback got there first.
func (o *Orchestrator) retryLoop(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(o.retryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !o.monitor.IsConnected() {
				continue
			}
			o.mu.Lock()
			if o.retryStop != stop {
				// superseded; the live owner handles the retry
				o.mu.Unlock()
				return
			}
			o.retryStop = nil
			o.offline = false
			o.mu.Unlock()
			_ = o.FetchNextPage(ctx)
			return
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels any pending reconnect loop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopRetryTimerLocked()
}

// ReloadLocal re-reads the local store into the view, re-applying an active
// search filter. Wired to the store's refresh signal so note saves and
// profile merges show up without a network round trip.
func (o *Orchestrator) ReloadLocal(ctx context.Context) {
	list, err := o.store.ListAll(ctx)
	if err != nil {
		o.log.Error(ctx, "local reload failed", "err", err)
		return
	}
	o.mu.Lock()
	o.records = list
	if o.searchActive {
		o.filtered = o.filterLocked(o.query)
	}
	cb := o.onFetched
	o.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Search activates local filtering: a case-insensitive substring match
// against the login OR the attached note's content. While a search is
// active the view serves the filtered set and pagination is suspended.
// An empty query resets the search.
func (o *Orchestrator) Search(query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	o.mu.Lock()
	defer o.mu.Unlock()
	if q == "" {
		o.resetSearchLocked()
		return
	}
	o.searchActive = true
	o.query = q
	o.filtered = o.filterLocked(q)
}

// ResetSearch clears the filter and resumes serving the full window.
func (o *Orchestrator) ResetSearch() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resetSearchLocked()
}

func (o *Orchestrator) resetSearchLocked() {
	o.searchActive = false
	o.query = ""
	o.filtered = nil
}

func (o *Orchestrator) filterLocked(q string) []models.LocalRecord {
	out := make([]models.LocalRecord, 0)
	for _, r := range o.records {
		if strings.Contains(strings.ToLower(r.Login), q) ||
			strings.Contains(strings.ToLower(r.NoteContent()), q) {
			out = append(out, r)
		}
	}
	return out
}

func (o *Orchestrator) viewLocked() []models.LocalRecord {
	if o.searchActive {
		return o.filtered
	}
	return o.records
}

// NumberOfItems returns the size of the current view (filtered while a
// search is active).
func (o *Orchestrator) NumberOfItems() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.viewLocked())
}

// Item returns the row at index i of the current view.
func (o *Orchestrator) Item(i int) (ListItem, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	view := o.viewLocked()
	if i < 0 || i >= len(view) {
		return ListItem{}, false
	}
	r := view[i]
	return ListItem{
		Login:     r.Login,
		Note:      r.NoteContent(),
		AvatarURL: r.AvatarURL,
		HasNote:   r.HasNote(),
		IsSeen:    r.IsSeen,
	}, true
}

func (o *Orchestrator) IsOffline() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offline
}

func (o *Orchestrator) IsLoading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

func (o *Orchestrator) IsSearchActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.searchActive
}
