package syncer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dkovalev/hubsync/internal/common"
	"github.com/dkovalev/hubsync/internal/models"
)

// fakeStore is an in-memory Storage with the same merge semantics as the
// SQLite repository.
type fakeStore struct {
	mu   sync.Mutex
	recs map[int64]*models.LocalRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[int64]*models.LocalRecord)}
}

func (f *fakeStore) seed(recs ...models.LocalRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range recs {
		r := recs[i]
		f.recs[r.ID] = &r
	}
}

func (f *fakeStore) UpsertRecords(_ context.Context, recs []models.Record) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range recs {
		if _, ok := f.recs[rec.ID]; ok {
			continue
		}
		f.recs[rec.ID] = &models.LocalRecord{ID: rec.ID, Login: rec.Login, AvatarURL: rec.AvatarURL}
		n++
	}
	return n, nil
}

func (f *fakeStore) MergeProfile(_ context.Context, login string, p *models.RecordProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.Login == login {
			r.AvatarURL = p.AvatarURL
			r.Name = p.Name
			r.Company = p.Company
			blog := p.Blog
			r.Blog = &blog
			r.Followers = p.Followers
			r.Following = p.Following
			r.IsSeen = true
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeStore) SaveNote(_ context.Context, login string, content string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.Login == login {
			r.Note = &models.Note{Content: content}
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]models.LocalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.LocalRecord, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) FindByLogin(_ context.Context, login string) (*models.LocalRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.Login == login {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

// fakeFetcher replays scripted results and records the cursors it was asked
// for. next pops from script on every page call.
type fakeFetcher struct {
	mu      sync.Mutex
	script  []func(since int64) ([]models.Record, error)
	sinces  []int64
	profile *models.RecordProfile
	perr    error
	pcalls  int
}

func (f *fakeFetcher) push(fn func(since int64) ([]models.Record, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script = append(f.script, fn)
}

func (f *fakeFetcher) FetchPageWithRetry(_ context.Context, since int64, _ int) ([]models.Record, error) {
	f.mu.Lock()
	f.sinces = append(f.sinces, since)
	if len(f.script) == 0 {
		f.mu.Unlock()
		return nil, nil
	}
	fn := f.script[0]
	f.script = f.script[1:]
	f.mu.Unlock()
	return fn(since)
}

func (f *fakeFetcher) FetchProfileWithRetry(_ context.Context, _ string) (*models.RecordProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pcalls++
	return f.profile, f.perr
}

func (f *fakeFetcher) cursors() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.sinces))
	copy(out, f.sinces)
	return out
}

func (f *fakeFetcher) pageCalls() int {
	return len(f.cursors())
}

func (f *fakeFetcher) profileCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pcalls
}

// fakeMonitor flips reachability on demand, invoking the registered
// callback once per transition like the real poll monitor.
type fakeMonitor struct {
	mu        sync.Mutex
	connected bool
	cb        func(bool)
}

func (m *fakeMonitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *fakeMonitor) OnChange(fn func(bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cb = fn
}

// set changes the state without notifying, e.g. a drop discovered
// mid-request before any probe ran.
func (m *fakeMonitor) set(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = connected
}

// transition changes the state and fires the callback, like a probe
// observing the change.
func (m *fakeMonitor) transition(connected bool) {
	m.mu.Lock()
	changed := connected != m.connected
	m.connected = connected
	cb := m.cb
	m.mu.Unlock()
	if changed && cb != nil {
		cb(connected)
	}
}

func pageOf(from, to int64) []models.Record {
	recs := make([]models.Record, 0, to-from+1)
	for id := from; id <= to; id++ {
		recs = append(recs, models.Record{
			ID:        id,
			Login:     loginFor(id),
			AvatarURL: "https://img.example.com/a",
		})
	}
	return recs
}

func loginFor(id int64) string {
	return fmt.Sprintf("user%03d", id)
}
