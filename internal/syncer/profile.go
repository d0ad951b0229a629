package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkovalev/hubsync/internal/common"
	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/dkovalev/hubsync/internal/models"
)

// ProfileState is the observable field set of a profile view.
type ProfileState struct {
	Login     string
	AvatarURL string
	Name      string
	Company   string
	Blog      string
	Note      string
	Followers int32
	Following int32
}

// ProfileViewModel backs the detail screen for one login. It serves the
// local copy when the record has already been seen, otherwise fetches the
// profile, merges it into the store, and re-reads. Note saves report back
// through a transient status message.
type ProfileViewModel struct {
	login  string
	store  Storage
	client Fetcher
	log    logging.Logger

	statusTTL time.Duration

	mu          sync.Mutex
	state       ProfileState
	status      string
	statusOK    bool
	statusTimer *time.Timer
	onChange    func()
}

func NewProfileViewModel(login string, store Storage, client Fetcher, log logging.Logger) *ProfileViewModel {
	return &ProfileViewModel{
		login:     login,
		store:     store,
		client:    client,
		log:       log,
		statusTTL: 3 * time.Second,
	}
}

// OnChange registers a callback invoked whenever the state or status
// changes.
func (vm *ProfileViewModel) OnChange(fn func()) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.onChange = fn
}

// State returns a snapshot of the observable fields.
func (vm *ProfileViewModel) State() ProfileState {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.state
}

// Status returns the transient save-feedback message and whether it reports
// success. The message clears itself after a short interval.
func (vm *ProfileViewModel) Status() (string, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.status, vm.statusOK
}

// LoadProfile populates the view. Already-seen records are served from the
// store without a network round trip; otherwise the profile is fetched,
// merged (a miss is a logged no-op, never a created record), and re-read.
func (vm *ProfileViewModel) LoadProfile(ctx context.Context) error {
	rec, err := vm.store.FindByLogin(ctx, vm.login)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	if rec != nil && rec.IsSeen {
		vm.applyRecord(rec)
		return nil
	}

	p, ferr := vm.client.FetchProfileWithRetry(ctx, vm.login)
	if ferr != nil {
		vm.log.Warn(ctx, "profile fetch failed", "login", vm.login, "err", ferr)
		if rec != nil {
			// offline: serve the listing-level copy we do have
			vm.applyRecord(rec)
		}
		return ferr
	}

	if merr := vm.store.MergeProfile(ctx, vm.login, p); merr != nil {
		if errors.Is(merr, common.ErrorNotFound) {
			vm.log.Warn(ctx, "profile merge skipped, no local record", "login", vm.login)
		} else {
			vm.log.Error(ctx, "profile merge failed", "login", vm.login, "err", merr)
		}
	}

	if merged, rerr := vm.store.FindByLogin(ctx, vm.login); rerr == nil {
		vm.applyRecord(merged)
	} else {
		vm.applyProfile(p)
	}
	return nil
}

// SaveNote persists the note and surfaces the outcome as a transient status.
// Retrying a failed save is left to the user re-invoking it.
func (vm *ProfileViewModel) SaveNote(ctx context.Context, content string) error {
	saved, err := vm.store.SaveNote(ctx, vm.login, content)
	if err != nil || !saved {
		vm.log.Error(ctx, "note save failed", "login", vm.login, "saved", saved, "err", err)
		vm.setStatus("Error saving note!", false)
		if err != nil {
			return err
		}
		return common.ErrorNotFound
	}

	vm.mu.Lock()
	vm.state.Note = content
	vm.mu.Unlock()
	vm.setStatus("Note saved successfully!", true)
	return nil
}

func (vm *ProfileViewModel) applyRecord(rec *models.LocalRecord) {
	vm.mu.Lock()
	vm.state = ProfileState{
		Login:     rec.Login,
		AvatarURL: rec.AvatarURL,
		Name:      rec.Name,
		Company:   deref(rec.Company),
		Blog:      deref(rec.Blog),
		Note:      rec.NoteContent(),
		Followers: rec.Followers,
		Following: rec.Following,
	}
	cb := vm.onChange
	vm.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (vm *ProfileViewModel) applyProfile(p *models.RecordProfile) {
	vm.mu.Lock()
	vm.state = ProfileState{
		Login:     p.Login,
		AvatarURL: p.AvatarURL,
		Name:      p.Name,
		Company:   deref(p.Company),
		Blog:      p.Blog,
		Note:      vm.state.Note,
		Followers: p.Followers,
		Following: p.Following,
	}
	cb := vm.onChange
	vm.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (vm *ProfileViewModel) setStatus(msg string, ok bool) {
	vm.mu.Lock()
	vm.status = msg
	vm.statusOK = ok
	if vm.statusTimer != nil {
		vm.statusTimer.Stop()
	}
	vm.statusTimer = time.AfterFunc(vm.statusTTL, vm.clearStatus)
	cb := vm.onChange
	vm.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (vm *ProfileViewModel) clearStatus() {
	vm.mu.Lock()
	vm.status = ""
	vm.statusOK = false
	cb := vm.onChange
	vm.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
