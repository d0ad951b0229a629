package app

import (
	"context"
	"fmt"

	"github.com/dkovalev/hubsync/internal/syncer"
)

// List re-reads the local store and prints the listing view (filtered while
// a search is active).
func (a *App) List(ctx context.Context) error {
	a.orch.ReloadLocal(ctx)
	n := a.orch.NumberOfItems()
	if n == 0 {
		printlnFn("No records yet. Try 'more' to fetch a page.")
		return nil
	}
	for i := 0; i < n; i++ {
		item, ok := a.orch.Item(i)
		if !ok {
			continue
		}
		printlnFn(formatItem(i, item))
	}
	return nil
}

// More requests the next listing page and re-prints the view.
func (a *App) More(ctx context.Context) error {
	if err := a.orch.FetchNextPage(ctx); err != nil {
		printlnFn("Fetch failed:", err.Error())
		return err
	}
	return a.List(ctx)
}

// Search narrows the listing to rows whose login or note contains query.
func (a *App) Search(ctx context.Context, query string) error {
	a.orch.Search(query)
	return a.List(ctx)
}

// ResetSearch restores the full listing.
func (a *App) ResetSearch(ctx context.Context) error {
	a.orch.ResetSearch()
	return a.List(ctx)
}

// Profile shows the detail view for one login, fetching and merging the full
// profile when it has not been seen yet.
func (a *App) Profile(ctx context.Context, login string) error {
	vm := syncer.NewProfileViewModel(login, a.store, a.client, a.log)
	if err := vm.LoadProfile(ctx); err != nil {
		printlnFn("Profile unavailable:", err.Error())
		s := vm.State()
		if s.Login == "" {
			return err
		}
		// fall through and show the listing-level copy
	}
	printProfile(vm.State())
	return nil
}

// Note attaches or replaces the note on an already-synced record.
func (a *App) Note(ctx context.Context, login, content string) error {
	vm := syncer.NewProfileViewModel(login, a.store, a.client, a.log)
	err := vm.SaveNote(ctx, content)
	if msg, _ := vm.Status(); msg != "" {
		printlnFn(msg)
	}
	return err
}

// Avatar warms the image cache for a login's avatar.
func (a *App) Avatar(ctx context.Context, login string) error {
	rec, err := a.store.FindByLogin(ctx, login)
	if err != nil {
		printlnFn("Unknown login:", login)
		return err
	}
	b, err := a.images.Load(ctx, rec.AvatarURL)
	if err != nil {
		printlnFn("Avatar fetch failed:", err.Error())
		return err
	}
	printlnFn(fmt.Sprintf("Cached avatar for %s (%d bytes)", login, len(b)))
	return nil
}

func formatItem(i int, item syncer.ListItem) string {
	marks := ""
	if item.IsSeen {
		marks += " *"
	}
	if item.HasNote {
		marks += " [note: " + item.Note + "]"
	}
	return fmt.Sprintf("%3d. %s%s", i+1, item.Login, marks)
}

func printProfile(s syncer.ProfileState) {
	printlnFn("Login:    ", s.Login)
	if s.Name != "" {
		printlnFn("Name:     ", s.Name)
	}
	if s.Company != "" {
		printlnFn("Company:  ", s.Company)
	}
	if s.Blog != "" {
		printlnFn("Blog:     ", s.Blog)
	}
	printlnFn("Followers:", s.Followers)
	printlnFn("Following:", s.Following)
	if s.Note != "" {
		printlnFn("Note:     ", s.Note)
	}
}
