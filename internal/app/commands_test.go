package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/dkovalev/hubsync/internal/models"
	"github.com/dkovalev/hubsync/internal/remote"
	"github.com/dkovalev/hubsync/internal/store"
	"github.com/dkovalev/hubsync/internal/syncer"
)

// newTestAPI serves a two-user directory with listing and profile endpoints.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("since") != "0" {
			json.NewEncoder(w).Encode([]models.Record{})
			return
		}
		json.NewEncoder(w).Encode([]models.Record{
			{Login: "octocat", ID: 1, AvatarURL: "http://img.example/1.png"},
			{Login: "torvalds", ID: 2, AvatarURL: "http://img.example/2.png"},
		})
	})
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		company := "GitHub"
		json.NewEncoder(w).Encode(models.RecordProfile{
			Login: "octocat", ID: 1, AvatarURL: "http://img.example/1.png",
			Followers: 100, Following: 50, Name: "The Octocat", Company: &company,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()
	ctx := context.Background()
	log := logging.Discard()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "hubsync.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client, err := remote.NewHTTPClient(baseURL, 1, time.Millisecond, log)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	monitor := remote.NewPollMonitor(baseURL, time.Second, log)
	monitor.Start(ctx)
	t.Cleanup(monitor.Stop)

	orch := syncer.NewOrchestrator(st, client, monitor, 15, time.Second, log)
	t.Cleanup(orch.Stop)
	st.OnRefresh(func() { orch.ReloadLocal(context.Background()) })

	return &App{config: nil, log: log, store: st, client: client, monitor: monitor, orch: orch}
}

func TestApp_MoreFetchesAndLists(t *testing.T) {
	srv := newTestAPI(t)
	a := newTestApp(t, srv.URL)
	out := silencePrintln(t)

	require.NoError(t, a.More(context.Background()))

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "octocat")
	assert.Contains(t, joined, "torvalds")
	assert.Equal(t, 2, a.orch.NumberOfItems())
}

func TestApp_NoteThenListShowsAnnotation(t *testing.T) {
	srv := newTestAPI(t)
	a := newTestApp(t, srv.URL)
	out := silencePrintln(t)
	ctx := context.Background()

	require.NoError(t, a.More(ctx))
	require.NoError(t, a.Note(ctx, "octocat", "first mate"))

	*out = nil
	require.NoError(t, a.List(ctx))
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "[note: first mate]")
}

func TestApp_NoteOnUnknownLoginFails(t *testing.T) {
	srv := newTestAPI(t)
	a := newTestApp(t, srv.URL)
	out := silencePrintln(t)

	err := a.Note(context.Background(), "nobody", "lost")
	require.Error(t, err)
	assert.Contains(t, strings.Join(*out, "\n"), "Error saving note!")
}

func TestApp_ProfileMergesAndMarksSeen(t *testing.T) {
	srv := newTestAPI(t)
	a := newTestApp(t, srv.URL)
	out := silencePrintln(t)
	ctx := context.Background()

	require.NoError(t, a.More(ctx))
	require.NoError(t, a.Profile(ctx, "octocat"))

	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "The Octocat")
	assert.Contains(t, joined, "GitHub")

	rec, err := a.store.FindByLogin(ctx, "octocat")
	require.NoError(t, err)
	assert.True(t, rec.IsSeen)
}

func TestApp_SearchFiltersListing(t *testing.T) {
	srv := newTestAPI(t)
	a := newTestApp(t, srv.URL)
	out := silencePrintln(t)
	ctx := context.Background()

	require.NoError(t, a.More(ctx))

	*out = nil
	require.NoError(t, a.Search(ctx, "torv"))
	joined := strings.Join(*out, "\n")
	assert.Contains(t, joined, "torvalds")
	assert.NotContains(t, joined, fmt.Sprintf("%3d. octocat", 1))

	require.NoError(t, a.ResetSearch(ctx))
	assert.Equal(t, 2, a.orch.NumberOfItems())
}
