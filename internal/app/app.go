package app

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/dkovalev/hubsync/internal/config"
	"github.com/dkovalev/hubsync/internal/filex"
	"github.com/dkovalev/hubsync/internal/imagecache"
	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/dkovalev/hubsync/internal/remote"
	"github.com/dkovalev/hubsync/internal/store"
	"github.com/dkovalev/hubsync/internal/syncer"
)

// App wires the store, the remote client, the connectivity monitor, the sync
// orchestrator and the image cache together and drives them from a text REPL.
type App struct {
	config  *config.Config
	log     logging.Logger
	store   *store.Store
	client  *remote.HTTPClient
	monitor *remote.PollMonitor
	orch    *syncer.Orchestrator
	images  *imagecache.Cache
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	log := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	st, err := store.Open(ctx, c.DatabasePath, log)
	if err != nil {
		log.Error(ctx, "error initializing store", "err", err)
		return nil, err
	}

	client, err := remote.NewHTTPClient(c.APIBaseURL, c.FetchRetries, c.FetchRetryDelay, log)
	if err != nil {
		st.Close()
		return nil, err
	}

	monitor := remote.NewPollMonitor(c.APIBaseURL, c.OnlineCheckInterval, log)

	orch := syncer.NewOrchestrator(st, client, monitor, c.PageSize, c.ReconnectInterval, log)

	// Любая фиксация в хранилище сразу же видна в списке.
	st.OnRefresh(func() { orch.ReloadLocal(context.Background()) })

	dir := c.ImageCacheDir
	if dir == "" {
		dir, err = filex.DefaultCacheDir("hubsync", "avatars")
		if err != nil {
			st.Close()
			client.Close()
			return nil, err
		}
	}
	images, err := imagecache.New(dir, imagecache.DefaultMemoryEntries, log)
	if err != nil {
		st.Close()
		client.Close()
		return nil, err
	}

	return &App{
		config:  c,
		log:     log,
		store:   st,
		client:  client,
		monitor: monitor,
		orch:    orch,
		images:  images,
	}, nil
}

// Run starts the connectivity watcher, performs the initial load, and hands
// control to the REPL until the user exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.monitor.Start(ctx)

	if err := a.orch.LoadInitial(ctx); err != nil {
		// Local data is already on screen; the next page arrives once the
		// connection comes back.
		a.log.Warn(ctx, "initial fetch failed", "err", err)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) Close() {
	a.orch.Stop()
	a.monitor.Stop()
	a.client.Close()
	if err := a.store.Close(); err != nil {
		a.log.Error(context.Background(), "error closing store", "err", err)
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.orch.IsOffline() {
		s = "offline"
	}
	if a.orch.IsSearchActive() {
		if s != "" {
			s += " "
		}
		s += "search"
	}
	if s != "" {
		s = "(" + s + ")"
	}
	return s
}
