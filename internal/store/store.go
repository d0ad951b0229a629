// Package store wraps the records repository with the concurrency discipline
// the sync layer relies on: a single serialized write path, chunked atomic
// batch writes, and a refresh signal that lets readers observe every
// committed write.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dkovalev/hubsync/internal/common"
	"github.com/dkovalev/hubsync/internal/dbx"
	"github.com/dkovalev/hubsync/internal/logging"
	"github.com/dkovalev/hubsync/internal/models"
	"github.com/dkovalev/hubsync/internal/repositories/records"
	"github.com/dkovalev/hubsync/internal/store/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// batchSize bounds how many records go into one write transaction.
const batchSize = 15

// Store owns the database handle. Writes serialize on writeMu so at most one
// write transaction is in flight; every committed write bumps a version
// counter and fires the registered refresh listeners, so a read issued after
// the notification observes that write.
type Store struct {
	db   *sql.DB
	repo *records.SQLiteRepository
	log  logging.Logger

	writeMu sync.Mutex
	version atomic.Int64

	mu        sync.Mutex
	listeners []func()
}

// Open opens (or creates) the SQLite database at dsn and applies pending
// migrations. Persistence is a hard dependency at startup: callers are
// expected to treat an error here as fatal.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:   db,
		repo: records.NewSQLiteRepository(db),
		log:  log,
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Version returns the commit counter. It increases by one for every
// committed write and never decreases.
func (s *Store) Version() int64 {
	return s.version.Load()
}

// OnRefresh registers fn to run after every committed write. Listeners run
// on the writer's goroutine; keep them short.
func (s *Store) OnRefresh(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) commit() {
	s.version.Add(1)
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// UpsertRecords inserts listing records in chunks of batchSize, each chunk a
// single atomic transaction. Chunks commit in order; re-upserting known ids
// is a no-op. Returns the number of records actually inserted.
func (s *Store) UpsertRecords(ctx context.Context, recs []models.Record) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	total := 0
	for start := 0; start < len(recs); start += batchSize {
		end := min(start+batchSize, len(recs))
		chunk := recs[start:end]

		err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			n, err := records.NewSQLiteRepository(tx).InsertBatch(ctx, chunk)
			total += n
			return err
		})
		if err != nil {
			return total, fmt.Errorf("%w: upsert chunk at %d: %v", common.ErrorStoreWrite, start, err)
		}
	}

	s.commit()
	s.log.Debug(ctx, "records upserted", "received", len(recs), "inserted", total)
	return total, nil
}

// MergeProfile overwrites the profile fields of the record with the given
// login and flips is_seen. common.ErrorNotFound passes through untouched so
// callers can treat the miss as a logged no-op.
func (s *Store) MergeProfile(ctx context.Context, login string, p *models.RecordProfile) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.MergeProfile(ctx, login, p); err != nil {
		return err
	}
	s.commit()
	return nil
}

// SaveNote creates or updates the note for the record with the given login.
// Returns false when the record does not exist; no note is created then.
func (s *Store) SaveNote(ctx context.Context, login string, content string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	saved, err := s.repo.SaveNote(ctx, login, content)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrorStoreWrite, err)
	}
	if saved {
		s.commit()
	}
	return saved, nil
}

// ListAll returns every local record ordered by id ascending.
func (s *Store) ListAll(ctx context.Context) ([]models.LocalRecord, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorStoreRead, err)
	}
	return list, nil
}

// FindByLogin returns one record or common.ErrorNotFound.
func (s *Store) FindByLogin(ctx context.Context, login string) (*models.LocalRecord, error) {
	return s.repo.FindByLogin(ctx, login)
}
