// Package records implements the local store of directory records and their
// attached notes.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkovalev/hubsync/internal/common"
	"github.com/dkovalev/hubsync/internal/dbx"
	"github.com/dkovalev/hubsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). Batch writes are meant to run inside a transaction supplied by
// the caller; see store.Store.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// InsertBatch inserts records absent by id. ON CONFLICT DO NOTHING makes the
// operation idempotent: re-upserting a page the store already holds changes
// nothing.
func (r *SQLiteRepository) InsertBatch(ctx context.Context, recs []models.Record) (int, error) {
	query := `INSERT INTO records (id, login, avatar_url)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO NOTHING
	`
	inserted := 0
	for _, rec := range recs {
		res, err := r.db.ExecContext(ctx, query, rec.ID, rec.Login, rec.AvatarURL)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert record %d: %w", rec.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

// MergeProfile is a full-field overwrite of the profile columns plus the
// is_seen flag. The flag only ever moves false→true here and nothing
// resets it.
func (r *SQLiteRepository) MergeProfile(ctx context.Context, login string, p *models.RecordProfile) error {
	query := `UPDATE records
			SET avatar_url = ?, name = ?, company = ?, blog = ?,
				followers = ?, following = ?, is_seen = 1
			WHERE login = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		p.AvatarURL, p.Name, p.Company, p.Blog, p.Followers, p.Following, login)
	if err != nil {
		return fmt.Errorf("failed to merge profile for %q: %w", login, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

const selectColumns = `r.id, r.login, r.avatar_url, r.name, r.company, r.blog,
	r.followers, r.following, r.is_seen, n.content`

func scanRecord(scan func(dest ...any) error) (*models.LocalRecord, error) {
	var (
		rec     models.LocalRecord
		company sql.NullString
		blog    sql.NullString
		note    sql.NullString
	)
	err := scan(&rec.ID, &rec.Login, &rec.AvatarURL, &rec.Name, &company, &blog,
		&rec.Followers, &rec.Following, &rec.IsSeen, &note)
	if err != nil {
		return nil, err
	}
	if company.Valid {
		rec.Company = &company.String
	}
	if blog.Valid {
		rec.Blog = &blog.String
	}
	if note.Valid {
		rec.Note = &models.Note{Content: note.String}
	}
	return &rec, nil
}

// ListAll returns every record ordered by id ascending, note attached.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.LocalRecord, error) {
	query := `SELECT ` + selectColumns + `
			FROM records r
			LEFT JOIN notes n ON n.record_id = r.id
			ORDER BY r.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	var result []models.LocalRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) FindByLogin(ctx context.Context, login string) (*models.LocalRecord, error) {
	query := `SELECT ` + selectColumns + `
			FROM records r
			LEFT JOIN notes n ON n.record_id = r.id
			WHERE r.login = ?
	`
	row := r.db.QueryRowContext(ctx, query, login)

	rec, err := scanRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return rec, nil
}

// SaveNote upserts the note owned by the record with the given login.
// A note is never created without an owning record.
func (r *SQLiteRepository) SaveNote(ctx context.Context, login string, content string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM records WHERE login = ?`, login).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up record %q: %w", login, err)
	}

	query := `INSERT INTO notes (record_id, content)
			VALUES (?, ?)
			ON CONFLICT(record_id) DO UPDATE SET content = excluded.content
	`
	if _, err := r.db.ExecContext(ctx, query, id, content); err != nil {
		return false, fmt.Errorf("failed to save note for %q: %w", login, err)
	}
	return true, nil
}
