package records

import (
	"context"

	"github.com/dkovalev/hubsync/internal/models"
)

// Repository describes persistence operations for the local record store.
// Implementations are typically backed by a local SQLite database.
type Repository interface {
	// InsertBatch inserts listing records that are not yet present,
	// matching by id. Already-present records are left untouched: the
	// listing never overwrites detail fields filled by a profile merge.
	// Returns the number of records actually inserted.
	InsertBatch(ctx context.Context, recs []models.Record) (int, error)

	// MergeProfile overwrites all profile fields of the record with the
	// given login and marks it as seen. Returns common.ErrorNotFound when
	// no such record exists; the merge never creates records.
	MergeProfile(ctx context.Context, login string, p *models.RecordProfile) error

	// ListAll returns every local record with its note, ordered by id
	// ascending.
	ListAll(ctx context.Context) ([]models.LocalRecord, error)

	// FindByLogin returns the record with the given login, or
	// common.ErrorNotFound.
	FindByLogin(ctx context.Context, login string) (*models.LocalRecord, error)

	// SaveNote creates or updates the note attached to the record with the
	// given login. Returns false (and no error) when the record does not
	// exist.
	SaveNote(ctx context.Context, login string, content string) (bool, error)
}
