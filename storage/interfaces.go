package storage

import (
	"context"
	"time"

	"github.com/poiesic/keepsake/core"
)

// Store provides the common lifecycle shared across all stores.
// Implementations must be thread-safe and support concurrent access.
type Store interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ItemStore provides operations for captured items, their content, media,
// and embedding pointers.
type ItemStore interface {
	Store

	// AddItem stores a new item together with its content and media.
	// For items with ID=0, generates a new ID from sequence and assigns it
	// to the content and media rows. Sets CreatedAt if not already set.
	// Returns the item with ID and timestamps populated.
	AddItem(ctx context.Context, item *core.Item, content *core.Content, media ...*core.Media) (*core.Item, error)

	// GetItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetItem(ctx context.Context, id core.ID) (*core.Item, error)

	// GetDetail retrieves an item together with its content and media.
	// Returns ErrNotFound if the item doesn't exist; a missing content row
	// yields an empty Content, not an error.
	GetDetail(ctx context.Context, id core.ID) (*core.ItemDetail, error)

	// GetItems retrieves multiple items by their IDs.
	// Returns only the items that exist (no error for missing items).
	GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error)

	// UpdateItem applies a partial patch to an item. Nil patch fields are
	// left untouched. Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the item doesn't exist.
	UpdateItem(ctx context.Context, id core.ID, patch core.ItemPatch) (*core.Item, error)

	// UpsertContent applies a partial patch to an item's content, creating
	// the content row if it doesn't exist yet.
	UpsertContent(ctx context.Context, itemID core.ID, patch core.ContentPatch) (*core.Content, error)

	// AddMedia attaches a media asset to an item. For media with ID=0,
	// generates a new ID from sequence.
	AddMedia(ctx context.Context, media *core.Media) (*core.Media, error)

	// ListItems returns items ordered newest first, optionally filtered by
	// kind, up to limit results.
	ListItems(ctx context.Context, kind *core.ItemKind, limit int) ([]*core.Item, error)

	// DeleteItem removes an item with its content, media, and embedding
	// pointer. Returns ErrNotFound if the item doesn't exist. Callers own
	// removing the vector index record the embedding pointed at.
	DeleteItem(ctx context.Context, id core.ID) error

	// SetEmbedding records the vector index reference for an item.
	SetEmbedding(ctx context.Context, embedding *core.Embedding) error

	// GetEmbedding retrieves the embedding pointer for an item.
	// Returns ErrNotFound if no embedding has been stored.
	GetEmbedding(ctx context.Context, itemID core.ID) (*core.Embedding, error)

	// DeleteEmbedding removes the embedding pointer for an item.
	// Removing a missing pointer is not an error.
	DeleteEmbedding(ctx context.Context, itemID core.ID) error

	// MatchKeywords finds items where every term appears in at least one of
	// title, summary, content text, or OCR text (case-insensitive substring
	// match). Results are scored by field weight and ordered by score
	// descending. kind and imageOnly scope the scan when set.
	MatchKeywords(ctx context.Context, terms []string, kind *core.ItemKind, imageOnly bool, limit int) ([]*core.KeywordMatch, error)
}

// JobStore provides durable storage for enrichment jobs.
type JobStore interface {
	Store

	// PutJob stores a job keyed by its ID, overwriting any existing entry
	// (last-write-wins). This is what makes enqueue idempotent per item.
	PutJob(ctx context.Context, job *core.Job) error

	// GetJob retrieves a job by ID.
	// Returns ErrNotFound if the job doesn't exist.
	GetJob(ctx context.Context, id core.ID) (*core.Job, error)

	// DueJobs returns jobs in the ready state whose NextRunAt is not after
	// now, ordered by NextRunAt ascending, up to limit results.
	DueJobs(ctx context.Context, now time.Time, limit int) ([]*core.Job, error)

	// UpdateJob overwrites an existing job. Updates the UpdatedAt timestamp
	// automatically. Returns ErrNotFound if the job doesn't exist.
	UpdateJob(ctx context.Context, job *core.Job) error

	// DeleteJob removes a job by ID. Removing a missing job is not an error.
	DeleteJob(ctx context.Context, id core.ID) error

	// PruneFinished discards done and dead jobs beyond the newest keep
	// entries or older than maxAge, and returns how many were removed.
	// The retained tail exists for observability, not as an audit log.
	PruneFinished(ctx context.Context, keep int, maxAge time.Duration) (int, error)
}
