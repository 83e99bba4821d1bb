package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

// JobStore implements storage.JobStore for BadgerDB.
type JobStore struct {
	backend *Backend
}

var _ storage.JobStore = (*JobStore)(nil)

// NewJobStore creates a new JobStore.
//
// Returns storage.JobStore interface to enforce abstraction.
func NewJobStore(backend *Backend) (storage.JobStore, error) {
	return &JobStore{backend: backend}, nil
}

// Close is a no-op; the job store holds no sequences.
func (s *JobStore) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (s *JobStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// PutJob stores a job keyed by its ID, overwriting any existing entry.
func (s *JobStore) PutJob(ctx context.Context, job *core.Job) error {
	if err := core.ValidateJob(job); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		if job.CreatedAt.IsZero() {
			job.CreatedAt = now
		}
		job.UpdatedAt = now
		if err := tx.Set(makeJobKey(job.Id), storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetJob retrieves a job by ID.
func (s *JobStore) GetJob(ctx context.Context, id core.ID) (*core.Job, error) {
	var result *core.Job
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		bItem, err := tx.Get(makeJobKey(id))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return bItem.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalJob(val)
			return err
		})
	}, false)
	return result, err
}

// DueJobs returns ready jobs whose NextRunAt is not after now, ordered by
// NextRunAt ascending.
func (s *JobStore) DueJobs(ctx context.Context, now time.Time, limit int) ([]*core.Job, error) {
	var due []*core.Job
	err := s.scanJobs(func(job *core.Job) {
		if job.State == core.JobReady && !job.NextRunAt.After(now) {
			due = append(due, job)
		}
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(due, func(a, b *core.Job) int {
		return a.NextRunAt.Compare(b.NextRunAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// UpdateJob overwrites an existing job.
func (s *JobStore) UpdateJob(ctx context.Context, job *core.Job) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(job.Id)
		if _, err := tx.Get(key); err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		} else if err != nil {
			return err
		}

		job.UpdatedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteJob removes a job by ID.
func (s *JobStore) DeleteJob(ctx context.Context, id core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeJobKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// PruneFinished discards done and dead jobs beyond the newest keep entries
// or older than maxAge.
func (s *JobStore) PruneFinished(ctx context.Context, keep int, maxAge time.Duration) (int, error) {
	var finished []*core.Job
	err := s.scanJobs(func(job *core.Job) {
		if job.State == core.JobDone || job.State == core.JobDead {
			finished = append(finished, job)
		}
	})
	if err != nil {
		return 0, err
	}

	// Newest first; everything past keep or past maxAge goes.
	slices.SortFunc(finished, func(a, b *core.Job) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	cutoff := time.Now().UTC().Add(-maxAge)
	var doomed []core.ID
	for i, job := range finished {
		if (keep > 0 && i >= keep) || (maxAge > 0 && job.UpdatedAt.Before(cutoff)) {
			doomed = append(doomed, job.Id)
		}
	}
	if len(doomed) == 0 {
		return 0, nil
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range doomed {
			if err := tx.Delete(makeJobKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return 0, err
	}
	return len(doomed), nil
}

// scanJobs iterates every stored job. Single-process scale makes a full
// prefix scan acceptable here, matching the keyword scan in the item store.
func (s *JobStore) scanJobs(visit func(*core.Job)) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var job *core.Job
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				return err
			}
			if job != nil {
				visit(job)
			}
		}
		return nil
	}, false)
}
