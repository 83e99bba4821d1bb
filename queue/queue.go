// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

// Handler processes one job to completion. Returning nil marks the job done.
// Returning an error reschedules the job with backoff unless the error is a
// PermanentError or attempts are exhausted, in which case the job goes dead.
type Handler func(ctx context.Context, job *core.Job) error

// DeadLetterFunc is invoked once when a job transitions to the dead state.
// err is the failure that killed the job.
type DeadLetterFunc func(ctx context.Context, job *core.Job, err error)

// Queue is a durable job queue over a storage.JobStore. Jobs survive process
// restarts; dispatch runs on a bounded ants pool and each job runs to
// completion on one worker slot.
type Queue struct {
	jobs       storage.JobStore
	items      storage.ItemStore
	handler    Handler
	pool       *ants.Pool
	deadLetter DeadLetterFunc
	logger     *slog.Logger

	concurrency  int
	maxAttempts  int
	baseDelay    time.Duration
	pollInterval time.Duration
	keepFinished int
	maxFinished  time.Duration

	mu       sync.Mutex
	inflight map[core.ID]struct{}
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	stopped  bool
}

// Option configures a Queue.
type Option func(*Queue) error

// WithConcurrency sets the worker pool size. Default is 5.
func WithConcurrency(n int) Option {
	return func(q *Queue) error {
		if n < 1 {
			n = 1
		}
		q.concurrency = n
		return nil
	}
}

// WithMaxAttempts sets how many times a job may run before going dead.
// Default is 3.
func WithMaxAttempts(n int) Option {
	return func(q *Queue) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		q.maxAttempts = n
		return nil
	}
}

// WithBaseDelay sets the base retry delay. A job that has failed n times is
// rescheduled baseDelay * 2^n in the future. Default is 5 seconds.
func WithBaseDelay(d time.Duration) Option {
	return func(q *Queue) error {
		if d < 0 {
			d = 0
		}
		q.baseDelay = d
		return nil
	}
}

// WithPollInterval sets how often Start checks for due jobs. Default is 1 second.
func WithPollInterval(d time.Duration) Option {
	return func(q *Queue) error {
		if d <= 0 {
			d = time.Second
		}
		q.pollInterval = d
		return nil
	}
}

// WithDeadLetter sets the callback invoked when a job goes dead.
func WithDeadLetter(fn DeadLetterFunc) Option {
	return func(q *Queue) error {
		q.deadLetter = fn
		return nil
	}
}

// WithRetention bounds how many finished (done or dead) jobs are kept and for
// how long. Defaults keep the newest 100 for 7 days.
func WithRetention(keep int, maxAge time.Duration) Option {
	return func(q *Queue) error {
		q.keepFinished = keep
		q.maxFinished = maxAge
		return nil
	}
}

// WithItemStore lets the queue reset an item's status to pending when the
// item is re-enqueued, so a retried failed item re-enters the lifecycle at
// the start rather than jumping straight to processing.
func WithItemStore(items storage.ItemStore) Option {
	return func(q *Queue) error {
		q.items = items
		return nil
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) error {
		if logger == nil {
			logger = slog.Default()
		}
		q.logger = logger
		return nil
	}
}

// New creates a queue over the given job store and handler.
func New(jobs storage.JobStore, handler Handler, opts ...Option) (*Queue, error) {
	if jobs == nil {
		return nil, ErrJobStoreRequired
	}
	if handler == nil {
		return nil, ErrHandlerRequired
	}

	q := &Queue{
		jobs:         jobs,
		handler:      handler,
		logger:       slog.Default().With("component", "queue"),
		concurrency:  5,
		maxAttempts:  3,
		baseDelay:    5 * time.Second,
		pollInterval: time.Second,
		keepFinished: 100,
		maxFinished:  7 * 24 * time.Hour,
		inflight:     make(map[core.ID]struct{}),
	}
	for _, opt := range opts {
		if err := opt(q); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(q.concurrency)
	if err != nil {
		return nil, err
	}
	q.pool = pool

	return q, nil
}

// Enqueue records an enrichment job for the item. The job ID is derived from
// the item ID, so enqueueing the same item twice overwrites rather than
// duplicates; this also resets a dead job for manual retry. With an item
// store configured, the item itself goes back to pending as well.
func (q *Queue) Enqueue(ctx context.Context, itemID core.ID, kind core.ItemKind) error {
	q.mu.Lock()
	stopped := q.stopped
	q.mu.Unlock()
	if stopped {
		return ErrQueueStopped
	}

	if err := q.resetItem(ctx, itemID); err != nil {
		return err
	}

	now := time.Now().UTC()
	job := &core.Job{
		Id:        core.JobIDForItem(itemID),
		ItemId:    itemID,
		Kind:      kind,
		Attempt:   0,
		State:     core.JobReady,
		NextRunAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.jobs.PutJob(ctx, job); err != nil {
		return err
	}

	q.logger.Debug("job enqueued", "job", job.Id, "item", itemID, "kind", kind)
	return nil
}

// resetItem puts a re-enqueued item back at the start of the lifecycle.
// Without it a retried failed item would move failed -> processing.
func (q *Queue) resetItem(ctx context.Context, itemID core.ID) error {
	if q.items == nil {
		return nil
	}
	item, err := q.items.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if item.Status == core.StatusPending {
		return nil
	}
	status := core.StatusPending
	_, err = q.items.UpdateItem(ctx, itemID, core.ItemPatch{Status: &status})
	return err
}

// Start launches the polling loop. Jobs whose NextRunAt has passed are
// dispatched to the worker pool. Start returns immediately; call Stop to
// shut down gracefully.
func (q *Queue) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)

	q.mu.Lock()
	q.cancel = cancel
	q.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		ticker := time.NewTicker(q.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if err := q.dispatchDue(loopCtx); err != nil {
					q.logger.Error("error dispatching due jobs", "err", err)
				}
			}
		}
	}()
}

// Stop halts dispatch, waits for in-flight jobs to finish, and releases the
// worker pool. The queue should not be used after Stop.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	cancel := q.cancel
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	q.wg.Wait()
	q.pool.Release()
}

// Drain synchronously processes due jobs until none remain. Jobs rescheduled
// into the future by backoff are not waited for. Used by the CLI's one-shot
// process command and by tests.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		due, err := q.jobs.DueJobs(ctx, time.Now().UTC(), q.concurrency)
		if err != nil {
			return err
		}
		if len(due) == 0 {
			return nil
		}
		for _, job := range due {
			q.runJob(ctx, job)
		}
	}
}

// dispatchDue submits due jobs to the pool, skipping those already in flight.
func (q *Queue) dispatchDue(ctx context.Context) error {
	due, err := q.jobs.DueJobs(ctx, time.Now().UTC(), q.concurrency*2)
	if err != nil {
		return err
	}

	for _, job := range due {
		q.mu.Lock()
		if _, busy := q.inflight[job.Id]; busy {
			q.mu.Unlock()
			continue
		}
		q.inflight[job.Id] = struct{}{}
		q.mu.Unlock()

		job := job
		q.wg.Add(1)
		if err := q.pool.Submit(func() {
			defer q.wg.Done()
			defer func() {
				q.mu.Lock()
				delete(q.inflight, job.Id)
				q.mu.Unlock()
			}()
			q.runJob(ctx, job)
		}); err != nil {
			q.wg.Done()
			q.mu.Lock()
			delete(q.inflight, job.Id)
			q.mu.Unlock()
			return err
		}
	}
	return nil
}

// runJob executes one job and records the resulting state transition.
func (q *Queue) runJob(ctx context.Context, job *core.Job) {
	job.State = core.JobRunning
	job.UpdatedAt = time.Now().UTC()
	if err := q.jobs.UpdateJob(ctx, job); err != nil {
		q.logger.Error("error marking job running", "job", job.Id, "err", err)
		return
	}

	handlerErr := q.handler(ctx, job)
	now := time.Now().UTC()
	job.UpdatedAt = now

	switch {
	case handlerErr == nil:
		job.State = core.JobDone
		job.LastError = ""
		q.logger.Debug("job done", "job", job.Id, "item", job.ItemId)

	case IsPermanent(handlerErr) || job.Attempt+1 >= q.maxAttempts:
		job.Attempt++
		job.State = core.JobDead
		job.LastError = handlerErr.Error()
		q.logger.Warn("job dead", "job", job.Id, "item", job.ItemId,
			"attempts", job.Attempt, "err", handlerErr)

	default:
		job.Attempt++
		job.State = core.JobReady
		job.LastError = handlerErr.Error()
		job.NextRunAt = now.Add(q.backoff(job.Attempt))
		q.logger.Info("job rescheduled", "job", job.Id, "item", job.ItemId,
			"attempt", job.Attempt, "nextRunAt", job.NextRunAt, "err", handlerErr)
	}

	if err := q.jobs.UpdateJob(ctx, job); err != nil {
		q.logger.Error("error recording job state", "job", job.Id, "err", err)
		return
	}

	if job.State == core.JobDead && q.deadLetter != nil {
		q.deadLetter(ctx, job, handlerErr)
	}
	if job.State == core.JobDone || job.State == core.JobDead {
		if _, err := q.jobs.PruneFinished(ctx, q.keepFinished, q.maxFinished); err != nil {
			q.logger.Error("error pruning finished jobs", "err", err)
		}
	}
}

// backoff returns the delay before the given attempt count runs again.
func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
