package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

func newJob(itemID core.ID, state core.JobState, nextRunAt time.Time) *core.Job {
	return &core.Job{
		Id:        core.JobIDForItem(itemID),
		ItemId:    itemID,
		Kind:      core.KindText,
		State:     state,
		NextRunAt: nextRunAt,
	}
}

func TestPutJob_IdempotentByID(t *testing.T) {
	_, jobs := newTestStores(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := jobs.PutJob(ctx, newJob(1, core.JobReady, now)); err != nil {
		t.Fatalf("Failed to put job: %v", err)
	}
	// Second enqueue of the same item overwrites, it does not duplicate.
	if err := jobs.PutJob(ctx, newJob(1, core.JobReady, now)); err != nil {
		t.Fatalf("Failed to re-put job: %v", err)
	}

	due, err := jobs.DueJobs(ctx, now.Add(time.Second), 0)
	if err != nil {
		t.Fatalf("Failed to list due jobs: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("Expected 1 queue entry after double enqueue, got %d", len(due))
	}
}

func TestPutJob_RejectsMismatchedID(t *testing.T) {
	_, jobs := newTestStores(t)

	bad := &core.Job{Id: 12345, ItemId: 1, Kind: core.KindText, State: core.JobReady}
	err := jobs.PutJob(context.Background(), bad)
	if !errors.Is(err, core.ErrInvalidJob) {
		t.Fatalf("Expected ErrInvalidJob, got %v", err)
	}
}

func TestDueJobs_FiltersAndOrders(t *testing.T) {
	_, jobs := newTestStores(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Due later than "now": must not surface.
	if err := jobs.PutJob(ctx, newJob(1, core.JobReady, now.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	// Due, but running: must not surface.
	if err := jobs.PutJob(ctx, newJob(2, core.JobRunning, now.Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}
	// Two due ready jobs with different NextRunAt.
	if err := jobs.PutJob(ctx, newJob(3, core.JobReady, now.Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}
	if err := jobs.PutJob(ctx, newJob(4, core.JobReady, now.Add(-2*time.Minute))); err != nil {
		t.Fatal(err)
	}

	due, err := jobs.DueJobs(ctx, now, 0)
	if err != nil {
		t.Fatalf("Failed to list due jobs: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("Expected 2 due jobs, got %d", len(due))
	}
	if due[0].ItemId != 4 || due[1].ItemId != 3 {
		t.Errorf("Expected NextRunAt ascending order, got items %d, %d", due[0].ItemId, due[1].ItemId)
	}
}

func TestUpdateJob_NotFound(t *testing.T) {
	_, jobs := newTestStores(t)

	err := jobs.UpdateJob(context.Background(), newJob(99, core.JobReady, time.Now()))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestPruneFinished(t *testing.T) {
	_, jobs := newTestStores(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// One ready job must survive any prune.
	if err := jobs.PutJob(ctx, newJob(1, core.JobReady, now)); err != nil {
		t.Fatal(err)
	}
	for i := core.ID(2); i <= 5; i++ {
		if err := jobs.PutJob(ctx, newJob(i, core.JobDone, now)); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := jobs.PruneFinished(ctx, 2, time.Hour)
	if err != nil {
		t.Fatalf("Failed to prune: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 pruned jobs, got %d", removed)
	}

	if _, err := jobs.GetJob(ctx, core.JobIDForItem(1)); err != nil {
		t.Errorf("Ready job was pruned: %v", err)
	}
}
