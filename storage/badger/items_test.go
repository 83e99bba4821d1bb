package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

func newTestStores(t *testing.T) (storage.ItemStore, storage.JobStore) {
	t.Helper()
	items, jobs, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	t.Cleanup(func() {
		jobs.Close()
		items.Close()
		backend.Close()
	})
	return items, jobs
}

func TestItemBasics(t *testing.T) {
	items, _ := newTestStores(t)
	ctx := context.Background()

	item := &core.Item{
		Kind:   core.KindText,
		Title:  "Grocery notes",
		Status: core.StatusPending,
	}
	content := &core.Content{Text: "buy oat milk and coffee"}

	added, err := items.AddItem(ctx, item, content)
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if added.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}

	retrieved, err := items.GetItem(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get item: %v", err)
	}
	if retrieved.Title != "Grocery notes" {
		t.Fatalf("Expected 'Grocery notes', got '%s'", retrieved.Title)
	}

	detail, err := items.GetDetail(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get detail: %v", err)
	}
	if detail.Content.Text != "buy oat milk and coffee" {
		t.Fatalf("Unexpected content text: %q", detail.Content.Text)
	}
	if detail.Content.ItemId != added.Id {
		t.Fatalf("Content not linked to item: %d", detail.Content.ItemId)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	items, _ := newTestStores(t)

	_, err := items.GetItem(context.Background(), 9999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateItem_Patch(t *testing.T) {
	items, _ := newTestStores(t)
	ctx := context.Background()

	item, err := items.AddItem(ctx, &core.Item{
		Kind:   core.KindText,
		Title:  "untitled",
		Status: core.StatusPending,
	}, nil)
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}

	summary := "a short summary"
	status := core.StatusProcessed
	updated, err := items.UpdateItem(ctx, item.Id, core.ItemPatch{
		Summary: &summary,
		Status:  &status,
	})
	if err != nil {
		t.Fatalf("Failed to update item: %v", err)
	}

	if updated.Summary != summary {
		t.Errorf("Summary not patched: %q", updated.Summary)
	}
	if updated.Status != core.StatusProcessed {
		t.Errorf("Status not patched: %v", updated.Status)
	}
	// Unpatched fields untouched
	if updated.Title != "untitled" {
		t.Errorf("Title changed unexpectedly: %q", updated.Title)
	}
}

func TestUpsertContent_CreatesAndPatches(t *testing.T) {
	items, _ := newTestStores(t)
	ctx := context.Background()

	item, err := items.AddItem(ctx, &core.Item{
		Kind:   core.KindFile,
		Title:  "scan.png",
		Status: core.StatusPending,
	}, nil)
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}

	text := "a photo of a whiteboard"
	content, err := items.UpsertContent(ctx, item.Id, core.ContentPatch{Text: &text})
	if err != nil {
		t.Fatalf("Failed to upsert content: %v", err)
	}
	if content.Text != text {
		t.Fatalf("Unexpected text: %q", content.Text)
	}

	ocr := "Q3 ROADMAP"
	content, err = items.UpsertContent(ctx, item.Id, core.ContentPatch{OCRText: &ocr})
	if err != nil {
		t.Fatalf("Failed to patch content: %v", err)
	}
	if content.OCRText != ocr {
		t.Errorf("OCRText not patched: %q", content.OCRText)
	}
	if content.Text != text {
		t.Errorf("Text lost on partial patch: %q", content.Text)
	}
}

func TestListItems_NewestFirstWithKindFilter(t *testing.T) {
	items, _ := newTestStores(t)
	ctx := context.Background()

	for _, spec := range []struct {
		kind  core.ItemKind
		title string
	}{
		{core.KindText, "first note"},
		{core.KindLink, "a link"},
		{core.KindText, "second note"},
	} {
		item := &core.Item{Kind: spec.kind, Title: spec.title, Status: core.StatusPending}
		if spec.kind == core.KindLink {
			item.SourceURL = "https://example.com"
		}
		if _, err := items.AddItem(ctx, item, nil); err != nil {
			t.Fatalf("Failed to add item: %v", err)
		}
	}

	all, err := items.ListItems(ctx, nil, 0)
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(all))
	}

	kind := core.KindText
	notes, err := items.ListItems(ctx, &kind, 0)
	if err != nil {
		t.Fatalf("Failed to list notes: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("Expected 2 notes, got %d", len(notes))
	}
	if notes[0].Title != "second note" {
		t.Errorf("Expected newest first, got %q", notes[0].Title)
	}
}

func TestDeleteItem_RemovesEverything(t *testing.T) {
	items, _ := newTestStores(t)
	ctx := context.Background()

	item, err := items.AddItem(ctx,
		&core.Item{Kind: core.KindFile, Title: "photo.jpg", Status: core.StatusPending},
		&core.Content{Text: "a dog on a beach"},
		&core.Media{URL: "/files/photo.jpg", Type: core.MediaImage},
	)
	if err != nil {
		t.Fatalf("Failed to add item: %v", err)
	}

	err = items.SetEmbedding(ctx, &core.Embedding{
		ItemId:    item.Id,
		VectorRef: core.VectorIDForItem(item.Id),
	})
	if err != nil {
		t.Fatalf("Failed to set embedding: %v", err)
	}

	if err := items.DeleteItem(ctx, item.Id); err != nil {
		t.Fatalf("Failed to delete item: %v", err)
	}

	if _, err := items.GetItem(ctx, item.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Item survived delete: %v", err)
	}
	if _, err := items.GetEmbedding(ctx, item.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Embedding pointer survived delete: %v", err)
	}

	all, err := items.ListItems(ctx, nil, 0)
	if err != nil {
		t.Fatalf("Failed to list items: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Date index entry survived delete: %d items listed", len(all))
	}
}

func TestMatchKeywords(t *testing.T) {
	items, _ := newTestStores(t)
	ctx := context.Background()

	note, err := items.AddItem(ctx,
		&core.Item{Kind: core.KindText, Title: "Coffee brewing", Status: core.StatusProcessed},
		&core.Content{Text: "v60 pourover ratios for light roasts"},
	)
	if err != nil {
		t.Fatalf("Failed to add note: %v", err)
	}

	_, err = items.AddItem(ctx,
		&core.Item{Kind: core.KindFile, Title: "receipt.png", Status: core.StatusProcessed},
		&core.Content{OCRText: "CAFE coffee x2 TOTAL 7.40"},
		&core.Media{URL: "/files/receipt.png", Type: core.MediaImage},
	)
	if err != nil {
		t.Fatalf("Failed to add file: %v", err)
	}

	t.Run("matches across fields", func(t *testing.T) {
		matches, err := items.MatchKeywords(ctx, []string{"coffee"}, nil, false, 0)
		if err != nil {
			t.Fatalf("MatchKeywords failed: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("Expected 2 matches, got %d", len(matches))
		}
		// Title hit outscores OCR hit.
		if matches[0].ItemId != note.Id {
			t.Errorf("Expected title match ranked first")
		}
		if matches[0].Score != 1.0 {
			t.Errorf("Expected title weight 1.0, got %v", matches[0].Score)
		}
	})

	t.Run("conjunctive across terms", func(t *testing.T) {
		matches, err := items.MatchKeywords(ctx, []string{"coffee", "pourover"}, nil, false, 0)
		if err != nil {
			t.Fatalf("MatchKeywords failed: %v", err)
		}
		if len(matches) != 1 || matches[0].ItemId != note.Id {
			t.Fatalf("Expected only the note to match, got %d matches", len(matches))
		}
	})

	t.Run("kind scope", func(t *testing.T) {
		kind := core.KindFile
		matches, err := items.MatchKeywords(ctx, []string{"coffee"}, &kind, false, 0)
		if err != nil {
			t.Fatalf("MatchKeywords failed: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("Expected 1 match, got %d", len(matches))
		}
	})

	t.Run("image scope", func(t *testing.T) {
		matches, err := items.MatchKeywords(ctx, []string{"coffee"}, nil, true, 0)
		if err != nil {
			t.Fatalf("MatchKeywords failed: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("Expected 1 image match, got %d", len(matches))
		}
	})

	t.Run("no terms rejected", func(t *testing.T) {
		_, err := items.MatchKeywords(ctx, nil, nil, false, 0)
		if !errors.Is(err, storage.ErrInvalidQuery) {
			t.Fatalf("Expected ErrInvalidQuery, got %v", err)
		}
	})
}
