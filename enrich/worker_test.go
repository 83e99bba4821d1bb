package enrich

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/ai/mock"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/fetch"
	"github.com/poiesic/keepsake/queue"
	"github.com/poiesic/keepsake/storage"
	"github.com/poiesic/keepsake/storage/badger"
	"github.com/poiesic/keepsake/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	items    storage.ItemStore
	index    *vectorindex.Memory
	provider *mock.Provider
	worker   *Worker
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	items, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewProvider().(*mock.Provider)
	index := vectorindex.NewMemory()
	worker, err := NewWorker(items, ai.NewAdapter(provider, nil), index, opts...)
	require.NoError(t, err)

	return &testEnv{items: items, index: index, provider: provider, worker: worker}
}

func (e *testEnv) addItem(t *testing.T, item *core.Item, content *core.Content, media ...*core.Media) *core.Item {
	t.Helper()
	added, err := e.items.AddItem(context.Background(), item, content, media...)
	require.NoError(t, err)
	return added
}

func jobFor(item *core.Item) *core.Job {
	now := time.Now().UTC()
	return &core.Job{
		Id:        core.JobIDForItem(item.Id),
		ItemId:    item.Id,
		Kind:      item.Kind,
		State:     core.JobReady,
		NextRunAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestHandleMissingItemIsPermanent(t *testing.T) {
	env := newTestEnv(t)

	job := jobFor(&core.Item{Id: core.IDFromContent("nonexistent")})
	err := env.worker.Handle(context.Background(), job)
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
}

func TestHandleTextItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("note-1"), Kind: core.KindText, Title: "Garden notes", Status: core.StatusPending},
		&core.Content{Text: "Planted tomatoes along the south fence today. They need water every other day until established."})

	require.NoError(t, env.worker.Handle(ctx, jobFor(item)))

	got, err := env.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, got.Status)
	assert.NotEmpty(t, got.Summary, "summary should be written back")

	// Embedding recorded both in the index and as a pointer.
	assert.Equal(t, 1, env.index.Count())
	embedding, err := env.items.GetEmbedding(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.VectorIDForItem(item.Id), embedding.VectorRef)
}

func TestHandleTextItemUnconfiguredAdapter(t *testing.T) {
	items, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	index := vectorindex.NewMemory()
	worker, err := NewWorker(items, ai.NewAdapter(nil, nil), index)
	require.NoError(t, err)
	ctx := context.Background()

	item, err := items.AddItem(ctx,
		&core.Item{Id: core.IDFromContent("note-2"), Kind: core.KindText, Title: "Offline note", Status: core.StatusPending},
		&core.Content{Text: "First sentence. Second sentence that will be cut."})
	require.NoError(t, err)

	require.NoError(t, worker.Handle(ctx, jobFor(item)))

	got, err := items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, got.Status, "no provider must not block the pipeline")
	assert.NotEmpty(t, got.Summary, "truncation fallback still yields a summary")
	assert.Equal(t, 0, index.Count(), "embedding is skipped without a provider")
}

func TestHandleLinkItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Kneading Basics</title>` +
			`<meta property="og:image" content="https://example.com/loaf.jpg">` +
			`</head><body><article><p>Kneading develops gluten. Work the dough for ten minutes ` +
			`until it turns smooth and elastic, then let it rest.</p></article></body></html>`))
	}))
	defer server.Close()

	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("link-1"), Kind: core.KindLink, Title: "saved link", SourceURL: server.URL, Status: core.StatusPending},
		&core.Content{})

	require.NoError(t, env.worker.Handle(ctx, jobFor(item)))

	detail, err := env.items.GetDetail(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, detail.Item.Status)
	assert.Equal(t, "Kneading Basics", detail.Item.Title)
	assert.NotEmpty(t, detail.Item.Summary)
	assert.Contains(t, detail.Content.Text, "gluten")
	assert.Contains(t, detail.Content.HTML, "<a href=")

	image := detail.PrimaryImage()
	require.NotNil(t, image, "page preview image should be attached")
	assert.Equal(t, "https://example.com/loaf.jpg", image.URL)
}

func TestHandleLinkTransientFailureResetsToPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "flaky upstream", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("link-2"), Kind: core.KindLink, SourceURL: server.URL, Status: core.StatusPending},
		&core.Content{})

	job := jobFor(item) // attempt 0 of 3: not final
	err := env.worker.Handle(ctx, job)
	require.Error(t, err)
	assert.True(t, fetch.IsTransient(err))

	got, err := env.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, got.Status, "item must never stay in processing")
}

func TestHandleLinkFinalAttemptFallsBackToRawURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "flaky upstream", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("link-3"), Kind: core.KindLink, SourceURL: server.URL, Status: core.StatusPending},
		&core.Content{})

	job := jobFor(item)
	job.Attempt = 2 // third and final run
	require.NoError(t, env.worker.Handle(ctx, job))

	got, err := env.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, got.Status)
	assert.Equal(t, server.URL, got.Summary, "raw URL becomes the summary")
	assert.Equal(t, server.URL, got.Title, "raw URL becomes the title when none was set")
}

func TestHandleLinkWithoutURLIsPermanent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("link-4"), Kind: core.KindLink, Status: core.StatusPending},
		&core.Content{})

	err := env.worker.Handle(ctx, jobFor(item))
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
	assert.ErrorIs(t, err, ErrMissingSourceURL)
}

func newImageEnv(t *testing.T) (*testEnv, *fetch.DirStore) {
	t.Helper()
	blobs, err := fetch.NewDirStore(t.TempDir())
	require.NoError(t, err)

	items, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewProvider().(*mock.Provider)
	index := vectorindex.NewMemory()
	worker, err := NewWorker(items, ai.NewAdapter(provider, nil), index, WithBlobStore(blobs))
	require.NoError(t, err)

	return &testEnv{items: items, index: index, provider: provider, worker: worker}, blobs
}

func addImageItem(t *testing.T, env *testEnv, blobs *fetch.DirStore, name string) *core.Item {
	t.Helper()
	id := core.IDFromContent(name)
	ref, err := blobs.Put(context.Background(), id, name+".png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)

	return env.addItem(t,
		&core.Item{Id: id, Kind: core.KindFile, Title: name, Status: core.StatusPending},
		&core.Content{},
		&core.Media{URL: ref, Type: core.MediaImage})
}

func TestHandleImageVisionWins(t *testing.T) {
	env, blobs := newImageEnv(t)
	ctx := context.Background()

	env.provider.MockVision().DescribeImageFunc = func(ctx context.Context, mimeType string, data []byte) (string, error) {
		return "A receipt from the hardware store listing lumber and screws.", nil
	}

	item := addImageItem(t, env, blobs, "receipt")
	require.NoError(t, env.worker.Handle(ctx, jobFor(item)))

	detail, err := env.items.GetDetail(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, detail.Item.Status)
	assert.Equal(t, "A receipt from the hardware store listing lumber and screws.", detail.Content.Text)
	assert.NotEmpty(t, detail.Item.Summary)
}

func TestHandleImageOCRFailsVisionSucceeds(t *testing.T) {
	env, blobs := newImageEnv(t)
	ctx := context.Background()

	env.worker.engine = failingOCR{}
	env.provider.MockVision().DescribeImageFunc = func(ctx context.Context, mimeType string, data []byte) (string, error) {
		return "A whiteboard covered in project milestones.", nil
	}

	item := addImageItem(t, env, blobs, "whiteboard")
	require.NoError(t, env.worker.Handle(ctx, jobFor(item)),
		"one branch failing must not fail the join")

	detail, err := env.items.GetDetail(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, "A whiteboard covered in project milestones.", detail.Content.Text)
	assert.Empty(t, detail.Content.OCRText)
}

func TestHandleImageVisionFailsOCRSucceeds(t *testing.T) {
	env, blobs := newImageEnv(t)
	ctx := context.Background()

	env.worker.engine = fixedOCR{text: "TOTAL $42.17"}
	env.provider.MockVision().DescribeImageFunc = func(ctx context.Context, mimeType string, data []byte) (string, error) {
		return "", errors.New("vision model offline")
	}

	item := addImageItem(t, env, blobs, "total")
	require.NoError(t, env.worker.Handle(ctx, jobFor(item)))

	detail, err := env.items.GetDetail(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL $42.17", detail.Content.Text, "OCR text is the fallback primary text")
	assert.Equal(t, "TOTAL $42.17", detail.Content.OCRText, "OCR text is always kept separately")
}

func TestHandleImageBothBranchesFail(t *testing.T) {
	env, blobs := newImageEnv(t)
	ctx := context.Background()

	env.worker.engine = failingOCR{}
	env.provider.MockVision().DescribeImageFunc = func(ctx context.Context, mimeType string, data []byte) (string, error) {
		return "", errors.New("vision model offline")
	}

	item := addImageItem(t, env, blobs, "mystery")
	require.NoError(t, env.worker.Handle(ctx, jobFor(item)))

	detail, err := env.items.GetDetail(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, "image file: mystery", detail.Content.Text)
}

func TestHandleNonImageFileKeepsPlaceholder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("report"), Kind: core.KindFile, Title: "quarterly report", Status: core.StatusPending},
		&core.Content{},
		&core.Media{URL: "report.pdf", Type: core.MediaDocument})

	require.NoError(t, env.worker.Handle(ctx, jobFor(item)))

	detail, err := env.items.GetDetail(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, detail.Item.Status)
	assert.Equal(t, "image file: quarterly report", detail.Content.Text)
}

func TestHandleDeadLetterMarksItemFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.addItem(t,
		&core.Item{Id: core.IDFromContent("doomed"), Kind: core.KindText, Status: core.StatusPending},
		&core.Content{Text: "text"})

	job := jobFor(item)
	job.Attempt = 3
	env.worker.HandleDeadLetter(ctx, job, errors.New("gave up"))

	got, err := env.items.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, got.Status)
}

// failingOCR always errors; fixedOCR returns a canned string.
type failingOCR struct{}

func (failingOCR) ExtractText(ctx context.Context, image []byte) (string, error) {
	return "", errors.New("tesseract unavailable")
}

type fixedOCR struct{ text string }

func (f fixedOCR) ExtractText(ctx context.Context, image []byte) (string, error) {
	return f.text, nil
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	multibyte := strings.Repeat("é", 10) // 2 bytes each

	cut := truncate(multibyte, 5)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 4, len(cut), "cut lands on the previous rune boundary")

	assert.Equal(t, "abc", truncate("abc", 5), "short strings pass through")
	assert.Equal(t, "abc", truncate("abcdef", 3))
}
