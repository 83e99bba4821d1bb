package keepsake

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/keepsake/ai/mock"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

func openTest(t *testing.T) *Keepsake {
	t.Helper()
	k, err := Open("",
		WithInMemory(),
		WithAIProvider(mock.NewProvider()),
		WithBlobRoot(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, k.Close()) })
	return k
}

func TestCaptureTextEnrichesAndSearches(t *testing.T) {
	k := openTest(t)
	ctx := context.Background()

	item, err := k.CaptureText(ctx, "espresso ratios",
		"A 1:2 brew ratio gives a concentrated shot. Grind finer if it runs fast.")
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, item.Status)
	assert.Equal(t, core.KindText, item.Kind)

	require.NoError(t, k.Process(ctx))

	detail, err := k.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, detail.Item.Status)
	assert.NotEmpty(t, detail.Item.Summary)

	results, err := k.Search(ctx, "espresso", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, item.Id, results[0].Item.Id)
}

func TestCaptureTextDerivesTitle(t *testing.T) {
	k := openTest(t)

	item, err := k.CaptureText(context.Background(), "",
		"Renew the passport\nAppointment needed at the consulate.")
	require.NoError(t, err)
	assert.Equal(t, "Renew the passport", item.Title)
}

func TestCaptureLinkRequiresURL(t *testing.T) {
	k := openTest(t)

	_, err := k.CaptureLink(context.Background(), "broken", "  ")
	assert.ErrorIs(t, err, core.ErrMissingSourceURL)
}

func TestCaptureFileStoresBlobAndEnriches(t *testing.T) {
	k := openTest(t)
	ctx := context.Background()

	data := []byte("not really a png but bytes all the same")
	item, err := k.CaptureFile(ctx, "receipt.png", data, core.MediaImage)
	require.NoError(t, err)

	require.NoError(t, k.Process(ctx))

	detail, err := k.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, detail.Item.Status)
	require.NotNil(t, detail.PrimaryImage())

	stored, err := k.blobs.Get(ctx, detail.PrimaryImage().URL)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// The mock vision model described the image.
	assert.Contains(t, detail.Content.Text, "mock image")
}

func TestCaptureWithoutProviderStillCompletes(t *testing.T) {
	k, err := Open("",
		WithInMemory(),
		WithoutAIProvider(),
		WithBlobRoot(t.TempDir()))
	require.NoError(t, err)
	defer k.Close()
	ctx := context.Background()

	item, err := k.CaptureText(ctx, "plain note", "nothing fancy here at all")
	require.NoError(t, err)
	require.NoError(t, k.Process(ctx))

	detail, err := k.GetItem(ctx, item.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessed, detail.Item.Status)
	assert.NotEmpty(t, detail.Item.Summary)

	// Keyword search still works with no embeddings.
	results, err := k.Search(ctx, "fancy", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, core.SourceKeyword, results[0].Source)
}

func TestDeleteItemRemovesEverything(t *testing.T) {
	k := openTest(t)
	ctx := context.Background()

	item, err := k.CaptureFile(ctx, "photo.png", []byte("pixels"), core.MediaImage)
	require.NoError(t, err)
	require.NoError(t, k.Process(ctx))

	detail, err := k.GetItem(ctx, item.Id)
	require.NoError(t, err)
	ref := detail.PrimaryImage().URL
	assert.Equal(t, 1, k.index.Count())

	require.NoError(t, k.DeleteItem(ctx, item.Id))

	_, err = k.GetItem(ctx, item.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, k.index.Count())
	_, err = k.blobs.Get(ctx, ref)
	assert.Error(t, err)
}

func TestDeleteMissingItem(t *testing.T) {
	k := openTest(t)

	err := k.DeleteItem(context.Background(), core.ID(999999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListItemsFiltersByKind(t *testing.T) {
	k := openTest(t)
	ctx := context.Background()

	_, err := k.CaptureText(ctx, "a note", "note body")
	require.NoError(t, err)
	_, err = k.CaptureLink(ctx, "a link", "https://example.com/post")
	require.NoError(t, err)

	kind := core.KindText
	items, err := k.ListItems(ctx, &kind, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a note", items[0].Title)
}

func TestReindexAfterReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keepsake.db")
	blobs := filepath.Join(dir, "blobs")
	ctx := context.Background()

	k, err := Open(path, WithAIProvider(mock.NewProvider()), WithBlobRoot(blobs))
	require.NoError(t, err)

	item, err := k.CaptureText(ctx, "reindex me", "this note should survive a restart")
	require.NoError(t, err)
	require.NoError(t, k.Process(ctx))
	assert.Equal(t, 1, k.index.Count())
	require.NoError(t, k.Close())

	k, err = Open(path, WithAIProvider(mock.NewProvider()), WithBlobRoot(blobs))
	require.NoError(t, err)
	defer k.Close()

	assert.Equal(t, 1, k.index.Count())

	results, err := k.Search(ctx, "restart survival", 10, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, item.Id, results[0].Item.Id)
}

func TestCaptureIsIdempotentPerContent(t *testing.T) {
	k := openTest(t)
	ctx := context.Background()

	first, err := k.CaptureText(ctx, "dup", "same body")
	require.NoError(t, err)
	second, err := k.CaptureText(ctx, "dup", "same body")
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)

	items, err := k.ListItems(ctx, nil, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	k := openTest(t)

	_, err := k.Search(context.Background(), "   ", 10, 0)
	assert.Error(t, err)
}
