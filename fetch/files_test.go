package fetch

import (
	"context"
	"testing"

	"github.com/poiesic/keepsake/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStoreRoundTrip(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	id := core.IDFromContent("receipt.png")
	ref, err := store.Put(ctx, id, "receipt.PNG", []byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, err)
	assert.Contains(t, ref, ".png", "extension should be preserved lowercase")

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, data)
}

func TestDirStoreGetMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "12345.png")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestDirStoreDelete(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Put(ctx, core.IDFromContent("doc"), "doc.pdf", []byte("pdf bytes"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, ref))
	_, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrBlobNotFound)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, ref))
}

func TestDirStoreRejectsEscapingRefs(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, ref := range []string{"", "../etc/passwd", "/etc/passwd"} {
		_, err := store.Get(ctx, ref)
		assert.Error(t, err, "ref %q must be rejected", ref)
	}
}
