package mock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The enrichment worker calls Summarize and Classify concurrently against the
// same provider, so the doubles must honor the interface's thread-safety
// contract. These run the mocks from many goroutines; the race detector
// catches any unguarded state.

func TestChatConcurrentCalls(t *testing.T) {
	chat := NewChat()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := chat.Summarize(ctx, "First sentence. Second sentence.")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := chat.Classify(ctx, "a note about coffee")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, chat.CallCount())
}

func TestEmbedderConcurrentCalls(t *testing.T) {
	embedder := NewEmbedder()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			vec, err := embedder.EmbedText(ctx, "espresso ratios")
			assert.NoError(t, err)
			assert.Len(t, vec, 384)
		}()
		go func() {
			defer wg.Done()
			vecs, err := embedder.EmbedTexts(ctx, []string{"a", "b"})
			assert.NoError(t, err)
			assert.Len(t, vecs, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, embedder.CallCount())
}

func TestVisionConcurrentCalls(t *testing.T) {
	vision := NewVision()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			desc, err := vision.DescribeImage(ctx, "image/png", []byte{1, 2, 3})
			require.NoError(t, err)
			assert.NotEmpty(t, desc)
		}()
	}
	wg.Wait()

	assert.Equal(t, 25, vision.CallCount())
}
