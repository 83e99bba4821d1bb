package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Sourdough Starter Guide</title>
  <meta name="description" content="How to keep a sourdough starter alive.">
  <meta property="og:site_name" content="Bread Journal">
</head>
<body>
  <nav>Home | About | Contact</nav>
  <article>
    <h1>Sourdough Starter Guide</h1>
    <p>A sourdough starter is a living culture of flour and water. Feed it
    daily with equal parts of each and keep it somewhere warm. Within a week
    it should double in size a few hours after feeding, which means it is
    ready to bake with.</p>
    <p>If the starter smells like acetone it is hungry. Discard half and feed
    it more often. A healthy starter smells pleasantly sour, like yogurt.</p>
  </article>
  <footer>Copyright Bread Journal</footer>
</body>
</html>`

func TestFetchExtractsReadableContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	fetcher := NewPageFetcher()
	meta, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Sourdough Starter Guide", meta.Title)
	assert.Contains(t, meta.Text, "living culture of flour and water")
	assert.NotContains(t, meta.Text, "Home | About | Contact", "navigation boilerplate should be stripped")
	assert.Contains(t, meta.AnchorHTML, `<a href="`+server.URL)
	assert.Contains(t, meta.AnchorHTML, "Sourdough Starter Guide</a>")
}

func TestFetchServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewPageFetcher()
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	fetcher := NewPageFetcher()
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}

func TestFetchTimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	fetcher := NewPageFetcher(WithTimeout(50 * time.Millisecond))
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestFetchEmptyURL(t *testing.T) {
	fetcher := NewPageFetcher()
	_, err := fetcher.Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestFetchEscapesAnchorTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Save &lt;script&gt; tags</title></head>` +
			`<body><article><p>Body text long enough for extraction to keep going here.</p></article></body></html>`))
	}))
	defer server.Close()

	fetcher := NewPageFetcher()
	meta, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.NotContains(t, meta.AnchorHTML, "<script>")
}

func TestSourceHost(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.example.com/a/b", "example.com"},
		{"http://Example.COM", "example.com"},
		{"https://blog.example.org/post", "blog.example.org"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceHost(tt.raw), tt.raw)
	}
}
