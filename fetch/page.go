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


package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 5 << 20 // 5 MiB response cap
	userAgent       = "keepsake/1.0 (+https://github.com/poiesic/keepsake)"
)

var (
	anchorPolicyOnce sync.Once
	anchorPolicy     *bluemonday.Policy
)

// anchorHTMLPolicy returns a singleton bluemonday policy that permits only
// <a href> with http(s) targets. Everything else is stripped.
func anchorHTMLPolicy() *bluemonday.Policy {
	anchorPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowAttrs("href").OnElements("a")
		policy.AllowURLSchemes("http", "https")
		policy.RequireParseableURLs(true)
		anchorPolicy = policy
	})
	return anchorPolicy
}

// PageMetadata is the distilled result of fetching a web page.
type PageMetadata struct {
	// Title is the extracted page title.
	Title string

	// Description is the page's summary metadata, when present.
	Description string

	// SiteName is the publishing site's name, when present.
	SiteName string

	// ImageURL is the page's primary image, when present.
	ImageURL string

	// Text is the boilerplate-stripped article text.
	Text string

	// AnchorHTML is a sanitized <a> element linking to the page,
	// suitable for embedding in rendered output.
	AnchorHTML string
}

// PageFetcher retrieves web pages and extracts their readable content.
type PageFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

// PageOption configures a PageFetcher.
type PageOption func(*PageFetcher)

// WithTimeout sets the per-request timeout. Default is 10 seconds.
func WithTimeout(d time.Duration) PageOption {
	return func(f *PageFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithMaxBytes caps how much of a response body is read. Default is 5 MiB.
func WithMaxBytes(n int64) PageOption {
	return func(f *PageFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client. The client's own
// timeout is preserved.
func WithHTTPClient(client *http.Client) PageOption {
	return func(f *PageFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// NewPageFetcher creates a page fetcher with bounded timeout and body size.
func NewPageFetcher(opts ...PageOption) *PageFetcher {
	f := &PageFetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		maxBytes: defaultMaxBytes,
		logger:   slog.Default().With("component", "page-fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves rawURL and extracts its readable content. Network errors,
// timeouts, and 5xx responses come back wrapped in TransientError so callers
// can retry; client errors (4xx) are permanent.
func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*PageMetadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("page fetch failed", "url", rawURL, "err", err)
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &TransientError{Err: fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, f.maxBytes)
	article, err := readability.FromReader(body, parsed)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rawURL, err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = SourceHost(rawURL)
	}

	meta := &PageMetadata{
		Title:       title,
		Description: strings.TrimSpace(article.Excerpt),
		SiteName:    strings.TrimSpace(article.SiteName),
		ImageURL:    article.Image,
		Text:        strings.TrimSpace(article.TextContent),
		AnchorHTML:  anchorHTML(rawURL, title),
	}

	f.logger.Debug("page fetched",
		"url", rawURL,
		"title", meta.Title,
		"textLength", len(meta.Text))
	return meta, nil
}

// anchorHTML builds a sanitized anchor element for the page.
func anchorHTML(rawURL, title string) string {
	if title == "" {
		title = SourceHost(rawURL)
	}
	raw := fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(rawURL), html.EscapeString(title))
	return anchorHTMLPolicy().Sanitize(raw)
}

// SourceHost returns the host of rawURL with any leading "www." stripped.
// Returns the input unchanged when it does not parse as a URL with a host.
func SourceHost(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}
