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


// Package keepsake captures heterogeneous content (notes, links, files),
// enriches it asynchronously with summaries, classifications, OCR, and
// embeddings, and retrieves it through hybrid semantic plus keyword search.
// Keepsake is the top-level facade wiring storage, the job queue, the
// enrichment worker, and the searcher into one handle.
package keepsake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/ai/openai"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/enrich"
	"github.com/poiesic/keepsake/fetch"
	"github.com/poiesic/keepsake/ocr"
	"github.com/poiesic/keepsake/queue"
	"github.com/poiesic/keepsake/reembed"
	"github.com/poiesic/keepsake/search"
	"github.com/poiesic/keepsake/storage"
	"github.com/poiesic/keepsake/storage/badger"
	"github.com/poiesic/keepsake/vectorindex"
)

// Keepsake is the application facade over the capture, enrichment, and
// search subsystems.
type Keepsake struct {
	backend  *badger.Backend
	items    storage.ItemStore
	jobs     storage.JobStore
	index    vectorindex.Index
	adapter  *ai.Adapter
	blobs    fetch.BlobStore
	queue    *queue.Queue
	worker   *enrich.Worker
	searcher *search.Searcher
	logger   *slog.Logger
}

// KeepsakeOption configures Open.
type KeepsakeOption func(*keepsakeOptions)

type keepsakeOptions struct {
	aiConfig    *ai.Config
	secondary   *ai.Config
	provider    ai.Provider
	blobRoot    string
	ocrEngine   ocr.Engine
	inMemory    bool
	concurrency int
	noProvider  bool
}

// WithAIConfig sets the primary AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) KeepsakeOption {
	return func(o *keepsakeOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithSecondaryAIConfig configures a fallback provider consulted when the
// primary reports a model unavailable.
func WithSecondaryAIConfig(cfg *ai.Config) KeepsakeOption {
	return func(o *keepsakeOptions) {
		o.secondary = cfg
	}
}

// WithAIProvider injects an already-built provider, bypassing the OpenAI
// client construction. Used by tests with the mock provider.
func WithAIProvider(p ai.Provider) KeepsakeOption {
	return func(o *keepsakeOptions) {
		o.provider = p
	}
}

// WithoutAIProvider opens the store with no AI provider at all. Enrichment
// degrades to deterministic fallbacks and search runs keyword-only.
func WithoutAIProvider() KeepsakeOption {
	return func(o *keepsakeOptions) {
		o.noProvider = true
	}
}

// WithBlobRoot sets the directory holding captured file bytes.
// Default is "<dbPath>-blobs".
func WithBlobRoot(root string) KeepsakeOption {
	return func(o *keepsakeOptions) {
		if root != "" {
			o.blobRoot = root
		}
	}
}

// WithOCREngine sets the OCR engine used for image files.
// Default is ocr.Noop.
func WithOCREngine(engine ocr.Engine) KeepsakeOption {
	return func(o *keepsakeOptions) {
		if engine != nil {
			o.ocrEngine = engine
		}
	}
}

// WithInMemory opens an ephemeral store. Used by tests.
func WithInMemory() KeepsakeOption {
	return func(o *keepsakeOptions) {
		o.inMemory = true
	}
}

// WithConcurrency sets the enrichment worker pool size. Default is 5.
func WithConcurrency(n int) KeepsakeOption {
	return func(o *keepsakeOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// Open initializes the store at filePath and wires the full pipeline.
func Open(filePath string, opts ...KeepsakeOption) (*Keepsake, error) {
	options := &keepsakeOptions{
		aiConfig:    ai.DefaultConfig(),
		blobRoot:    filePath + "-blobs",
		ocrEngine:   ocr.Noop{},
		concurrency: 5,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	items, err := badger.NewItemStore(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	jobs, err := badger.NewJobStore(backend)
	if err != nil {
		items.Close()
		backend.Close()
		return nil, err
	}

	adapter, err := buildAdapter(options)
	if err != nil {
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	blobs, err := fetch.NewDirStore(options.blobRoot)
	if err != nil {
		adapter.Close()
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	index := vectorindex.NewMemory()

	worker, err := enrich.NewWorker(items, adapter, index,
		enrich.WithBlobStore(blobs),
		enrich.WithOCR(options.ocrEngine))
	if err != nil {
		adapter.Close()
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	q, err := queue.New(jobs, worker.Handle,
		queue.WithConcurrency(options.concurrency),
		queue.WithItemStore(items),
		queue.WithDeadLetter(worker.HandleDeadLetter))
	if err != nil {
		adapter.Close()
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(items, adapter, index)
	if err != nil {
		q.Stop()
		adapter.Close()
		jobs.Close()
		items.Close()
		backend.Close()
		return nil, err
	}

	k := &Keepsake{
		backend:  backend,
		items:    items,
		jobs:     jobs,
		index:    index,
		adapter:  adapter,
		blobs:    blobs,
		queue:    q,
		worker:   worker,
		searcher: searcher,
		logger:   slog.Default(),
	}

	if err := k.reindex(context.Background()); err != nil {
		k.Close()
		return nil, err
	}

	return k, nil
}

func buildAdapter(options *keepsakeOptions) (*ai.Adapter, error) {
	if options.noProvider {
		return ai.NewAdapter(nil, nil), nil
	}
	if options.provider != nil {
		return ai.NewAdapter(options.provider, nil), nil
	}

	primary, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		return nil, err
	}

	var secondary ai.Provider
	if options.secondary != nil {
		secondary, err = openai.NewProvider(options.secondary)
		if err != nil {
			primary.Close()
			return nil, err
		}
	}

	return ai.NewAdapter(primary, secondary), nil
}

// reindex rebuilds the in-memory vector index from stored embeddings.
// Items whose embedding text is gone are re-embedded lazily on their next
// enrichment instead.
func (k *Keepsake) reindex(ctx context.Context) error {
	if !k.adapter.Available() {
		return nil
	}

	items, err := k.items.ListItems(ctx, nil, 0)
	if err != nil {
		return err
	}

	reindexed := 0
	for _, item := range items {
		if _, err := k.items.GetEmbedding(ctx, item.Id); err != nil {
			continue
		}
		if err := k.worker.Reembed(ctx, item.Id); err != nil {
			k.logger.Warn("error reindexing item", "item", item.Id, "err", err)
			continue
		}
		reindexed++
	}

	if reindexed > 0 {
		k.logger.Info("vector index rebuilt", "items", reindexed)
	}
	return nil
}

// CaptureText stores a note and queues its enrichment. An empty title is
// derived from the first line of the text.
func (k *Keepsake) CaptureText(ctx context.Context, title, text string) (*core.Item, error) {
	if title == "" {
		title = deriveTitle(text)
	}
	item := &core.Item{
		Id:     core.IDFromContent(title + "\x00" + text),
		Kind:   core.KindText,
		Title:  title,
		Status: core.StatusPending,
	}
	return k.addAndEnqueue(ctx, item, &core.Content{Text: text})
}

// CaptureLink stores a web link and queues its enrichment. The title may be
// empty; link processing fills it from the page.
func (k *Keepsake) CaptureLink(ctx context.Context, title, url string) (*core.Item, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, core.ErrMissingSourceURL
	}
	if title == "" {
		if title = fetch.SourceHost(url); title == "" {
			title = url
		}
	}
	item := &core.Item{
		Id:        core.IDFromContent("link\x00" + url),
		Kind:      core.KindLink,
		Title:     title,
		SourceURL: url,
		Status:    core.StatusPending,
	}
	return k.addAndEnqueue(ctx, item, &core.Content{})
}

// CaptureFile stores file bytes and queues enrichment. Images get OCR and a
// vision description; other files stay findable by title.
func (k *Keepsake) CaptureFile(ctx context.Context, name string, data []byte, mediaType core.MediaType) (*core.Item, error) {
	item := &core.Item{
		Id:     core.IDFromContent("file\x00" + name + "\x00" + string(data[:min(len(data), 1024)])),
		Kind:   core.KindFile,
		Title:  name,
		Status: core.StatusPending,
	}
	if err := core.ValidateItem(item); err != nil {
		return nil, err
	}

	ref, err := k.blobs.Put(ctx, item.Id, name, data)
	if err != nil {
		return nil, err
	}

	return k.addAndEnqueue(ctx, item, &core.Content{},
		&core.Media{URL: ref, Type: mediaType})
}

// addAndEnqueue persists a new item and schedules its enrichment. Item IDs
// derive from content, so recapturing the same content returns the existing
// item instead of creating a duplicate.
func (k *Keepsake) addAndEnqueue(ctx context.Context, item *core.Item, content *core.Content, media ...*core.Media) (*core.Item, error) {
	if err := core.ValidateItem(item); err != nil {
		return nil, err
	}

	existing, err := k.items.GetItem(ctx, item.Id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	added, err := k.items.AddItem(ctx, item, content, media...)
	if err != nil {
		return nil, err
	}
	if err := k.queue.Enqueue(ctx, added.Id, added.Kind); err != nil {
		return nil, err
	}
	return added, nil
}

// Search returns up to limit items ranked by relevance to the query.
func (k *Keepsake) Search(ctx context.Context, query string, limit int, minScore float32) ([]*core.SearchResult, error) {
	return k.searcher.Search(ctx, query, limit, minScore)
}

// GetItem retrieves an item with its content and media.
func (k *Keepsake) GetItem(ctx context.Context, id core.ID) (*core.ItemDetail, error) {
	return k.items.GetDetail(ctx, id)
}

// ListItems returns items newest first, optionally filtered by kind.
func (k *Keepsake) ListItems(ctx context.Context, kind *core.ItemKind, limit int) ([]*core.Item, error) {
	return k.items.ListItems(ctx, kind, limit)
}

// DeleteItem removes an item, its stored blobs, its embedding pointer, and
// its vector index record.
func (k *Keepsake) DeleteItem(ctx context.Context, id core.ID) error {
	detail, err := k.items.GetDetail(ctx, id)
	if err != nil {
		return err
	}

	for _, media := range detail.Media {
		if err := k.blobs.Delete(ctx, media.URL); err != nil {
			k.logger.Warn("error deleting blob", "item", id, "ref", media.URL, "err", err)
		}
	}

	k.index.Delete(core.VectorIDForItem(id))
	if err := k.jobs.DeleteJob(ctx, core.JobIDForItem(id)); err != nil {
		k.logger.Warn("error deleting job", "item", id, "err", err)
	}
	return k.items.DeleteItem(ctx, id)
}

// Process synchronously drains due enrichment jobs. Used by the CLI's
// one-shot process command.
func (k *Keepsake) Process(ctx context.Context) error {
	return k.queue.Drain(ctx)
}

// Start launches background enrichment. Jobs enqueued by the Capture calls
// are picked up within the queue's poll interval.
func (k *Keepsake) Start(ctx context.Context) {
	k.queue.Start(ctx)
}

// ReembedAll regenerates embeddings for every item, reporting progress to
// the writer. Run it after switching AI backends, whose embedding models
// produce incompatible vectors.
func (k *Keepsake) ReembedAll(ctx context.Context, config *reembed.Config, progress io.Writer) error {
	r, err := reembed.NewReembedder(k.items, k.adapter, k.index, config, progress)
	if err != nil {
		return err
	}
	return r.Run(ctx)
}

// Items exposes the item store for advanced callers.
func (k *Keepsake) Items() storage.ItemStore {
	return k.items
}

// NewSearcher creates a searcher with custom options (e.g. a Monitor) over
// this store's collaborators.
func (k *Keepsake) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(k.items, k.adapter, k.index, opts...)
}

// deriveTitle returns the first line of text, truncated to a headline.
func deriveTitle(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	const maxTitle = 80
	if len(line) > maxTitle {
		line = strings.TrimSpace(line[:maxTitle])
	}
	return line
}

// Close stops the queue and releases every resource. In-flight jobs are
// given a moment to finish.
func (k *Keepsake) Close() error {
	k.queue.Stop()

	if err := k.adapter.Close(); err != nil {
		k.logger.Error("error closing AI providers", "err", err)
	}
	if err := k.jobs.Close(); err != nil {
		k.logger.Error("error closing job store", "err", err)
		return err
	}
	if err := k.items.Close(); err != nil {
		k.logger.Error("error closing item store", "err", err)
		return err
	}
	if err := k.backend.Close(); err != nil {
		k.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
