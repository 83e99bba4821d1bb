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


package search

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/poiesic/keepsake/ai"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
	"github.com/poiesic/keepsake/vectorindex"
)

const (
	// semanticWeight and keywordWeight blend the two paths' scores when an
	// item is found by both.
	semanticWeight = 0.7
	keywordWeight  = 0.3

	// candidateFactor oversamples each path so the merge has enough
	// material after filtering.
	candidateFactor = 3

	defaultLimit = 10
)

// Searcher provides hybrid semantic and keyword search over captured items.
type Searcher struct {
	items   storage.ItemStore
	index   vectorindex.Index
	adapter *ai.Adapter
	monitor Monitor
	logger  *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMonitor sets a hook implementation observing each search stage.
func WithMonitor(monitor Monitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(items storage.ItemStore, adapter *ai.Adapter, index vectorindex.Index, opts ...Option) (*Searcher, error) {
	if items == nil {
		return nil, ErrItemStoreRequired
	}
	if adapter == nil {
		return nil, ErrAdapterRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}

	s := &Searcher{
		items:   items,
		index:   index,
		adapter: adapter,
		monitor: &noopMonitor{},
		logger:  slog.Default().With("component", "searcher"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search returns up to limit items ranked by relevance to the query.
// Semantic and keyword search run concurrently; a failure on one path
// degrades to the other rather than failing the search, except a vector
// dimension mismatch, which is an index invariant violation and surfaces.
// When both paths come up empty but the query named a kind ("images",
// "links"), all items of that kind are returned unscored.
func (s *Searcher) Search(ctx context.Context, query string, limit int, minScore float32) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	s.monitor.Start(query)
	filter, cleaned := Interpret(query)
	s.monitor.AfterInterpret(filter, cleaned)

	type pathResult struct {
		semantic []*core.SimilarityMatch
		keyword  []*core.KeywordMatch
		err      error
	}
	semanticCh := make(chan pathResult, 1)
	keywordCh := make(chan pathResult, 1)

	go func() {
		matches, err := s.semanticSearch(ctx, query, filter, limit*candidateFactor, minScore)
		semanticCh <- pathResult{semantic: matches, err: err}
	}()
	go func() {
		matches, err := s.keywordSearch(ctx, cleaned, query, filter, limit*candidateFactor)
		keywordCh <- pathResult{keyword: matches, err: err}
	}()

	semantic := <-semanticCh
	keyword := <-keywordCh

	// Settle both paths before deciding policy: one failed path contributes
	// nothing, it never aborts the other.
	if semantic.err != nil {
		if vectorindex.IsDimensionMismatch(semantic.err) {
			return nil, semantic.err
		}
		s.logger.Warn("semantic search degraded", "err", semantic.err)
	}
	if keyword.err != nil {
		s.logger.Warn("keyword search degraded", "err", keyword.err)
	}
	s.monitor.AfterSemanticSearch(semantic.semantic)
	s.monitor.AfterKeywordSearch(keyword.keyword)

	results, err := s.merge(ctx, semantic.semantic, keyword.keyword, limit)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 && filter != nil {
		results, err = s.browse(ctx, filter, limit)
		if err != nil {
			return nil, err
		}
	}

	s.monitor.Finish(results)
	return results, nil
}

// semanticSearch embeds a statement form of the query and scans the vector
// index, filtering candidates by the kind filter via record metadata.
func (s *Searcher) semanticSearch(ctx context.Context, query string, filter *Filter, k int, minScore float32) ([]*core.SimilarityMatch, error) {
	if !s.adapter.Available() {
		return nil, nil
	}

	vector, err := s.adapter.EmbedText(ctx, rewriteQuery(query))
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Search(vector, k, minScore)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SimilarityMatch, 0, len(matches))
	for _, match := range matches {
		if !matchesFilter(match.Meta, filter) {
			continue
		}
		results = append(results, &core.SimilarityMatch{ItemId: match.ItemId, Score: match.Score})
	}
	return results, nil
}

// keywordSearch tokenizes the cleaned query (or the original when cleaning
// removed everything) and runs a conjunctive field match.
func (s *Searcher) keywordSearch(ctx context.Context, cleaned, original string, filter *Filter, limit int) ([]*core.KeywordMatch, error) {
	source := cleaned
	if source == "" {
		source = original
	}
	terms := tokenizeAndFilter(source)
	if len(terms) == 0 {
		return nil, nil
	}

	var kind *core.ItemKind
	imageOnly := false
	if filter != nil {
		kind = &filter.Kind
		imageOnly = filter.ImageOnly
	}
	return s.items.MatchKeywords(ctx, terms, kind, imageOnly, limit)
}

// merge blends the two paths into one ranked list.
func (s *Searcher) merge(ctx context.Context, semantic []*core.SimilarityMatch, keyword []*core.KeywordMatch, limit int) ([]*core.SearchResult, error) {
	type merged struct {
		itemID core.ID
		score  float32
		source core.MatchSource
	}

	semanticScores := make(map[core.ID]float32, len(semantic))
	for _, match := range semantic {
		semanticScores[match.ItemId] = match.Score
	}

	combined := make(map[core.ID]*merged, len(semantic)+len(keyword))
	for _, match := range semantic {
		combined[match.ItemId] = &merged{itemID: match.ItemId, score: match.Score, source: core.SourceSemantic}
	}
	for _, match := range keyword {
		if semScore, both := semanticScores[match.ItemId]; both {
			combined[match.ItemId] = &merged{
				itemID: match.ItemId,
				score:  semanticWeight*semScore + keywordWeight*match.Score,
				source: core.SourceHybrid,
			}
		} else {
			combined[match.ItemId] = &merged{itemID: match.ItemId, score: match.Score, source: core.SourceKeyword}
		}
	}

	ranked := make([]*merged, 0, len(combined))
	for _, m := range combined {
		ranked = append(ranked, m)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].itemID < ranked[j].itemID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]*core.SearchResult, 0, len(ranked))
	for _, m := range ranked {
		item, err := s.items.GetItem(ctx, m.itemID)
		if err != nil {
			// The index can momentarily outlive a deleted item.
			s.logger.Debug("dropping vanished search hit", "item", m.itemID, "err", err)
			continue
		}
		results = append(results, &core.SearchResult{Item: item, Score: m.score, Source: m.source})
	}
	return results, nil
}

// browse returns all items of the filter's kind with a flat score. This is
// the "a user who typed 'images' wants to browse" fallback.
func (s *Searcher) browse(ctx context.Context, filter *Filter, limit int) ([]*core.SearchResult, error) {
	s.monitor.BrowseFallback(filter.Kind)

	fetchLimit := limit
	if filter.ImageOnly {
		fetchLimit = limit * candidateFactor
	}
	items, err := s.items.ListItems(ctx, &filter.Kind, fetchLimit)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(items))
	for _, item := range items {
		if filter.ImageOnly {
			detail, err := s.items.GetDetail(ctx, item.Id)
			if err != nil {
				return nil, err
			}
			if detail.PrimaryImage() == nil {
				continue
			}
		}
		results = append(results, &core.SearchResult{Item: item, Source: core.SourceBrowse})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

// matchesFilter checks an index record's metadata against the kind filter.
func matchesFilter(meta map[string]string, filter *Filter) bool {
	if filter == nil {
		return true
	}
	if meta["kind"] != filter.Kind.String() {
		return false
	}
	if filter.ImageOnly {
		image, _ := strconv.ParseBool(meta["image"])
		return image
	}
	return true
}

// questionPrefixes maps interrogative openings to their statement rewrites.
// Evaluated in order; first match wins.
var questionPrefixes = []struct {
	prefix string
	suffix string
}{
	{"how to ", " tutorial guide"},
	{"how do i ", " tutorial guide"},
	{"how do you ", " tutorial guide"},
	{"what is ", ""},
	{"what are ", ""},
	{"who is ", ""},
	{"where is ", ""},
	{"when did ", ""},
	{"why is ", ""},
	{"why do ", ""},
}

// rewriteQuery applies light question-to-statement normalization so the
// embedded query sits closer to declarative item text. The original query is
// used rather than the cleaned one because kind words carry semantic signal.
func rewriteQuery(query string) string {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), "?"))
	lower := strings.ToLower(trimmed)
	for _, rule := range questionPrefixes {
		if strings.HasPrefix(lower, rule.prefix) {
			return strings.TrimSpace(trimmed[len(rule.prefix):] + rule.suffix)
		}
	}
	return trimmed
}
