package search

import "github.com/poiesic/keepsake/core"

// Monitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type Monitor interface {
	Start(query string)
	AfterInterpret(filter *Filter, cleaned string)
	AfterSemanticSearch(matches []*core.SimilarityMatch)
	AfterKeywordSearch(matches []*core.KeywordMatch)
	BrowseFallback(kind core.ItemKind)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of Monitor.
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                {}
func (n *noopMonitor) AfterInterpret(_ *Filter, _ string)            {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SimilarityMatch) {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.KeywordMatch)     {}
func (n *noopMonitor) BrowseFallback(_ core.ItemKind)                {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                 {}
