package core

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// JobIDForItem derives the enrichment job ID for an item. The derivation is
// deterministic so enqueueing the same item twice updates one queue entry
// instead of creating a duplicate.
func JobIDForItem(itemID ID) ID {
	return IDFromContent("job:" + strconv.FormatUint(uint64(itemID), 10))
}

// VectorIDForItem derives the vector index record ID for an item's embedding.
func VectorIDForItem(itemID ID) ID {
	return IDFromContent("vec:" + strconv.FormatUint(uint64(itemID), 10))
}

// ItemKind identifies the kind of captured content.
type ItemKind int

const (
	// KindText is free text captured directly (a note).
	KindText ItemKind = iota + 1
	// KindLink is a captured web link.
	KindLink
	// KindFile is an uploaded file or image.
	KindFile
)

// String returns the lowercase label used in logs and embedding text.
func (k ItemKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindLink:
		return "link"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// ItemStatus tracks an item's position in the enrichment lifecycle.
type ItemStatus int

const (
	// StatusPending means the item is captured but not yet processed.
	StatusPending ItemStatus = iota + 1
	// StatusProcessing means an enrichment job currently owns the item.
	StatusProcessing
	// StatusProcessed means enrichment completed.
	StatusProcessed
	// StatusFailed means enrichment failed after exhausting retries.
	StatusFailed
)

// String returns the uppercase label used in logs and CLI output.
func (s ItemStatus) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusProcessing:
		return "PROCESSING"
	case StatusProcessed:
		return "PROCESSED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MediaType categorizes a media asset attached to an item.
type MediaType int

const (
	MediaImage MediaType = iota + 1
	MediaVideo
	MediaAudio
	MediaDocument
)

// Item represents a unit of captured content.
// Title and Summary may be overwritten by enrichment; Status is mutated only
// by the enrichment pipeline.
type Item struct {
	Id        ID
	Kind      ItemKind
	Title     string
	Summary   string
	SourceURL string
	Status    ItemStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Content holds the searchable text attached to an item, one-to-one.
// Text is the primary searchable prose; for images it may hold a vision-model
// description. OCRText is raw extracted text kept separately for provenance.
type Content struct {
	ItemId  ID
	Text    string
	OCRText string
	HTML    string
}

// Media is an asset attached to an item: an uploaded file or a preview image
// discovered during link processing. Zero or more per item.
type Media struct {
	Id     ID
	ItemId ID
	URL    string
	Type   MediaType
	Width  int
	Height int
}

// Embedding points from an item to its record in the vector index.
// It is owned exclusively by the enrichment worker's embedding step.
type Embedding struct {
	ItemId    ID
	VectorRef ID
}

// ItemDetail bundles an item with its content and media, as returned by
// storage.ItemStore.GetDetail.
type ItemDetail struct {
	Item    *Item
	Content *Content
	Media   []*Media
}

// PrimaryImage returns the first image media attached to the item, or nil.
func (d *ItemDetail) PrimaryImage() *Media {
	for _, m := range d.Media {
		if m.Type == MediaImage {
			return m
		}
	}
	return nil
}

// JobState tracks a queued job's lifecycle.
type JobState int

const (
	// JobReady means the job is waiting to run (initial state, and after a
	// retryable failure until NextRunAt).
	JobReady JobState = iota + 1
	// JobRunning means a worker slot currently owns the job.
	JobRunning
	// JobDone means the handler succeeded. Retained briefly for observability.
	JobDone
	// JobDead means attempts are exhausted or the payload was rejected.
	JobDead
)

// String returns the lowercase label used in logs.
func (s JobState) String() string {
	switch s {
	case JobReady:
		return "ready"
	case JobRunning:
		return "running"
	case JobDone:
		return "done"
	case JobDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Job is a durable unit of enrichment work. Its ID is derived from the item ID
// (see JobIDForItem) so enqueue is idempotent per item.
type Job struct {
	Id        ID
	ItemId    ID
	Kind      ItemKind
	Attempt   int
	State     JobState
	NextRunAt time.Time
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemPatch describes a partial update to an item. Nil fields are untouched.
type ItemPatch struct {
	Kind    *ItemKind
	Title   *string
	Summary *string
	Status  *ItemStatus
}

// ContentPatch describes a partial update to an item's content. Nil fields
// are untouched.
type ContentPatch struct {
	Text    *string
	OCRText *string
	HTML    *string
}

// MatchSource records which search path produced a result.
type MatchSource int

const (
	// SourceSemantic means the result came from vector similarity only.
	SourceSemantic MatchSource = iota + 1
	// SourceKeyword means the result came from keyword matching only.
	SourceKeyword
	// SourceHybrid means both paths found the item and scores were merged.
	SourceHybrid
	// SourceBrowse marks unscored results from the kind-only fallback.
	SourceBrowse
)

// String returns the lowercase label used in CLI output.
func (s MatchSource) String() string {
	switch s {
	case SourceSemantic:
		return "semantic"
	case SourceKeyword:
		return "keyword"
	case SourceHybrid:
		return "hybrid"
	case SourceBrowse:
		return "browse"
	default:
		return "unknown"
	}
}

// SimilarityMatch represents an item match from vector similarity search.
type SimilarityMatch struct {
	ItemId ID
	Score  float32
}

// SearchResult represents a ranked search result.
type SearchResult struct {
	Item   *Item
	Score  float32
	Source MatchSource
}

// KeywordMatch represents an item match from keyword search with its
// field-weighted score.
type KeywordMatch struct {
	ItemId ID
	Score  float32
}
