package vectorindex

import (
	"math"
	"slices"
	"sync"

	"github.com/poiesic/keepsake/core"
)

// Record is a stored vector with its owning item and metadata.
// Metadata lets callers filter matches (e.g. by item kind) without a
// store round trip.
type Record struct {
	Id     core.ID
	ItemId core.ID
	Vector []float32
	Meta   map[string]string
}

// Match is a search hit ordered by cosine similarity descending.
type Match struct {
	Id     core.ID
	ItemId core.ID
	Meta   map[string]string
	Score  float32
}

// Index is the pluggable vector store seam. Implementations must be safe
// for concurrent upserts and searches and must never expose a half-written
// vector to a reader.
type Index interface {
	// Upsert stores or replaces a record by ID.
	Upsert(record Record) error

	// Search returns up to k records with cosine similarity >= minScore,
	// ordered by score descending. Ties keep insertion order; callers must
	// not depend on an ordering among exact ties.
	Search(query []float32, k int, minScore float32) ([]Match, error)

	// Delete removes a record by ID. Deleting a missing record is a no-op.
	Delete(id core.ID)

	// Count returns the number of stored records.
	Count() int
}

// Memory is a brute-force in-memory Index guarded by a RWMutex.
type Memory struct {
	mu   sync.RWMutex
	dim  int
	recs map[core.ID]*entry
	seq  uint64
}

type entry struct {
	record Record
	norm   float64
	order  uint64
}

var _ Index = (*Memory)(nil)

// NewMemory creates an empty in-memory index. The dimension is fixed by
// the first upserted vector.
func NewMemory() *Memory {
	return &Memory{recs: make(map[core.ID]*entry)}
}

// Upsert stores or replaces a record by ID.
func (m *Memory) Upsert(record Record) error {
	if len(record.Vector) == 0 {
		return ErrEmptyVector
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dim == 0 {
		m.dim = len(record.Vector)
	} else if len(record.Vector) != m.dim {
		return &DimensionMismatchError{Want: m.dim, Got: len(record.Vector)}
	}

	// Copy so a caller mutating its slice can't corrupt the stored vector.
	vec := make([]float32, len(record.Vector))
	copy(vec, record.Vector)
	record.Vector = vec

	order := m.seq
	if old, ok := m.recs[record.Id]; ok {
		order = old.order // replacing keeps the original insertion slot
	} else {
		m.seq++
	}

	m.recs[record.Id] = &entry{
		record: record,
		norm:   norm(vec),
		order:  order,
	}
	return nil
}

// Search returns up to k records with similarity >= minScore, descending.
func (m *Memory) Search(query []float32, k int, minScore float32) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dim != 0 && len(query) != m.dim {
		return nil, &DimensionMismatchError{Want: m.dim, Got: len(query)}
	}

	queryNorm := norm(query)

	type scored struct {
		match Match
		order uint64
	}
	var hits []scored
	for _, ent := range m.recs {
		score := cosine(query, ent.record.Vector, queryNorm, ent.norm)
		if score < minScore {
			continue
		}
		hits = append(hits, scored{
			match: Match{
				Id:     ent.record.Id,
				ItemId: ent.record.ItemId,
				Meta:   ent.record.Meta,
				Score:  score,
			},
			order: ent.order,
		})
	}

	slices.SortFunc(hits, func(a, b scored) int {
		if a.match.Score > b.match.Score {
			return -1
		}
		if a.match.Score < b.match.Score {
			return 1
		}
		// Stable among exact ties: insertion order.
		if a.order < b.order {
			return -1
		}
		if a.order > b.order {
			return 1
		}
		return 0
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}

	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = h.match
	}
	return matches, nil
}

// Delete removes a record by ID.
func (m *Memory) Delete(id core.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
}

// Count returns the number of stored records.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.recs)
}

// cosine computes dot(a,b) / (|a| * |b|), defined as 0 when either norm
// is 0. Lengths must already agree.
func cosine(a, b []float32, normA, normB float64) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (normA * normB))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
