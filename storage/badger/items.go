package badger

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/keepsake/core"
	"github.com/poiesic/keepsake/storage"
)

// ItemStore implements storage.ItemStore for BadgerDB.
type ItemStore struct {
	backend  *Backend
	itemSeq  *badger.Sequence
	mediaSeq *badger.Sequence
}

var _ storage.ItemStore = (*ItemStore)(nil)

// Field weights for keyword match scoring. An item's score is the mean of
// each term's best matching field weight.
const (
	keywordWeightTitle   = float32(1.0)
	keywordWeightSummary = float32(0.85)
	keywordWeightText    = float32(0.7)
	keywordWeightOCR     = float32(0.5)
)

// NewItemStore creates a new ItemStore.
//
// Returns storage.ItemStore interface to enforce abstraction.
func NewItemStore(backend *Backend) (storage.ItemStore, error) {
	return newItemStore(backend)
}

func newItemStore(backend *Backend) (*ItemStore, error) {
	itemSeq, err := backend.GetSequence(itemIDSeq)
	if err != nil {
		return nil, err
	}
	mediaSeq, err := backend.GetSequence(mediaIDSeq)
	if err != nil {
		itemSeq.Release()
		return nil, err
	}
	return &ItemStore{
		backend:  backend,
		itemSeq:  itemSeq,
		mediaSeq: mediaSeq,
	}, nil
}

// Close releases the ID sequences.
func (s *ItemStore) Close() error {
	err := s.itemSeq.Release()
	if err2 := s.mediaSeq.Release(); err == nil {
		err = err2
	}
	return err
}

// WithTransaction delegates to the backend.
func (s *ItemStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.backend.WithTransaction(ctx, fn)
}

// AddItem stores a new item together with its content and media.
func (s *ItemStore) AddItem(ctx context.Context, item *core.Item, content *core.Content, media ...*core.Media) (*core.Item, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if item.Id == 0 {
			nextID, err := s.nextSequenceID(s.itemSeq)
			if err != nil {
				return err
			}
			item.Id = core.ID(nextID)
		}

		if item.CreatedAt.IsZero() {
			item.CreatedAt = time.Now().UTC()
		}
		item.UpdatedAt = item.CreatedAt

		if err := tx.Set(makeItemKey(item.Id), storage.MarshalItem(item)); err != nil {
			return err
		}

		dateKey := makeItemDateKey(item.CreatedAt, item.Id)
		if err := tx.Set(dateKey, storage.MarshalID(item.Id)); err != nil {
			return err
		}

		if content != nil {
			content.ItemId = item.Id
			if err := tx.Set(makeContentKey(item.Id), storage.MarshalContent(content)); err != nil {
				return err
			}
		}

		for _, m := range media {
			m.ItemId = item.Id
			if m.Id == 0 {
				nextID, err := s.nextSequenceID(s.mediaSeq)
				if err != nil {
					return err
				}
				m.Id = core.ID(nextID)
			}
			if err := tx.Set(makeMediaKey(item.Id, m.Id), storage.MarshalMedia(m)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)

	return item, err
}

// nextSequenceID returns the next nonzero sequence value.
func (s *ItemStore) nextSequenceID(seq *badger.Sequence) (uint64, error) {
	nextID, err := seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = seq.Next()
		if err != nil {
			return 0, err
		}
	}
	return nextID, nil
}

// GetItem retrieves a single item by ID.
func (s *ItemStore) GetItem(ctx context.Context, id core.ID) (*core.Item, error) {
	var result *core.Item
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readItem(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetItems retrieves multiple items by their IDs.
func (s *ItemStore) GetItems(ctx context.Context, ids ...core.ID) ([]*core.Item, error) {
	var result []*core.Item
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			item, err := readItem(tx, id)
			if err != nil {
				return err
			}
			if item != nil {
				result = append(result, item)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetDetail retrieves an item together with its content and media.
func (s *ItemStore) GetDetail(ctx context.Context, id core.ID) (*core.ItemDetail, error) {
	detail := &core.ItemDetail{}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readItem(tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}
		detail.Item = item

		content, err := readContent(tx, id)
		if err != nil {
			return err
		}
		if content == nil {
			content = &core.Content{ItemId: id}
		}
		detail.Content = content

		detail.Media, err = readMedia(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// UpdateItem applies a partial patch to an item.
func (s *ItemStore) UpdateItem(ctx context.Context, id core.ID, patch core.ItemPatch) (*core.Item, error) {
	var result *core.Item
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readItem(tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		if patch.Kind != nil {
			item.Kind = *patch.Kind
		}
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.Summary != nil {
			item.Summary = *patch.Summary
		}
		if patch.Status != nil {
			item.Status = *patch.Status
		}
		item.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeItemKey(id), storage.MarshalItem(item)); err != nil {
			return err
		}
		result = item
		return tx.Commit()
	}, true)
	return result, err
}

// UpsertContent applies a partial patch to an item's content, creating the
// content row if it doesn't exist yet.
func (s *ItemStore) UpsertContent(ctx context.Context, itemID core.ID, patch core.ContentPatch) (*core.Content, error) {
	var result *core.Content
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		content, err := readContent(tx, itemID)
		if err != nil {
			return err
		}
		if content == nil {
			content = &core.Content{ItemId: itemID}
		}

		if patch.Text != nil {
			content.Text = *patch.Text
		}
		if patch.OCRText != nil {
			content.OCRText = *patch.OCRText
		}
		if patch.HTML != nil {
			content.HTML = *patch.HTML
		}

		if err := tx.Set(makeContentKey(itemID), storage.MarshalContent(content)); err != nil {
			return err
		}
		result = content
		return tx.Commit()
	}, true)
	return result, err
}

// AddMedia attaches a media asset to an item.
func (s *ItemStore) AddMedia(ctx context.Context, media *core.Media) (*core.Media, error) {
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if media.Id == 0 {
			nextID, err := s.nextSequenceID(s.mediaSeq)
			if err != nil {
				return err
			}
			media.Id = core.ID(nextID)
		}
		if err := tx.Set(makeMediaKey(media.ItemId, media.Id), storage.MarshalMedia(media)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return media, err
}

// ListItems returns items ordered newest first, optionally filtered by kind.
func (s *ItemStore) ListItems(ctx context.Context, kind *core.ItemKind, limit int) ([]*core.Item, error) {
	var results []*core.Item
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(itemDatePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible date key so reverse iteration starts
		// at the newest item.
		seek := append(append([]byte{}, prefix...), 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			item, err := readItem(tx, id)
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}
			if kind != nil && item.Kind != *kind {
				continue
			}

			results = append(results, item)
			if limit > 0 && len(results) >= limit {
				return nil
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteItem removes an item with its content, media, and embedding pointer.
func (s *ItemStore) DeleteItem(ctx context.Context, id core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := readItem(tx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(makeItemDateKey(item.CreatedAt, item.Id)); err != nil {
			return err
		}
		if err := tx.Delete(makeContentKey(id)); err != nil {
			return err
		}

		media, err := readMedia(tx, id)
		if err != nil {
			return err
		}
		for _, m := range media {
			if err := tx.Delete(makeMediaKey(id, m.Id)); err != nil {
				return err
			}
		}

		if err := tx.Delete(makeEmbeddingKey(id)); err != nil {
			return err
		}
		if err := tx.Delete(makeItemKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// SetEmbedding records the vector index reference for an item.
func (s *ItemStore) SetEmbedding(ctx context.Context, embedding *core.Embedding) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(embedding.ItemId)
		if err := tx.Set(key, storage.MarshalEmbedding(embedding)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the embedding pointer for an item.
func (s *ItemStore) GetEmbedding(ctx context.Context, itemID core.ID) (*core.Embedding, error) {
	var result *core.Embedding
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		bItem, err := tx.Get(makeEmbeddingKey(itemID))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return bItem.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalEmbedding(val)
			return err
		})
	}, false)
	return result, err
}

// DeleteEmbedding removes the embedding pointer for an item.
func (s *ItemStore) DeleteEmbedding(ctx context.Context, itemID core.ID) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeEmbeddingKey(itemID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// MatchKeywords finds items where every term appears in at least one field.
// Conjunctive across terms, disjunctive across fields; the score is the mean
// of each term's best matching field weight.
func (s *ItemStore) MatchKeywords(ctx context.Context, terms []string, kind *core.ItemKind, imageOnly bool, limit int) ([]*core.KeywordMatch, error) {
	if len(terms) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}

	var results []*core.KeywordMatch
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var item *core.Item
			err := iter.Item().Value(func(val []byte) error {
				var err error
				item, err = storage.UnmarshalItem(val)
				return err
			})
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}
			if kind != nil && item.Kind != *kind {
				continue
			}

			content, err := readContent(tx, item.Id)
			if err != nil {
				return err
			}
			if content == nil {
				content = &core.Content{ItemId: item.Id}
			}

			if imageOnly {
				hasImage, err := hasImageMedia(tx, item.Id)
				if err != nil {
					return err
				}
				if !hasImage {
					continue
				}
			}

			score, ok := scoreKeywordMatch(item, content, lowered)
			if !ok {
				continue
			}
			results = append(results, &core.KeywordMatch{ItemId: item.Id, Score: score})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.KeywordMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		// Deterministic order among equal scores
		if a.ItemId < b.ItemId {
			return -1
		}
		if a.ItemId > b.ItemId {
			return 1
		}
		return 0
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// scoreKeywordMatch requires every term to appear in at least one field and
// scores the item by the mean best-field weight across terms.
func scoreKeywordMatch(item *core.Item, content *core.Content, terms []string) (float32, bool) {
	fields := []struct {
		text   string
		weight float32
	}{
		{strings.ToLower(item.Title), keywordWeightTitle},
		{strings.ToLower(item.Summary), keywordWeightSummary},
		{strings.ToLower(content.Text), keywordWeightText},
		{strings.ToLower(content.OCRText), keywordWeightOCR},
	}

	var total float32
	for _, term := range terms {
		var best float32
		for _, field := range fields {
			if field.weight <= best || field.text == "" {
				continue
			}
			if strings.Contains(field.text, term) {
				best = field.weight
			}
		}
		if best == 0 {
			return 0, false
		}
		total += best
	}
	return total / float32(len(terms)), true
}

func readItem(tx *badger.Txn, id core.ID) (*core.Item, error) {
	bItem, err := tx.Get(makeItemKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var item *core.Item
	err = bItem.Value(func(val []byte) error {
		var err error
		item, err = storage.UnmarshalItem(val)
		return err
	})
	return item, err
}

func readContent(tx *badger.Txn, itemID core.ID) (*core.Content, error) {
	bItem, err := tx.Get(makeContentKey(itemID))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var content *core.Content
	err = bItem.Value(func(val []byte) error {
		var err error
		content, err = storage.UnmarshalContent(val)
		return err
	})
	return content, err
}

func readMedia(tx *badger.Txn, itemID core.ID) ([]*core.Media, error) {
	var media []*core.Media
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialMediaKey(itemID)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var m *core.Media
		err := iter.Item().Value(func(val []byte) error {
			var err error
			m, err = storage.UnmarshalMedia(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	return media, nil
}

func hasImageMedia(tx *badger.Txn, itemID core.ID) (bool, error) {
	media, err := readMedia(tx, itemID)
	if err != nil {
		return false, err
	}
	for _, m := range media {
		if m.Type == core.MediaImage {
			return true, nil
		}
	}
	return false, nil
}
