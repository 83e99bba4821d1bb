package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/keepsake/core"
)

// Key prefixes for different data types
const (
	itemRecordPrefix  = "itmrec"
	itemDatePrefix    = "itmrecd"
	itemIDSeq         = "itmrecseq"
	contentPrefix     = "conrec"
	mediaRecordPrefix = "medrec"
	mediaIDSeq        = "medrecseq"
	embeddingPrefix   = "embrec"
	jobRecordPrefix   = "jobrec"
)

// makeItemKey generates a key for an item by ID.
func makeItemKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", itemRecordPrefix, id))
}

// makeItemDateKey generates a composite key for the creation-date index.
// Format: prefix:timestamp:id
func makeItemDateKey(timestamp time.Time, id core.ID) []byte {
	prefix := itemDatePrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeContentKey generates a key for an item's content row.
func makeContentKey(itemID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", contentPrefix, itemID))
}

// makeMediaKey generates a composite key for a media row.
// Format: prefix:itemID:mediaID so an item's media is one prefix scan.
func makeMediaKey(itemID, mediaID core.ID) []byte {
	prefix := mediaRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 16
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(itemID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(mediaID))
	return buf
}

// makePartialMediaKey generates a prefix for scanning an item's media.
func makePartialMediaKey(itemID core.ID) []byte {
	prefix := mediaRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(itemID))
	return buf
}

// makeEmbeddingKey generates a key for an item's embedding pointer.
func makeEmbeddingKey(itemID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", embeddingPrefix, itemID))
}

// makeJobKey generates a key for a job by ID.
func makeJobKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", jobRecordPrefix, id))
}
