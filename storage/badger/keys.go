package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/grounder/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix   = "chkrec"
	chunkDocPrefix      = "chkdoc"
	chunkAnchorPrefix   = "chkanc"
	chunkIDSeq          = "chkseq"
	anchorRecordPrefix  = "ancrec"
	logRecordPrefix     = "logrec"
	logIDSeq            = "logseq"
	driftRecordPrefix   = "drfobs"
)

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkRecordPrefix, id))
}

// makeChunkDocKey generates a composite key for the document index.
// Format: prefix:documentId:chunkId
func makeChunkDocKey(documentId, chunkId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:%d", chunkDocPrefix, documentId, chunkId))
}

// makeChunkDocScanPrefix generates the scan prefix for a document's chunks.
func makeChunkDocScanPrefix(documentId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d:", chunkDocPrefix, documentId))
}

// makeChunkAnchorKey generates a composite key for the anchor index.
// Format: prefix:slug:chunkId
func makeChunkAnchorKey(slug string, chunkId core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d", chunkAnchorPrefix, slug, chunkId))
}

// makeChunkAnchorScanPrefix generates the scan prefix for an anchor's chunks.
func makeChunkAnchorScanPrefix(slug string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", chunkAnchorPrefix, slug))
}

// makeAnchorKey generates a key for an anchor by slug.
func makeAnchorKey(slug string) []byte {
	return []byte(fmt.Sprintf("%s:%s", anchorRecordPrefix, slug))
}

// makeLogKey generates a composite, time-ordered key for a log entry.
// Format: prefix:timestamp:id with both fixed-width BigEndian so that
// lexicographic iteration yields chronological order.
func makeLogKey(timestamp time.Time, id core.ID) []byte {
	prefix := []byte(logRecordPrefix + ":")
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeLogScanStart generates the first possible log key at timestamp.
func makeLogScanStart(timestamp time.Time) []byte {
	return makeLogKey(timestamp, 0)
}

// makeDriftKey generates a key for a drift observation by (slug, day).
func makeDriftKey(slug string, day time.Time) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", driftRecordPrefix, slug, day.UTC().Format("2006-01-02")))
}

// makeDriftScanPrefix generates the scan prefix for an anchor's observations.
func makeDriftScanPrefix(slug string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", driftRecordPrefix, slug))
}
