// Package posting implements the posting-list store: per-trigram sets of
// file ids, grown during build and replaced at commit time by a
// delta+Golomb-Rice+entropy encoding, per §4.4 of the engine design.
//
// The in-memory append path and the sort-and-merge commit pipeline
// are adapted from the teacher fork's index.Writer.flushPost/mergePost,
// generalized from an on-disk writer to an in-memory store and from
// gamma coding to Golomb-Rice + a zstd entropy pass.
package posting

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"github.com/klauspost/compress/zstd"

	"github.com/qfind/qfind/internal/gr"
	"github.com/qfind/qfind/internal/qerr"
)

// FileID is the 64-bit file identifier used across the engine.
type FileID = uint64

// InvalidFileID is the reserved sentinel value for "no file".
const InvalidFileID FileID = ^uint64(0)

// DirEntry describes where a trigram's compressed posting list lives in
// the store's contiguous blob.
type DirEntry struct {
	Offset    int
	Size      int
	FileCount int
	K         uint // Golomb-Rice parameter for this list
}

// Store owns the per-trigram posting lists, from the growable build-time
// buffers through the compressed commit-time blob and directory. Callers
// (the Index aggregate) are responsible for serializing access; Store
// itself holds only the internal cache's own lock.
type Store struct {
	// building holds the insertion-order, not-yet-deduplicated lists
	// accumulated since the last commit.
	building map[uint32][]FileID

	blob []byte
	dir  map[uint32]DirEntry

	enc *zstd.Encoder
	dec *zstd.Decoder

	cacheMu sync.Mutex
	cache   *lru.Cache

	// decodeCalls counts actual GR+entropy decode operations (cache
	// misses on a present trigram, and Commit's re-decode of a committed
	// list that gained entries), so callers can verify the "no
	// posting-list decompression performed" boundary behavior for
	// queries whose trigrams are entirely absent from the index.
	decodeCalls atomic.Int64
}

// New constructs an empty Store with a decompressed-list cache sized for
// cacheEntries distinct trigrams.
func New(cacheEntries int) (*Store, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, qerr.New(qerr.OutOfMemory, "posting.New", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, qerr.New(qerr.OutOfMemory, "posting.New", err)
	}
	return &Store{
		building: make(map[uint32][]FileID),
		dir:      make(map[uint32]DirEntry),
		enc:      enc,
		dec:      dec,
		cache:    lru.New(cacheEntries),
	}, nil
}

// Append adds id to trigram's growable build-time list. Lists are NOT
// kept sorted or deduplicated until Commit.
func (s *Store) Append(tri uint32, id FileID) {
	s.building[tri] = append(s.building[tri], id)
}

// DirtyTrigrams returns the trigrams with pending (uncommitted) entries.
func (s *Store) DirtyTrigrams() []uint32 {
	out := make([]uint32, 0, len(s.building))
	for t := range s.building {
		out = append(out, t)
	}
	return out
}

// Commit sorts, deduplicates, delta-codes, Rice-codes, and entropy-codes
// every trigram touched since the last commit (or present in the
// existing directory, for trigrams that also gained new entries),
// merging the result into a fresh contiguous blob and directory. Commit
// recompresses every list that changed; trigrams with no pending
// entries keep their existing compressed bytes untouched and are copied
// forward as-is.
//
// On error the previous blob and directory are left intact: the new
// blob is built fully in a local buffer and only swapped in at the end.
func (s *Store) Commit() error {
	newDir := make(map[uint32]DirEntry, len(s.dir)+len(s.building))
	var newBlob []byte

	// Merge each dirty trigram's existing (already-committed) ids with
	// its newly appended ones before re-sorting, so that repeated
	// commits accumulate correctly.
	merged := make(map[uint32][]FileID, len(s.building))
	for tri, added := range s.building {
		existing, err := s.decodeLocked(tri)
		if err != nil {
			return err
		}
		merged[tri] = append(existing, added...)
	}

	for tri, ids := range merged {
		ids = sortUniqueFileIDs(ids)
		if len(ids) == 0 {
			continue
		}
		entry, encoded, err := s.encodeListCompressed(ids)
		if err != nil {
			return qerr.New(qerr.Corruption, "posting.Commit", err)
		}
		entry.Offset = len(newBlob)
		newBlob = append(newBlob, encoded...)
		newDir[tri] = entry
	}

	// Carry forward untouched trigrams by copying their existing
	// compressed bytes into the new blob at their new offset.
	for tri, old := range s.dir {
		if _, dirty := merged[tri]; dirty {
			continue
		}
		bytes := s.blob[old.Offset : old.Offset+old.Size]
		entry := old
		entry.Offset = len(newBlob)
		newBlob = append(newBlob, bytes...)
		newDir[tri] = entry
	}

	s.blob = newBlob
	s.dir = newDir
	s.building = make(map[uint32][]FileID)

	s.cacheMu.Lock()
	s.cache = lru.New(s.cache.MaxEntries)
	s.cacheMu.Unlock()
	return nil
}

// encodeListRaw delta-codes and Rice-codes a sorted, unique list of file
// ids, returning a directory entry with Offset and Size left zero (the
// caller fills Offset in; Size is filled in after the entropy pass).
func encodeListRaw(ids []FileID) (DirEntry, []byte, uint) {
	deltas := make([]uint64, len(ids))
	var prev FileID
	for i, id := range ids {
		deltas[i] = id - prev
		prev = id
	}
	k := gr.ChooseK(deltas)
	riceBytes := gr.EncodeDeltas(deltas, k)
	return DirEntry{FileCount: len(ids)}, riceBytes, k
}

// encodeListCompressed runs the full §4.4 pipeline (delta -> Rice ->
// entropy) over a sorted, unique id list, reusing the store's zstd
// encoder.
func (s *Store) encodeListCompressed(ids []FileID) (DirEntry, []byte, error) {
	entry, riceBytes, k := encodeListRaw(ids)
	compressed := s.enc.EncodeAll(riceBytes, nil)
	entry.K = k
	entry.Size = len(compressed)
	return entry, compressed, nil
}

// Decode returns the full, ascending, deduplicated file id list for
// trigram, decoding and caching it if necessary. A trigram absent from
// the directory decodes to an empty list with no error.
func (s *Store) Decode(tri uint32) ([]FileID, error) {
	s.cacheMu.Lock()
	if v, ok := s.cache.Get(tri); ok {
		s.cacheMu.Unlock()
		return v.([]FileID), nil
	}
	s.cacheMu.Unlock()

	ids, err := s.decodeUncached(tri)
	if err != nil {
		return nil, err
	}
	s.cacheMu.Lock()
	s.cache.Add(tri, ids)
	s.cacheMu.Unlock()
	return ids, nil
}

// decodeLocked decodes tri's already-committed list without touching the
// cache; used internally by Commit while rebuilding the directory.
func (s *Store) decodeLocked(tri uint32) ([]FileID, error) {
	return s.decodeUncached(tri)
}

func (s *Store) decodeUncached(tri uint32) ([]FileID, error) {
	entry, ok := s.dir[tri]
	if !ok {
		return nil, nil
	}
	s.decodeCalls.Add(1)
	compressed := s.blob[entry.Offset : entry.Offset+entry.Size]
	riceBytes, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, qerr.New(qerr.Corruption, "posting.Decode", err)
	}
	deltas, ok := gr.DecodeDeltas(riceBytes, entry.K, entry.FileCount)
	if !ok {
		return nil, qerr.New(qerr.Corruption, "posting.Decode", nil)
	}
	ids := make([]FileID, entry.FileCount)
	var prev FileID
	for i, d := range deltas {
		prev += d
		ids[i] = prev
	}
	return ids, nil
}

// DirEntryFor exposes a trigram's directory entry for introspection.
func (s *Store) DirEntryFor(tri uint32) (DirEntry, bool) {
	e, ok := s.dir[tri]
	return e, ok
}

// NumTrigrams returns the number of trigrams with a non-empty committed
// posting list.
func (s *Store) NumTrigrams() int { return len(s.dir) }

// DecodeCalls returns the running count of actual decode operations
// (cache misses on a present trigram, plus Commit's re-decodes).
func (s *Store) DecodeCalls() int64 { return s.decodeCalls.Load() }

// BlobSize returns the size in bytes of the current compressed blob.
func (s *Store) BlobSize() int { return len(s.blob) }

func sortUniqueFileIDs(ids []FileID) []FileID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := ids[:0]
	var prev FileID
	first := true
	for _, id := range ids {
		if first || id != prev {
			out = append(out, id)
			prev = id
			first = false
		}
	}
	return out
}

// AllTrigrams reports every trigram with a non-empty committed posting
// list, in no particular order.
func (s *Store) AllTrigrams() []uint32 {
	out := make([]uint32, 0, len(s.dir))
	for t := range s.dir {
		out = append(out, t)
	}
	return out
}
