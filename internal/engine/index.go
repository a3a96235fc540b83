// Package engine implements the Index aggregate (§4.6's state machine,
// §5's locking discipline) that owns the trigram extractor, the
// feed-forward Bloom pair, the path trie, the posting-list store, the
// file-metadata table, and the two LSM update batches, wiring them into
// the add/commit/enqueue/search operations named in §6.
package engine

import (
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/qfind/qfind/internal/bloom"
	"github.com/qfind/qfind/internal/config"
	"github.com/qfind/qfind/internal/lsm"
	"github.com/qfind/qfind/internal/posting"
	"github.com/qfind/qfind/internal/qerr"
	"github.com/qfind/qfind/internal/trie"
	"github.com/qfind/qfind/internal/trigram"
)

// State is a position in the Empty -> Building -> Sealed -> Building' ->
// ... state machine of §4.6.
type State int32

const (
	Empty State = iota
	Building
	Sealed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Building:
		return "building"
	case Sealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// Index is the aggregate described by §3-§6: it owns the Bloom pair,
// the path trie, the posting-list store, the file-metadata table, and
// the two update batches, all behind a single reader/writer lock, per
// §5 ("Index is protected by a single reader/writer lock").
type Index struct {
	cfg config.Config
	Log *log.Logger
	// Verbose records the caller's verbosity setting. The engine's own
	// log lines (skipped adds and deletes, posting decode failures,
	// background commit errors) are printed whatever its value.
	Verbose bool

	mu sync.RWMutex

	state    atomic.Int32
	nextID   atomic.Uint64
	numFiles atomic.Int64
	metas    []FileMeta
	roots    []string
	pathIDs  map[string]FileID

	bloom    *bloom.Pair
	trie     *trie.Trie
	postings *posting.Store

	pendingAdds *lsm.Batch
	pendingDels *lsm.Batch

	running   atomic.Bool
	stop      chan struct{}
	committed chan struct{} // closed and replaced on each commit, for tests/observability
}

// New constructs an Empty Index from cfg.
func New(cfg config.Config) (*Index, error) {
	store, err := posting.New(cfg.PostingCacheEntries)
	if err != nil {
		return nil, qerr.New(qerr.OutOfMemory, "engine.New", err)
	}
	ix := &Index{
		cfg:         cfg,
		Log:         log.New(os.Stderr, "qfind: ", 0),
		pathIDs:     make(map[string]FileID),
		bloom:       bloom.New(cfg.PrimaryBits, cfg.SecondaryBits, cfg.HashCount),
		trie:        trie.New(),
		postings:    store,
		pendingAdds: lsm.NewBatch(),
		pendingDels: lsm.NewBatch(),
		stop:        make(chan struct{}),
		committed:   make(chan struct{}),
	}
	ix.state.Store(int32(Empty))
	return ix, nil
}

// State reports the index's current state-machine position.
func (ix *Index) State() State { return State(ix.state.Load()) }

// AllocID returns a fresh monotonically increasing FileId, independent
// of the index lock per §5 ("FileId allocation uses an atomic fetch-add
// counter; it is independent of the index lock").
func (ix *Index) AllocID() FileID {
	return ix.nextID.Add(1) - 1
}

func (ix *Index) transitionToBuilding() {
	for {
		cur := State(ix.state.Load())
		if cur == Building {
			return
		}
		if ix.state.CompareAndSwap(int32(cur), int32(Building)) {
			return
		}
	}
}

// addFileLocked indexes path under id with the given metadata: it
// extracts trigrams, feeds the Bloom pair and posting-list store, inserts
// the path into the trie, and records the FileMeta. The caller must hold
// ix.mu for writing (AddFile, Build, Commit).
func (ix *Index) addFileLocked(id FileID, path string, mode, uid, gid uint32, mtime time.Time) error {
	if path == "" {
		return qerr.New(qerr.InvalidArgument, "engine.AddFile", nil)
	}
	if len(path) > ix.cfg.MaxPathLen {
		return qerr.New(qerr.InvalidArgument, "engine.AddFile", nil)
	}
	ix.transitionToBuilding()

	// Trigrams, the Bloom pair, and the path trie are all keyed on the
	// ASCII-folded path, so that a case-insensitive query's folded
	// trigrams/prefix actually hit what's stored; FileMeta.Path keeps the
	// original case for display and for the exact-case confirm step in
	// Search.
	folded := asciiLower(path)
	tris := trigram.Unique(trigram.ExtractString(folded))
	for _, t := range tris {
		ix.bloom.Add(t)
		ix.postings.Append(t, id)
	}
	ix.trie.Insert(folded, id)

	wasLive := int(id) < len(ix.metas) && ix.metas[id].Path != ""

	meta := FileMeta{ID: id, Path: path, Mode: mode, Uid: uid, Gid: gid, Mtime: mtime}
	if int(id) >= len(ix.metas) {
		grown := make([]FileMeta, id+1)
		copy(grown, ix.metas)
		ix.metas = grown
	}
	ix.metas[id] = meta
	ix.pathIDs[path] = id
	if !wasLive {
		ix.numFiles.Add(1)
	}
	return nil
}

// AddFile is the locking entry point for add_file(index, path, id):
// path must be accompanied by a fresh id obtained from AllocID.
func (ix *Index) AddFile(id FileID, path string, mode, uid, gid uint32, mtime time.Time) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.addFileLocked(id, path, mode, uid, gid, mtime)
}

// WalkFunc is the shape the external directory-walker collaborator
// (§6) feeds into Build: one call per regular file found under root.
type WalkFunc func(root string, visit func(path string, mode, uid, gid uint32, mtime time.Time) error) error

// Build walks root with walk, add_file-ing every entry it yields, then
// commits, per the build data flow of §2 ("walker -> add_file(path,id)
// -> ... -> (on commit) delta+GR+entropy compression").
func (ix *Index) Build(root string, walk WalkFunc) (int, error) {
	ix.mu.Lock()
	count := 0
	walkErr := walk(root, func(path string, mode, uid, gid uint32, mtime time.Time) error {
		id := ix.AllocID()
		if err := ix.addFileLocked(id, path, mode, uid, gid, mtime); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		ix.mu.Unlock()
		return count, qerr.New(qerr.Io, "engine.Build", walkErr)
	}
	ix.roots = append(ix.roots, root)
	ix.mu.Unlock()

	if err := ix.Commit(); err != nil {
		return count, err
	}
	return count, nil
}

// Roots returns the directory roots indexed so far (supports the CLI's
// -list supplement).
func (ix *Index) Roots() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, len(ix.roots))
	copy(out, ix.roots)
	return out
}

// Commit drains both update batches, applies every pending add and
// delete, and rebuilds the compressed blob over the mutation-dirty
// trigrams (§4.5). On success the index transitions to Sealed; on
// failure the previous Sealed state (old blob and directory) is left
// intact, since Store.Commit only swaps its blob in after the new one
// is fully built.
func (ix *Index) Commit() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	adds := ix.pendingAdds.Swap()
	dels := ix.pendingDels.Swap()

	for _, p := range adds {
		mode, uid, gid, mtime, err := statPath(p.Path)
		if err != nil {
			ix.Log.Printf("skipping add %q: %v", p.Path, err)
			continue
		}
		if err := ix.addFileLocked(p.ID, p.Path, mode, uid, gid, mtime); err != nil {
			return err
		}
	}
	for _, p := range dels {
		if !ix.tombstoneLocked(p.Path) {
			err := qerr.New(qerr.NotFound, "engine.Commit", nil)
			ix.Log.Printf("skipping delete %q: %v", p.Path, err)
		}
	}

	if err := ix.postings.Commit(); err != nil {
		return qerr.New(qerr.OutOfMemory, "engine.Commit", err)
	}

	ix.state.Store(int32(Sealed))
	close(ix.committed)
	ix.committed = make(chan struct{})
	return nil
}

// tombstoneLocked clears path's FileMeta, if path is currently indexed.
// It reports whether it found a live path to tombstone, so Commit can
// surface the §7 NotFound kind for a delete of a path that isn't
// indexed.
func (ix *Index) tombstoneLocked(path string) bool {
	id, ok := ix.pathIDs[path]
	if !ok {
		return false
	}
	delete(ix.pathIDs, path)
	if int(id) < len(ix.metas) && ix.metas[id].Path != "" {
		ix.metas[id].Path = ""
		ix.numFiles.Add(-1)
		return true
	}
	return false
}

// NumFiles returns the committed index's live (non-tombstoned) file
// count, the N used as the TF-IDF idf denominator in §4.6.
func (ix *Index) NumFiles() int64 { return ix.numFiles.Load() }

// EnqueueAdd allocates a fresh id and links path onto the pending-adds
// batch; path's metadata is stat'ed later, when Commit applies the add.
// It transitions Sealed -> Building'
// per §4.6. A full batch triggers an immediate commit (§4.5: "If either
// batch reaches LSM_BATCH_SIZE the engine's background worker calls
// commit").
func (ix *Index) EnqueueAdd(path string) error {
	id := ix.AllocID()
	ix.transitionToBuilding()
	ix.pendingAdds.Push(lsm.Pending{Op: lsm.OpAdd, Path: path, ID: id})
	if ix.pendingAdds.Len() >= ix.cfg.LSMBatchSize {
		return ix.Commit()
	}
	return nil
}

// EnqueueDel links path onto the pending-dels batch for tombstoning at
// the next commit. A path with no known id isn't an error returned to
// this call (resolving it lazily avoids requiring the caller to hold
// the index lock just to check); Commit logs the §7 NotFound case for
// it instead, the way it logs a skipped add.
func (ix *Index) EnqueueDel(path string) error {
	ix.transitionToBuilding()
	ix.pendingDels.Push(lsm.Pending{Op: lsm.OpDel, Path: path})
	if ix.pendingDels.Len() >= ix.cfg.LSMBatchSize {
		return ix.Commit()
	}
	return nil
}

// Start launches the background committer: a timed wait with deadline
// CommitInterval between unconditional commits, exiting cleanly when
// Stop is called (§5: "the background committer observes a running
// flag on each iteration and exits cleanly").
func (ix *Index) Start() {
	if !ix.running.CompareAndSwap(false, true) {
		return
	}
	ix.stop = make(chan struct{})
	go func() {
		t := time.NewTicker(ix.cfg.CommitInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if err := ix.Commit(); err != nil {
					ix.Log.Printf("background commit: %v", err)
				}
			case <-ix.stop:
				return
			}
		}
	}()
}

// Stop signals the background committer to exit and waits for nothing
// further (the next Commit call, if any is in flight, still completes
// normally since it owns the lock independently of this flag).
func (ix *Index) Stop() {
	if !ix.running.CompareAndSwap(true, false) {
		return
	}
	close(ix.stop)
}
