package engine

import (
	"context"
	"math"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/qfind/qfind/internal/perm"
	"github.com/qfind/qfind/internal/qerr"
	"github.com/qfind/qfind/internal/trigram"
)

func mayReadMeta(meta FileMeta, uid, gid uint32) bool {
	return perm.MayRead(meta.permMeta(), uid, gid)
}

// QueryCtx is the resolver's input (§4.6).
type QueryCtx struct {
	Query         string
	CaseSensitive bool
	RegexEnabled  bool
	Uid, Gid      uint32
	MaxResults    int

	// PathFilter, if non-empty, is an additional regexp a candidate's
	// path must match to survive into the result set (the -path-filter
	// CLI supplement).
	PathFilter string
}

// scored pairs a surviving candidate with its relevance score, for the
// final top-K selection.
type scored struct {
	id    FileID
	score float64
}

// Search runs the §4.6 algorithm: trigram decomposition, Bloom fail-
// fast, parallel posting-list intersection, permission filter, scoring,
// and top-K selection. Below the trigram floor it serves the query
// from the path trie instead.
func (ix *Index) Search(q QueryCtx) ([]FileID, error) {
	if q.Query == "" {
		return nil, qerr.New(qerr.InvalidArgument, "engine.Search", nil)
	}
	max := q.MaxResults
	if max <= 0 {
		max = ix.cfg.ResultsPerThread
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.State() != Sealed {
		return nil, qerr.New(qerr.Busy, "engine.Search", nil)
	}

	var pathFilterRe *regexp.Regexp
	if q.PathFilter != "" {
		re, err := regexp.Compile(q.PathFilter)
		if err != nil {
			return nil, qerr.New(qerr.InvalidArgument, "engine.Search", err)
		}
		pathFilterRe = re
	}

	if q.RegexEnabled {
		return ix.searchRegex(q, max, pathFilterRe)
	}

	// The index (Bloom pair, postings, trie) is always keyed on the
	// ASCII-folded path, so trigram/prefix lookups must always be folded
	// too, regardless of CaseSensitive; matchQuery is what the final
	// confirm step against the real path compares against, and is only
	// folded when the caller asked for case-insensitive matching.
	foldedQuery := asciiLower(q.Query)
	matchQuery := q.Query
	if !q.CaseSensitive {
		matchQuery = foldedQuery
	}

	tris := trigram.Unique(trigram.ExtractString(foldedQuery))
	if len(tris) == 0 {
		// Below the trigram floor: served entirely by the path trie.
		ids := ix.trie.Lookup(foldedQuery, 0)
		return ix.filterTrieResults(ids, q, pathFilterRe, max), nil
	}

	for _, t := range tris {
		if !ix.bloom.Check(t) {
			return nil, nil
		}
	}

	candidateSets, err := ix.decodePostingsParallel(tris)
	if err != nil {
		return nil, err
	}
	candidates := intersect(candidateSets)

	var mu sync.Mutex
	var out []scored
	n := float64(ix.NumFiles())
	if n < 1 {
		n = 1
	}
	for _, id := range candidates {
		if int(id) >= len(ix.metas) {
			continue
		}
		meta := ix.metas[id]
		if meta.Tombstoned() {
			continue
		}
		if !mayReadSafe(meta, q.Uid, q.Gid) {
			continue
		}
		path := meta.Path
		foldedPath := asciiLower(path)
		matchPath := path
		if !q.CaseSensitive {
			matchPath = foldedPath
		}
		if !strings.Contains(matchPath, matchQuery) {
			continue
		}
		if pathFilterRe != nil && !pathFilterRe.MatchString(path) {
			continue
		}
		s := score(foldedQuery, foldedPath, tris, n)
		if s < ix.cfg.ScoreThreshold {
			continue
		}
		mu.Lock()
		out = append(out, scored{id: id, score: s})
		mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > max {
		out = out[:max]
	}
	ids := make([]FileID, len(out))
	for i, s := range out {
		ids[i] = s.id
	}
	return ids, nil
}

// searchRegex serves RegexEnabled queries. The teacher's literal-
// trigram-extraction-from-a-regex optimizer (google-codesearch's
// regexp package) isn't part of this fork's dependency chain; since
// every candidate's full path already lives in memory (unlike grep's
// file content), a direct regex scan over the metadata table is
// correct and simple rather than reproducing that optimizer.
func (ix *Index) searchRegex(q QueryCtx, max int, pathFilterRe *regexp.Regexp) ([]FileID, error) {
	pattern := q.Query
	if !q.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, qerr.New(qerr.InvalidArgument, "engine.Search", err)
	}
	var out []FileID
	for _, meta := range ix.metas {
		if meta.Tombstoned() {
			continue
		}
		if !mayReadSafe(meta, q.Uid, q.Gid) {
			continue
		}
		if !re.MatchString(meta.Path) {
			continue
		}
		if pathFilterRe != nil && !pathFilterRe.MatchString(meta.Path) {
			continue
		}
		out = append(out, meta.ID)
		if len(out) >= max {
			break
		}
	}
	return out, nil
}

// filterTrieResults applies permission, exact-case, and path-filter
// confirmation to the trie's (always case-folded) candidate ids. The
// trie itself is indexed case-folded, so a CaseSensitive query needs an
// extra confirm against the real, unfolded path before a candidate
// counts as a match.
func (ix *Index) filterTrieResults(ids []FileID, q QueryCtx, pathFilterRe *regexp.Regexp, max int) []FileID {
	var out []FileID
	for _, id := range ids {
		if int(id) >= len(ix.metas) {
			continue
		}
		meta := ix.metas[id]
		if meta.Tombstoned() {
			continue
		}
		if !mayReadSafe(meta, q.Uid, q.Gid) {
			continue
		}
		if q.CaseSensitive && !strings.HasPrefix(trimLeadingSep(meta.Path), q.Query) {
			continue
		}
		if pathFilterRe != nil && !pathFilterRe.MatchString(meta.Path) {
			continue
		}
		out = append(out, id)
		if len(out) >= max {
			break
		}
	}
	return out
}

// trimLeadingSep mirrors internal/trie's own leading-separator stripping,
// so the exact-case confirm above matches against the same byte offset
// the trie's prefix match used.
func trimLeadingSep(path string) string {
	if strings.HasPrefix(path, "/") {
		return path[1:]
	}
	return path
}

// decodePostingsParallel partitions the query's trigrams across
// min(runtime.NumCPU(), WorkerThreads) goroutines, decoding each
// trigram's posting list concurrently; a worker never mutates the
// index. Decompression failure on one list degrades to reduced recall
// (§4.6: "log and skip that trigram, continue with others") rather
// than failing the whole query.
func (ix *Index) decodePostingsParallel(tris []uint32) ([][]FileID, error) {
	workers := runtime.NumCPU()
	if workers > ix.cfg.WorkerThreads {
		workers = ix.cfg.WorkerThreads
	}
	if workers < 1 {
		workers = 1
	}

	results := make([][]FileID, len(tris))
	g, _ := errgroup.WithContext(context.Background())
	sem := make(chan struct{}, workers)
	for i, t := range tris {
		i, t := i, t
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()
			ids, err := ix.postings.Decode(t)
			if err != nil {
				ix.Log.Printf("posting decode for trigram %06x: %v (skipped)", t, err)
				return nil
			}
			results[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, qerr.New(qerr.OutOfMemory, "engine.Search", err)
	}
	return results, nil
}

// intersect returns the set intersection of a list of ascending,
// deduplicated FileId slices. A nil/empty set (a fully-skipped decode)
// is treated as "no constraint" rather than "empty", so a single
// corrupt trigram degrades recall instead of zeroing the whole query.
func intersect(sets [][]FileID) []FileID {
	var base []FileID
	have := false
	for _, s := range sets {
		if len(s) == 0 {
			continue
		}
		if !have {
			base = s
			have = true
			continue
		}
		base = intersectTwo(base, s)
	}
	if !have {
		return nil
	}
	return base
}

func intersectTwo(a, b []FileID) []FileID {
	out := make([]FileID, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

// score implements §4.6 step 5: for each query trigram, count its
// literal occurrences in the candidate's path, tf = freq/(len-2), idf =
// log(N/(freq+1)), summed over trigrams, divided by sqrt(len).
func score(query, path string, tris []uint32, n float64) float64 {
	l := len(path)
	if l <= 2 {
		return 0
	}
	var sum float64
	for _, t := range tris {
		freq := countTrigram(path, t)
		tf := float64(freq) / float64(l-2)
		idf := math.Log(n / float64(freq+1))
		sum += tf * idf
	}
	return sum / math.Sqrt(float64(l))
}

func countTrigram(path string, t uint32) int {
	count := 0
	for _, got := range trigram.ExtractString(path) {
		if got == t {
			count++
		}
	}
	return count
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// mayReadSafe treats any unexpected panic/error path from the
// permission predicate as deny, per §4.6: "permission predicate error
// -> treat as false (deny)".
func mayReadSafe(meta FileMeta, uid, gid uint32) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return mayReadMeta(meta, uid, gid)
}
