package engine

// Stats reports the index-statistics supplement (-stats), mirroring
// Index.PrintStats in the teacher lineage (google-codesearch/index/read.go).
type Stats struct {
	NumFiles    int64
	NumTrigrams int
	BlobBytes   int
}

// Stats returns a point-in-time snapshot of the index's size.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return Stats{
		NumFiles:    ix.numFiles.Load(),
		NumTrigrams: ix.postings.NumTrigrams(),
		BlobBytes:   ix.postings.BlobSize(),
	}
}

// ResolvePaths maps search result ids back to their absolute paths,
// skipping any id that no longer resolves to a live FileMeta (a race
// against a concurrent delete between Search returning and the caller
// resolving paths is possible but benign: the id simply drops out).
func (ix *Index) ResolvePaths(ids []FileID) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if int(id) >= len(ix.metas) {
			continue
		}
		meta := ix.metas[id]
		if meta.Tombstoned() {
			continue
		}
		out = append(out, meta.Path)
	}
	return out
}
