package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/qfind/qfind/internal/config"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(config.Default())
	require.NoError(t, err)
	return ix
}

func addAndCommit(t *testing.T, ix *Index, paths []string) {
	t.Helper()
	for _, p := range paths {
		id := ix.AllocID()
		require.NoError(t, ix.AddFile(id, p, 0644, 0, 0, time.Now()))
	}
	require.NoError(t, ix.Commit())
}

func TestBuildAndSearchScenario1(t *testing.T) {
	ix := newTestIndex(t)
	addAndCommit(t, ix, []string{"/a/notes.txt", "/b/notes.md", "/c/other.log"})

	got, err := ix.Search(QueryCtx{Query: "notes", MaxResults: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []FileID{0, 1}, got)

	got, err = ix.Search(QueryCtx{Query: "xyz", MaxResults: 10})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestShortQueryScenario2(t *testing.T) {
	ix := newTestIndex(t)
	addAndCommit(t, ix, []string{"/ab", "/abc", "/abd"})

	got, err := ix.Search(QueryCtx{Query: "ab", MaxResults: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []FileID{0, 1, 2}, got)

	got, err = ix.Search(QueryCtx{Query: "ac", MaxResults: 10})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestTombstoneScenario3(t *testing.T) {
	ix := newTestIndex(t)
	addAndCommit(t, ix, []string{"/a/notes.txt", "/b/notes.md", "/c/other.log"})

	require.NoError(t, ix.EnqueueDel("/b/notes.md"))
	require.NoError(t, ix.Commit())

	got, err := ix.Search(QueryCtx{Query: "notes", MaxResults: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []FileID{0}, got)
}

func TestEmptyQueryInvalidArgument(t *testing.T) {
	ix := newTestIndex(t)
	addAndCommit(t, ix, []string{"/a"})
	_, err := ix.Search(QueryCtx{Query: ""})
	require.Error(t, err)
}

func TestAbsentTrigramNoDecode(t *testing.T) {
	ix := newTestIndex(t)
	addAndCommit(t, ix, []string{"/a/notes.txt"})

	before := ix.postings.DecodeCalls()
	got, err := ix.Search(QueryCtx{Query: "zzz", MaxResults: 10})
	require.NoError(t, err)
	require.Empty(t, got)
	require.Equal(t, before, ix.postings.DecodeCalls())
}

func TestPermissionFilterDenies(t *testing.T) {
	ix := newTestIndex(t)
	id := ix.AllocID()
	require.NoError(t, ix.AddFile(id, "/secret/notes.txt", 0600, 500, 500, time.Now()))
	require.NoError(t, ix.Commit())

	got, err := ix.Search(QueryCtx{Query: "notes", Uid: 999, Gid: 999, MaxResults: 10})
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = ix.Search(QueryCtx{Query: "notes", Uid: 500, Gid: 500, MaxResults: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []FileID{id}, got)
}

func TestQueryBeforeCommitIsBusy(t *testing.T) {
	ix := newTestIndex(t)
	id := ix.AllocID()
	require.NoError(t, ix.AddFile(id, "/a/notes.txt", 0644, 0, 0, time.Now()))
	_, err := ix.Search(QueryCtx{Query: "notes"})
	require.Error(t, err)
}

func TestEnqueueAddTriggersCommitAtBatchSize(t *testing.T) {
	cfg := config.Default()
	cfg.LSMBatchSize = 2
	ix, err := New(cfg)
	require.NoError(t, err)
	_, err = ix.Build("", func(string, func(string, uint32, uint32, uint32, time.Time) error) error { return nil })
	require.NoError(t, err)

	require.NoError(t, ix.EnqueueAdd("/tmp/does-not-exist-1"))
	require.NoError(t, ix.EnqueueAdd("/tmp/does-not-exist-2"))
	require.Equal(t, Sealed, ix.State())
}
