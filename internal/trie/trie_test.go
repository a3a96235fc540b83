package trie

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixScenario(t *testing.T) {
	tr := New()
	tr.Insert("/ab", 0)
	tr.Insert("/abc", 1)
	tr.Insert("/abd", 2)

	got := tr.Lookup("ab", 0)
	require.ElementsMatch(t, []FileID{0, 1, 2}, got)

	require.Empty(t, tr.Lookup("ac", 0))
}

func TestSingleByteQuery(t *testing.T) {
	tr := New()
	tr.Insert("/a", 10)
	tr.Insert("/b", 20)
	tr.Insert("/aa", 30)

	require.ElementsMatch(t, []FileID{10, 30}, tr.Lookup("a", 0))
	require.ElementsMatch(t, []FileID{20}, tr.Lookup("b", 0))
}

func TestRunCompressionAndSplit(t *testing.T) {
	tr := New()
	// Insert the longer run first so Insert must split an existing edge
	// when the shorter path arrives.
	tr.Insert("/aaaaa", 1)
	tr.Insert("/aa", 2)

	require.ElementsMatch(t, []FileID{1, 2}, tr.Lookup("aa", 0))
	require.ElementsMatch(t, []FileID{1}, tr.Lookup("aaaaa", 0))
	require.ElementsMatch(t, []FileID{1, 2}, tr.Lookup("a", 0))
}

func TestRunSplitReverseOrder(t *testing.T) {
	tr := New()
	tr.Insert("/aa", 1)
	tr.Insert("/aaaaa", 2)

	require.ElementsMatch(t, []FileID{1, 2}, tr.Lookup("aa", 0))
	require.ElementsMatch(t, []FileID{2}, tr.Lookup("aaaaa", 0))
}

func TestMaxResultsBounds(t *testing.T) {
	tr := New()
	for i := FileID(0); i < 10; i++ {
		tr.Insert("/z"+string(rune('a'+i)), i)
	}
	got := tr.Lookup("z", 3)
	require.Len(t, got, 3)
}

func TestNoMatch(t *testing.T) {
	tr := New()
	tr.Insert("/foo", 1)
	require.Empty(t, tr.Lookup("x", 0))
	require.Empty(t, tr.Lookup("fx", 0))
}

func TestWithoutLeadingSeparator(t *testing.T) {
	tr := New()
	tr.Insert("relative/path", 1)
	require.ElementsMatch(t, []FileID{1}, tr.Lookup("re", 0))
}
