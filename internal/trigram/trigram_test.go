package trigram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractShort(t *testing.T) {
	require.Nil(t, Extract([]byte("")))
	require.Nil(t, Extract([]byte("a")))
	require.Nil(t, Extract([]byte("ab")))
}

func TestExtractOrdering(t *testing.T) {
	got := Extract([]byte("abcd"))
	want := []uint32{Pack('a', 'b', 'c'), Pack('b', 'c', 'd')}
	require.Equal(t, want, got)
}

func TestExtractDuplicatesPreserved(t *testing.T) {
	got := Extract([]byte("aaaa"))
	require.Len(t, got, 2)
	require.Equal(t, got[0], got[1])
}

func TestPackUnpackRoundTrip(t *testing.T) {
	tri := Pack('n', 'o', 't')
	a, b, c := Unpack(tri)
	require.Equal(t, byte('n'), a)
	require.Equal(t, byte('o'), b)
	require.Equal(t, byte('t'), c)
	require.Less(t, tri, Invalid)
}

func TestUniqueDedups(t *testing.T) {
	got := Unique(Extract([]byte("notesnotes")))
	require.Len(t, got, 5) // not,ote,tes,esn,sno (not/ote/tes repeat once)
}
