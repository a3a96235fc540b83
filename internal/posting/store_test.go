package posting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendCommitDecodeRoundTrip(t *testing.T) {
	s, err := New(64)
	require.NoError(t, err)

	tri := uint32(0x616263) // "abc"
	for _, id := range []FileID{5, 1, 3, 3, 1} {
		s.Append(tri, id)
	}
	require.NoError(t, s.Commit())

	got, err := s.Decode(tri)
	require.NoError(t, err)
	require.Equal(t, []FileID{1, 3, 5}, got)
}

func TestDecodeUnknownTrigramEmpty(t *testing.T) {
	s, err := New(64)
	require.NoError(t, err)
	got, err := s.Decode(0xFFAA11)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCommitIdempotentOnDuplicateAppend(t *testing.T) {
	s1, _ := New(64)
	s2, _ := New(64)
	tri := uint32(42)

	s1.Append(tri, 7)
	s1.Append(tri, 7)
	require.NoError(t, s1.Commit())

	s2.Append(tri, 7)
	require.NoError(t, s2.Commit())

	g1, _ := s1.Decode(tri)
	g2, _ := s2.Decode(tri)
	require.Equal(t, g1, g2)
}

func TestCommitAccumulatesAcrossGenerations(t *testing.T) {
	s, _ := New(64)
	tri := uint32(7)
	s.Append(tri, 10)
	require.NoError(t, s.Commit())
	s.Append(tri, 20)
	s.Append(tri, 5)
	require.NoError(t, s.Commit())

	got, err := s.Decode(tri)
	require.NoError(t, err)
	require.Equal(t, []FileID{5, 10, 20}, got)
}

func TestUntouchedTrigramsSurviveCommit(t *testing.T) {
	s, _ := New(64)
	s.Append(1, 100)
	s.Append(2, 200)
	require.NoError(t, s.Commit())

	s.Append(1, 101) // only trigram 1 is dirty in the second generation
	require.NoError(t, s.Commit())

	got2, err := s.Decode(2)
	require.NoError(t, err)
	require.Equal(t, []FileID{200}, got2)
}

func TestManyDistinctTrigrams(t *testing.T) {
	s, _ := New(1024)
	const n = 2000
	for i := uint32(0); i < n; i++ {
		s.Append(i, FileID(i))
	}
	require.NoError(t, s.Commit())
	for i := uint32(0); i < n; i++ {
		got, err := s.Decode(i)
		require.NoError(t, err)
		require.Equal(t, []FileID{FileID(i)}, got)
	}
	require.Equal(t, n, s.NumTrigrams())
}
