package lsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushSwapFIFOOrder(t *testing.T) {
	b := NewBatch()
	b.Push(Pending{Op: OpAdd, Path: "/a", ID: 1})
	b.Push(Pending{Op: OpAdd, Path: "/b", ID: 2})
	b.Push(Pending{Op: OpDel, Path: "/c"})
	require.Equal(t, 3, b.Len())

	drained := b.Swap()
	require.Equal(t, []Pending{
		{Op: OpAdd, Path: "/a", ID: 1},
		{Op: OpAdd, Path: "/b", ID: 2},
		{Op: OpDel, Path: "/c"},
	}, drained)
	require.Equal(t, 0, b.Len())
}

func TestSwapAllowsConcurrentPushToFreshBatch(t *testing.T) {
	b := NewBatch()
	b.Push(Pending{Op: OpAdd, Path: "/a", ID: 1})
	drained := b.Swap()
	require.Len(t, drained, 1)

	b.Push(Pending{Op: OpAdd, Path: "/b", ID: 2})
	require.Equal(t, 1, b.Len())
}

func TestEmptySwapReturnsEmpty(t *testing.T) {
	b := NewBatch()
	require.Empty(t, b.Swap())
}
