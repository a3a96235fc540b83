package perm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnerRead(t *testing.T) {
	m := Meta{Uid: 100, Gid: 100, Mode: 0600}
	require.True(t, MayRead(m, 100, 100))
	require.False(t, MayRead(m, 101, 999))
}

func TestGroupRead(t *testing.T) {
	m := Meta{Uid: 100, Gid: 200, Mode: 0640}
	require.True(t, MayRead(m, 101, 200))
	require.False(t, MayRead(m, 101, 201))
}

func TestOtherRead(t *testing.T) {
	m := Meta{Uid: 100, Gid: 200, Mode: 0604}
	require.True(t, MayRead(m, 999, 999))
}

func TestRootAlwaysReads(t *testing.T) {
	m := Meta{Uid: 100, Gid: 100, Mode: 0000}
	require.True(t, MayRead(m, 0, 0))
}

func TestOwnerWithoutReadBitDenied(t *testing.T) {
	m := Meta{Uid: 100, Gid: 100, Mode: 0200}
	require.False(t, MayRead(m, 100, 100))
}
