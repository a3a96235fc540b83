package fsevents

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	adds []string
	dels []string
}

func (f *fakeEnqueuer) EnqueueAdd(path string) error { f.adds = append(f.adds, path); return nil }
func (f *fakeEnqueuer) EnqueueDel(path string) error { f.dels = append(f.dels, path); return nil }

func TestHandleCreateEnqueuesAdd(t *testing.T) {
	f := &fakeEnqueuer{}
	w := &Watcher{ix: f}
	w.handle(fsnotify.Event{Name: "/a/new.txt", Op: fsnotify.Create})
	require.Equal(t, []string{"/a/new.txt"}, f.adds)
	require.Empty(t, f.dels)
}

func TestHandleRemoveEnqueuesDel(t *testing.T) {
	f := &fakeEnqueuer{}
	w := &Watcher{ix: f}
	w.handle(fsnotify.Event{Name: "/a/gone.txt", Op: fsnotify.Remove})
	require.Equal(t, []string{"/a/gone.txt"}, f.dels)
	require.Empty(t, f.adds)
}

func TestHandleRenameEnqueuesDel(t *testing.T) {
	f := &fakeEnqueuer{}
	w := &Watcher{ix: f}
	w.handle(fsnotify.Event{Name: "/a/old.txt", Op: fsnotify.Rename})
	require.Equal(t, []string{"/a/old.txt"}, f.dels)
}
