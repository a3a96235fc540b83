// Package walker implements the directory-walker collaborator (§6):
// "yields paths and (mode, uid, gid, mtime)". It is adapted from the
// teacher fork's walk.gitignoreWalker, generalized from an fs.WalkDirFunc
// callback (which only carries a DirEntry) to the engine's
// engine.WalkFunc shape, which needs mode/uid/gid/mtime per file.
package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/qfind/qfind/internal/engine"
)

// Walker walks a directory tree, skipping anything matched by an
// accumulated set of gitignore patterns (global, system, and any
// .gitignore found while descending).
type Walker struct {
	ps []gitignore.Pattern
	m  gitignore.Matcher
}

// New constructs a Walker seeded with the system and global gitignore
// patterns (/etc/gitconfig, ~/.gitconfig), mirroring
// walk.NewGitignoreWalker in the teacher fork.
func New() (*Walker, error) {
	w := &Walker{}
	if err := w.loadGlobalGitignore(); err != nil {
		return nil, err
	}
	return w, nil
}

// Walk satisfies engine.WalkFunc: it descends root, calling visit for
// every non-directory entry (symlinks included, not followed) not
// excluded by a gitignore pattern.
func (w *Walker) Walk(root string, visit func(path string, mode, uid, gid uint32, mtime time.Time) error) error {
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	return w.walk(root, split(root), info, visit)
}

func (w *Walker) walk(path string, pathSplit []string, info os.FileInfo, visit func(string, uint32, uint32, uint32, time.Time) error) error {
	if !info.IsDir() {
		mode, uid, gid, mtime := statInfo(info)
		return visit(path, mode, uid, gid, mtime)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	l := len(w.ps)
	if err := w.readGitignore(path, pathSplit); err != nil {
		return err
	}

	for _, d := range entries {
		name := d.Name()
		childPath := filepath.Join(path, name)
		childSplit := append(append([]string{}, pathSplit...), name)
		if w.m.Match(childSplit, d.IsDir()) {
			continue
		}
		childInfo, err := d.Info()
		if err != nil {
			continue
		}
		if err := w.walk(childPath, childSplit, childInfo, visit); err != nil {
			return err
		}
	}

	w.ps = w.ps[:l]
	w.m = gitignore.NewMatcher(w.ps)
	return nil
}

func split(path string) []string {
	sep := string(os.PathSeparator)
	if path == sep {
		return []string{}
	}
	return strings.Split(strings.TrimPrefix(path, sep), sep)
}

func (w *Walker) loadGlobalGitignore() error {
	fsys := osfs.New("/")
	system, err := gitignore.LoadSystemPatterns(fsys)
	if err != nil {
		return err
	}
	global, err := gitignore.LoadGlobalPatterns(fsys)
	if err != nil {
		return err
	}
	ps := global
	if len(system) != 0 {
		ps = append(system, global...)
	}
	w.ps = ps
	w.m = gitignore.NewMatcher(ps)
	return nil
}

func (w *Walker) readGitignore(path string, pathSplit []string) error {
	f, err := os.Open(filepath.Join(path, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "#") && len(strings.TrimSpace(line)) > 0 {
			w.ps = append(w.ps, gitignore.ParsePattern(line, pathSplit))
		}
	}
	w.m = gitignore.NewMatcher(w.ps)
	return s.Err()
}

var _ engine.WalkFunc = (*Walker)(nil).Walk
