// Package trie implements the path trie that serves queries shorter than
// the trigram floor (length 1 or 2), per §4.3 of the engine design.
//
// Each indexed path is stored with its leading path separator removed
// (every path the engine indexes is absolute, so every stored path would
// otherwise share a single redundant root edge); a lookup walks the
// query bytes from that same position and yields every file whose path
// has the query as a prefix there, which is exactly what the worked
// example in the specification exercises ("/ab", "/abc", "/abd" all
// match a query of "ab").
//
// A run of two or more repeated bytes is collapsed into a single edge
// labeled with a repeat count, following the redesign note that a
// dedicated edge variant should replace the source's in-band 0xFF
// sentinel byte: here that variant is the `run` struct, never a
// reserved byte value that could collide with real path bytes.
package trie

// FileID is the 64-bit file identifier used across the engine.
type FileID = uint64

// run is the sum-type alternative to a plain one-byte edge: it
// represents `length` consecutive occurrences of the same byte,
// collapsed into a single edge to `to`.
type run struct {
	length int
	to     *Node
}

// Node is one trie node. A node may have both single-byte children and
// run children for different bytes; for any one byte, exactly one of
// the two maps holds the edge (never both), maintained by setEdge.
type Node struct {
	end    bool
	fileID FileID

	children map[byte]*Node
	runs     map[byte]*run
}

// Trie is a 256-ary byte-labeled trie over path suffixes with the
// leading separator stripped.
type Trie struct {
	root *Node
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{root: &Node{}}
}

// leadingSep is the byte every absolute path the engine indexes begins
// with; Insert and Lookup both key off the bytes that follow it.
const leadingSep = '/'

func trimLeadingSep(path string) string {
	if len(path) > 0 && path[0] == leadingSep {
		return path[1:]
	}
	return path
}

// Insert adds path (with its leading separator stripped, if present)
// under id.
func (t *Trie) Insert(path string, id FileID) {
	insert(t.root, []byte(trimLeadingSep(path)), id)
}

func setEdge(node *Node, c byte, length int, to *Node) {
	delete(node.children, c)
	delete(node.runs, c)
	if length <= 1 {
		if node.children == nil {
			node.children = make(map[byte]*Node)
		}
		node.children[c] = to
	} else {
		if node.runs == nil {
			node.runs = make(map[byte]*run)
		}
		node.runs[c] = &run{length: length, to: to}
	}
}

func insert(node *Node, path []byte, id FileID) {
	if len(path) == 0 {
		node.end = true
		node.fileID = id
		return
	}
	c := path[0]
	r := 1
	for r < len(path) && path[r] == c {
		r++
	}

	if child, ok := node.children[c]; ok {
		insert(child, path[1:], id)
		return
	}
	if ru, ok := node.runs[c]; ok {
		m := r
		if ru.length < m {
			m = ru.length
		}
		if m < ru.length {
			// The new path's run is shorter than the existing edge's;
			// split the edge at m so the new path can end (or branch)
			// exactly there, the way a radix tree splits a compressed
			// edge on divergence.
			mid := &Node{}
			setEdge(mid, c, ru.length-m, ru.to)
			setEdge(node, c, m, mid)
			insert(mid, path[m:], id)
			return
		}
		// m == ru.length: the existing edge is fully consumed; any
		// leftover repeats of c continue naturally from ru.to.
		insert(ru.to, path[ru.length:], id)
		return
	}

	to := &Node{}
	setEdge(node, c, r, to)
	insert(to, path[r:], id)
}

// Lookup returns up to maxResults file ids whose stored path (with
// leading separator stripped) begins with query. maxResults <= 0 means
// unbounded.
func (t *Trie) Lookup(query string, maxResults int) []FileID {
	q := []byte(query)
	node := t.root
	i := 0
	for i < len(q) {
		c := q[i]
		if child, ok := node.children[c]; ok {
			node = child
			i++
			continue
		}
		if ru, ok := node.runs[c]; ok {
			remaining := len(q) - i
			consume := ru.length
			if remaining < consume {
				consume = remaining
			}
			for j := 0; j < consume; j++ {
				if q[i+j] != c {
					return nil
				}
			}
			// Every path reaching this edge has at least ru.length
			// copies of c here (a shorter run would have forced a
			// split), so even a partial consume is fully satisfied by
			// everything reachable from ru.to.
			i += consume
			node = ru.to
			continue
		}
		return nil
	}
	return collect(node, maxResults)
}

func collect(node *Node, maxResults int) []FileID {
	var out []FileID
	var walk func(n *Node) bool // returns false to stop early
	walk = func(n *Node) bool {
		if n.end {
			out = append(out, n.fileID)
			if maxResults > 0 && len(out) >= maxResults {
				return false
			}
		}
		for _, child := range n.children {
			if !walk(child) {
				return false
			}
		}
		for _, ru := range n.runs {
			if !walk(ru.to) {
				return false
			}
		}
		return true
	}
	walk(node)
	return out
}
