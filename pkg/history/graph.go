package history

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidHash is returned by [Graph.Add] when the commit hash is
	// empty. Every commit must carry a non-empty identifier.
	ErrInvalidHash = errors.New("commit hash must not be empty")

	// ErrDuplicateCommit is returned by [Graph.Add] when a commit with the
	// same hash is already present. Commits are immutable; re-adding one is
	// always a caller bug.
	ErrDuplicateCommit = errors.New("duplicate commit hash")

	// ErrDanglingParent is returned by [Graph.Validate] when a commit names
	// a parent that is not in the graph. The repository reader collects the
	// full reachable closure, so a dangling parent indicates truncated or
	// corrupt upstream data.
	ErrDanglingParent = errors.New("parent commit not in graph")

	// ErrCyclicHistory is returned by [Graph.Validate] when the parent
	// edges contain a cycle. A real repository's commit graph is acyclic by
	// construction, so this always indicates corrupt upstream data. The
	// error message names the commits on the cycle.
	ErrCyclicHistory = errors.New("commit history contains a cycle")
)

// Graph is the in-memory commit DAG: commits keyed by hash, plus a derived
// child index so merges and branch points can be walked in both directions.
//
// The zero value is not usable - use [New]. Graph is not safe for concurrent
// mutation; once fully built it is read-only and may be shared freely.
type Graph struct {
	commits  map[Hash]*Commit
	children map[Hash][]Hash
}

// New creates an empty commit graph.
func New() *Graph {
	return &Graph{
		commits:  make(map[Hash]*Commit),
		children: make(map[Hash][]Hash),
	}
}

// Add inserts a commit and indexes it as a child of each of its parents.
// Returns ErrInvalidHash for an empty hash or ErrDuplicateCommit if the hash
// is already present. Parents need not exist yet; [Graph.Validate] checks
// them once the graph is complete.
func (g *Graph) Add(c Commit) error {
	if c.Hash == "" {
		return ErrInvalidHash
	}
	if _, exists := g.commits[c.Hash]; exists {
		return ErrDuplicateCommit
	}
	commit := &c
	g.commits[commit.Hash] = commit
	for _, p := range commit.Parents {
		g.children[p] = append(g.children[p], commit.Hash)
	}
	return nil
}

// Commit returns the commit with the given hash and true, or nil and false
// if not present.
func (g *Graph) Commit(h Hash) (*Commit, bool) {
	c, ok := g.commits[h]
	return c, ok
}

// Len returns the number of commits in the graph.
func (g *Graph) Len() int { return len(g.commits) }

// Parents returns the parent hashes of the given commit in repository order
// (mainline parent first). Returns nil for roots and unknown hashes.
func (g *Graph) Parents(h Hash) []Hash {
	if c, ok := g.commits[h]; ok {
		return c.Parents
	}
	return nil
}

// Children returns the hashes of commits that list h as a parent. The order
// is insertion order. Returns nil for tips and unknown hashes. The returned
// slice must not be modified.
func (g *Graph) Children(h Hash) []Hash { return g.children[h] }

// ChildCount returns the number of children of the given commit.
func (g *Graph) ChildCount(h Hash) int { return len(g.children[h]) }

// Hashes returns all commit hashes in lexical order. The sort makes
// iteration deterministic across runs, which the layout's idempotence
// guarantee depends on.
func (g *Graph) Hashes() []Hash {
	hashes := make([]Hash, 0, len(g.commits))
	for h := range g.commits {
		hashes = append(hashes, h)
	}
	slices.Sort(hashes)
	return hashes
}

// Roots returns the hashes of commits with no parents, in lexical order.
func (g *Graph) Roots() []Hash {
	var roots []Hash
	for h, c := range g.commits {
		if len(c.Parents) == 0 {
			roots = append(roots, h)
		}
	}
	slices.Sort(roots)
	return roots
}

// Tips returns the hashes of commits with no children, in lexical order.
// These are the ends of all lineages, whether or not a ref still points at
// them.
func (g *Graph) Tips() []Hash {
	var tips []Hash
	for h := range g.commits {
		if len(g.children[h]) == 0 {
			tips = append(tips, h)
		}
	}
	slices.Sort(tips)
	return tips
}

// Validate checks graph integrity and returns nil if valid.
//
// It verifies that every parent reference resolves to a commit in the graph
// and that the parent edges are acyclic. Returns ErrDanglingParent or
// ErrCyclicHistory (wrapped with the offending hashes) otherwise.
//
// Cycle detection runs in O(N+E) time using depth-first search with
// white/gray/black coloring over the child index.
func (g *Graph) Validate() error {
	for h, c := range g.commits {
		for _, p := range c.Parents {
			if _, ok := g.commits[p]; !ok {
				return fmt.Errorf("%w: commit %s references %s", ErrDanglingParent, h, p)
			}
		}
	}
	return g.detectCycles()
}

func (g *Graph) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[Hash]int, len(g.commits))
	var cycle []Hash

	var dfs func(h Hash) bool
	dfs = func(h Hash) bool {
		color[h] = gray
		for _, child := range g.children[h] {
			switch color[child] {
			case white:
				if dfs(child) {
					cycle = append(cycle, h)
					return true
				}
			case gray:
				cycle = append(cycle, child, h)
				return true
			}
		}
		color[h] = black
		return false
	}

	for _, h := range g.Hashes() {
		if color[h] == white && dfs(h) {
			slices.Reverse(cycle)
			return fmt.Errorf("%w: %v", ErrCyclicHistory, cycle)
		}
	}
	return nil
}

// Descends reports whether descendant is reachable from ancestor by
// following child edges, including the trivial case descendant == ancestor.
func (g *Graph) Descends(descendant, ancestor Hash) bool {
	if descendant == ancestor {
		return true
	}
	seen := make(map[Hash]bool)
	stack := []Hash{ancestor}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range g.children[h] {
			if child == descendant {
				return true
			}
			if !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false
}

// Ancestry returns the set of commits reachable from the given starting
// points by following parent edges, including the starting points
// themselves. Unknown hashes are ignored.
func (g *Graph) Ancestry(from ...Hash) map[Hash]bool {
	reach := make(map[Hash]bool)
	stack := make([]Hash, 0, len(from))
	for _, h := range from {
		if _, ok := g.commits[h]; ok && !reach[h] {
			reach[h] = true
			stack = append(stack, h)
		}
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range g.commits[h].Parents {
			if _, ok := g.commits[p]; ok && !reach[p] {
				reach[p] = true
				stack = append(stack, p)
			}
		}
	}
	return reach
}
