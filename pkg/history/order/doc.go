// Package order produces the single linear visiting order that the rail
// assigner walks: a chrono-topological sort of the commit graph.
//
// # Why Not Plain Chronological
//
// Commit timestamps are not trustworthy as an ordering on their own. Clocks
// drift, rebases rewrite dates, and imports can give a child an earlier
// timestamp than its parent. A pure timestamp sort would place such a child
// before its parent and break every layout downstream.
//
// # Why Not Plain Topological
//
// A pure topological sort is valid but arbitrary among unrelated commits:
// a stale branch that nothing ever merged would drift to wherever the tie
// break happens to put it, often the most recent end of the order.
//
// # The Combination
//
// [Sort] runs a variant of Kahn's algorithm keyed by commit time: a commit
// becomes ready only once all of its parents have been emitted, and among
// ready commits the earliest committer timestamp wins, with the lexically
// smallest hash as the final deterministic tie break. Topology always
// overrides chronology; chronology only decides among commits that are
// simultaneously unblocked.
//
// Complexity is O(n log n) with a binary heap over ready commits.
package order
