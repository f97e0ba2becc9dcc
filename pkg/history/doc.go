// Package history provides the in-memory commit graph that the railgraph
// pipeline operates on.
//
// # Overview
//
// Railgraph reconstructs a navigable picture of a repository's past: which
// commits happened, in what order, and which branch each one belonged to.
// This package holds the raw material for that reconstruction - an immutable
// set of [Commit] records connected by parent edges, indexed both ways so
// that children can be enumerated as cheaply as parents.
//
// Commits are created once, when they are read from the repository, and are
// never mutated afterwards. The graph owns them for the duration of a single
// pipeline run; nothing is shared across runs.
//
// # Basic Usage
//
// Create a graph with [New], add commits with [Graph.Add], and validate the
// structure with [Graph.Validate] before handing it to downstream stages:
//
//	g := history.New()
//	g.Add(history.Commit{Hash: "a1", CommittedAt: t0})
//	g.Add(history.Commit{Hash: "b2", Parents: []history.Hash{"a1"}, CommittedAt: t1})
//	if err := g.Validate(); err != nil {
//	    return err
//	}
//
// A real repository's commit graph is acyclic by construction, so a cycle
// reported by [Graph.Validate] means the upstream data is corrupt. The error
// carries the offending hashes so the corruption can be diagnosed.
//
// # Parent Ordering
//
// A commit's parent list preserves repository order: the first entry is the
// mainline parent, the lineage that visually continues through a merge. Rail
// assignment relies on this ordering, so it must not be rearranged.
//
// # Related Packages
//
// The [order] subpackage produces the chrono-topological visiting order over
// a graph, and the [timeline] subpackage reconstructs per-ref membership from
// reflog data.
//
// [order]: github.com/mlehnert/railgraph/pkg/history/order
// [timeline]: github.com/mlehnert/railgraph/pkg/history/timeline
package history
