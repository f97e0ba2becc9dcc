// Package rails assigns every commit in the chrono-topological order to a
// visual rail (lane), producing the complete layout that the renderer draws.
//
// # Model
//
// A rail is the lane one reconstructed branch lineage occupies over the
// ordered commit axis. Rails are lifetime-scoped: a rail opens when a
// lineage first needs a lane and closes when that lineage is absorbed into
// another rail by a merge or runs out of descendants. Closed rail indices
// return to a free list and are reused, keeping the number of concurrently
// open lanes minimal - a streaming greedy equivalent of interval-graph
// coloring, valid because the visiting order makes every rail's candidacy
// window contiguous.
//
// # Attribution
//
// Each rail carries an owning ref when the timeline data supports one. A
// commit that continues a rail without a corroborating timeline entry keeps
// the rail open but gets an ambiguous segment: the layout records that the
// span's branch membership cannot be proven, and the renderer shows it grey
// rather than pretending to know.
//
// # Walk
//
// [Assign] consumes the order in a single forward pass. Per commit it
// considers the open rails whose tip is one of the commit's parents,
// continues the best match (ref ownership first, then mainline-parent
// continuation through merges, then plain single-child succession), or
// opens a fresh rail when no open lane connects. Ties between refs claiming
// the same commit resolve by most recent timeline assertion, then by ref
// name, so the result is deterministic for a given input.
package rails
