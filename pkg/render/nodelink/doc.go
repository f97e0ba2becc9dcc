// Package nodelink renders the commit graph as a traditional node-link
// diagram using Graphviz. Every commit becomes a box, every parent link an
// arrow, with rail colors carried over from the railway renderer. Useful as
// a cross-check of the railway view, since Graphviz computes its own
// positions from the raw topology.
package nodelink
