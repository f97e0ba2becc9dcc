// Package layout defines the canonical JSON document for a computed railway
// layout: the ordered commits with their rail positions plus every drawn
// segment. The document is self-contained so renderers, the preview server,
// and external tools can consume it without access to the repository.
package layout
