// Package render provides output rendering for railway layouts.
//
// The [railway] subpackage draws the signature railway diagram as SVG and
// a self-contained HTML page. The [nodelink] subpackage renders the commit
// graph as a traditional directed diagram using Graphviz.
//
// The [ToPDF] and [ToPNG] functions in this package convert any SVG to
// other formats using the external rsvg-convert tool (from librsvg) and
// are shared by both renderers.
//
// [railway]: github.com/mlehnert/railgraph/pkg/render/railway
// [nodelink]: github.com/mlehnert/railgraph/pkg/render/nodelink
package render
