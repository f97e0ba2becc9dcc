package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/render"
	"github.com/mlehnert/railgraph/pkg/render/railway"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the commit title, author, and rail in node labels.
	// When false, only the short hash is shown.
	Detailed bool
}

// ToDOT converts a layout document to Graphviz DOT format for node-link
// visualization. The resulting DOT string can be rendered with [RenderSVG]
// or [RenderPNG].
//
// Nodes are colored by the ref owning their rail; commits with no owning
// ref get dashed outlines and grey fill. Edges point from parent to child
// and the graph grows upward, newest commits on top.
func ToDOT(d layout.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph railway {\n")
	buf.WriteString("  rankdir=BT;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, c := range d.Commits {
		label := fmtLabel(c, opts.Detailed)
		attrs := fmtAttrs(c, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", c.Hash, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range d.Commits {
		for _, p := range c.Parents {
			fmt.Fprintf(&buf, "  %q -> %q;\n", p, c.Hash)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(c layout.Commit, detailed bool) string {
	if !detailed {
		return c.Short
	}

	parts := []string{c.Short, c.Title}
	if c.Author != "" {
		parts = append(parts, c.Author)
	}
	parts = append(parts, fmt.Sprintf("rail %d", c.Rail))
	return strings.Join(parts, "\n")
}

func fmtAttrs(c layout.Commit, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case c.Breaking:
		attrs = append(attrs, `color="#ff4545"`, "penwidth=2")
	case c.Ref == "":
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	default:
		attrs = append(attrs, fmt.Sprintf("color=%q", railway.RefColor(c.Ref)))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the Graphviz svg element so the drawing
// starts at the origin and scales with its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
