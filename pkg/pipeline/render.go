package pipeline

import (
	"bytes"
	"fmt"

	"github.com/mlehnert/railgraph/pkg/layout"
	"github.com/mlehnert/railgraph/pkg/render"
	"github.com/mlehnert/railgraph/pkg/render/nodelink"
	"github.com/mlehnert/railgraph/pkg/render/railway"
)

// RenderFromDocument generates output artifacts in the requested formats.
// This is the preferred entry point when you have a layout.Document,
// whether freshly computed or read back from a file or cache.
func RenderFromDocument(d layout.Document, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return renderNodelink(d, opts)
	}
	return renderRailway(d, opts)
}

// renderRailway generates railway outputs.
func renderRailway(d layout.Document, opts Options) (map[string][]byte, error) {
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = railway.RenderSVG(d, svgOpts...)
		case FormatHTML:
			data, err = renderHTMLPage(d, opts, svgOpts)
		case FormatPNG:
			data, err = render.ToPNG(railway.RenderSVG(d, svgOpts...), opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(railway.RenderSVG(d, svgOpts...))
		case FormatDOT:
			data = []byte(nodelink.ToDOT(d, nodelink.Options{Detailed: opts.Detailed}))
		case FormatJSON:
			data, err = layout.Marshal(d)
		default:
			return nil, fmt.Errorf("unsupported railway format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderNodelink generates nodelink outputs via Graphviz.
func renderNodelink(d layout.Document, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(d, nodelink.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot, 2.0)
		case FormatPDF:
			var svg []byte
			svg, err = nodelink.RenderSVG(dot)
			if err == nil {
				data, err = render.ToPDF(svg)
			}
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			data, err = layout.Marshal(d)
		default:
			return nil, fmt.Errorf("unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// renderHTMLPage renders the interactive HTML page for a document.
func renderHTMLPage(d layout.Document, opts Options, svgOpts []railway.SVGOption) ([]byte, error) {
	htmlOpts := []railway.HTMLOption{railway.WithSVGOptions(svgOpts...)}
	if opts.Title != "" {
		htmlOpts = append(htmlOpts, railway.WithTitle(opts.Title))
	}
	if !opts.Now.IsZero() {
		htmlOpts = append(htmlOpts, railway.WithNow(opts.Now))
	}

	var buf bytes.Buffer
	if err := railway.RenderHTML(&buf, d, htmlOpts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildSVGOptions builds railway SVG rendering options.
func buildSVGOptions(opts Options) []railway.SVGOption {
	var svgOpts []railway.SVGOption
	if opts.Scale != 0 {
		svgOpts = append(svgOpts, railway.WithScale(opts.Scale))
	}
	if opts.HideHashes {
		svgOpts = append(svgOpts, railway.WithoutHashLabels())
	}
	return svgOpts
}
