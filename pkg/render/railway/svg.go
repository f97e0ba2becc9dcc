package railway

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/mlehnert/railgraph/pkg/layout"
)

// Grid geometry in SVG user units.
const (
	stepX      = 24.0
	stepY      = 30.0
	paddingX   = 50.0
	paddingY   = 8.0
	stopRadius = 5.0
	railWidth  = 6.0
)

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	scale      float64
	hashLabels bool
}

// WithScale sets the on-page magnification of the drawing.
func WithScale(s float64) SVGOption { return func(r *svgRenderer) { r.scale = s } }

// WithoutHashLabels drops the short-hash gutter on the left.
func WithoutHashLabels() SVGOption { return func(r *svgRenderer) { r.hashLabels = false } }

// RenderSVG draws the railway diagram for a layout document. Commits are
// laid out bottom-up, rails as colored lines, the commits themselves as
// stops. Segments not backed by a ref assertion are drawn grey and dashed.
func RenderSVG(d layout.Document, opts ...SVGOption) []byte {
	r := svgRenderer{scale: 1.5, hashLabels: true}
	for _, opt := range opts {
		opt(&r)
	}

	grid := newGrid(d)

	width := float64(grid.maxCol)*stepX + 2*paddingX + 100
	height := float64(grid.maxRow)*stepY + 2*paddingY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" id="railway_svg" viewBox="0 0 %g %g" width="%g" height="%g">`+"\n",
		width, height, width*r.scale, height*r.scale)

	renderRails(&buf, d, grid)
	renderStops(&buf, d, grid)
	if r.hashLabels {
		renderHashLabels(&buf, d, grid)
	}
	renderRefLabels(&buf, d, grid)

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// grid maps commits to lattice cells. Row 0 is the newest commit, at the
// top of the drawing.
type grid struct {
	cells  map[string]cell
	maxCol int
	maxRow int
}

type cell struct{ col, row int }

func newGrid(d layout.Document) grid {
	g := grid{cells: make(map[string]cell, len(d.Commits))}
	maxIndex := 0
	for _, c := range d.Commits {
		if c.Index > maxIndex {
			maxIndex = c.Index
		}
		if c.Rail > g.maxCol {
			g.maxCol = c.Rail
		}
	}
	for _, c := range d.Commits {
		g.cells[c.Hash] = cell{col: c.Rail, row: maxIndex - c.Index}
	}
	g.maxRow = maxIndex
	return g
}

func (g grid) x(col int) float64 { return paddingX + float64(col)*stepX }
func (g grid) y(row int) float64 { return paddingY + float64(row)*stepY }

// occupied reports whether any stop sits on the column strictly between
// the two rows. Rails crossing such a stop detour around it.
func (g grid) occupied(col, above, below int) bool {
	for _, c := range g.cells {
		if c.col == col && c.row > above && c.row < below {
			return true
		}
	}
	return false
}

func renderRails(buf *bytes.Buffer, d layout.Document, g grid) {
	// Curved connections first so that straight runs paint over them at
	// the joins.
	var straight []string
	for _, s := range d.Segments {
		child, okC := g.cells[s.To]
		parent, okP := g.cells[s.From]
		if !okC || !okP {
			continue
		}

		color := greyColor
		dashed := ""
		if s.Ref != "" && !s.Ambiguous {
			color = RefColor(s.Ref)
		}
		if s.Ambiguous {
			dashed = ` stroke-dasharray="4 3"`
		}

		path := railPath(g, child, parent)
		el := fmt.Sprintf(`  <path d="%s" stroke="%s" stroke-width="%g" fill="none"%s/>`+"\n",
			path, color, railWidth, dashed)

		if child.col == parent.col && !g.occupied(child.col, child.row, parent.row) {
			straight = append(straight, el)
			continue
		}
		buf.WriteString(el)
	}
	for _, el := range straight {
		buf.WriteString(el)
	}
}

// railPath builds the path from a commit down to one of its parents. Same
// column runs are straight lines; column changes join with an S curve just
// above the parent; occupied columns are detoured around.
func railPath(g grid, child, parent cell) string {
	var b bytes.Buffer
	dx := child.col - parent.col

	switch {
	case child.col == parent.col && g.occupied(child.col, child.row, parent.row):
		fmt.Fprintf(&b, "M %g %g ", g.x(child.col), g.y(child.row))
		sCurve(&b, -0.5, 1)
		fmt.Fprintf(&b, "V %g ", g.y(parent.row-1))
		sCurve(&b, 0.5, 1)
	case dx == 0:
		fmt.Fprintf(&b, "M %g %g V %g", g.x(child.col), g.y(child.row), g.y(parent.row))
	case g.occupied(maxInt(child.col, parent.col), child.row, parent.row):
		left, right := float64(dx), float64(dx)
		if dx%2 == 0 {
			left--
			right++
		}
		fmt.Fprintf(&b, "M %g %g ", g.x(child.col), g.y(child.row))
		sCurve(&b, left/2, 1)
		fmt.Fprintf(&b, "V %g ", g.y(parent.row-1))
		sCurve(&b, right/2, 1)
	case dx > 0:
		fmt.Fprintf(&b, "M %g %g V %g ", g.x(child.col), g.y(child.row), g.y(parent.row-1))
		sCurve(&b, float64(dx), 1)
	default:
		fmt.Fprintf(&b, "M %g %g V %g ", g.x(parent.col), g.y(parent.row), g.y(child.row+1))
		sCurve(&b, float64(-dx), -1)
	}
	return b.String()
}

// sCurve appends two cubic segments that shift the path dx columns left
// and dy rows down, easing in and out.
func sCurve(b *bytes.Buffer, dx, dy float64) {
	fmt.Fprintf(b, "c %g %g %g %g %g %g ",
		0.0, stepY*dy/5, -stepX*dx/4, stepY*dy*2/5, -stepX*dx/2, stepY*dy/2)
	fmt.Fprintf(b, "c %g %g %g %g %g %g ",
		-stepX*dx/4, stepY*dy/10, -stepX*dx/2, stepY*dy*3/10, -stepX*dx/2, stepY*dy/2)
}

func renderStops(buf *bytes.Buffer, d layout.Document, g grid) {
	for _, c := range d.Commits {
		cc := g.cells[c.Hash]
		fill := stopColor
		if c.Breaking {
			fill = breakingColor
		}
		fmt.Fprintf(buf, `  <circle cx="%g" cy="%g" r="%g" fill="%s" id="%s" class="stop"/>`+"\n",
			g.x(cc.col), g.y(cc.row), stopRadius, fill, c.Hash)
	}
}

func renderHashLabels(buf *bytes.Buffer, d layout.Document, g grid) {
	for _, c := range d.Commits {
		cc := g.cells[c.Hash]
		fmt.Fprintf(buf, `  <text x="%g" y="%g" fill="%s" font-family="Ubuntu Mono" font-size="50%%">%s</text>`+"\n",
			paddingY, g.y(cc.row)+2, labelColor, c.Short)
	}
}

func renderRefLabels(buf *bytes.Buffer, d layout.Document, g grid) {
	type span struct {
		text  string
		color string
	}
	byHash := make(map[string][]span)
	for _, t := range d.Tags {
		byHash[t.Hash] = append(byHash[t.Hash], span{text: "\U0001F3F7 " + t.Name, color: tagColor})
	}
	for _, ref := range d.Refs {
		byHash[ref.Hash] = append(byHash[ref.Hash], span{text: ref.Name, color: RefColor(ref.Name)})
	}

	hashes := make([]string, 0, len(byHash))
	for h := range byHash {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	for _, h := range hashes {
		cc, ok := g.cells[h]
		if !ok {
			continue
		}
		fmt.Fprintf(buf, `  <text x="%g" y="%g">`, g.x(cc.col)+paddingY, g.y(cc.row)+2)
		for _, sp := range byHash[h] {
			fmt.Fprintf(buf, `<tspan fill="%s" font-family="Ubuntu Mono" font-size="60%%" font-weight="bold">%s </tspan>`,
				sp.color, escape(sp.text))
		}
		buf.WriteString("</text>\n")
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
