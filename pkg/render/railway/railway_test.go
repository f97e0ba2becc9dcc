package railway

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/mlehnert/railgraph/pkg/layout"
)

func testDocument() layout.Document {
	at := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	return layout.Document{
		Version: layout.Version,
		Repo:    "ada/widgets",
		Lanes:   2,
		Commits: []layout.Commit{
			{Hash: "a1", Short: "a1", Index: 0, Rail: 0, Ref: "main", Author: "Ada", At: at, Type: "feat", Title: "start"},
			{Hash: "b2", Short: "b2", Parents: []string{"a1"}, Index: 1, Rail: 1, Ref: "topic", At: at.Add(time.Hour), Title: "see #12"},
			{Hash: "c3", Short: "c3", Parents: []string{"a1"}, Index: 2, Rail: 0, Ref: "main", At: at.Add(2 * time.Hour), Title: "drop api", Breaking: true},
		},
		Segments: []layout.Segment{
			{From: "a1", To: "b2", Rail: 1, Ref: "topic", Kind: layout.KindBranch},
			{From: "a1", To: "c3", Rail: 0, Ref: "main", Kind: layout.KindContinue, Ambiguous: true},
		},
		Refs: []layout.Label{{Name: "main", Hash: "c3"}, {Name: "topic", Hash: "b2"}},
		Tags: []layout.Label{{Name: "v1.0.0", Hash: "a1"}},
	}
}

func TestRefColorDeterministic(t *testing.T) {
	if RefColor("devel") != RefColor("devel") {
		t.Error("same name must give the same color")
	}
	if RefColor("devel") == RefColor("main") {
		t.Error("different names should give different colors")
	}
}

func TestRefColorStaysInBand(t *testing.T) {
	for _, name := range []string{"main", "devel", "feature/very-dark", "a", "release-2026.01"} {
		c := RefColor(name)
		if len(c) != 7 || c[0] != '#' {
			t.Fatalf("RefColor(%q) = %q, want #rrggbb", name, c)
		}
		rgb := parseHex(t, c)
		_, s, l := rgbToHSL(rgb[0], rgb[1], rgb[2])
		if s < 0.38 || s > 0.52 {
			t.Errorf("RefColor(%q) saturation %f outside band", name, s)
		}
		if l < 0.58 || l > 0.92 {
			t.Errorf("RefColor(%q) lightness %f outside band", name, l)
		}
	}
}

func parseHex(t *testing.T, c string) []byte {
	t.Helper()
	rgb, err := hex.DecodeString(c[1:])
	if err != nil {
		t.Fatalf("decoding %q: %v", c, err)
	}
	return rgb
}

func TestRenderSVG(t *testing.T) {
	out := string(RenderSVG(testDocument()))

	if !strings.Contains(out, `viewBox="0 0 `) {
		t.Error("missing viewBox")
	}
	if got := strings.Count(out, `class="stop"`); got != 3 {
		t.Errorf("got %d stops, want 3", got)
	}
	if got := strings.Count(out, "<path "); got != 2 {
		t.Errorf("got %d rail paths, want 2", got)
	}
	if !strings.Contains(out, `id="b2"`) {
		t.Error("stops must carry the commit hash as id")
	}
	if !strings.Contains(out, "stroke-dasharray") {
		t.Error("ambiguous segment must be dashed")
	}
	if !strings.Contains(out, `stroke="gray"`) {
		t.Error("ambiguous segment must be grey")
	}
	if !strings.Contains(out, `fill="#ff4545"`) {
		t.Error("breaking commit stop must be highlighted")
	}
	if !strings.Contains(out, ">topic </tspan>") {
		t.Error("missing ref label")
	}
	if !strings.Contains(out, "v1.0.0") {
		t.Error("missing tag label")
	}
	if !strings.Contains(out, ">a1</text>") {
		t.Error("missing short hash gutter")
	}
}

func TestRenderSVGOptions(t *testing.T) {
	d := testDocument()

	out := string(RenderSVG(d, WithoutHashLabels()))
	if strings.Contains(out, ">a1</text>") {
		t.Error("hash gutter rendered despite WithoutHashLabels")
	}

	plain := string(RenderSVG(d, WithScale(1)))
	if !strings.Contains(plain, `width="224"`) {
		t.Errorf("unexpected unscaled width:\n%s", firstLine(plain))
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func TestRenderSVGEmpty(t *testing.T) {
	out := string(RenderSVG(layout.Document{}))
	if !strings.Contains(out, "<svg ") || !strings.Contains(out, "</svg>") {
		t.Errorf("empty document must still produce a well-formed svg:\n%s", out)
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHTML(&buf, testDocument(), WithNow(time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.Contains(out, "<title>ada/widgets</title>") {
		t.Error("title must default to the repo slug")
	}
	if !strings.Contains(out, "const DATA = {") {
		t.Error("missing embedded commit table")
	}
	if !strings.Contains(out, `https://github.com/ada/widgets/issues/12`) {
		t.Error("bare issue reference not linked against the repo slug")
	}
	if !strings.Contains(out, "railway_svg") {
		t.Error("missing embedded svg")
	}
}

func TestLinkifyIssues(t *testing.T) {
	cases := []struct {
		text, slug string
		want       string
	}{
		{
			"fix #12", "ada/widgets",
			`fix <a target="_blank" href="https://github.com/ada/widgets/issues/12">#12</a>`,
		},
		{
			"see other/repo#5", "ada/widgets",
			`see <a target="_blank" href="https://github.com/other/repo/issues/5">other/repo#5</a>`,
		},
		{"fix #12", "", "fix #12"},
		{"no refs here", "ada/widgets", "no refs here"},
		{"a < b #3", "x/y", `a &lt; b <a target="_blank" href="https://github.com/x/y/issues/3">#3</a>`},
	}
	for _, tc := range cases {
		if got := linkifyIssues(tc.text, tc.slug); got != tc.want {
			t.Errorf("linkifyIssues(%q, %q) = %q, want %q", tc.text, tc.slug, got, tc.want)
		}
	}
}
