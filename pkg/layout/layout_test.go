package layout

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/history/order"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
	"github.com/mlehnert/railgraph/pkg/rails"
)

func testDocument(t *testing.T) Document {
	t.Helper()
	base := time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

	g := history.New()
	commits := []history.Commit{
		{
			Hash:      "aaaa111",
			Author:    history.Signature{Name: "Ada", Email: "ada@example.org", When: base},
			Committer: history.Signature{When: base},
			Message:   history.ParseMessage("feat(core): initial import"),
		},
		{
			Hash:      "bbbb222",
			Parents:   []history.Hash{"aaaa111"},
			Committer: history.Signature{When: base.Add(time.Hour)},
			Message:   history.ParseMessage("fix: handle empty input"),
		},
		{
			Hash:      "cccc333",
			Parents:   []history.Hash{"aaaa111", "bbbb222"},
			Committer: history.Signature{When: base.Add(2 * time.Hour)},
			Message:   history.ParseMessage("merge fix branch"),
		},
	}
	for _, c := range commits {
		if err := g.Add(c); err != nil {
			t.Fatal(err)
		}
	}

	ord, err := order.Sort(g)
	if err != nil {
		t.Fatal(err)
	}
	logs := []timeline.RefLog{
		{Name: "main", Tip: "cccc333", Moves: []timeline.Move{
			{Hash: "aaaa111", At: base},
			{Hash: "cccc333", At: base.Add(2 * time.Hour)},
		}},
		{Name: "fix", Tip: "bbbb222", Moves: []timeline.Move{
			{Hash: "aaaa111", At: base.Add(time.Minute)},
			{Hash: "bbbb222", At: base.Add(time.Hour)},
		}},
	}
	l, err := rails.Assign(g, ord, timeline.Reconstruct(g, logs))
	if err != nil {
		t.Fatal(err)
	}

	d, err := Build(g, l,
		WithRepo("ada/widgets"),
		WithGeneratedAt(base.Add(3*time.Hour)),
		WithRefs([]Label{{Name: "main", Hash: "cccc333"}, {Name: "fix", Hash: "bbbb222"}}),
		WithTags([]Label{{Name: "v1.0.0", Hash: "cccc333"}}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestBuild(t *testing.T) {
	d := testDocument(t)

	if d.Version != Version {
		t.Errorf("Version = %d, want %d", d.Version, Version)
	}
	if d.Repo != "ada/widgets" {
		t.Errorf("Repo = %q, want ada/widgets", d.Repo)
	}
	if len(d.Commits) != 3 {
		t.Fatalf("got %d commits, want 3", len(d.Commits))
	}

	first := d.Commits[0]
	if first.Hash != "aaaa111" || first.Index != 0 {
		t.Errorf("first commit = %+v, want aaaa111 at index 0", first)
	}
	if first.Author != "Ada" || first.Type != "feat" || first.Scope != "core" {
		t.Errorf("commit metadata not carried over: %+v", first)
	}

	merge, ok := d.Commit("cccc333")
	if !ok {
		t.Fatal("Commit(cccc333) not found")
	}
	if !merge.Merge || len(merge.Parents) != 2 {
		t.Errorf("merge commit = %+v, want two parents and merge flag", merge)
	}

	if len(d.Refs) != 2 || d.Refs[0].Name != "main" {
		t.Errorf("Refs = %+v, want main and fix", d.Refs)
	}
	if len(d.Tags) != 1 || d.Tags[0].Hash != "cccc333" {
		t.Errorf("Tags = %+v, want v1.0.0 at cccc333", d.Tags)
	}

	if len(d.Segments) == 0 {
		t.Fatal("no segments")
	}
	for _, s := range d.Segments {
		switch s.Kind {
		case KindContinue, KindBranch, KindConverge:
		default:
			t.Errorf("segment %s->%s has unknown kind %q", s.From, s.To, s.Kind)
		}
	}
}

func TestBuildRejectsUnknownCommit(t *testing.T) {
	g := history.New()
	l := &rails.Layout{Stops: []rails.Stop{{Hash: "missing"}}}
	if _, err := Build(g, l); err == nil {
		t.Fatal("Build accepted a stop for a commit the graph does not hold")
	}
}

func TestRoundTrip(t *testing.T) {
	d := testDocument(t)

	data, err := Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d, back) {
		t.Errorf("round trip mismatch:\n%+v\n%+v", back, d)
	}
}

func TestFileRoundTrip(t *testing.T) {
	d := testDocument(t)
	path := t.TempDir() + "/layout.json"

	if err := WriteFile(d, path); err != nil {
		t.Fatal(err)
	}
	back, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Repo != d.Repo || len(back.Commits) != len(d.Commits) {
		t.Errorf("file round trip mismatch: %+v", back)
	}
}

func TestReadRejectsNewerVersion(t *testing.T) {
	_, err := Read(strings.NewReader(`{"version": 99, "commits": [], "segments": []}`))
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Errorf("Read = %v, want version error", err)
	}
}
