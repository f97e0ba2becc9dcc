package rails

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/history/order"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func commit(h history.Hash, min int, parents ...history.Hash) history.Commit {
	return history.Commit{Hash: h, Parents: parents, Committer: history.Signature{When: at(min)}}
}

func build(t *testing.T, commits ...history.Commit) *history.Graph {
	t.Helper()
	g := history.New()
	for _, c := range commits {
		if err := g.Add(c); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func run(t *testing.T, g *history.Graph, logs []timeline.RefLog) *Layout {
	t.Helper()
	ord, err := order.Sort(g)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	l, err := Assign(g, ord, timeline.Reconstruct(g, logs, timeline.WithWorkers(1)))
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	return l
}

func segment(l *Layout, from, to history.Hash) (Segment, bool) {
	for _, s := range l.Segments {
		if s.From == from && s.To == to {
			return s, true
		}
	}
	return Segment{}, false
}

func TestAssign_Empty(t *testing.T) {
	l, err := Assign(history.New(), nil, nil)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(l.Order) != 0 || len(l.Segments) != 0 || l.Lanes != 0 {
		t.Errorf("empty input produced non-empty layout: %+v", l)
	}
}

func TestAssign_RejectsMismatchedOrder(t *testing.T) {
	g := build(t, commit("r", 0), commit("a", 10, "r"))

	cases := [][]history.Hash{
		{"r"},           // missing commit
		{"r", "a", "r"}, // wrong length
		{"r", "bogus"},  // unknown commit
		{"r", "r"},      // duplicate
	}
	for _, ord := range cases {
		if _, err := Assign(g, ord, nil); !errors.Is(err, ErrIncompleteOrder) {
			t.Errorf("Assign(order=%v) error = %v, want ErrIncompleteOrder", ord, err)
		}
	}
}

// Scenario: linear root plus two independent single-commit branches and a
// later sibling on the root's own branch. Three lineages, but the lanes of
// the short-lived branches are reused.
func TestAssign_IndependentBranches(t *testing.T) {
	g := build(t,
		commit("R", 0),
		commit("D", 10, "R"),
		commit("F", 20, "R"),
		commit("rel", 30, "R"),
	)
	logs := []timeline.RefLog{
		{Name: "dev", Tip: "D", Moves: []timeline.Move{{Hash: "R", At: at(5)}, {Hash: "D", At: at(10)}}},
		{Name: "feature", Tip: "F", Moves: []timeline.Move{{Hash: "R", At: at(6)}, {Hash: "F", At: at(20)}}},
		{Name: "release", Tip: "rel", Moves: []timeline.Move{{Hash: "R", At: at(7)}, {Hash: "rel", At: at(30)}}},
	}

	l := run(t, g, logs)

	wantOrder := []history.Hash{"R", "D", "F", "rel"}
	if !reflect.DeepEqual(l.Order, wantOrder) {
		t.Fatalf("Order = %v, want %v", l.Order, wantOrder)
	}

	r, _ := l.Stop("R")
	d, _ := l.Stop("D")
	f, _ := l.Stop("F")
	rel, _ := l.Stop("rel")

	if r.Rail != rel.Rail {
		t.Errorf("release on rail %d, want the root's rail %d", rel.Rail, r.Rail)
	}
	if d.Rail == r.Rail || f.Rail == r.Rail {
		t.Errorf("branches must leave the root's rail: D=%d F=%d root=%d", d.Rail, f.Rail, r.Rail)
	}
	// D closes before F opens, so F reuses D's lane.
	if d.Rail != f.Rail {
		t.Errorf("F on rail %d, want reused lane %d", f.Rail, d.Rail)
	}
	if l.Opened != 3 {
		t.Errorf("Opened = %d, want 3 lineages", l.Opened)
	}
	if l.Lanes != 2 {
		t.Errorf("Lanes = %d, want 2", l.Lanes)
	}

	for _, tc := range []struct {
		from, to history.Hash
		ref      string
		kind     SegmentKind
	}{
		{"R", "D", "dev", SegmentBranch},
		{"R", "F", "feature", SegmentBranch},
		{"R", "rel", "release", SegmentContinue},
	} {
		s, ok := segment(l, tc.from, tc.to)
		if !ok {
			t.Fatalf("missing segment %s->%s", tc.from, tc.to)
		}
		if s.Ref != tc.ref || s.Kind != tc.kind || s.Ambiguous {
			t.Errorf("segment %s->%s = %+v, want ref=%s kind=%v confirmed", tc.from, tc.to, s, tc.ref, tc.kind)
		}
	}
}

// Scenario: merge diamond. devel merges feature (C2), main merges devel
// (C3), devel fast-forwards to C3 without a distinct move-log entry.
func TestAssign_MergeDiamond(t *testing.T) {
	g := build(t,
		commit("R", 0),
		commit("C1", 10, "R"),
		commit("C2", 30, "R", "C1"),
		commit("C3", 40, "R", "C2"),
	)
	logs := []timeline.RefLog{
		{Name: "main", Tip: "C3", Moves: []timeline.Move{{Hash: "R", At: at(1)}, {Hash: "C3", At: at(40)}}},
		{Name: "devel", Tip: "C3", Moves: []timeline.Move{{Hash: "R", At: at(2)}, {Hash: "C2", At: at(30)}}},
		{Name: "feature", Tip: "C1", Moves: []timeline.Move{{Hash: "R", At: at(3)}, {Hash: "C1", At: at(10)}}},
	}

	l := run(t, g, logs)

	wantOrder := []history.Hash{"R", "C1", "C2", "C3"}
	if !reflect.DeepEqual(l.Order, wantOrder) {
		t.Fatalf("Order = %v, want %v", l.Order, wantOrder)
	}

	c2, _ := l.Stop("C2")
	c3, _ := l.Stop("C3")
	if c2.Rail != c3.Rail {
		t.Errorf("C3 on rail %d, want devel's rail %d", c3.Rail, c2.Rail)
	}

	// The explicit merge keeps devel's span confirmed even though the
	// fast-forward itself logged nothing new.
	s, ok := segment(l, "C2", "C3")
	if !ok {
		t.Fatal("missing segment C2->C3")
	}
	if s.Ref != "devel" || s.Ambiguous {
		t.Errorf("segment C2->C3 = %+v, want confirmed devel", s)
	}

	// The feature rail converges into the merge and closes there.
	conv, ok := segment(l, "C1", "C2")
	if !ok {
		t.Fatal("missing segment C1->C2")
	}
	if conv.Kind != SegmentConverge || conv.Ref != "feature" {
		t.Errorf("segment C1->C2 = %+v, want feature converge", conv)
	}
	for _, s := range l.Segments {
		if s.From == "C2" && s.Rail == conv.Rail {
			t.Errorf("feature's rail %d used again after closing at C2: %+v", conv.Rail, s)
		}
	}
	if l.Lanes != 2 {
		t.Errorf("Lanes = %d, want 2", l.Lanes)
	}
}

// A commit reachable only through a fast-forward gap is never silently
// attributed: its connecting segment is grey.
func TestAssign_FastForwardGapIsAmbiguous(t *testing.T) {
	g := build(t,
		commit("R", 0),
		commit("X", 10, "R"),
		commit("Y", 20, "X"),
	)
	logs := []timeline.RefLog{
		// main's reflog records R, then nothing until the current tip Y.
		{Name: "main", Tip: "Y", Moves: []timeline.Move{{Hash: "R", At: at(1)}}},
	}

	l := run(t, g, logs)

	sx, ok := segment(l, "R", "X")
	if !ok {
		t.Fatal("missing segment R->X")
	}
	if !sx.Ambiguous {
		t.Error("segment R->X must be ambiguous: no move-log entry covers X")
	}
	if sx.Ref != "main" {
		t.Errorf("segment R->X ref = %q, want main (the rail's owner)", sx.Ref)
	}

	sy, ok := segment(l, "X", "Y")
	if !ok {
		t.Fatal("missing segment X->Y")
	}
	if sy.Ambiguous {
		t.Error("segment X->Y is covered by the tip assertion, want confirmed")
	}

	// All three stops share one rail; the lane never closed.
	rx, _ := l.Stop("R")
	ry, _ := l.Stop("Y")
	if rx.Rail != ry.Rail {
		t.Errorf("R on rail %d, Y on rail %d, want same lane", rx.Rail, ry.Rail)
	}
}

// An unclaimed commit must not steal a lane whose tip still has pending
// children.
func TestAssign_UnclaimedSiblingOpensNewRail(t *testing.T) {
	g := build(t,
		commit("R", 0),
		commit("X", 10, "R"), // no ref ever pointed here
		commit("Y", 20, "R"),
	)
	logs := []timeline.RefLog{
		{Name: "main", Tip: "Y", Moves: []timeline.Move{{Hash: "R", At: at(1)}, {Hash: "Y", At: at(20)}}},
	}

	l := run(t, g, logs)

	r, _ := l.Stop("R")
	x, _ := l.Stop("X")
	y, _ := l.Stop("Y")
	if x.Rail == r.Rail {
		t.Error("unclaimed X took main's lane while Y was still pending")
	}
	if y.Rail != r.Rail {
		t.Errorf("Y on rail %d, want main's lane %d", y.Rail, r.Rail)
	}
	sx, _ := segment(l, "R", "X")
	if !sx.Ambiguous || sx.Kind != SegmentBranch {
		t.Errorf("segment R->X = %+v, want ambiguous branch", sx)
	}
	if x.Ref != "" {
		t.Errorf("X attributed to %q, want no attribution", x.Ref)
	}
}

// A ref whose reflog never moved still continues its lineage's rail: the
// exhausted parent lane is taken over rather than left open beside a
// fresh one.
func TestAssign_StaticTipContinuesParentRail(t *testing.T) {
	g := build(t, commit("A", 0), commit("B", 10, "A"))
	logs := []timeline.RefLog{{Name: "main", Tip: "B"}}

	l := run(t, g, logs)

	a, _ := l.Stop("A")
	b, _ := l.Stop("B")
	if a.Rail != b.Rail {
		t.Errorf("A on rail %d, B on rail %d, want one lane", a.Rail, b.Rail)
	}
	if l.Lanes != 1 || l.Opened != 1 {
		t.Errorf("Lanes = %d, Opened = %d, want one lane opened once", l.Lanes, l.Opened)
	}
	if b.Ref != "main" {
		t.Errorf("B attributed to %q, want main", b.Ref)
	}
	s, ok := segment(l, "A", "B")
	if !ok {
		t.Fatal("missing segment A->B")
	}
	if s.Kind != SegmentContinue || s.Ambiguous {
		t.Errorf("segment A->B = %+v, want confirmed continue", s)
	}
}

// The peak lane count includes the lane a childless tip occupies while it
// is being placed.
func TestAssign_MaxOpenIncludesClosingTip(t *testing.T) {
	l := run(t, build(t, commit("R", 0)), nil)
	if l.MaxOpen != 1 {
		t.Errorf("MaxOpen = %d, want 1", l.MaxOpen)
	}
}

func TestAssign_LaneCountStaysMinimal(t *testing.T) {
	// Two long-lived branches merging back: never more than two lanes.
	g := build(t,
		commit("R", 0),
		commit("a1", 10, "R"),
		commit("b1", 12, "R"),
		commit("a2", 20, "a1"),
		commit("b2", 22, "b1"),
		commit("M", 30, "a2", "b2"),
	)
	logs := []timeline.RefLog{
		{Name: "alpha", Tip: "M", Moves: []timeline.Move{
			{Hash: "R", At: at(1)}, {Hash: "a1", At: at(10)}, {Hash: "a2", At: at(20)}, {Hash: "M", At: at(30)},
		}},
		{Name: "beta", Tip: "b2", Moves: []timeline.Move{
			{Hash: "R", At: at(2)}, {Hash: "b1", At: at(12)}, {Hash: "b2", At: at(22)},
		}},
	}

	l := run(t, g, logs)

	if l.Lanes != 2 {
		t.Errorf("Lanes = %d, want 2", l.Lanes)
	}
	if l.MaxOpen > 2 {
		t.Errorf("MaxOpen = %d, want at most 2 concurrently open rails", l.MaxOpen)
	}
	m, _ := l.Stop("M")
	a2, _ := l.Stop("a2")
	if m.Rail != a2.Rail {
		t.Errorf("merge on rail %d, want mainline rail %d", m.Rail, a2.Rail)
	}
	conv, ok := segment(l, "b2", "M")
	if !ok || conv.Kind != SegmentConverge {
		t.Fatalf("segment b2->M = %+v, want converge", conv)
	}
}

func TestAssign_EveryCommitPlacedOnce(t *testing.T) {
	g := build(t,
		commit("R", 0),
		commit("a", 10, "R"),
		commit("b", 11, "R"),
		commit("c", 12, "a"),
		commit("m", 20, "c", "b"),
		commit("d", 25, "m"),
	)

	l := run(t, g, nil)

	if len(l.Stops) != g.Len() {
		t.Fatalf("placed %d commits, want %d", len(l.Stops), g.Len())
	}
	seen := make(map[history.Hash]bool)
	for _, s := range l.Stops {
		if seen[s.Hash] {
			t.Errorf("commit %s placed twice", s.Hash)
		}
		seen[s.Hash] = true
	}
}

func TestAssign_Idempotent(t *testing.T) {
	g := build(t,
		commit("R", 0),
		commit("a", 10, "R"),
		commit("b", 10, "R"),
		commit("m", 20, "a", "b"),
	)
	logs := []timeline.RefLog{
		{Name: "one", Tip: "m", Moves: []timeline.Move{{Hash: "R", At: at(1)}, {Hash: "a", At: at(10)}, {Hash: "m", At: at(20)}}},
		{Name: "two", Tip: "b", Moves: []timeline.Move{{Hash: "R", At: at(1)}, {Hash: "b", At: at(10)}}},
	}

	first := run(t, g, logs)
	for i := 0; i < 10; i++ {
		again := run(t, g, logs)
		if !reflect.DeepEqual(first.Stops, again.Stops) {
			t.Fatalf("run %d stops differ:\n%+v\n%+v", i, again.Stops, first.Stops)
		}
		if !reflect.DeepEqual(first.Segments, again.Segments) {
			t.Fatalf("run %d segments differ:\n%+v\n%+v", i, again.Segments, first.Segments)
		}
	}
}

func TestAssign_CustomTieBreak(t *testing.T) {
	g := build(t, commit("R", 0))
	logs := []timeline.RefLog{
		{Name: "aaa", Tip: "R", Moves: []timeline.Move{{Hash: "R", At: at(1)}}},
		{Name: "zzz", Tip: "R", Moves: []timeline.Move{{Hash: "R", At: at(1)}}},
	}
	tls := timeline.Reconstruct(g, logs, timeline.WithWorkers(1))

	l, err := Assign(g, []history.Hash{"R"}, tls)
	if err != nil {
		t.Fatal(err)
	}
	r, _ := l.Stop("R")
	if r.Ref != "aaa" {
		t.Errorf("default tie-break picked %q, want lexically smallest", r.Ref)
	}

	l, err = Assign(g, []history.Hash{"R"}, tls, WithRefTieBreak(func(a, b string) bool { return a > b }))
	if err != nil {
		t.Fatal(err)
	}
	r, _ = l.Stop("R")
	if r.Ref != "zzz" {
		t.Errorf("custom tie-break picked %q, want zzz", r.Ref)
	}
}
