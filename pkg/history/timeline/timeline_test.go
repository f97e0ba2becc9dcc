package timeline

import (
	"testing"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func at(min int) time.Time { return base.Add(time.Duration(min) * time.Minute) }

func commit(h history.Hash, parents ...history.Hash) history.Commit {
	return history.Commit{Hash: h, Parents: parents, Committer: history.Signature{When: at(0)}}
}

// chain builds r → a → b → c.
func chain(t *testing.T) *history.Graph {
	t.Helper()
	g := history.New()
	for _, c := range []history.Commit{
		commit("r"),
		commit("a", "r"),
		commit("b", "a"),
		commit("c", "b"),
	} {
		if err := g.Add(c); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestReconstruct_NormalizesMoveOrder(t *testing.T) {
	g := chain(t)
	// Moves supplied most-recent-first, as some sources deliver them.
	logs := []RefLog{{
		Name: "main",
		Tip:  "c",
		Moves: []Move{
			{Hash: "c", At: at(30)},
			{Hash: "b", At: at(20)},
			{Hash: "r", At: at(0)},
		},
	}}

	tl := Reconstruct(g, logs)[0]

	want := []Entry{{"r", at(0)}, {"b", at(20)}, {"c", at(30)}}
	if len(tl.Entries) != len(want) {
		t.Fatalf("Entries = %v, want %v", tl.Entries, want)
	}
	for i := range want {
		if tl.Entries[i] != want[i] {
			t.Errorf("Entries[%d] = %v, want %v", i, tl.Entries[i], want[i])
		}
	}
	for i := 1; i < len(tl.Entries); i++ {
		if tl.Entries[i].Since.Before(tl.Entries[i-1].Since) {
			t.Errorf("Since values decrease at %d", i)
		}
	}
}

func TestReconstruct_FastForwardGapIsUnconfirmed(t *testing.T) {
	g := chain(t)
	// main jumped r → c; a and b were skipped over with no recorded move.
	logs := []RefLog{{
		Name:  "main",
		Tip:   "c",
		Moves: []Move{{Hash: "r", At: at(0)}, {Hash: "c", At: at(30)}},
	}}

	tl := Reconstruct(g, logs)[0]

	for _, h := range []history.Hash{"r", "c"} {
		if !tl.Confirms(h) {
			t.Errorf("Confirms(%s) = false, want true", h)
		}
	}
	for _, h := range []history.Hash{"a", "b"} {
		if tl.Confirms(h) {
			t.Errorf("Confirms(%s) = true, want false (fast-forward gap)", h)
		}
		if !tl.Unconfirmed(h) {
			t.Errorf("Unconfirmed(%s) = false, want true", h)
		}
	}
}

func TestReconstruct_EmptyMoveLog(t *testing.T) {
	g := chain(t)
	// Static pointer only: everything behind the tip is unconfirmed.
	logs := []RefLog{{Name: "release", Tip: "c"}}

	tl := Reconstruct(g, logs)[0]

	if !tl.Confirms("c") {
		t.Error("tip must be confirmed even without moves")
	}
	for _, h := range []history.Hash{"r", "a", "b"} {
		if !tl.Unconfirmed(h) {
			t.Errorf("Unconfirmed(%s) = false, want true", h)
		}
	}
}

func TestReconstruct_TruncatedLogLeavesEarlyHistoryUnconfirmed(t *testing.T) {
	g := chain(t)
	// Reflog only reaches back to b.
	logs := []RefLog{{
		Name:  "main",
		Tip:   "c",
		Moves: []Move{{Hash: "b", At: at(20)}, {Hash: "c", At: at(30)}},
	}}

	tl := Reconstruct(g, logs)[0]

	for _, h := range []history.Hash{"r", "a"} {
		if tl.Confirms(h) || !tl.Unconfirmed(h) {
			t.Errorf("commit %s should be unconfirmed", h)
		}
	}
}

func TestReconstruct_CollapsesConsecutiveRepeats(t *testing.T) {
	g := chain(t)
	logs := []RefLog{{
		Name: "main",
		Tip:  "b",
		Moves: []Move{
			{Hash: "a", At: at(10)},
			{Hash: "a", At: at(11)}, // reset back to the same commit
			{Hash: "b", At: at(20)},
		},
	}}

	tl := Reconstruct(g, logs)[0]

	if len(tl.Entries) != 2 {
		t.Fatalf("Entries = %v, want 2 entries", tl.Entries)
	}
	if got, _ := tl.AssertedAt("a"); !got.Equal(at(11)) {
		t.Errorf("AssertedAt(a) = %v, want the most recent assertion %v", got, at(11))
	}
}

func TestPriorTip(t *testing.T) {
	g := chain(t)
	logs := []RefLog{{
		Name:  "main",
		Tip:   "c",
		Moves: []Move{{Hash: "r", At: at(0)}, {Hash: "b", At: at(20)}},
	}}

	tl := Reconstruct(g, logs)[0]

	if prev, ok := tl.PriorTip("b"); !ok || prev != "r" {
		t.Errorf("PriorTip(b) = %v, %v; want r, true", prev, ok)
	}
	// c is only the static tip; its prior position is the last move.
	if prev, ok := tl.PriorTip("c"); !ok || prev != "b" {
		t.Errorf("PriorTip(c) = %v, %v; want b, true", prev, ok)
	}
	if _, ok := tl.PriorTip("r"); ok {
		t.Error("PriorTip(r) should report no prior position")
	}
}

func TestReconstruct_OverlappingClaims(t *testing.T) {
	g := chain(t)
	// Two refs assert the same commit; both are recorded as confirmed
	// owners, the rail assigner untangles them later.
	logs := []RefLog{
		{Name: "dev", Tip: "b", Moves: []Move{{Hash: "a", At: at(10)}, {Hash: "b", At: at(20)}}},
		{Name: "main", Tip: "a", Moves: []Move{{Hash: "a", At: at(12)}}},
	}

	tls := Reconstruct(g, logs)

	if !tls[0].Confirms("a") || !tls[1].Confirms("a") {
		t.Error("both refs should confirm the shared commit")
	}
	devAt, _ := tls[0].AssertedAt("a")
	mainAt, _ := tls[1].AssertedAt("a")
	if !mainAt.After(devAt) {
		t.Errorf("main asserted at %v, dev at %v; want main later", mainAt, devAt)
	}
}

func TestReconstruct_ParallelMatchesSerial(t *testing.T) {
	g := chain(t)
	var logs []RefLog
	names := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"}
	for _, n := range names {
		logs = append(logs, RefLog{
			Name:  n,
			Tip:   "c",
			Moves: []Move{{Hash: "r", At: at(0)}, {Hash: "c", At: at(30)}},
		})
	}

	serial := Reconstruct(g, logs, WithWorkers(1))
	parallel := Reconstruct(g, logs, WithWorkers(4))

	if len(serial) != len(parallel) {
		t.Fatalf("result lengths differ: %d vs %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].Name != parallel[i].Name {
			t.Errorf("result %d: name %q vs %q, order not preserved", i, serial[i].Name, parallel[i].Name)
		}
		if len(serial[i].Entries) != len(parallel[i].Entries) {
			t.Errorf("result %d: entry counts differ", i)
		}
	}
}

func TestReconstruct_EmptyInput(t *testing.T) {
	if got := Reconstruct(history.New(), nil); len(got) != 0 {
		t.Errorf("Reconstruct() = %v, want empty", got)
	}
}
