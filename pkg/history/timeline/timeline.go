package timeline

import (
	"slices"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
)

// Move is one reflog record: the ref pointed at Hash from time At until
// superseded by the next move.
type Move struct {
	Hash history.Hash
	At   time.Time
}

// RefLog is the raw input for one ref: its name, the commit it points at
// now, and its recorded moves. Moves may arrive in either direction
// (most-recent-first or oldest-first); reconstruction normalizes them.
type RefLog struct {
	Name  string
	Tip   history.Hash
	Moves []Move
}

// Entry is one normalized timeline step: the ref pointed at Hash from Since
// until the next entry's Since. Within a timeline, Since values are
// non-decreasing.
type Entry struct {
	Hash  history.Hash
	Since time.Time
}

// RefTimeline is the reconstructed history of one ref, with per-commit
// membership classified as confirmed (explicitly asserted by a move or the
// current tip) or unconfirmed (reachable but never asserted).
type RefTimeline struct {
	Name    string
	Tip     history.Hash
	Entries []Entry

	asserted    map[history.Hash]time.Time
	unconfirmed map[history.Hash]bool
}

// Confirms reports whether the ref's record explicitly asserts the commit.
func (tl *RefTimeline) Confirms(h history.Hash) bool {
	_, ok := tl.asserted[h]
	return ok
}

// AssertedAt returns the most recent time at which the ref asserted the
// commit, and whether it ever did. The current tip counts as asserted at
// the ref's last recorded move (the zero time if there are no moves).
func (tl *RefTimeline) AssertedAt(h history.Hash) (time.Time, bool) {
	t, ok := tl.asserted[h]
	return t, ok
}

// Unconfirmed reports whether the commit is reachable from the ref's
// asserted commits without being asserted itself - the grey-rail case.
func (tl *RefTimeline) Unconfirmed(h history.Hash) bool { return tl.unconfirmed[h] }

// Reaches reports whether the commit belongs to the ref's ancestry at all,
// confirmed or not.
func (tl *RefTimeline) Reaches(h history.Hash) bool {
	return tl.Confirms(h) || tl.unconfirmed[h]
}

// PriorTip returns the commit the ref pointed at immediately before it
// first asserted h, and whether there was one. This is what lets the rail
// assigner recognize "next commit on the same branch": a candidate rail
// whose tip equals PriorTip(h) is the lane this ref was riding.
func (tl *RefTimeline) PriorTip(h history.Hash) (history.Hash, bool) {
	for i, e := range tl.Entries {
		if e.Hash != h {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if tl.Entries[j].Hash != h {
				return tl.Entries[j].Hash, true
			}
		}
		return "", false
	}
	// Asserted only as the static tip: the last recorded move precedes it.
	if h == tl.Tip && len(tl.Entries) > 0 && tl.Entries[len(tl.Entries)-1].Hash != h {
		return tl.Entries[len(tl.Entries)-1].Hash, true
	}
	return "", false
}

// build normalizes one ref log against the commit graph.
func build(g *history.Graph, log RefLog) RefTimeline {
	moves := slices.Clone(log.Moves)
	slices.SortStableFunc(moves, func(a, b Move) int {
		switch {
		case a.At.Before(b.At):
			return -1
		case a.At.After(b.At):
			return 1
		}
		return 0
	})

	tl := RefTimeline{
		Name:        log.Name,
		Tip:         log.Tip,
		asserted:    make(map[history.Hash]time.Time),
		unconfirmed: make(map[history.Hash]bool),
	}

	for _, m := range moves {
		if m.Hash == "" {
			continue
		}
		// Consecutive repeats of the same hash (resets, amend round trips)
		// collapse into the earliest occurrence.
		if n := len(tl.Entries); n > 0 && tl.Entries[n-1].Hash == m.Hash {
			tl.asserted[m.Hash] = m.At
			continue
		}
		tl.Entries = append(tl.Entries, Entry{Hash: m.Hash, Since: m.At})
		tl.asserted[m.Hash] = m.At
	}

	// The current tip is asserted even with an empty move log: the ref
	// demonstrably points there. Its assertion time is the last recorded
	// move, or the zero time when there is no record at all.
	if log.Tip != "" {
		if _, ok := tl.asserted[log.Tip]; !ok {
			var at time.Time
			if n := len(tl.Entries); n > 0 {
				at = tl.Entries[n-1].Since
			}
			tl.asserted[log.Tip] = at
		}
	}

	// Everything reachable from an asserted commit that is not itself
	// asserted is unconfirmed: fast-forward gaps, truncated reflogs, and
	// history predating the record.
	roots := make([]history.Hash, 0, len(tl.asserted))
	for h := range tl.asserted {
		roots = append(roots, h)
	}
	for h := range g.Ancestry(roots...) {
		if _, ok := tl.asserted[h]; !ok {
			tl.unconfirmed[h] = true
		}
	}

	return tl
}
