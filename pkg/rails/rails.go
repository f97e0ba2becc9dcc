package rails

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
	"github.com/mlehnert/railgraph/pkg/history/timeline"
)

// ErrIncompleteOrder is returned by [Assign] when the supplied order does
// not cover the graph exactly: a missing, duplicated, or unknown commit.
// The order must come from a chrono-topological sort of the same graph.
var ErrIncompleteOrder = errors.New("order does not match commit graph")

// Option configures [Assign].
type Option func(*config)

type config struct {
	refLess func(a, b string) bool
}

// WithRefTieBreak overrides the final tie-break between refs asserting the
// same commit at identical times. The default prefers the lexically
// smallest name; the exact key is presentational, not load-bearing, so
// callers may substitute their own.
func WithRefTieBreak(less func(a, b string) bool) Option {
	return func(c *config) { c.refLess = less }
}

// rail is one open lane: its index, current tip, and owning ref label.
type rail struct {
	index int
	tip   history.Hash
	ref   string
}

// assigner carries the walk state for one run.
type assigner struct {
	g         *history.Graph
	cfg       config
	timelines map[string]*timeline.RefTimeline

	open      map[history.Hash]*rail // keyed by rail tip
	free      []int                  // sorted ascending
	next      int                    // next fresh rail index
	remaining map[history.Hash]int   // unemitted children per commit
	retired   map[string]bool        // refs whose tip has been emitted

	layout *Layout
}

// Assign walks the order once, forward, and produces the complete rail
// layout. The order must contain every commit of the graph exactly once and
// be topologically valid; [ErrIncompleteOrder] reports violations of the
// first requirement (the second is the sorter's contract).
//
// An empty order over an empty graph is valid and yields an empty layout.
func Assign(g *history.Graph, order []history.Hash, tls []timeline.RefTimeline, opts ...Option) (*Layout, error) {
	cfg := config{refLess: func(a, b string) bool { return a < b }}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := checkOrder(g, order); err != nil {
		return nil, err
	}

	a := &assigner{
		g:         g,
		cfg:       cfg,
		timelines: make(map[string]*timeline.RefTimeline, len(tls)),
		open:      make(map[history.Hash]*rail),
		remaining: make(map[history.Hash]int, g.Len()),
		retired:   make(map[string]bool),
		layout: &Layout{
			Order: slices.Clone(order),
			Stops: make([]Stop, 0, len(order)),
			index: make(map[history.Hash]int, len(order)),
		},
	}
	for i := range tls {
		a.timelines[tls[i].Name] = &tls[i]
	}
	for _, h := range order {
		a.remaining[h] = g.ChildCount(h)
	}

	for i, h := range order {
		a.place(i, h)
	}
	return a.layout, nil
}

func checkOrder(g *history.Graph, order []history.Hash) error {
	if len(order) != g.Len() {
		return fmt.Errorf("%w: %d commits ordered, graph has %d", ErrIncompleteOrder, len(order), g.Len())
	}
	seen := make(map[history.Hash]bool, len(order))
	for _, h := range order {
		if _, ok := g.Commit(h); !ok {
			return fmt.Errorf("%w: unknown commit %s", ErrIncompleteOrder, h)
		}
		if seen[h] {
			return fmt.Errorf("%w: commit %s appears twice", ErrIncompleteOrder, h)
		}
		seen[h] = true
	}
	return nil
}

// place assigns one commit to a rail and records the resulting segments.
func (a *assigner) place(pos int, h history.Hash) {
	parents := a.g.Parents(h)
	for _, p := range parents {
		a.remaining[p]--
	}

	candidates := a.candidates(parents)
	claims := a.claims(h)

	cur, prevTip := a.choose(h, parents, candidates, claims)

	if cur == nil {
		cur = a.openRail(claims)
		if len(parents) > 0 {
			a.layout.Segments = append(a.layout.Segments, Segment{
				From:      parents[0],
				To:        h,
				Rail:      cur.index,
				Ref:       cur.ref,
				Kind:      SegmentBranch,
				Ambiguous: !a.confirms(cur.ref, h),
			})
		}
	} else {
		delete(a.open, prevTip)
		// A ref asserting this commit takes over the lane; the incumbent
		// owner keeps it only if it also asserts the commit.
		if len(claims) > 0 && !a.confirms(cur.ref, h) {
			cur.ref = claims[0].Name
		}
		a.layout.Segments = append(a.layout.Segments, Segment{
			From:      prevTip,
			To:        h,
			Rail:      cur.index,
			Ref:       cur.ref,
			Kind:      SegmentContinue,
			Ambiguous: !a.confirms(cur.ref, h),
		})
	}

	// At a merge, every other open rail ending on a parent converges into
	// this commit and its lane is freed.
	if len(parents) > 1 {
		for _, r := range candidates {
			if r == cur {
				continue
			}
			a.layout.Segments = append(a.layout.Segments, Segment{
				From:      r.tip,
				To:        h,
				Rail:      r.index,
				Ref:       r.ref,
				Kind:      SegmentConverge,
				Ambiguous: r.ref == "",
			})
			a.closeRail(r)
		}
	}

	cur.tip = h
	a.open[h] = cur

	a.layout.Stops = append(a.layout.Stops, Stop{Hash: h, Index: pos, Rail: cur.index, Ref: cur.ref})
	a.layout.index[h] = pos

	// The peak counts the lane this commit occupies even when it closes
	// immediately below.
	if n := len(a.open); n > a.layout.MaxOpen {
		a.layout.MaxOpen = n
	}

	// A lineage with nothing left to place does not hold a lane.
	if a.g.ChildCount(h) == 0 {
		a.closeRail(cur)
	}

	for name, tl := range a.timelines {
		if tl.Tip == h {
			a.retired[name] = true
		}
	}
}

// candidates returns the open rails whose tip is a parent of the current
// commit, in parent order (mainline first) for determinism.
func (a *assigner) candidates(parents []history.Hash) []*rail {
	var out []*rail
	for _, p := range parents {
		if r, ok := a.open[p]; ok {
			out = append(out, r)
		}
	}
	return out
}

// claim pairs a ref with the time it asserted the current commit.
type claim struct {
	Name string
	At   time.Time
}

// claims returns the refs whose timelines confirm the commit, most recently
// asserted first, ties broken by the configured ref ordering.
func (a *assigner) claims(h history.Hash) []claim {
	var out []claim
	for name, tl := range a.timelines {
		if at, ok := tl.AssertedAt(h); ok {
			out = append(out, claim{Name: name, At: at})
		}
	}
	slices.SortFunc(out, func(x, y claim) int {
		switch {
		case x.At.After(y.At):
			return -1
		case x.At.Before(y.At):
			return 1
		case a.cfg.refLess(x.Name, y.Name):
			return -1
		case a.cfg.refLess(y.Name, x.Name):
			return 1
		}
		return 0
	})
	return out
}

// choose picks the rail the commit continues, or nil when a fresh rail is
// needed. The returned prevTip is the chosen rail's tip before this commit.
func (a *assigner) choose(h history.Hash, parents []history.Hash, candidates []*rail, claims []claim) (*rail, history.Hash) {
	// Ref ownership: a candidate rail already owned by a ref that asserts
	// this commit is the branch simply moving forward.
	for _, c := range claims {
		for _, r := range candidates {
			if r.ref == c.Name {
				return r, r.tip
			}
		}
	}

	// Merge: the mainline parent's rail continues through the merge.
	if len(parents) > 1 {
		if r, ok := a.open[parents[0]]; ok {
			return r, r.tip
		}
	}

	// Branch resumption: a ref asserting this commit previously sat on a
	// candidate rail's tip, and that rail's owner is gone - take the lane
	// over rather than opening a new one.
	for _, c := range claims {
		prev, ok := a.timelines[c.Name].PriorTip(h)
		if !ok {
			continue
		}
		for _, r := range candidates {
			if r.tip == prev && (r.ref == "" || a.retired[r.ref]) {
				return r, r.tip
			}
		}
	}

	// Succession: continue the parent's rail when this is the parent's
	// last pending child; otherwise the lane is left for the sibling that
	// matches its owner. This also covers a claimed commit whose ref never
	// sat on a rail before (a static tip with an empty move log): the
	// exhausted rail would otherwise stay open with nothing left to place.
	// A claiming ref takes over the lane at placement. Merges are excluded
	// so the non-mainline rails still converge rather than being absorbed.
	if len(parents) < 2 || len(claims) == 0 {
		for _, r := range candidates {
			if a.remaining[r.tip] == 0 {
				return r, r.tip
			}
		}
	}

	return nil, ""
}

// openRail allocates a lane, preferring the smallest freed index so the
// rail count stays minimal.
func (a *assigner) openRail(claims []claim) *rail {
	var idx int
	if len(a.free) > 0 {
		idx = a.free[0]
		a.free = a.free[1:]
	} else {
		idx = a.next
		a.next++
		a.layout.Lanes = a.next
	}
	r := &rail{index: idx}
	if len(claims) > 0 {
		r.ref = claims[0].Name
	}
	a.layout.Opened++
	return r
}

func (a *assigner) closeRail(r *rail) {
	delete(a.open, r.tip)
	i, _ := slices.BinarySearch(a.free, r.index)
	a.free = slices.Insert(a.free, i, r.index)
}

// confirms reports whether the named ref's timeline asserts the commit.
func (a *assigner) confirms(ref string, h history.Hash) bool {
	if ref == "" {
		return false
	}
	tl, ok := a.timelines[ref]
	return ok && tl.Confirms(h)
}
