package rails

import "github.com/mlehnert/railgraph/pkg/history"

// SegmentKind classifies how a segment relates the two commits it connects.
type SegmentKind int

const (
	// SegmentContinue links consecutive commits on the same rail.
	SegmentContinue SegmentKind = iota
	// SegmentBranch links a commit to the first commit of a rail that
	// opened by diverging from it.
	SegmentBranch
	// SegmentConverge links a closing rail's tip to the merge commit that
	// absorbed it.
	SegmentConverge
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentBranch:
		return "branch"
	case SegmentConverge:
		return "converge"
	default:
		return "continue"
	}
}

// Segment is one drawn edge of the railway: a connection between two
// commits attributed to a rail, tagged with the owning ref or marked
// ambiguous when no timeline entry corroborates the attribution.
type Segment struct {
	From history.Hash
	To   history.Hash
	Rail int
	Ref  string
	Kind SegmentKind

	// Ambiguous marks a span whose branch membership cannot be determined
	// from the available move-log data - the grey rail.
	Ambiguous bool
}

// Stop is one commit's placement: its position in the order, its rail
// index, and the ref label attributed to it ("" when undetermined).
type Stop struct {
	Hash  history.Hash
	Index int
	Rail  int
	Ref   string
}

// Layout is the full output of rail assignment, everything the renderer
// needs to draw the railway.
type Layout struct {
	// Order is the chrono-topological visiting order, the vertical axis.
	Order []history.Hash
	// Stops holds one entry per commit, aligned with Order.
	Stops []Stop
	// Segments holds every drawn edge in emission order.
	Segments []Segment

	// Lanes is the number of distinct rail indices used.
	Lanes int
	// Opened counts rail lifetimes: every open, including reuses of a
	// freed index, is a separate lineage.
	Opened int
	// MaxOpen is the peak number of simultaneously open rails.
	MaxOpen int

	index map[history.Hash]int
}

// Stop returns the placement of the given commit and true, or a zero Stop
// and false if the commit is not in the layout.
func (l *Layout) Stop(h history.Hash) (Stop, bool) {
	i, ok := l.index[h]
	if !ok {
		return Stop{}, false
	}
	return l.Stops[i], true
}
