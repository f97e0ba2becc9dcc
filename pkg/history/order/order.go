package order

import (
	"container/heap"
	"fmt"
	"slices"
	"time"

	"github.com/mlehnert/railgraph/pkg/history"
)

// Sort returns the chrono-topological order of the graph: every parent
// precedes every one of its children, and among simultaneously ready commits
// the one with the earliest committer timestamp is emitted first. Ties on
// the timestamp fall back to lexical hash order, so the result is fully
// deterministic for a given input set.
//
// Returns history.ErrCyclicHistory (wrapped with the commits left
// unemitted) if parent edges are not acyclic. An empty graph yields an
// empty, valid order.
func Sort(g *history.Graph) ([]history.Hash, error) {
	pending := make(map[history.Hash]int, g.Len())
	ready := &commitHeap{}

	// Seeding in lexical hash order keeps heap layout, and therefore
	// equal-timestamp extraction order, reproducible.
	for _, h := range g.Hashes() {
		c, _ := g.Commit(h)
		if n := len(c.Parents); n > 0 {
			pending[h] = n
			continue
		}
		heap.Push(ready, readyCommit{hash: h, at: c.CommittedAt()})
	}

	result := make([]history.Hash, 0, g.Len())
	for ready.Len() > 0 {
		h := heap.Pop(ready).(readyCommit).hash
		result = append(result, h)

		for _, child := range g.Children(h) {
			pending[child]--
			if pending[child] == 0 {
				delete(pending, child)
				c, _ := g.Commit(child)
				heap.Push(ready, readyCommit{hash: child, at: c.CommittedAt()})
			}
		}
	}

	if len(result) != g.Len() {
		stuck := make([]history.Hash, 0, len(pending))
		for h := range pending {
			stuck = append(stuck, h)
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("%w: unreachable commits %v", history.ErrCyclicHistory, stuck)
	}
	return result, nil
}

// Positions maps each hash to its index in the order, for O(1) lookups when
// checking whether one commit precedes another.
func Positions(order []history.Hash) map[history.Hash]int {
	pos := make(map[history.Hash]int, len(order))
	for i, h := range order {
		pos[h] = i
	}
	return pos
}

type readyCommit struct {
	hash history.Hash
	at   time.Time
}

type commitHeap []readyCommit

func (h commitHeap) Len() int { return len(h) }

func (h commitHeap) Less(i, j int) bool {
	if !h[i].at.Equal(h[j].at) {
		return h[i].at.Before(h[j].at)
	}
	return h[i].hash < h[j].hash
}

func (h commitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *commitHeap) Push(x any) { *h = append(*h, x.(readyCommit)) }

func (h *commitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
