package flow

import (
	"math"

	"vrpdfd/pkg/domain"
)

// =============================================================================
// Queue
// =============================================================================

// queueItem is a frontier entry of the augmenting-path search: the node and
// the bottleneck of the path by which it was first reached.
type queueItem struct {
	node int
	flow float64
}

// queue is a FIFO backed by a slice with a head index. It is reset, not
// reallocated, between searches.
type queue struct {
	data []queueItem
	head int
}

func newQueue(capacity int) *queue {
	return &queue{data: make([]queueItem, 0, capacity)}
}

func (q *queue) push(it queueItem) {
	q.data = append(q.data, it)
}

func (q *queue) pop() queueItem {
	it := q.data[q.head]
	q.head++
	return it
}

func (q *queue) empty() bool {
	return q.head >= len(q.data)
}

func (q *queue) reset() {
	q.data = q.data[:0]
	q.head = 0
}

// =============================================================================
// Augmenting path search
// =============================================================================

// search is the reusable state of one max-flow run.
type search struct {
	parent []int
	q      *queue
}

func newSearch(size int) *search {
	return &search{
		parent: make([]int, size),
		q:      newQueue(size),
	}
}

// shortestAugmentingPath runs a breadth-first search over the residual graph
// and returns the bottleneck of the first path found to sink, or zero if the
// sink is unreachable. The bottleneck is carried forward in the frontier, so
// no second pass over the path is needed. Each node is settled at most once;
// the source is settled before the search starts.
//
// On success s.parent holds the predecessor chain from sink back to source.
func (s *search) shortestAugmentingPath(r *residual, source, sink int) float64 {
	for i := range s.parent {
		s.parent[i] = -1
	}
	s.q.reset()

	s.parent[source] = source
	s.q.push(queueItem{node: source, flow: math.Inf(1)})

	for !s.q.empty() {
		cur := s.q.pop()
		adj := r.adj[cur.node]
		for v, ok := adj.NextSet(0); ok; v, ok = adj.NextSet(v + 1) {
			next := int(v)
			c := r.cap[cur.node][next]
			if s.parent[next] != -1 || c <= domain.Epsilon {
				continue
			}
			s.parent[next] = cur.node
			f := math.Min(cur.flow, c)
			if next == sink {
				return f
			}
			s.q.push(queueItem{node: next, flow: f})
		}
	}
	return 0
}
