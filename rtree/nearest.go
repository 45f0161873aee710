// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"container/heap"
	"math"

	"github.com/gogama/spatialindex/pagestore"
)

// A candidate is a subtree or entry awaiting its turn in a nearest
// neighbor search. dist2 is the squared distance from the query point.
type candidate struct {
	dist2 float64
	// isEntry is false for a subtree, whose page is id and level is
	// level, and true for an entry.
	isEntry bool
	id      pagestore.PageID
	level   int
	entry   Entry
}

// A candidateQueue is a min-heap of candidates ordered by distance,
// then subtrees before entries, then entry ID.
//
// Expanding every subtree at a given distance before yielding entries
// at that distance means all entries tied at that distance are queued
// before the first is dequeued, so ties come out in ID order.
type candidateQueue []candidate

func (q candidateQueue) Len() int { return len(q) }
func (q candidateQueue) Less(i, j int) bool {
	a, b := &q[i], &q[j]
	if a.dist2 != b.dist2 {
		return a.dist2 < b.dist2
	} else if a.isEntry != b.isEntry {
		return !a.isEntry
	}
	return a.isEntry && a.entry.ID < b.entry.ID
}
func (q candidateQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x interface{}) { *q = append(*q, x.(candidate)) }
func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[0 : n-1]
	return x
}

// Nearest returns the k entries closest to point, by Euclidean
// distance from the point to each entry's box, in order of
// non-decreasing distance. Entries at equal distance are ordered by
// ascending ID. If k is at least Len, every entry is returned.
func (t *Tree) Nearest(point []float64, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, wrapErr("k=%d", ErrInvalidK, k)
	}
	if err := t.checkPoint(point); err != nil {
		return nil, err
	}
	if t.state.Count == 0 {
		return nil, nil
	}

	q := candidateQueue{{dist2: t.bounds.minDist2(point), id: t.state.Root, level: t.state.Height}}
	result := make([]Neighbor, 0, min(uint64(k), t.state.Count))
	for q.Len() > 0 && len(result) < k {
		c := heap.Pop(&q).(candidate)
		if c.isEntry {
			result = append(result, Neighbor{Entry: c.entry, Distance: math.Sqrt(c.dist2)})
			continue
		}
		n, err := t.readNode(c.id, c.level)
		if err != nil {
			return nil, err
		}
		for i := range n.items {
			it := &n.items[i]
			next := candidate{dist2: it.minDist2(point)}
			if n.leaf() {
				next.isEntry = true
				next.entry = it.entry()
			} else {
				next.id = it.child()
				next.level = n.level - 1
			}
			heap.Push(&q, next)
		}
	}
	return result, nil
}
