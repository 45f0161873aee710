// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"cmp"
	"math"
	"slices"
)

// A Splitter partitions the items of an overflowing node into two
// groups.
//
// Split is given the boxes of every item in the node, one more than
// the tree's maximum entry count, and must return the indices of the
// two groups. Every index must appear in exactly one group and each
// group must have at least minEntries members.
type Splitter interface {
	Split(boxes []Box, minEntries int) (left, right []int)
}

// SplitKind identifies one of the built-in Splitter implementations.
type SplitKind uint8

const (
	// CustomSplit identifies any Splitter not provided by this
	// package.
	CustomSplit SplitKind = iota
	// Quadratic identifies QuadraticSplit.
	Quadratic
	// Linear identifies LinearSplit.
	Linear
	// RStar identifies RStarSplit.
	RStar
)

// KindOf returns the SplitKind of s.
func KindOf(s Splitter) SplitKind {
	switch s.(type) {
	case QuadraticSplit, *QuadraticSplit:
		return Quadratic
	case LinearSplit, *LinearSplit:
		return Linear
	case RStarSplit, *RStarSplit:
		return RStar
	default:
		return CustomSplit
	}
}

// Splitter returns the built-in Splitter identified by k, or nil if k
// is CustomSplit or unknown.
func (k SplitKind) Splitter() Splitter {
	switch k {
	case Quadratic:
		return QuadraticSplit{}
	case Linear:
		return LinearSplit{}
	case RStar:
		return RStarSplit{}
	default:
		return nil
	}
}

func (k SplitKind) String() string {
	switch k {
	case CustomSplit:
		return "custom"
	case Quadratic:
		return "quadratic"
	case Linear:
		return "linear"
	case RStar:
		return "rstar"
	default:
		return "unknown"
	}
}

// QuadraticSplit is Guttman's quadratic-cost split. It seeds the two
// groups with the pair of boxes that would waste the most area if
// grouped together, then repeatedly assigns the remaining box with the
// strongest preference for one group. This is the default Splitter.
type QuadraticSplit struct{}

func (QuadraticSplit) Split(boxes []Box, minEntries int) (left, right []int) {
	s1, s2 := quadraticSeeds(boxes)
	a, b := newSplitGroup(boxes, s1), newSplitGroup(boxes, s2)
	rest := without(len(boxes), s1, s2)
	for len(rest) > 0 {
		if fillRemaining(boxes, a, b, rest, minEntries) {
			break
		}
		next, bestDiff := 0, -1.0
		for k, i := range rest {
			d := math.Abs(a.box.Enlargement(boxes[i]) - b.box.Enlargement(boxes[i]))
			if d > bestDiff {
				next, bestDiff = k, d
			}
		}
		i := rest[next]
		rest = slices.Delete(rest, next, next+1)
		assign(boxes, a, b, i)
	}
	return a.members, b.members
}

func quadraticSeeds(boxes []Box) (s1, s2 int) {
	s1, s2 = 0, 1
	worst := math.Inf(-1)
	for i := 0; i < len(boxes)-1; i++ {
		for j := i + 1; j < len(boxes); j++ {
			d := boxes[i].Union(boxes[j]).Area() - boxes[i].Area() - boxes[j].Area()
			if d > worst {
				s1, s2, worst = i, j, d
			}
		}
	}
	return
}

// LinearSplit is Guttman's linear-cost split. It seeds the two groups
// with the boxes having the greatest normalized separation along any
// dimension, then assigns every other box in order to the group
// needing the least enlargement.
type LinearSplit struct{}

func (LinearSplit) Split(boxes []Box, minEntries int) (left, right []int) {
	s1, s2 := linearSeeds(boxes)
	a, b := newSplitGroup(boxes, s1), newSplitGroup(boxes, s2)
	rest := without(len(boxes), s1, s2)
	for len(rest) > 0 {
		if fillRemaining(boxes, a, b, rest, minEntries) {
			break
		}
		assign(boxes, a, b, rest[0])
		rest = rest[1:]
	}
	return a.members, b.members
}

func linearSeeds(boxes []Box) (s1, s2 int) {
	s1, s2 = 0, 1
	bestSep := math.Inf(-1)
	for d := range boxes[0].Min {
		highLow, lowHigh := 0, -1
		lo, hi := boxes[0].Min[d], boxes[0].Max[d]
		for i := 1; i < len(boxes); i++ {
			if boxes[i].Min[d] > boxes[highLow].Min[d] {
				highLow = i
			}
			lo = math.Min(lo, boxes[i].Min[d])
			hi = math.Max(hi, boxes[i].Max[d])
		}
		for i := range boxes {
			if i != highLow && (lowHigh < 0 || boxes[i].Max[d] < boxes[lowHigh].Max[d]) {
				lowHigh = i
			}
		}
		sep := boxes[highLow].Min[d] - boxes[lowHigh].Max[d]
		if w := hi - lo; w > 0 && !math.IsInf(w, 0) {
			sep /= w
		}
		if sep > bestSep {
			s1, s2, bestSep = lowHigh, highLow, sep
		}
	}
	return
}

// RStarSplit is the split of the R*-tree. It chooses the axis whose
// candidate distributions have the least total margin, then the
// distribution along that axis with the least overlap between the two
// groups, breaking ties by least total area.
type RStarSplit struct{}

func (RStarSplit) Split(boxes []Box, minEntries int) (left, right []int) {
	n := len(boxes)
	dims := boxes[0].Dims()

	sorted := func(axis int, byMax bool) []int {
		order := without(n)
		slices.SortStableFunc(order, func(i, j int) int {
			if byMax {
				return cmp.Or(cmp.Compare(boxes[i].Max[axis], boxes[j].Max[axis]), cmp.Compare(boxes[i].Min[axis], boxes[j].Min[axis]))
			}
			return cmp.Or(cmp.Compare(boxes[i].Min[axis], boxes[j].Min[axis]), cmp.Compare(boxes[i].Max[axis], boxes[j].Max[axis]))
		})
		return order
	}

	bestAxis, bestMargin := 0, math.Inf(1)
	for axis := 0; axis < dims; axis++ {
		var margin float64
		for _, byMax := range []bool{false, true} {
			pre, suf := sweep(boxes, sorted(axis, byMax))
			for k := minEntries; k <= n-minEntries; k++ {
				margin += pre[k].Margin() + suf[k].Margin()
			}
		}
		if margin < bestMargin {
			bestAxis, bestMargin = axis, margin
		}
	}

	var best []int
	bestK := minEntries
	bestOverlap, bestArea := math.Inf(1), math.Inf(1)
	for _, byMax := range []bool{false, true} {
		order := sorted(bestAxis, byMax)
		pre, suf := sweep(boxes, order)
		for k := minEntries; k <= n-minEntries; k++ {
			overlap := pre[k].Overlap(suf[k])
			area := pre[k].Area() + suf[k].Area()
			if best == nil || overlap < bestOverlap || (overlap == bestOverlap && area < bestArea) {
				best, bestK, bestOverlap, bestArea = order, k, overlap, area
			}
		}
	}
	return best[:bestK], best[bestK:]
}

// sweep returns the bounds of every prefix and suffix of order:
// pre[k] bounds order[:k] and suf[k] bounds order[k:].
func sweep(boxes []Box, order []int) (pre, suf []Box) {
	n := len(order)
	dims := boxes[0].Dims()
	pre = make([]Box, n+1)
	suf = make([]Box, n+1)
	pre[0] = EmptyBox(dims)
	for k := 1; k <= n; k++ {
		pre[k] = pre[k-1].Union(boxes[order[k-1]])
	}
	suf[n] = EmptyBox(dims)
	for k := n - 1; k >= 0; k-- {
		suf[k] = suf[k+1].Union(boxes[order[k]])
	}
	return
}

type splitGroup struct {
	members []int
	box     Box
}

func newSplitGroup(boxes []Box, seed int) *splitGroup {
	return &splitGroup{members: []int{seed}, box: boxes[seed].Clone()}
}

func (g *splitGroup) add(boxes []Box, i int) {
	g.members = append(g.members, i)
	g.box.Expand(boxes[i])
}

// assign adds box i to the group needing the least enlargement, then
// the group with the smaller area, then the group with fewer members.
func assign(boxes []Box, a, b *splitGroup, i int) {
	ea, eb := a.box.Enlargement(boxes[i]), b.box.Enlargement(boxes[i])
	switch {
	case ea < eb:
		a.add(boxes, i)
	case eb < ea:
		b.add(boxes, i)
	case a.box.Area() < b.box.Area():
		a.add(boxes, i)
	case b.box.Area() < a.box.Area():
		b.add(boxes, i)
	case len(b.members) < len(a.members):
		b.add(boxes, i)
	default:
		a.add(boxes, i)
	}
}

// fillRemaining gives every remaining box to one group if that group
// needs all of them to reach minEntries. It reports whether it did.
func fillRemaining(boxes []Box, a, b *splitGroup, rest []int, minEntries int) bool {
	var g *splitGroup
	if len(a.members)+len(rest) <= minEntries {
		g = a
	} else if len(b.members)+len(rest) <= minEntries {
		g = b
	} else {
		return false
	}
	for _, i := range rest {
		g.add(boxes, i)
	}
	return true
}

// without returns the integers in [0, n) other than those in skip, in
// ascending order.
func without(n int, skip ...int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !slices.Contains(skip, i) {
			out = append(out, i)
		}
	}
	return out
}
