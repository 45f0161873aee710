// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

// A Predicate selects entries during a Query.
type Predicate interface {
	// Descend reports whether the subtree whose bounds are given may
	// hold matching entries. Returning false prunes the subtree.
	Descend(bounds Box) bool
	// Match reports whether an entry's box is selected.
	Match(box Box) bool
}

type intersects struct {
	region Box
}

// Intersects returns a Predicate matching every entry whose box
// shares at least one point with region.
func Intersects(region Box) Predicate {
	return intersects{region: region.Clone()}
}

func (p intersects) Descend(bounds Box) bool { return p.region.Intersects(bounds) }
func (p intersects) Match(box Box) bool      { return p.region.Intersects(box) }

type within struct {
	region Box
}

// Within returns a Predicate matching every entry whose box lies
// wholly inside region.
func Within(region Box) Predicate {
	return within{region: region.Clone()}
}

func (p within) Descend(bounds Box) bool { return p.region.Intersects(bounds) }
func (p within) Match(box Box) bool      { return p.region.Contains(box) }

// PredicateFuncs adapts a pair of functions to the Predicate
// interface. A nil function always returns true.
type PredicateFuncs struct {
	DescendFunc func(Box) bool
	MatchFunc   func(Box) bool
}

func (p PredicateFuncs) Descend(bounds Box) bool {
	return p.DescendFunc == nil || p.DescendFunc(bounds)
}

func (p PredicateFuncs) Match(box Box) bool {
	return p.MatchFunc == nil || p.MatchFunc(box)
}
