// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"math"

	"github.com/gogama/spatialindex/pagestore"
)

// Insert adds an entry to the tree. The entry's box is copied.
//
// Insert descends from the root choosing the child needing the least
// area enlargement, breaking ties by least resulting area and then by
// fewest children. An overflowing node is split and the split
// propagates toward the root, growing the tree by one level if the
// root splits.
func (t *Tree) Insert(e Entry) error {
	if err := t.checkBox(e.Box); err != nil {
		return err
	}
	tx := t.begin()
	if err := tx.insert(item{Box: e.Box.Clone(), ref: e.ID}, 0); err != nil {
		tx.abort()
		return err
	}
	tx.count++
	return tx.commit()
}

// A frame is one step of a root-to-node descent. slot is the index of
// the child item followed from n, or -1 at the bottom of the descent.
type frame struct {
	id   pagestore.PageID
	n    *node
	slot int
}

// insert adds it to a node at the given level, 0 for an entry.
func (tx *txn) insert(it item, level int) error {
	path := make([]frame, 0, tx.height+1)
	id := tx.root
	for lvl := tx.height; ; lvl-- {
		n, err := tx.read(id, lvl)
		if err != nil {
			return err
		}
		if lvl == level {
			path = append(path, frame{id: id, n: n, slot: -1})
			break
		}
		slot, err := tx.chooseSubtree(n, it.Box)
		if err != nil {
			return err
		}
		path = append(path, frame{id: id, n: n, slot: slot})
		id = n.items[slot].child()
	}
	bottom := path[len(path)-1].n
	bottom.items = append(bottom.items, it)
	return tx.propagate(path)
}

// propagate writes every node on path, splitting overflowing nodes
// and recomputing each parent item's box, from the bottom of the path
// up to the root.
func (tx *txn) propagate(path []frame) error {
	t := tx.t
	var sibling *item
	for i := len(path) - 1; i >= 0; i-- {
		f := path[i]
		if sibling != nil {
			f.n.items = append(f.n.items, *sibling)
			sibling = nil
		}
		var split *node
		if len(f.n.items) > t.cfg.MaxEntries {
			var err error
			if f.n, split, err = t.split(f.n); err != nil {
				return err
			}
		}
		id, err := tx.write(f.id, f.n)
		if err != nil {
			return err
		}
		var splitID pagestore.PageID
		if split != nil {
			if splitID, err = tx.write(pagestore.NoPage, split); err != nil {
				return err
			}
		}
		if i > 0 {
			parent := path[i-1]
			parent.n.items[parent.slot] = item{Box: f.n.bounds(t.cfg.Dims), ref: int64(id)}
			if split != nil {
				sibling = &item{Box: split.bounds(t.cfg.Dims), ref: int64(splitID)}
			}
			continue
		}
		tx.root = id
		if split != nil {
			root := &node{
				level: f.n.level + 1,
				items: []item{
					{Box: f.n.bounds(t.cfg.Dims), ref: int64(id)},
					{Box: split.bounds(t.cfg.Dims), ref: int64(splitID)},
				},
			}
			if tx.root, err = tx.write(pagestore.NoPage, root); err != nil {
				return err
			}
			tx.height++
		}
	}
	return nil
}

// chooseSubtree picks the child of internal node n to descend into
// when inserting a box.
func (tx *txn) chooseSubtree(n *node, b Box) (int, error) {
	var ties []int
	bestEnl, bestArea := math.Inf(1), math.Inf(1)
	for i := range n.items {
		enl := n.items[i].Enlargement(b)
		area := n.items[i].Area() + enl
		switch {
		case ties == nil || enl < bestEnl || enl == bestEnl && area < bestArea:
			ties = append(ties[:0], i)
			bestEnl, bestArea = enl, area
		case enl == bestEnl && area == bestArea:
			ties = append(ties, i)
		}
	}
	if len(ties) == 1 {
		return ties[0], nil
	}
	best, fewest := ties[0], math.MaxInt
	for _, i := range ties {
		child, err := tx.read(n.items[i].child(), n.level-1)
		if err != nil {
			return 0, err
		}
		if len(child.items) < fewest {
			best, fewest = i, len(child.items)
		}
	}
	return best, nil
}

// split divides an overflowing node in two using the configured
// Splitter.
func (t *Tree) split(n *node) (*node, *node, error) {
	boxes := make([]Box, len(n.items))
	for i := range n.items {
		boxes[i] = n.items[i].Box
	}
	left, right := t.cfg.Splitter.Split(boxes, t.cfg.MinEntries)
	if len(left) < t.cfg.MinEntries || len(right) < t.cfg.MinEntries || len(left)+len(right) != len(boxes) {
		return nil, nil, fmtErr("splitter produced groups of %d and %d from %d items with min %d",
			len(left), len(right), len(boxes), t.cfg.MinEntries)
	}
	seen := make([]bool, len(boxes))
	group := func(indices []int) (*node, error) {
		g := &node{level: n.level, items: make([]item, 0, len(indices))}
		for _, i := range indices {
			if i < 0 || i >= len(boxes) || seen[i] {
				return nil, fmtErr("splitter produced invalid or repeated index %d", i)
			}
			seen[i] = true
			g.items = append(g.items, n.items[i])
		}
		return g, nil
	}
	a, err := group(left)
	if err != nil {
		return nil, nil, err
	}
	b, err := group(right)
	if err != nil {
		return nil, nil, err
	}
	t.stats.splits.Add(1)
	return a, b, nil
}
