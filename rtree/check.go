// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Check walks the whole tree and verifies its structure: every node
// decodes at the expected level, every leaf is at depth Height, every
// non-root node holds between MinEntries and MaxEntries items, every
// internal item's box is the exact union of its child's items, no page
// is referenced twice or marked free, and the entry count matches
// Len.
//
// Check also verifies page accounting, which assumes the tree is the
// only user of its Store: every allocated page must be reachable from
// the root, free, or reserved by the Store.
//
// Failures wrap ErrCorrupt.
func (t *Tree) Check() error {
	type checkTicket struct {
		ticket
		bounds *Box
	}
	reachable := roaring64.New()
	stack := []checkTicket{{ticket: ticket{id: t.state.Root, level: t.state.Height}}}
	var count uint64
	for len(stack) > 0 {
		tk := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !reachable.CheckedAdd(uint64(tk.id)) {
			return corruptf(tk.id, "page referenced twice")
		}
		if t.store.IsFree(tk.id) {
			return corruptf(tk.id, "reachable page is free")
		}
		n, err := t.readNode(tk.id, tk.level)
		if err != nil {
			return err
		}
		bounds := n.bounds(t.cfg.Dims)
		if tk.bounds == nil {
			if !n.leaf() && len(n.items) < 2 {
				return corruptf(tk.id, "internal root has %d children", len(n.items))
			}
			if !bounds.Equal(t.bounds) {
				return corruptf(tk.id, "root bounds %s, tree bounds %s", bounds, t.bounds)
			}
		} else {
			if len(n.items) < t.cfg.MinEntries {
				return corruptf(tk.id, "node has %d items, min is %d", len(n.items), t.cfg.MinEntries)
			}
			if !bounds.Equal(*tk.bounds) {
				return corruptf(tk.id, "node bounds %s, parent records %s", bounds, *tk.bounds)
			}
		}
		if n.leaf() {
			count += uint64(len(n.items))
			continue
		}
		for i := range n.items {
			it := &n.items[i]
			stack = append(stack, checkTicket{
				ticket: ticket{id: it.child(), level: n.level - 1},
				bounds: &it.Box,
			})
		}
	}
	if count != t.state.Count {
		return wrapErr("tree holds %d entries, count is %d", ErrCorrupt, count, t.state.Count)
	}

	u := t.store.Usage()
	if used := reachable.GetCardinality() + u.Free + u.Reserved; used != u.Total {
		return wrapErr("%d reachable + %d free + %d reserved pages, store has %d",
			ErrCorrupt, reachable.GetCardinality(), u.Free, u.Reserved, u.Total)
	}
	return nil
}

// Pages returns the set of page IDs reachable from the root.
func (t *Tree) Pages() (*roaring64.Bitmap, error) {
	pages := roaring64.New()
	err := t.Export(func(p RawPage) error {
		pages.Add(uint64(p.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}
