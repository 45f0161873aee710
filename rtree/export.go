// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"iter"

	"github.com/gogama/spatialindex/pagestore"
)

// A RawPage is an encoded node page and the page ID it was read from.
type RawPage struct {
	ID   pagestore.PageID
	Data []byte
}

// Export calls fn with every node page of the tree in post-order, so
// every child is visited before its parent and the root is visited
// last. Each page is validated before it is passed to fn.
func (t *Tree) Export(fn func(RawPage) error) error {
	type exportFrame struct {
		page RawPage
		n    *node
		next int
	}
	root, err := t.readRaw(t.state.Root, t.state.Height)
	if err != nil {
		return err
	}
	stack := []exportFrame{{page: root.page, n: root.n}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.n.leaf() || top.next == len(top.n.items) {
			if err = fn(top.page); err != nil {
				return err
			}
			stack = stack[:len(stack)-1]
			continue
		}
		child, err := t.readRaw(top.n.items[top.next].child(), top.n.level-1)
		if err != nil {
			return err
		}
		top.next++
		stack = append(stack, exportFrame{page: child.page, n: child.n})
	}
	return nil
}

type rawNode struct {
	page RawPage
	n    *node
}

func (t *Tree) readRaw(id pagestore.PageID, level int) (rawNode, error) {
	buf, err := t.store.Read(id)
	if err != nil {
		return rawNode{}, wrapErr("failed to read node %d", err, id)
	}
	t.stats.nodeReads.Add(1)
	n, err := t.codec.decode(id, buf)
	if err != nil {
		return rawNode{}, err
	}
	if n.level != level {
		return rawNode{}, corruptf(id, "node at level %d, want %d", n.level, level)
	}
	return rawNode{page: RawPage{ID: id, Data: buf}, n: n}, nil
}

// Restore replaces the contents of the tree with the nodes yielded by
// pages, which must be in the post-order produced by Export, possibly
// from a tree in another Store. Page IDs are remapped as the nodes are
// copied in. Every node must be referenced by exactly one parent,
// except the final node, which becomes the root.
//
// An empty sequence leaves the tree empty.
func (t *Tree) Restore(pages iter.Seq2[RawPage, error]) error {
	tx := t.begin()
	if err := tx.restore(pages); err != nil {
		tx.abort()
		return err
	}
	return tx.commit()
}

func (tx *txn) restore(pages iter.Seq2[RawPage, error]) error {
	if err := tx.clear(); err != nil {
		return err
	}
	type placed struct {
		id    pagestore.PageID
		level int
	}
	t := tx.t
	pending := make(map[pagestore.PageID]placed)
	var last pagestore.PageID
	var count uint64
	for p, err := range pages {
		if err != nil {
			return err
		}
		n, err := t.codec.decode(p.ID, p.Data)
		if err != nil {
			return err
		}
		if _, ok := pending[p.ID]; ok || p.ID == pagestore.NoPage {
			return corruptf(p.ID, "page appears twice")
		}
		if n.leaf() {
			count += uint64(len(n.items))
		}
		for i := range n.items {
			if n.leaf() {
				continue
			}
			it := &n.items[i]
			child, ok := pending[it.child()]
			if !ok {
				return corruptf(p.ID, "child page %d not yet seen or already claimed", it.ref)
			} else if child.level != n.level-1 {
				return corruptf(p.ID, "child page %d at level %d, want %d", it.ref, child.level, n.level-1)
			}
			delete(pending, it.child())
			it.ref = int64(child.id)
		}
		id, err := tx.write(pagestore.NoPage, n)
		if err != nil {
			return err
		}
		pending[p.ID] = placed{id: id, level: n.level}
		last = p.ID
	}

	switch len(pending) {
	case 0:
		return nil
	case 1:
		root, ok := pending[last]
		if !ok {
			return corruptf(last, "final page is not the root")
		}
		tx.free(tx.root)
		tx.root, tx.height, tx.count = root.id, root.level, count
		return nil
	default:
		return corruptf(last, "%d nodes have no parent", len(pending)-1)
	}
}
