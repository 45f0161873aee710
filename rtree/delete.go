// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import "github.com/gogama/spatialindex/pagestore"

// Delete removes one entry whose box equals e.Box and whose ID equals
// e.ID, returning ErrNotFound if there is none.
//
// A non-root node left with fewer than MinEntries items is removed
// from the tree, and every entry beneath it is reinserted from the
// root. An internal root left with a single child is replaced by the
// child.
func (t *Tree) Delete(e Entry) error {
	if err := t.checkBox(e.Box); err != nil {
		return err
	}
	tx := t.begin()
	if err := tx.delete(e); err != nil {
		tx.abort()
		return err
	}
	return tx.commit()
}

func (tx *txn) delete(e Entry) error {
	path, index, err := tx.findLeaf(e)
	if err != nil {
		return err
	} else if path == nil {
		return ErrNotFound
	}
	path[len(path)-1].n.remove(index)
	tx.count--

	// Condense the path bottom-up.
	t := tx.t
	var orphans []item
	for i := len(path) - 1; i > 0; i-- {
		f, parent := path[i], path[i-1]
		if len(f.n.items) < t.cfg.MinEntries {
			if orphans, err = tx.collect(f.id, f.n, orphans); err != nil {
				return err
			}
			parent.n.remove(parent.slot)
			continue
		}
		id, err := tx.write(f.id, f.n)
		if err != nil {
			return err
		}
		parent.n.items[parent.slot] = item{Box: f.n.bounds(t.cfg.Dims), ref: int64(id)}
	}
	if tx.root, err = tx.write(path[0].id, path[0].n); err != nil {
		return err
	}
	if err = tx.shrink(); err != nil {
		return err
	}

	for _, it := range orphans {
		if err = tx.insert(it, 0); err != nil {
			return err
		}
	}
	t.stats.reinsertions.Add(uint64(len(orphans)))
	return nil
}

// findLeaf searches depth-first for a leaf holding e, returning the
// path to the leaf and the index of the entry within it, or a nil path
// if e is not in the tree. Only subtrees whose bounds contain e.Box
// are searched.
func (tx *txn) findLeaf(e Entry) ([]frame, int, error) {
	root, err := tx.read(tx.root, tx.height)
	if err != nil {
		return nil, 0, err
	}
	path := []frame{{id: tx.root, n: root, slot: -1}}
	for len(path) > 0 {
		top := &path[len(path)-1]
		if top.n.leaf() {
			for i := range top.n.items {
				if it := &top.n.items[i]; it.ref == e.ID && it.Equal(e.Box) {
					return path, i, nil
				}
			}
			path = path[:len(path)-1]
			continue
		}
		top.slot++
		for top.slot < len(top.n.items) && !top.n.items[top.slot].Contains(e.Box) {
			top.slot++
		}
		if top.slot == len(top.n.items) {
			path = path[:len(path)-1]
			continue
		}
		childID := top.n.items[top.slot].child()
		child, err := tx.read(childID, top.n.level-1)
		if err != nil {
			return nil, 0, err
		}
		path = append(path, frame{id: childID, n: child, slot: -1})
	}
	return nil, 0, nil
}

// collect removes the subtree rooted at node n, on page id, from the
// tree, appending every leaf entry beneath it to orphans.
func (tx *txn) collect(id pagestore.PageID, n *node, orphans []item) ([]item, error) {
	stack := []frame{{id: id, n: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		tx.free(f.id)
		if f.n.leaf() {
			orphans = append(orphans, f.n.items...)
			continue
		}
		for i := range f.n.items {
			childID := f.n.items[i].child()
			child, err := tx.read(childID, f.n.level-1)
			if err != nil {
				return nil, err
			}
			stack = append(stack, frame{id: childID, n: child})
		}
	}
	return orphans, nil
}

// shrink replaces an internal root having a single child by the
// child, repeatedly, and an internal root having no children by an
// empty leaf.
func (tx *txn) shrink() error {
	for tx.height > 0 {
		root, err := tx.read(tx.root, tx.height)
		if err != nil {
			return err
		}
		switch len(root.items) {
		case 0:
			tx.free(tx.root)
			tx.height = 0
			tx.root, err = tx.write(pagestore.NoPage, &node{})
			return err
		case 1:
			tx.free(tx.root)
			tx.root = root.items[0].child()
			tx.height--
		default:
			return nil
		}
	}
	return nil
}
