// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import "github.com/gogama/spatialindex/pagestore"

// A txn stages the node changes of one mutation.
//
// Committed pages are never written by a txn. The first write to a
// committed node goes to a newly allocated page, and the committed
// page is only freed once the new state has been handed to the
// Tree's CommitFunc. Later writes to the same node, now staged, update
// the staged copy in place.
type txn struct {
	t      *Tree
	root   pagestore.PageID
	height int
	count  uint64
	// staged maps pages allocated by the txn to their new contents.
	staged map[pagestore.PageID]*node
	// allocated lists pages allocated by the txn, in order.
	allocated []pagestore.PageID
	// replaced lists committed pages which the new state no longer
	// references.
	replaced []pagestore.PageID
}

func (t *Tree) begin() *txn {
	return &txn{
		t:      t,
		root:   t.state.Root,
		height: t.state.Height,
		count:  t.state.Count,
		staged: make(map[pagestore.PageID]*node),
	}
}

// read returns the node at page id as it stands in the txn. Staged
// nodes are returned by reference, so changes to them are visible to
// later reads without another write.
func (tx *txn) read(id pagestore.PageID, level int) (*node, error) {
	if n, ok := tx.staged[id]; ok {
		if n.level != level {
			fmtPanic("staged node %d at level %d, want %d", id, n.level, level)
		}
		return n, nil
	}
	return tx.t.readNode(id, level)
}

// write stages n as the new contents of the node at page id and
// returns the page the node now lives on. Pass pagestore.NoPage to
// stage a brand new node.
func (tx *txn) write(id pagestore.PageID, n *node) (pagestore.PageID, error) {
	if _, ok := tx.staged[id]; ok {
		tx.staged[id] = n
		return id, nil
	}
	newID, err := tx.t.store.Allocate()
	if err != nil {
		return pagestore.NoPage, wrapErr("failed to allocate node page", err)
	}
	tx.allocated = append(tx.allocated, newID)
	tx.staged[newID] = n
	if id != pagestore.NoPage {
		tx.replaced = append(tx.replaced, id)
	}
	return newID, nil
}

// free removes the node at page id from the tree.
func (tx *txn) free(id pagestore.PageID) {
	if _, ok := tx.staged[id]; ok {
		delete(tx.staged, id)
		return
	}
	tx.replaced = append(tx.replaced, id)
}

// commit writes every staged node, commits the new state and swaps it
// into the Tree, then frees the pages the new state does not use. Any
// error before the swap aborts the txn. Once the swap is done the
// mutation has happened, so a failure to free a page is only counted
// as a leak and never reported as an error.
func (tx *txn) commit() error {
	t := tx.t
	root, err := tx.read(tx.root, tx.height)
	if err != nil {
		tx.abort()
		return err
	}
	for _, id := range tx.allocated {
		n, ok := tx.staged[id]
		if !ok {
			continue
		}
		if err = t.store.Write(id, t.codec.encode(n)); err != nil {
			tx.abort()
			return wrapErr("failed to write node %d", err, id)
		}
		t.stats.nodeWrites.Add(1)
	}
	st := State{Root: tx.root, Height: tx.height, Count: tx.count}
	if err = t.commit(st); err != nil {
		tx.abort()
		return wrapErr("failed to commit %s", err, st)
	}

	t.state = st
	t.bounds = root.bounds(t.cfg.Dims)
	t.gen++
	t.stats.commits.Add(1)

	release := func(id pagestore.PageID) {
		if err := t.store.Free(id); err != nil {
			t.stats.leakedPages.Add(1)
		}
	}
	for _, id := range tx.allocated {
		if _, ok := tx.staged[id]; !ok {
			release(id)
		}
	}
	for _, id := range tx.replaced {
		release(id)
	}
	return nil
}

// abort returns every page the txn allocated to the store.
func (tx *txn) abort() {
	for _, id := range tx.allocated {
		_ = tx.t.store.Free(id)
	}
	tx.t.stats.aborts.Add(1)
}
