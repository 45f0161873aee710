// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

import "github.com/google/btree"

const freelistDegree = 32

// A freelist tracks free page identifiers in two ordered sets.
//
// Reusable pages may be handed out by Allocate immediately. Pending
// pages were freed after the last durable checkpoint and may still be
// referenced by the durable state on disk, so they only become
// reusable once the next checkpoint lands (see release).
//
// Allocation always recycles the smallest reusable identifier, which
// keeps files compact and makes allocation order deterministic.
type freelist struct {
	reusable *btree.BTreeG[PageID]
	pending  *btree.BTreeG[PageID]
}

func newFreelist() *freelist {
	return &freelist{
		reusable: btree.NewOrderedG[PageID](freelistDegree),
		pending:  btree.NewOrderedG[PageID](freelistDegree),
	}
}

// pop removes and returns the smallest reusable page.
func (fl *freelist) pop() (PageID, bool) {
	return fl.reusable.DeleteMin()
}

// push adds a page which may be recycled immediately.
func (fl *freelist) push(id PageID) {
	fl.reusable.ReplaceOrInsert(id)
}

// hold adds a page which may only be recycled after release.
func (fl *freelist) hold(id PageID) {
	fl.pending.ReplaceOrInsert(id)
}

// release makes every pending page reusable.
func (fl *freelist) release() {
	fl.pending.Ascend(func(id PageID) bool {
		fl.reusable.ReplaceOrInsert(id)
		return true
	})
	fl.pending.Clear(false)
}

func (fl *freelist) has(id PageID) bool {
	return fl.reusable.Has(id) || fl.pending.Has(id)
}

// len returns the number of free pages, pending included.
func (fl *freelist) len() int {
	return fl.reusable.Len() + fl.pending.Len()
}

func (fl *freelist) numPending() int {
	return fl.pending.Len()
}

// ascend calls fn for every free page, pending included, in ascending
// order within each set, stopping early if fn returns false.
func (fl *freelist) ascend(fn func(PageID) bool) {
	more := true
	fl.reusable.Ascend(func(id PageID) bool {
		more = fn(id)
		return more
	})
	if !more {
		return
	}
	fl.pending.Ascend(fn)
}
