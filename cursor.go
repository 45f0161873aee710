// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"iter"

	"github.com/gogama/spatialindex/rtree"
)

// A Cursor is a lazy sequence of query results. Use it like a
// bufio.Scanner, or range over All.
//
// A Cursor holds no lock. If the Index is mutated, reopened or closed
// while the Cursor is in use, the next call to Next returns false and
// Err returns an error wrapping ErrStaleCursor. Abandoning a Cursor
// part way through has no side effects.
type Cursor struct {
	ix    *Index
	c     *rtree.Cursor
	epoch uint64
	err   error
}

func (ix *Index) newCursor(c *rtree.Cursor) *Cursor {
	return &Cursor{ix: ix, c: c, epoch: ix.epoch}
}

// Next advances the Cursor to the next result, returning false when
// there are no more results or an error occurs.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if c.epoch != c.ix.epoch {
		c.err = ErrStaleCursor
		return false
	}
	if c.err = c.ix.ready(); c.err != nil {
		return false
	}
	if c.c.Next() {
		return true
	}
	c.err = c.ix.fail("query", c.c.Err())
	return false
}

// Entry returns the result at the Cursor's position. It is only valid
// after Next has returned true.
func (c *Cursor) Entry() rtree.Entry {
	return c.c.Entry()
}

// Err returns the error, if any, which stopped the Cursor.
func (c *Cursor) Err() error {
	return c.err
}

// All returns an iterator over the Cursor's remaining results. If the
// Cursor stops with an error, the iterator yields the error once as
// its final element.
func (c *Cursor) All() iter.Seq2[rtree.Entry, error] {
	return func(yield func(rtree.Entry, error) bool) {
		for c.Next() {
			if !yield(c.Entry(), nil) {
				return
			}
		}
		if c.err != nil {
			yield(rtree.Entry{}, c.err)
		}
	}
}

// Collect drains the Cursor into a slice.
func (c *Cursor) Collect() ([]rtree.Entry, error) {
	var entries []rtree.Entry
	for c.Next() {
		entries = append(entries, c.Entry())
	}
	return entries, c.err
}
