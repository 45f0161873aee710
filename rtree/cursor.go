// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"iter"

	"github.com/gogama/spatialindex/pagestore"
)

// A ticket is a pending subtree visit during a Cursor traversal.
type ticket struct {
	id    pagestore.PageID
	level int
}

// A Cursor is a lazy, depth-first traversal of the entries matching a
// Predicate. Use it like a bufio.Scanner:
//
//	c := t.Query(p)
//	for c.Next() {
//		fmt.Println(c.Entry())
//	}
//	if err := c.Err(); err != nil {
//		...
//	}
//
// Each matching entry is produced exactly once, in no particular
// order. A Cursor holds no lock and may be abandoned at any time. If
// the Tree commits a mutation while the Cursor is in use, the next
// call to Next returns false and Err returns ErrStaleCursor.
type Cursor struct {
	t     *Tree
	pred  Predicate
	gen   uint64
	stack []ticket
	buf   []Entry
	entry Entry
	err   error
}

// Query returns a Cursor over every entry matching p. Query panics if
// p is nil.
func (t *Tree) Query(p Predicate) *Cursor {
	if p == nil {
		textPanic("nil predicate")
	}
	c := &Cursor{t: t, pred: p, gen: t.gen}
	if t.state.Count > 0 && p.Descend(t.bounds) {
		c.stack = append(c.stack, ticket{id: t.state.Root, level: t.state.Height})
	}
	return c
}

// Intersection returns a Cursor over every entry whose box intersects
// region.
func (t *Tree) Intersection(region Box) (*Cursor, error) {
	if err := t.checkBox(region); err != nil {
		return nil, err
	}
	return t.Query(Intersects(region)), nil
}

// Within returns a Cursor over every entry whose box lies inside
// region.
func (t *Tree) Within(region Box) (*Cursor, error) {
	if err := t.checkBox(region); err != nil {
		return nil, err
	}
	return t.Query(Within(region)), nil
}

// Count returns the number of entries whose box intersects region.
func (t *Tree) Count(region Box) (int, error) {
	c, err := t.Intersection(region)
	if err != nil {
		return 0, err
	}
	var n int
	for c.Next() {
		n++
	}
	return n, c.Err()
}

// Next advances the Cursor to the next matching entry, returning
// false when there are no more entries or an error occurs.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	if c.gen != c.t.gen {
		c.err = ErrStaleCursor
		return false
	}
	for len(c.buf) == 0 {
		if len(c.stack) == 0 {
			return false
		}
		tk := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		n, err := c.t.readNode(tk.id, tk.level)
		if err != nil {
			c.err = err
			return false
		}
		for i := range n.items {
			it := &n.items[i]
			if n.leaf() {
				if c.pred.Match(it.Box) {
					c.buf = append(c.buf, it.entry())
				}
			} else if c.pred.Descend(it.Box) {
				c.stack = append(c.stack, ticket{id: it.child(), level: n.level - 1})
			}
		}
	}
	c.entry = c.buf[0]
	c.buf = c.buf[1:]
	return true
}

// Entry returns the entry at the Cursor's position. It is only valid
// after Next has returned true.
func (c *Cursor) Entry() Entry {
	return c.entry
}

// Err returns the error, if any, which stopped the Cursor.
func (c *Cursor) Err() error {
	return c.err
}

// All returns an iterator over the Cursor's remaining entries. If the
// Cursor stops with an error, the iterator yields the error once as
// its final element.
func (c *Cursor) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for c.Next() {
			if !yield(c.entry, nil) {
				return
			}
		}
		if c.err != nil {
			yield(Entry{}, c.err)
		}
	}
}

// Collect drains the Cursor into a slice.
func (c *Cursor) Collect() ([]Entry, error) {
	var entries []Entry
	for c.Next() {
		entries = append(entries, c.entry)
	}
	return entries, c.err
}
