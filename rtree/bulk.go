// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import "github.com/gogama/spatialindex/pagestore"

// BulkLoad replaces the contents of the tree with entries.
//
// The entries are sorted by the Hilbert index of their box centers
// and packed bottom-up into nodes of MaxEntries*BulkFill items each,
// with item counts spread evenly so that no non-root node holds fewer
// than MinEntries. With the default BulkFill of 1.0 the result has the
// least height possible for the entry count. The entries slice is not
// modified.
func (t *Tree) BulkLoad(entries []Entry) error {
	for i := range entries {
		if err := t.checkBox(entries[i].Box); err != nil {
			return wrapErr("entry %d", err, i)
		}
	}
	tx := t.begin()
	if err := tx.bulkLoad(entries); err != nil {
		tx.abort()
		return err
	}
	return tx.commit()
}

func (tx *txn) bulkLoad(entries []Entry) error {
	if err := tx.clear(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	t := tx.t
	sorted := make([]Entry, len(entries))
	extent := EmptyBox(t.cfg.Dims)
	for i := range entries {
		sorted[i] = Entry{Box: entries[i].Box.Clone(), ID: entries[i].ID}
		extent.Expand(entries[i].Box)
	}
	HilbertSort(sorted, extent)

	items := make([]item, len(sorted))
	for i := range sorted {
		items[i] = item{Box: sorted[i].Box, ref: sorted[i].ID}
	}
	for level := 0; ; level++ {
		nodes := t.pack(items, level)
		if len(nodes) == 1 {
			tx.free(tx.root)
			var err error
			if tx.root, err = tx.write(pagestore.NoPage, nodes[0]); err != nil {
				return err
			}
			tx.height = level
			tx.count = uint64(len(entries))
			return nil
		}
		items = make([]item, len(nodes))
		for i, n := range nodes {
			id, err := tx.write(pagestore.NoPage, n)
			if err != nil {
				return err
			}
			items[i] = item{Box: n.bounds(t.cfg.Dims), ref: int64(id)}
		}
	}
}

// pack groups items into the nodes of one level. If all the items fit
// in one node, that node is the root.
func (t *Tree) pack(items []item, level int) []*node {
	count := len(items)
	if count <= t.cfg.MaxEntries {
		return []*node{{level: level, items: items}}
	}

	// Any node count in [ceil(count/M), floor(count/m)] spreads the
	// items so every node holds between m and M; that range is never
	// empty because m <= M/2.
	target := max(1, int(float64(t.cfg.MaxEntries)*t.cfg.BulkFill))
	n := (count + target - 1) / target
	n = max(n, (count+t.cfg.MaxEntries-1)/t.cfg.MaxEntries)
	n = min(n, count/t.cfg.MinEntries)

	nodes := make([]*node, n)
	base, extra := count/n, count%n
	var start int
	for i := range nodes {
		size := base
		if i < extra {
			size++
		}
		nodes[i] = &node{level: level, items: items[start : start+size : start+size]}
		start += size
	}
	return nodes
}

// clear removes every node of the tree, leaving an empty leaf root.
func (tx *txn) clear() error {
	root, err := tx.read(tx.root, tx.height)
	if err != nil {
		return err
	}
	if _, err = tx.collect(tx.root, root, nil); err != nil {
		return err
	}
	tx.height = 0
	tx.count = 0
	tx.root, err = tx.write(pagestore.NoPage, &node{})
	return err
}
