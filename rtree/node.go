// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import "github.com/gogama/spatialindex/pagestore"

// An item is one slot of a node. In a leaf, ref is the entry ID. In
// an internal node, ref is the child page ID and the Box is the exact
// bounds of the child's subtree.
type item struct {
	Box
	ref int64
}

func (it *item) entry() Entry {
	return Entry{Box: it.Box, ID: it.ref}
}

func (it *item) child() pagestore.PageID {
	return pagestore.PageID(it.ref)
}

// A node is the decoded form of one node page. Level 0 nodes are
// leaves.
type node struct {
	level int
	items []item
}

func (n *node) leaf() bool {
	return n.level == 0
}

// bounds returns the union of the node's item boxes, or EmptyBox if
// the node has no items.
func (n *node) bounds(dims int) Box {
	b := EmptyBox(dims)
	for i := range n.items {
		b.Expand(n.items[i].Box)
	}
	return b
}

func (n *node) remove(i int) {
	copy(n.items[i:], n.items[i+1:])
	n.items[len(n.items)-1] = item{}
	n.items = n.items[:len(n.items)-1]
}
