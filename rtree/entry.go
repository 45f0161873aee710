// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import "fmt"

// An Entry is a single item stored in the tree: a bounding box plus
// an opaque caller-supplied ID. The tree never interprets the ID, and
// the same ID may appear with more than one box.
type Entry struct {
	Box
	ID int64
}

func (e Entry) String() string {
	return fmt.Sprintf("Entry{%s,ID:%d}", e.Box, e.ID)
}

// Neighbor is a single Nearest result.
type Neighbor struct {
	Entry
	// Distance is the Euclidean distance from the query point to the
	// entry's box, zero if the point lies inside the box.
	Distance float64
}

func (n Neighbor) String() string {
	return fmt.Sprintf("Neighbor{%s,ID:%d,Distance:%g}", n.Box, n.ID, n.Distance)
}
