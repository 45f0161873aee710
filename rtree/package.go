// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package rtree provides a paged, dynamic R-Tree spatial index over
// D-dimensional bounding boxes.
//
// Tree nodes live in fixed-size pages of a pagestore.Store. Inserts,
// deletes and bulk loads stage their node changes copy-on-write and
// only make them visible once every page is written, so a failed
// mutation leaves the tree exactly as it was.
//
// The Tree does no locking. At most one mutation may be in flight at
// a time, and queries may only be interleaved at mutation boundaries.
package rtree
