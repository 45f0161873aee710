// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package spatialindex provides a disk-backed, bulk-loadable R-Tree
// spatial index over D-dimensional bounding boxes.
//
// An Index is opened on a file, in memory, or on any
// pagestore.Store:
//
//	ix, err := spatialindex.Open("places.idx", 2)
//	if err != nil {
//		...
//	}
//	defer ix.Close()
//
//	err = ix.Insert(rtree.Rect(0, 0, 1, 1), 42)
//
// The tree itself lives in package rtree and its page storage in
// package pagestore. This package adds the Index lifecycle, functional
// options, persisted metadata, snapshots and a single error vocabulary
// over both.
//
// # Lifecycle
//
// An Index is in one of three states. A successfully opened Index is
// in StatusOpen. Any unrecoverable I/O or corruption error moves it to
// StatusFailed, after which every operation returns an error wrapping
// ErrIndexUnavailable until Reopen succeeds. Close moves it to
// StatusClosed, after which operations return ErrClosed. Caller
// mistakes, such as an invalid box or deleting a missing entry, never
// change the state.
package spatialindex
