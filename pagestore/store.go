// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package pagestore provides fixed-size block storage keyed by page
// identifier, with an in-memory implementation, a file-backed
// implementation, and an LRU read cache that decorates either.
//
// A Store knows nothing about what the pages contain. Apart from the
// pages themselves, it persists one small opaque metadata blob (see
// Store.SetMeta) which higher layers use to record where their data
// structures begin.
package pagestore

import "strconv"

// PageID identifies a page within a Store. The zero value never names
// a usable page: in file stores page 0 holds the store header.
type PageID uint64

// NoPage is the zero PageID, used to mean "no page".
const NoPage PageID = 0

// String returns the decimal page number.
func (id PageID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

const (
	// DefaultPageSize is the page size used when none is specified.
	DefaultPageSize = 4096
	// MinPageSize is the smallest page size a Store accepts.
	MinPageSize = 512
	// MaxPageSize is the largest page size a Store accepts.
	MaxPageSize = 1 << 20
)

// Store is fixed-size block storage.
//
// Read after Write on the same Store, with no intervening Free,
// returns exactly the written bytes. Page identifiers are never handed
// out by Allocate while they are allocated; freed identifiers may be
// recycled by later Allocate calls. A Store is not safe for concurrent
// use.
type Store interface {
	// PageSize returns the size in bytes of every page.
	PageSize() int
	// Allocate reserves a page and returns its identifier. The content
	// of a newly allocated page is undefined until written.
	Allocate() (PageID, error)
	// Read returns a copy of the page's bytes.
	Read(id PageID) ([]byte, error)
	// Write replaces the page's bytes. len(p) must equal PageSize.
	Write(id PageID, p []byte) error
	// Free releases an allocated page.
	Free(id PageID) error
	// IsFree reports whether id names a page which is currently free.
	IsFree(id PageID) bool
	// Meta returns a copy of the opaque metadata blob.
	Meta() []byte
	// SetMeta replaces the metadata blob. For durable stores the new
	// value reaches storage at the next Flush.
	SetMeta(meta []byte) error
	// Usage reports page accounting figures.
	Usage() Usage
	// Flush makes all prior writes durable. Stores without durable
	// storage implement Flush as a no-op.
	Flush() error
	// Close releases the Store's resources. Close does not flush.
	Close() error
}

// Usage summarizes how the pages of a Store are used.
type Usage struct {
	// Total is the number of pages ever allocated and not yet
	// truncated, excluding any header page.
	Total uint64
	// Free is the number of free pages, including Pending.
	Free uint64
	// Pending is the number of freed pages which cannot be recycled
	// until the next Flush.
	Pending uint64
	// Reserved is the number of pages the Store uses for its own
	// bookkeeping, such as free-list pages.
	Reserved uint64
}

// MaxMetaSize returns the largest metadata blob a Store with the given
// page size can persist.
func MaxMetaSize(pageSize int) int {
	return pageSize - headerSize
}

func validatePageSize(pageSize int) error {
	if pageSize < MinPageSize || pageSize > MaxPageSize {
		return wrapErr("%d not in [%d, %d]", ErrPageSize, pageSize, MinPageSize, MaxPageSize)
	}
	return nil
}
