// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"log/slog"
	"math"

	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

const (
	// DefaultMaxEntries is the maximum entries per node used when
	// WithMaxEntries is not given, unless the page is too small to
	// hold that many.
	DefaultMaxEntries = 100
	// DefaultMinFillFraction is the fraction of the maximum entries
	// per node which every non-root node must hold, used when
	// WithMinFillFraction is not given.
	DefaultMinFillFraction = 0.4
)

type options struct {
	maxEntries    int
	maxEntriesSet bool
	minFill       float64
	minFillSet    bool
	pageSize      int
	pageSizeSet   bool
	overwrite     bool
	splitter      rtree.Splitter
	bulkFill      float64
	bulkFillSet   bool
	cacheSize     int
	logger        *slog.Logger
}

// Option configures Open, OpenStore, WithIndex and ReadSnapshot.
//
// Options describing the shape of the tree only take effect when a new
// index is created. When an existing index is opened its persisted
// parameters win, and a warning is logged for each conflicting option.
type Option func(*options)

// WithMaxEntries sets the maximum number of entries per node. The
// default is DefaultMaxEntries or the page capacity, whichever is
// smaller. Values less than 2, or greater than the page capacity,
// cause ErrCapacity.
func WithMaxEntries(m int) Option {
	return func(o *options) {
		o.maxEntries = m
		o.maxEntriesSet = true
	}
}

// WithMinFillFraction sets the minimum occupancy of every non-root
// node as a fraction of the maximum entries. The minimum entries per
// node is max(1, floor(maxEntries*f)). The fraction must be in
// (0, 0.5], otherwise ErrCapacity is returned.
func WithMinFillFraction(f float64) Option {
	return func(o *options) {
		o.minFill = f
		o.minFillSet = true
	}
}

// WithPageSize sets the page size of a newly created store. It has no
// effect on an existing file, or on a Store passed to OpenStore,
// whose page sizes are already fixed.
func WithPageSize(bytes int) Option {
	return func(o *options) {
		o.pageSize = bytes
		o.pageSizeSet = true
	}
}

// WithOverwrite discards any existing index file instead of opening
// it.
func WithOverwrite(overwrite bool) Option {
	return func(o *options) {
		o.overwrite = overwrite
	}
}

// WithSplitter sets the node split policy. The default is
// rtree.QuadraticSplit.
//
// The built-in split policy of an index is persisted. A custom
// Splitter is not, and must be supplied every time an index created
// with one is opened; otherwise rtree.QuadraticSplit is used.
func WithSplitter(s rtree.Splitter) Option {
	return func(o *options) {
		o.splitter = s
	}
}

// WithBulkFill sets the fraction of the maximum entries BulkLoad puts
// in each node. The default is 1. Values outside (0, 1] cause
// ErrCapacity.
func WithBulkFill(f float64) Option {
	return func(o *options) {
		o.bulkFill = f
		o.bulkFillSet = true
	}
}

// WithCacheSize enables an LRU cache of the given number of node
// pages. Zero, the default, disables the cache.
func WithCacheSize(pages int) Option {
	return func(o *options) {
		o.cacheSize = pages
	}
}

// WithLogger sets the structured logger. If nil is passed, or the
// option is not given, log output is discarded.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{
		minFill:  DefaultMinFillFraction,
		pageSize: pagestore.DefaultPageSize,
		bulkFill: 1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// config computes the configuration of a new tree of the given
// dimensionality in pages of the given size.
func (o *options) config(dims, pageSize int) (rtree.Config, error) {
	if dims < 1 || dims > math.MaxUint16 {
		return rtree.Config{}, wrapErr("dimensionality %d", ErrCapacity, dims)
	}
	capacity := rtree.Capacity(pageSize, dims)
	maxEntries := min(DefaultMaxEntries, capacity)
	if o.maxEntriesSet {
		maxEntries = o.maxEntries
	}
	switch {
	case maxEntries < 2:
		return rtree.Config{}, wrapErr("max entries %d is less than 2 (page capacity %d)", ErrCapacity, maxEntries, capacity)
	case maxEntries > capacity:
		return rtree.Config{}, wrapErr("max entries %d exceeds page capacity %d", ErrCapacity, maxEntries, capacity)
	case !(o.minFill > 0 && o.minFill <= 0.5):
		return rtree.Config{}, wrapErr("min fill fraction %g not in (0, 0.5]", ErrCapacity, o.minFill)
	case !(o.bulkFill > 0 && o.bulkFill <= 1):
		return rtree.Config{}, wrapErr("bulk fill %g not in (0, 1]", ErrCapacity, o.bulkFill)
	}
	splitter := o.splitter
	if splitter == nil {
		splitter = rtree.QuadraticSplit{}
	}
	return rtree.Config{
		Dims:       dims,
		MaxEntries: maxEntries,
		MinEntries: max(1, int(float64(maxEntries)*o.minFill)),
		Splitter:   splitter,
		BulkFill:   o.bulkFill,
	}, nil
}
