// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"fmt"

	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

// Stats is a snapshot of an Index's activity counters and page usage.
type Stats struct {
	rtree.Stats
	// CacheHits and CacheMisses count node page reads served from and
	// missing the page cache. Both are zero if there is no cache.
	CacheHits   uint64
	CacheMisses uint64
	// Pages is the page accounting of the underlying store.
	Pages pagestore.Usage
}

// Stats returns the activity counters accumulated since the Index was
// last opened or reopened.
func (ix *Index) Stats() Stats {
	var s Stats
	if ix.tree != nil {
		s.Stats = ix.tree.Stats()
	}
	if ix.cache != nil {
		s.CacheHits = ix.cache.Hits()
		s.CacheMisses = ix.cache.Misses()
	}
	if ix.status != StatusClosed {
		s.Pages = ix.base.Usage()
	}
	return s
}

// Info describes the shape and contents of an Index.
type Info struct {
	Path       string
	Status     Status
	Dims       int
	MaxEntries int
	MinEntries int
	Split      rtree.SplitKind
	BulkFill   float64
	PageSize   int
	Len        uint64
	Height     int
	Bounds     rtree.Box
	Pages      pagestore.Usage
}

func (info Info) String() string {
	return fmt.Sprintf("Info{Path:%q,Status:%s,Dims:%d,MaxEntries:%d,MinEntries:%d,Split:%s,BulkFill:%g,PageSize:%d,Len:%d,Height:%d,Bounds:%s,Pages:%+v}",
		info.Path, info.Status, info.Dims, info.MaxEntries, info.MinEntries, info.Split, info.BulkFill,
		info.PageSize, info.Len, info.Height, info.Bounds, info.Pages)
}

// Info describes the Index.
func (ix *Index) Info() (Info, error) {
	if err := ix.ready(); err != nil {
		return Info{}, err
	}
	cfg := ix.tree.Config()
	return Info{
		Path:       ix.path,
		Status:     ix.status,
		Dims:       cfg.Dims,
		MaxEntries: cfg.MaxEntries,
		MinEntries: cfg.MinEntries,
		Split:      rtree.KindOf(cfg.Splitter),
		BulkFill:   cfg.BulkFill,
		PageSize:   ix.base.PageSize(),
		Len:        ix.tree.Len(),
		Height:     ix.tree.Height(),
		Bounds:     ix.tree.Bounds(),
		Pages:      ix.base.Usage(),
	}, nil
}
