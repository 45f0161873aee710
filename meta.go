// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"fmt"
	"math"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/gogama/spatialindex/flat"
	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

// MetaVersion is the version of the tree metadata table written by
// this package. Tables with any other version are rejected with
// ErrUnsupportedFormat.
const MetaVersion = 1

// meta is the decoded tree metadata table: the tree's persisted Config
// plus its State.
type meta struct {
	dims       int
	maxEntries int
	minEntries int
	split      rtree.SplitKind
	bulkFill   float64
	state      rtree.State
}

func newMeta(cfg rtree.Config, st rtree.State) meta {
	return meta{
		dims:       cfg.Dims,
		maxEntries: cfg.MaxEntries,
		minEntries: cfg.MinEntries,
		split:      rtree.KindOf(cfg.Splitter),
		bulkFill:   cfg.BulkFill,
		state:      st,
	}
}

func (m *meta) marshal() []byte {
	b := flatbuffers.NewBuilder(64)
	flat.MetaStart(b)
	flat.MetaAddVersion(b, MetaVersion)
	flat.MetaAddDims(b, uint16(m.dims))
	flat.MetaAddMaxEntries(b, uint32(m.maxEntries))
	flat.MetaAddMinEntries(b, uint32(m.minEntries))
	flat.MetaAddSplit(b, flat.Split(m.split))
	flat.MetaAddBulkFill(b, m.bulkFill)
	flat.MetaAddRoot(b, uint64(m.state.Root))
	flat.MetaAddHeight(b, uint32(m.state.Height))
	flat.MetaAddCount(b, m.state.Count)
	flat.FinishSizePrefixedMetaBuffer(b, flat.MetaEnd(b))
	return b.FinishedBytes()
}

func unmarshalMeta(b []byte) (m meta, err error) {
	if _, err = sizePrefixedLen(b); err != nil {
		return meta{}, fmt.Errorf("%w: bad metadata table: %w", ErrCorruption, err)
	}
	var version uint16
	err = safeFlatBuffersInteraction(func() error {
		t := flat.GetSizePrefixedRootAsMeta(b, 0)
		if version = t.Version(); version != MetaVersion {
			return nil
		}
		m = meta{
			dims:       int(t.Dims()),
			maxEntries: int(t.MaxEntries()),
			minEntries: int(t.MinEntries()),
			split:      rtree.SplitKind(t.Split()),
			bulkFill:   t.BulkFill(),
			state: rtree.State{
				Root:   pagestore.PageID(t.Root()),
				Height: int(t.Height()),
				Count:  t.Count(),
			},
		}
		return nil
	})
	switch {
	case err != nil:
		return meta{}, fmt.Errorf("%w: bad metadata table: %w", ErrCorruption, err)
	case version != MetaVersion:
		return meta{}, wrapErr("metadata version %d, want %d", ErrUnsupportedFormat, version, MetaVersion)
	case m.split > rtree.RStar:
		return meta{}, wrapErr("unknown split kind %d", ErrCorruption, m.split)
	case m.dims < 1 || m.state.Root == pagestore.NoPage || m.state.Height > math.MaxUint16:
		return meta{}, wrapErr("metadata %+v", ErrCorruption, m)
	}
	return m, nil
}

// config returns the tree Config recorded in m. A custom split policy
// is not persisted, so custom supplies the Splitter to use for it; if
// custom is nil, QuadraticSplit stands in.
func (m *meta) config(custom rtree.Splitter) rtree.Config {
	splitter := m.split.Splitter()
	if splitter == nil {
		splitter = custom
	}
	if splitter == nil {
		splitter = rtree.QuadraticSplit{}
	}
	return rtree.Config{
		Dims:       m.dims,
		MaxEntries: m.maxEntries,
		MinEntries: m.minEntries,
		Splitter:   splitter,
		BulkFill:   m.bulkFill,
	}
}
