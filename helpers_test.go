// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

var errInjected = errors.New("injected fault")

// faultyStore is a pagestore.Store which fails selected operations
// on demand.
type faultyStore struct {
	pagestore.Store
	failRead  bool
	failWrite bool
	failMeta  bool
	failFlush bool
	failFree  bool
}

func (s *faultyStore) Read(id pagestore.PageID) ([]byte, error) {
	if s.failRead {
		return nil, errInjected
	}
	return s.Store.Read(id)
}

func (s *faultyStore) Write(id pagestore.PageID, p []byte) error {
	if s.failWrite {
		return errInjected
	}
	return s.Store.Write(id, p)
}

func (s *faultyStore) SetMeta(meta []byte) error {
	if s.failMeta {
		return errInjected
	}
	return s.Store.SetMeta(meta)
}

func (s *faultyStore) Free(id pagestore.PageID) error {
	if s.failFree {
		return errInjected
	}
	return s.Store.Free(id)
}

func (s *faultyStore) Flush() error {
	if s.failFlush {
		return errInjected
	}
	return s.Store.Flush()
}

func newMemory(t *testing.T) *pagestore.Memory {
	t.Helper()
	m, err := pagestore.NewMemory(pagestore.MinPageSize)
	require.NoError(t, err)
	return m
}

func openMemory(t *testing.T, dims int, opts ...Option) *Index {
	t.Helper()
	ix, err := Open("", dims, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func randomEntries(seed uint64, n, dims int) []rtree.Entry {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	entries := make([]rtree.Entry, n)
	for i := range entries {
		b := rtree.Box{Min: make([]float64, dims), Max: make([]float64, dims)}
		for j := 0; j < dims; j++ {
			b.Min[j] = r.Float64() * 100
			b.Max[j] = b.Min[j] + r.Float64()*5
		}
		entries[i] = rtree.Entry{Box: b, ID: int64(i)}
	}
	return entries
}

func insertAll(t *testing.T, ix *Index, entries []rtree.Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, ix.Insert(e.Box, e.ID))
	}
}

// intersectionIDs returns the sorted IDs of the entries intersecting
// region.
func intersectionIDs(t *testing.T, ix *Index, region rtree.Box) []int64 {
	t.Helper()
	c, err := ix.Intersection(region)
	require.NoError(t, err)
	ids := []int64{}
	for e, err := range c.All() {
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	slices.Sort(ids)
	return ids
}

var everywhere = rtree.Rect(-1e9, -1e9, 1e9, 1e9)

// bufferLogger returns a logger which writes every record to buf.
func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
