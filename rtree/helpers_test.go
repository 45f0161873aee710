// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gogama/spatialindex/pagestore"
)

var smallConfig = Config{Dims: 2, MaxEntries: 4, MinEntries: 2}

func newTestTree(t *testing.T, cfg Config) (*Tree, *pagestore.Memory) {
	t.Helper()
	s, err := pagestore.NewMemory(pagestore.MinPageSize)
	require.NoError(t, err)
	tr, err := New(s, cfg, nil)
	require.NoError(t, err)
	return tr, s
}

func randomBox(r *rand.Rand, dims int, span, size float64) Box {
	b := Box{Min: make([]float64, dims), Max: make([]float64, dims)}
	for i := 0; i < dims; i++ {
		b.Min[i] = r.Float64() * span
		b.Max[i] = b.Min[i] + r.Float64()*size
	}
	return b
}

func randomEntries(seed uint64, n, dims int) []Entry {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{Box: randomBox(r, dims, 100, 5), ID: int64(i)}
	}
	return entries
}

// bruteForce returns the sorted IDs of the entries matching p.
func bruteForce(entries []Entry, p Predicate) []int64 {
	ids := []int64{}
	for _, e := range entries {
		if p.Match(e.Box) {
			ids = append(ids, e.ID)
		}
	}
	slices.Sort(ids)
	return ids
}

// queryIDs returns the sorted IDs of the tree entries matching p.
func queryIDs(t *testing.T, tr *Tree, p Predicate) []int64 {
	t.Helper()
	ids := []int64{}
	for e, err := range tr.Query(p).All() {
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	slices.Sort(ids)
	return ids
}

func insertAll(t *testing.T, tr *Tree, entries []Entry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, tr.Insert(e))
	}
}

var errInjected = errors.New("injected fault")

// faultyStore is a pagestore.Store which fails selected operations
// on demand.
type faultyStore struct {
	pagestore.Store
	failAllocate bool
	failRead     bool
	failWrite    bool
	failFree     bool
	// writesLeft, if positive, is the number of writes allowed to
	// succeed before failWrite takes effect.
	writesLeft int
}

func (s *faultyStore) Allocate() (pagestore.PageID, error) {
	if s.failAllocate {
		return pagestore.NoPage, errInjected
	}
	return s.Store.Allocate()
}

func (s *faultyStore) Read(id pagestore.PageID) ([]byte, error) {
	if s.failRead {
		return nil, errInjected
	}
	return s.Store.Read(id)
}

func (s *faultyStore) Write(id pagestore.PageID, p []byte) error {
	if s.failWrite {
		if s.writesLeft <= 0 {
			return errInjected
		}
		s.writesLeft--
	}
	return s.Store.Write(id, p)
}

func (s *faultyStore) Free(id pagestore.PageID) error {
	if s.failFree {
		return errInjected
	}
	return s.Store.Free(id)
}
