// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"bytes"
	"math"
	"path/filepath"
	"runtime"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogama/spatialindex/flat"
	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

func TestOpen(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		ix := openMemory(t, 2)

		assert.Equal(t, StatusOpen, ix.Status())
		assert.Equal(t, 2, ix.Dims())
		assert.Equal(t, "", ix.Path())
		assert.Equal(t, uint64(0), ix.Len())
		assert.Equal(t, 0, ix.Height())
		assert.Equal(t, rtree.EmptyBox(2), ix.Bounds())
		info, err := ix.Info()
		require.NoError(t, err)
		assert.Equal(t, DefaultMaxEntries, info.MaxEntries)
		assert.Equal(t, 40, info.MinEntries)
		assert.Equal(t, rtree.Quadratic, info.Split)
		assert.Equal(t, pagestore.DefaultPageSize, info.PageSize)
	})

	t.Run("SmallPage", func(t *testing.T) {
		ix := openMemory(t, 4, WithPageSize(pagestore.MinPageSize))

		info, err := ix.Info()
		require.NoError(t, err)
		assert.Equal(t, rtree.Capacity(pagestore.MinPageSize, 4), info.MaxEntries)
	})

	t.Run("Options", func(t *testing.T) {
		ix := openMemory(t, 3,
			WithMaxEntries(10),
			WithMinFillFraction(0.5),
			WithSplitter(rtree.RStarSplit{}),
			WithBulkFill(0.75),
			WithCacheSize(16),
		)

		info, err := ix.Info()
		require.NoError(t, err)
		assert.Equal(t, 10, info.MaxEntries)
		assert.Equal(t, 5, info.MinEntries)
		assert.Equal(t, rtree.RStar, info.Split)
		assert.Equal(t, 0.75, info.BulkFill)
	})
}

func TestOpen_InvalidOptions(t *testing.T) {
	testCases := []struct {
		name string
		dims int
		opts []Option
	}{
		{"ZeroDims", 0, nil},
		{"HugeDims", math.MaxUint16 + 1, nil},
		{"PageTooSmall", 16, []Option{WithPageSize(pagestore.MinPageSize)}},
		{"BadPageSize", 2, []Option{WithPageSize(100)}},
		{"MaxEntriesOne", 2, []Option{WithMaxEntries(1)}},
		{"MaxEntriesZero", 2, []Option{WithMaxEntries(0)}},
		{"MaxEntriesOverCapacity", 2, []Option{WithMaxEntries(1000)}},
		{"MinFillZero", 2, []Option{WithMinFillFraction(0)}},
		{"MinFillTooBig", 2, []Option{WithMinFillFraction(0.6)}},
		{"MinFillNaN", 2, []Option{WithMinFillFraction(math.NaN())}},
		{"BulkFillZero", 2, []Option{WithBulkFill(0)}},
		{"BulkFillTooBig", 2, []Option{WithBulkFill(1.5)}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			ix, err := Open("", testCase.dims, testCase.opts...)

			assert.Nil(t, ix)
			assert.ErrorIs(t, err, ErrCapacity)
		})
	}
}

func TestScenario(t *testing.T) {
	ix := openMemory(t, 2)
	a := rtree.Rect(0, 0, 1, 1)
	b := rtree.Rect(2, 2, 3, 3)
	c := rtree.Rect(0.5, 0.5, 2.5, 2.5)
	require.NoError(t, ix.Insert(a, 1))
	require.NoError(t, ix.Insert(b, 2))
	require.NoError(t, ix.Insert(c, 3))

	assert.Equal(t, []int64{1, 3}, intersectionIDs(t, ix, rtree.Rect(0, 0, 1, 1)))
	n, err := ix.Count(rtree.Rect(2.6, 2.6, 2.7, 2.7))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	within, err := ix.Within(rtree.Rect(0, 0, 3, 3))
	require.NoError(t, err)
	entries, err := within.Collect()
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	neighbors, err := ix.Nearest([]float64{2.9, 2.9}, 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, int64(2), neighbors[0].ID)
	assert.Equal(t, int64(3), neighbors[1].ID)

	require.NoError(t, ix.Delete(c, 3))
	assert.Equal(t, []int64{1}, intersectionIDs(t, ix, rtree.Rect(0, 0, 1, 1)))
	assert.Equal(t, uint64(2), ix.Len())
	assert.NoError(t, ix.Check())
}

func TestCallerErrors(t *testing.T) {
	ix := openMemory(t, 2)
	require.NoError(t, ix.Insert(rtree.Rect(0, 0, 1, 1), 1))

	testCases := []struct {
		name   string
		op     func() error
		target error
	}{
		{"DeleteMissing", func() error { return ix.Delete(rtree.Rect(0, 0, 1, 1), 2) }, ErrNotFound},
		{"InsertInvertedBox", func() error { return ix.Insert(rtree.Rect(1, 1, 0, 0), 1) }, ErrInvalidBox},
		{"InsertNaN", func() error { return ix.Insert(rtree.Rect(math.NaN(), 0, 1, 1), 1) }, ErrInvalidBox},
		{"InsertWrongDims", func() error { return ix.Insert(rtree.Point(1, 2, 3), 1) }, ErrCapacity},
		{"IntersectionWrongDims", func() error {
			_, err := ix.Intersection(rtree.Point(1))
			return err
		}, ErrCapacity},
		{"NearestZeroK", func() error {
			_, err := ix.Nearest([]float64{0, 0}, 0)
			return err
		}, ErrInvalidK},
		{"NearestWrongDims", func() error {
			_, err := ix.Nearest([]float64{0}, 1)
			return err
		}, ErrCapacity},
		{"BulkLoadInvalid", func() error {
			return ix.BulkLoad([]rtree.Entry{{Box: rtree.Rect(1, 0, 0, 1)}})
		}, ErrInvalidBox},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := testCase.op()

			assert.ErrorIs(t, err, testCase.target)
			assert.Equal(t, StatusOpen, ix.Status())
			assert.Equal(t, uint64(1), ix.Len())
		})
	}

	t.Run("DimensionMismatchError", func(t *testing.T) {
		err := ix.Insert(rtree.Point(1, 2, 3), 1)

		var target *DimensionMismatchError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 2, target.Want)
		assert.Equal(t, 3, target.Got)
	})
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.idx")
	entries := randomEntries(1, 500, 2)
	var want []int64

	err := WithIndex(path, 2, func(ix *Index) error {
		insertAll(t, ix, entries)
		require.NoError(t, ix.Delete(entries[0].Box, entries[0].ID))
		want = intersectionIDs(t, ix, everywhere)
		return ix.Check()
	}, WithMaxEntries(8), WithSplitter(rtree.LinearSplit{}))
	require.NoError(t, err)

	t.Run("Reopen", func(t *testing.T) {
		var buf bytes.Buffer
		ix, err := Open(path, 2, WithMaxEntries(16), WithCacheSize(8), WithLogger(bufferLogger(&buf)))
		require.NoError(t, err)
		defer func() { assert.NoError(t, ix.Close()) }()

		assert.Equal(t, path, ix.Path())
		assert.Equal(t, uint64(499), ix.Len())
		assert.Equal(t, want, intersectionIDs(t, ix, everywhere))
		assert.NoError(t, ix.Check())
		info, err := ix.Info()
		require.NoError(t, err)
		assert.Equal(t, 8, info.MaxEntries)
		assert.Equal(t, rtree.Linear, info.Split)
		assert.Contains(t, buf.String(), "option conflicts with persisted index parameter")
		assert.Contains(t, buf.String(), "option=max_entries")
		assert.Contains(t, buf.String(), "index opened")
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		ix, err := Open(path, 3)

		assert.Nil(t, ix)
		var target *DimensionMismatchError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, &DimensionMismatchError{Want: 2, Got: 3}, target)
		assert.ErrorIs(t, err, ErrCapacity)
	})

	t.Run("Locked", func(t *testing.T) {
		switch runtime.GOOS {
		case "windows", "plan9", "js", "wasip1":
			t.Skip("no file locking on " + runtime.GOOS)
		}
		ix, err := Open(path, 2)
		require.NoError(t, err)
		defer func() { assert.NoError(t, ix.Close()) }()

		_, err = Open(path, 2)
		assert.ErrorIs(t, err, ErrLocked)
		_, err = Open(path, 2, WithOverwrite(true))
		assert.ErrorIs(t, err, ErrLocked)

		assert.Equal(t, want, intersectionIDs(t, ix, everywhere))
		assert.NoError(t, ix.Check())
	})

	t.Run("StoredDims", func(t *testing.T) {
		ix, err := Open(path, 0)
		require.NoError(t, err)
		defer func() { assert.NoError(t, ix.Close()) }()

		assert.Equal(t, 2, ix.Dims())
		assert.Equal(t, uint64(499), ix.Len())

		_, err = Open(filepath.Join(t.TempDir(), "new.idx"), 0)
		assert.ErrorIs(t, err, ErrCapacity)
	})

	t.Run("Overwrite", func(t *testing.T) {
		ix, err := Open(path, 3, WithOverwrite(true))
		require.NoError(t, err)
		defer func() { assert.NoError(t, ix.Close()) }()

		assert.Equal(t, uint64(0), ix.Len())
		assert.Equal(t, 3, ix.Dims())
	})
}

func TestFile_UnflushedMutationsLostOnReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.idx")
	ix, err := Open(path, 2, WithMaxEntries(4))
	require.NoError(t, err)
	defer func() { assert.NoError(t, ix.Close()) }()
	insertAll(t, ix, randomEntries(2, 20, 2))
	require.NoError(t, ix.Flush())
	insertAll(t, ix, randomEntries(3, 20, 2))
	assert.Equal(t, uint64(40), ix.Len())

	require.NoError(t, ix.Reopen())

	assert.Equal(t, StatusOpen, ix.Status())
	assert.Equal(t, uint64(20), ix.Len())
	assert.NoError(t, ix.Check())
}

func TestOpenStore_BadMeta(t *testing.T) {
	encode := func(version uint16, root uint64) []byte {
		b := flatbuffers.NewBuilder(0)
		flat.MetaStart(b)
		flat.MetaAddVersion(b, version)
		flat.MetaAddDims(b, 2)
		flat.MetaAddMaxEntries(b, 4)
		flat.MetaAddMinEntries(b, 2)
		flat.MetaAddRoot(b, root)
		flat.FinishSizePrefixedMetaBuffer(b, flat.MetaEnd(b))
		return b.FinishedBytes()
	}

	testCases := []struct {
		name   string
		meta   []byte
		target error
	}{
		{"Version", encode(MetaVersion+1, 1), ErrUnsupportedFormat},
		{"Garbage", []byte{0xff, 0xff, 0xff, 0xff}, ErrCorruption},
		{"Short", []byte{0x01}, ErrCorruption},
		{"NoRootPage", encode(MetaVersion, 0), ErrCorruption},
		{"MissingRootPage", encode(MetaVersion, 1), ErrCorruption},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			s := newMemory(t)
			require.NoError(t, s.SetMeta(testCase.meta))

			ix, err := OpenStore(s, 2)

			assert.Nil(t, ix)
			assert.ErrorIs(t, err, testCase.target)
		})
	}
}

func TestOpenStore_CustomSplitter(t *testing.T) {
	s := newMemory(t)
	ix, err := OpenStore(s, 2, WithMaxEntries(4), WithSplitter(halvingSplit{}))
	require.NoError(t, err)
	defer func() { assert.NoError(t, ix.Close()) }()
	insertAll(t, ix, randomEntries(4, 50, 2))
	info, err := ix.Info()
	require.NoError(t, err)
	assert.Equal(t, rtree.CustomSplit, info.Split)
	require.NoError(t, ix.Reopen())
	info, err = ix.Info()
	require.NoError(t, err)
	assert.Equal(t, rtree.CustomSplit, info.Split, "custom splitter still supplied")

	var buf bytes.Buffer
	ix.log = newLogger(bufferLogger(&buf), "")
	ix.opts.splitter = nil
	require.NoError(t, ix.Reopen())

	info, err = ix.Info()
	require.NoError(t, err)
	assert.Equal(t, rtree.Quadratic, info.Split)
	assert.Contains(t, buf.String(), "option=splitter")
	assert.NoError(t, ix.Check())
}

// halvingSplit is a custom Splitter which puts the first half of the
// boxes on the left.
type halvingSplit struct{}

func (halvingSplit) Split(boxes []rtree.Box, _ int) (left, right []int) {
	for i := range boxes {
		if i < len(boxes)/2 {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return
}

func TestFailed(t *testing.T) {
	testCases := []struct {
		name   string
		fault  func(s *faultyStore)
		op     func(ix *Index) error
		tipped bool
	}{
		{
			name:  "WriteDuringInsert",
			fault: func(s *faultyStore) { s.failWrite = true },
			op:    func(ix *Index) error { return ix.Insert(rtree.Rect(0, 0, 1, 1), 99) },
		},
		{
			name:  "MetaDuringDelete",
			fault: func(s *faultyStore) { s.failMeta = true },
			op: func(ix *Index) error {
				return ix.Delete(rtree.Rect(0, 0, 0, 0), 0)
			},
		},
		{
			name:  "ReadDuringQuery",
			fault: func(s *faultyStore) { s.failRead = true },
			op: func(ix *Index) error {
				c, err := ix.Intersection(everywhere)
				require.NoError(t, err)
				_, err = c.Collect()
				return err
			},
		},
		{
			name:  "ReadDuringNearest",
			fault: func(s *faultyStore) { s.failRead = true },
			op: func(ix *Index) error {
				_, err := ix.Nearest([]float64{0, 0}, 3)
				return err
			},
		},
		{
			name:  "Flush",
			fault: func(s *faultyStore) { s.failFlush = true },
			op:    func(ix *Index) error { return ix.Flush() },
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			s := &faultyStore{Store: newMemory(t)}
			var buf bytes.Buffer
			ix, err := OpenStore(s, 2, WithMaxEntries(4), WithLogger(bufferLogger(&buf)))
			require.NoError(t, err)
			defer func() { assert.NoError(t, ix.Close()) }()
			entries := randomEntries(5, 100, 2)
			entries[0].Box = rtree.Rect(0, 0, 0, 0)
			insertAll(t, ix, entries)
			want := intersectionIDs(t, ix, everywhere)

			testCase.fault(s)
			err = testCase.op(ix)

			assert.ErrorIs(t, err, errInjected)
			assert.Equal(t, StatusFailed, ix.Status())
			assert.Contains(t, buf.String(), "index failed")
			_, err = ix.Intersection(everywhere)
			assert.ErrorIs(t, err, ErrIndexUnavailable)
			assert.ErrorIs(t, err, errInjected)
			assert.ErrorIs(t, ix.Insert(rtree.Rect(0, 0, 1, 1), 1), ErrIndexUnavailable)
			_, err = ix.Info()
			assert.ErrorIs(t, err, ErrIndexUnavailable)

			*s = faultyStore{Store: s.Store}
			require.NoError(t, ix.Reopen())

			assert.Equal(t, StatusOpen, ix.Status())
			assert.Equal(t, want, intersectionIDs(t, ix, everywhere))
			assert.NoError(t, ix.Check())
		})
	}
}

func TestNilArguments(t *testing.T) {
	ix := openMemory(t, 2)

	assert.PanicsWithValue(t, "spatialindex: nil predicate", func() { _, _ = ix.Query(nil) })
	assert.PanicsWithValue(t, "spatialindex: nil store", func() { _, _ = OpenStore(nil, 2) })
}

func TestInsert_PageLeak(t *testing.T) {
	s := &faultyStore{Store: newMemory(t)}
	ix, err := OpenStore(s, 2, WithMaxEntries(4))
	require.NoError(t, err)
	defer func() { assert.NoError(t, ix.Close()) }()
	insertAll(t, ix, randomEntries(6, 40, 2))

	s.failFree = true
	err = ix.Insert(rtree.Rect(0, 0, 1, 1), 1000)

	require.NoError(t, err, "a committed insert must not report failure")
	assert.Equal(t, StatusOpen, ix.Status())
	assert.Equal(t, uint64(41), ix.Len())
	assert.Greater(t, ix.Stats().LeakedPages, uint64(0))
	s.failFree = false
	assert.ErrorIs(t, ix.Check(), ErrCorruption)
}

func TestReopen_Fails(t *testing.T) {
	s := &faultyStore{Store: newMemory(t)}
	ix, err := OpenStore(s, 2)
	require.NoError(t, err)
	defer func() { assert.NoError(t, ix.Close()) }()
	s.failRead = true

	err = ix.Reopen()

	assert.ErrorIs(t, err, errInjected)
	assert.Equal(t, StatusFailed, ix.Status())

	s.failRead = false
	assert.NoError(t, ix.Reopen())
	assert.Equal(t, StatusOpen, ix.Status())
}

func TestClose(t *testing.T) {
	ix, err := Open("", 2)
	require.NoError(t, err)
	c, err := ix.Intersection(everywhere)
	require.NoError(t, err)

	require.NoError(t, ix.Close())

	assert.Equal(t, StatusClosed, ix.Status())
	assert.NoError(t, ix.Close(), "Close is idempotent")
	assert.ErrorIs(t, ix.Insert(rtree.Rect(0, 0, 1, 1), 1), ErrClosed)
	assert.ErrorIs(t, ix.Flush(), ErrClosed)
	assert.ErrorIs(t, ix.Check(), ErrClosed)
	assert.ErrorIs(t, ix.Reopen(), ErrClosed)
	_, err = ix.Nearest([]float64{0, 0}, 1)
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, c.Next())
	assert.ErrorIs(t, c.Err(), ErrStaleCursor)
}

func TestClose_Failed(t *testing.T) {
	s := &faultyStore{Store: newMemory(t)}
	ix, err := OpenStore(s, 2)
	require.NoError(t, err)
	s.failWrite = true
	require.Error(t, ix.Insert(rtree.Rect(0, 0, 1, 1), 1))
	s.failFlush = true

	assert.NoError(t, ix.Close(), "a failed index is closed without flushing")
	assert.Equal(t, StatusClosed, ix.Status())
}

func TestWithIndex(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		var captured *Index

		err := WithIndex("", 2, func(ix *Index) error {
			captured = ix
			return errInjected
		})

		assert.ErrorIs(t, err, errInjected)
		assert.Equal(t, StatusClosed, captured.Status())
	})

	t.Run("Panic", func(t *testing.T) {
		var captured *Index

		assert.Panics(t, func() {
			_ = WithIndex("", 2, func(ix *Index) error {
				captured = ix
				panic("boom")
			})
		})

		assert.Equal(t, StatusClosed, captured.Status())
	})

	t.Run("OpenError", func(t *testing.T) {
		called := false

		err := WithIndex("", 0, func(*Index) error {
			called = true
			return nil
		})

		assert.ErrorIs(t, err, ErrCapacity)
		assert.False(t, called)
	})
}

func TestCursor(t *testing.T) {
	ix := openMemory(t, 2, WithMaxEntries(4))
	insertAll(t, ix, randomEntries(6, 30, 2))

	t.Run("StaleAfterInsert", func(t *testing.T) {
		c, err := ix.Intersection(everywhere)
		require.NoError(t, err)
		require.True(t, c.Next())
		require.NoError(t, ix.Insert(rtree.Rect(0, 0, 1, 1), 100))

		for c.Next() {
		}

		assert.ErrorIs(t, c.Err(), ErrStaleCursor)
		assert.Equal(t, StatusOpen, ix.Status())
	})

	t.Run("StaleAfterReopen", func(t *testing.T) {
		c, err := ix.Query(rtree.PredicateFuncs{})
		require.NoError(t, err)
		require.NoError(t, ix.Reopen())

		var last error
		for _, err := range c.All() {
			last = err
		}

		assert.ErrorIs(t, last, ErrStaleCursor)
	})

	t.Run("Query", func(t *testing.T) {
		c, err := ix.Query(rtree.PredicateFuncs{MatchFunc: func(b rtree.Box) bool { return b.Min[0] < 50 }})
		require.NoError(t, err)

		entries, err := c.Collect()

		require.NoError(t, err)
		for _, e := range entries {
			assert.Less(t, e.Min[0], 50.0)
		}
	})
}

func TestBulkLoad(t *testing.T) {
	ix := openMemory(t, 2, WithMaxEntries(50))
	insertAll(t, ix, randomEntries(7, 10, 2))
	entries := randomEntries(8, 10000, 2)

	require.NoError(t, ix.BulkLoad(entries))

	assert.Equal(t, uint64(10000), ix.Len())
	assert.Equal(t, 2, ix.Height())
	assert.NoError(t, ix.Check())
	n, err := ix.Count(everywhere)
	require.NoError(t, err)
	assert.Equal(t, 10000, n)
}

func TestStats(t *testing.T) {
	ix := openMemory(t, 2, WithMaxEntries(4), WithCacheSize(64))
	insertAll(t, ix, randomEntries(9, 100, 2))
	for i := 0; i < 3; i++ {
		_ = intersectionIDs(t, ix, everywhere)
	}

	s := ix.Stats()

	assert.Positive(t, s.NodeReads)
	assert.Positive(t, s.NodeWrites)
	assert.Positive(t, s.Splits)
	assert.Equal(t, uint64(101), s.Commits, "one commit to create plus one per insert")
	assert.Positive(t, s.CacheHits)
	assert.Positive(t, s.Pages.Total)
	require.NoError(t, ix.Close())
	assert.Zero(t, ix.Stats().Pages)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "closed", StatusClosed.String())
	assert.Equal(t, "open", StatusOpen.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}
