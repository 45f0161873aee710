// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(size int, fill byte) []byte {
	return bytes.Repeat([]byte{fill}, size)
}

// testStore runs the behavior every Store implementation shares.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("ReadAfterWrite", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		a, err := s.Allocate()
		require.NoError(t, err)
		b, err := s.Allocate()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
		assert.NotEqual(t, NoPage, a)

		require.NoError(t, s.Write(a, page(s.PageSize(), 'a')))
		require.NoError(t, s.Write(b, page(s.PageSize(), 'b')))

		p, err := s.Read(a)
		require.NoError(t, err)
		assert.Equal(t, page(s.PageSize(), 'a'), p)
		p, err = s.Read(b)
		require.NoError(t, err)
		assert.Equal(t, page(s.PageSize(), 'b'), p)
	})

	t.Run("ReadReturnsCopy", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		id, err := s.Allocate()
		require.NoError(t, err)
		require.NoError(t, s.Write(id, page(s.PageSize(), 'x')))
		p, err := s.Read(id)
		require.NoError(t, err)
		p[0] = 'y'

		q, err := s.Read(id)
		require.NoError(t, err)
		assert.Equal(t, byte('x'), q[0])
	})

	t.Run("InvalidPage", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Read(NoPage)
		assert.ErrorIs(t, err, ErrInvalidPage)
		_, err = s.Read(1000)
		assert.ErrorIs(t, err, ErrInvalidPage)
		assert.ErrorIs(t, s.Write(1000, page(s.PageSize(), 0)), ErrInvalidPage)
		assert.ErrorIs(t, s.Free(1000), ErrInvalidPage)
	})

	t.Run("WrongLength", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		id, err := s.Allocate()
		require.NoError(t, err)
		assert.ErrorIs(t, s.Write(id, make([]byte, 10)), ErrPageSize)
	})

	t.Run("Free", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		id, err := s.Allocate()
		require.NoError(t, err)
		require.NoError(t, s.Write(id, page(s.PageSize(), 1)))
		require.NoError(t, s.Free(id))

		assert.True(t, s.IsFree(id))
		_, err = s.Read(id)
		assert.ErrorIs(t, err, ErrFreedPage)
		assert.ErrorIs(t, s.Free(id), ErrFreedPage)
		assert.ErrorIs(t, s.Write(id, page(s.PageSize(), 1)), ErrFreedPage)

		// After a flush every store recycles the freed page.
		require.NoError(t, s.Flush())
		again, err := s.Allocate()
		require.NoError(t, err)
		assert.Equal(t, id, again)
		assert.False(t, s.IsFree(again))
	})

	t.Run("Meta", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		assert.Empty(t, s.Meta())
		require.NoError(t, s.SetMeta([]byte("hello")))
		m := s.Meta()
		assert.Equal(t, []byte("hello"), m)
		m[0] = 'j'
		assert.Equal(t, []byte("hello"), s.Meta())

		assert.Error(t, s.SetMeta(make([]byte, MaxMetaSize(s.PageSize())+1)))
		assert.NoError(t, s.SetMeta(make([]byte, MaxMetaSize(s.PageSize()))))
	})

	t.Run("Usage", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		var ids []PageID
		for i := 0; i < 5; i++ {
			id, err := s.Allocate()
			require.NoError(t, err)
			require.NoError(t, s.Write(id, page(s.PageSize(), byte(i))))
			ids = append(ids, id)
		}
		require.NoError(t, s.Free(ids[1]))
		require.NoError(t, s.Free(ids[3]))

		u := s.Usage()
		assert.Equal(t, uint64(2), u.Free)
		assert.Equal(t, u.Total, 3+u.Free+u.Reserved)
	})

	t.Run("Closed", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Allocate()
		require.NoError(t, err)
		require.NoError(t, s.Close())

		_, err = s.Allocate()
		assert.ErrorIs(t, err, ErrClosed)
		_, err = s.Read(id)
		assert.ErrorIs(t, err, ErrClosed)
		assert.ErrorIs(t, s.Write(id, page(s.PageSize(), 0)), ErrClosed)
		assert.ErrorIs(t, s.Flush(), ErrClosed)
		assert.ErrorIs(t, s.SetMeta(nil), ErrClosed)
	})
}

func TestMemory(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := NewMemory(MinPageSize)
		require.NoError(t, err)
		return s
	})

	t.Run("InvalidPageSize", func(t *testing.T) {
		_, err := NewMemory(16)
		assert.ErrorIs(t, err, ErrPageSize)
	})

	t.Run("RecyclesImmediately", func(t *testing.T) {
		s, err := NewMemory(MinPageSize)
		require.NoError(t, err)
		a, _ := s.Allocate()
		b, _ := s.Allocate()
		require.NoError(t, s.Free(b))
		require.NoError(t, s.Free(a))

		id, err := s.Allocate()
		require.NoError(t, err)
		assert.Equal(t, a, id)
		id, err = s.Allocate()
		require.NoError(t, err)
		assert.Equal(t, b, id)
	})
}

func TestCache(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := NewMemory(MinPageSize)
		require.NoError(t, err)
		return NewCache(s, 2)
	})

	t.Run("Panics", func(t *testing.T) {
		assert.PanicsWithValue(t, "pagestore: nil store", func() {
			NewCache(nil, 1)
		})
		assert.PanicsWithValue(t, "pagestore: cache capacity must be at least 1", func() {
			m, _ := NewMemory(MinPageSize)
			NewCache(m, 0)
		})
	})

	t.Run("HitsAndEviction", func(t *testing.T) {
		m, err := NewMemory(MinPageSize)
		require.NoError(t, err)
		c := NewCache(m, 2)

		var ids []PageID
		for i := 0; i < 3; i++ {
			id, err := c.Allocate()
			require.NoError(t, err)
			require.NoError(t, c.Write(id, page(MinPageSize, byte('a'+i))))
			ids = append(ids, id)
		}
		assert.Equal(t, 2, c.Len())

		// ids[0] was evicted by the third write.
		p, err := c.Read(ids[0])
		require.NoError(t, err)
		assert.Equal(t, page(MinPageSize, 'a'), p)
		assert.Equal(t, uint64(1), c.Misses())

		p, err = c.Read(ids[0])
		require.NoError(t, err)
		assert.Equal(t, page(MinPageSize, 'a'), p)
		assert.Equal(t, uint64(1), c.Hits())

		require.NoError(t, c.Free(ids[0]))
		_, err = c.Read(ids[0])
		assert.ErrorIs(t, err, ErrFreedPage)
	})
}

func TestFile(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		s, err := OpenFile(filepath.Join(t.TempDir(), "store.idx"), FileOptions{PageSize: MinPageSize})
		require.NoError(t, err)
		return s
	})
}

func TestFreelist(t *testing.T) {
	fl := newFreelist()
	for _, id := range []PageID{9, 3, 7} {
		fl.push(id)
	}
	fl.hold(1)
	fl.hold(5)

	assert.Equal(t, 5, fl.len())
	assert.Equal(t, 2, fl.numPending())
	assert.True(t, fl.has(5))
	assert.False(t, fl.has(4))

	var all []PageID
	fl.ascend(func(id PageID) bool {
		all = append(all, id)
		return true
	})
	assert.Equal(t, []PageID{3, 7, 9, 1, 5}, all)

	id, ok := fl.pop()
	assert.True(t, ok)
	assert.Equal(t, PageID(3), id)

	fl.release()
	assert.Equal(t, 0, fl.numPending())
	for _, want := range []PageID{1, 5, 7, 9} {
		id, ok = fl.pop()
		assert.True(t, ok)
		assert.Equal(t, want, id)
	}
	_, ok = fl.pop()
	assert.False(t, ok)
}
