// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

// Index is a handle to a D-dimensional R-Tree spatial index stored in
// a pagestore.Store.
//
// An Index allows one mutation at a time, with queries interleaved
// between mutations. It performs no locking of its own, so callers
// sharing an Index between goroutines must serialize access.
//
// Every successful mutation is atomic: it either commits fully or
// leaves the index exactly as it was. A file-backed index is durable
// as of the last successful Flush or Close.
type Index struct {
	stateful
	// path is the file path, or "" if the index does not own a file.
	path  string
	dims  int
	opts  options
	log   logger
	base  pagestore.Store
	cache *pagestore.Cache
	tree  *rtree.Tree
}

// Open opens the index stored in the file at path, creating a new
// empty index if the file does not exist or is empty. If path is the
// empty string, a new in-memory index is created.
//
// If an existing index has a dimensionality other than dims, Open
// returns a *DimensionMismatchError. A dims of zero opens an existing
// index at whatever dimensionality it has, and fails with ErrCapacity
// if a new index would have to be created.
func Open(path string, dims int, opts ...Option) (*Index, error) {
	return open(path, dims, newOptions(opts), nil)
}

func open(path string, dims int, o options, seed *meta) (*Index, error) {
	var s pagestore.Store
	if path == "" {
		m, err := pagestore.NewMemory(o.pageSize)
		if err != nil {
			return nil, translateError(err)
		}
		s = m
	} else {
		f, err := pagestore.OpenFile(path, pagestore.FileOptions{PageSize: o.pageSize, Overwrite: o.overwrite})
		if err != nil {
			return nil, translateError(err)
		}
		s = f
	}
	ix := newIndex(path, dims, o, s)
	if err := ix.load(seed); err != nil {
		_ = s.Close()
		return nil, err
	}
	return ix, nil
}

// OpenStore opens the index held in s, creating a new empty index if
// s holds none. On success the Index owns s and closes it on Close. On
// failure s is left open.
func OpenStore(s pagestore.Store, dims int, opts ...Option) (*Index, error) {
	if s == nil {
		textPanic("nil store")
	}
	ix := newIndex("", dims, newOptions(opts), s)
	if err := ix.load(nil); err != nil {
		return nil, err
	}
	return ix, nil
}

// WithIndex opens the index at path, calls fn with it, and closes it
// again, even if fn panics. The error returned is fn's error, or
// failing that the error from Open or Close.
func WithIndex(path string, dims int, fn func(*Index) error, opts ...Option) (err error) {
	ix, err := Open(path, dims, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ix.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ix)
}

func newIndex(path string, dims int, o options, s pagestore.Store) *Index {
	return &Index{
		path: path,
		dims: dims,
		opts: o,
		log:  newLogger(o.logger, path),
		base: s,
	}
}

// load builds the tree from the metadata held in the base store. If
// the store holds no metadata, a new empty tree is created with the
// parameters in seed or, if seed is nil, the options. A non-nil seed
// requires a store holding no metadata.
func (ix *Index) load(seed *meta) error {
	var store pagestore.Store = ix.base
	ix.cache = nil
	if ix.opts.cacheSize > 0 {
		ix.cache = pagestore.NewCache(ix.base, ix.opts.cacheSize)
		store = ix.cache
	}

	var (
		tree    *rtree.Tree
		created bool
		err     error
	)
	if raw := store.Meta(); len(raw) > 0 {
		if seed != nil {
			return fmtErr("store already holds an index")
		}
		var m meta
		if m, err = unmarshalMeta(raw); err != nil {
			return err
		}
		if err = ix.reconcile(m, store.PageSize()); err != nil {
			return err
		}
		cfg := m.config(ix.opts.splitter)
		tree, err = rtree.Load(store, cfg, m.state, commitMeta(store, cfg))
	} else {
		var cfg rtree.Config
		if seed != nil {
			if err = ix.reconcile(*seed, store.PageSize()); err != nil {
				return err
			}
			cfg = seed.config(ix.opts.splitter)
		} else if cfg, err = ix.opts.config(ix.dims, store.PageSize()); err != nil {
			return err
		}
		if tree, err = rtree.New(store, cfg, commitMeta(store, cfg)); err == nil {
			err = store.Flush()
		}
		created = true
	}
	if err != nil {
		return translateError(err)
	}

	ix.tree = tree
	ix.toOpen()
	ix.log.logOpen(created, newMeta(tree.Config(), tree.State()), store.PageSize())
	return nil
}

// commitMeta returns the rtree.CommitFunc which records every new tree
// state in the store metadata.
func commitMeta(store pagestore.Store, cfg rtree.Config) rtree.CommitFunc {
	return func(st rtree.State) error {
		m := newMeta(cfg, st)
		return store.SetMeta(m.marshal())
	}
}

// reconcile checks the options against the persisted parameters in m,
// logging a warning for each option which m overrides.
func (ix *Index) reconcile(m meta, pageSize int) error {
	if ix.dims == 0 {
		ix.dims = m.dims
	}
	if m.dims != ix.dims {
		return &DimensionMismatchError{Want: m.dims, Got: ix.dims}
	}
	o := &ix.opts
	if o.maxEntriesSet && o.maxEntries != m.maxEntries {
		ix.log.logConflict("max_entries", m.maxEntries, o.maxEntries)
	}
	if o.minFillSet {
		if minEntries := max(1, int(float64(m.maxEntries)*o.minFill)); minEntries != m.minEntries {
			ix.log.logConflict("min_fill_fraction", m.minEntries, minEntries)
		}
	}
	if o.bulkFillSet && o.bulkFill != m.bulkFill {
		ix.log.logConflict("bulk_fill", m.bulkFill, o.bulkFill)
	}
	if o.pageSizeSet && o.pageSize != pageSize {
		ix.log.logConflict("page_size", pageSize, o.pageSize)
	}
	switch {
	case m.split == rtree.CustomSplit && o.splitter == nil:
		ix.log.logConflict("splitter", m.split.String(), rtree.Quadratic.String())
	case o.splitter != nil && rtree.KindOf(o.splitter) != m.split:
		ix.log.logConflict("splitter", m.split.String(), rtree.KindOf(o.splitter).String())
	}
	return nil
}

// fail translates err and, if it is fatal, moves the Index to
// StatusFailed.
func (ix *Index) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	err = translateError(err)
	if ix.status == StatusOpen && isFatal(err) {
		ix.log.logFailed(op, err)
	}
	return ix.toErr(err)
}

// Insert adds an entry with the given box and ID. The same ID may be
// inserted more than once, with the same box or different boxes.
//
// An error means the index is unchanged. Pages which cannot be freed
// after a successful insert are counted in Stats.LeakedPages instead.
func (ix *Index) Insert(box rtree.Box, id int64) error {
	if err := ix.ready(); err != nil {
		return err
	}
	return ix.fail("insert", ix.tree.Insert(rtree.Entry{Box: box, ID: id}))
}

// Delete removes one entry whose box equals box and whose ID equals
// id, returning ErrNotFound if there is none. As with Insert, an
// error means the index is unchanged.
func (ix *Index) Delete(box rtree.Box, id int64) error {
	if err := ix.ready(); err != nil {
		return err
	}
	return ix.fail("delete", ix.tree.Delete(rtree.Entry{Box: box, ID: id}))
}

// BulkLoad replaces the contents of the index with entries, building a
// packed tree bottom-up. It is much faster than inserting the entries
// one at a time and produces a better tree.
func (ix *Index) BulkLoad(entries []rtree.Entry) error {
	if err := ix.ready(); err != nil {
		return err
	}
	err := ix.fail("bulk load", ix.tree.BulkLoad(entries))
	ix.log.logBulkLoad(len(entries), ix.tree.Height(), err)
	return err
}

// Intersection returns a Cursor over every entry whose box intersects
// region.
func (ix *Index) Intersection(region rtree.Box) (*Cursor, error) {
	if err := ix.ready(); err != nil {
		return nil, err
	}
	c, err := ix.tree.Intersection(region)
	if err != nil {
		return nil, ix.fail("intersection", err)
	}
	return ix.newCursor(c), nil
}

// Within returns a Cursor over every entry whose box lies entirely
// inside region.
func (ix *Index) Within(region rtree.Box) (*Cursor, error) {
	if err := ix.ready(); err != nil {
		return nil, err
	}
	c, err := ix.tree.Within(region)
	if err != nil {
		return nil, ix.fail("within", err)
	}
	return ix.newCursor(c), nil
}

// Query returns a Cursor over every entry matching a custom
// predicate. Like OpenStore with a nil store, Query panics if p is
// nil.
func (ix *Index) Query(p rtree.Predicate) (*Cursor, error) {
	if p == nil {
		textPanic("nil predicate")
	}
	if err := ix.ready(); err != nil {
		return nil, err
	}
	return ix.newCursor(ix.tree.Query(p)), nil
}

// Count returns the number of entries whose box intersects region.
func (ix *Index) Count(region rtree.Box) (int, error) {
	if err := ix.ready(); err != nil {
		return 0, err
	}
	n, err := ix.tree.Count(region)
	return n, ix.fail("count", err)
}

// Nearest returns up to k entries ordered by non-decreasing distance
// from point to their boxes. Entries at equal distance are ordered by
// ascending ID.
func (ix *Index) Nearest(point []float64, k int) ([]rtree.Neighbor, error) {
	if err := ix.ready(); err != nil {
		return nil, err
	}
	neighbors, err := ix.tree.Nearest(point, k)
	if err != nil {
		return nil, ix.fail("nearest", err)
	}
	return neighbors, nil
}

// Check verifies the structure of the whole tree, returning an error
// wrapping ErrCorruption if any invariant is violated.
func (ix *Index) Check() error {
	if err := ix.ready(); err != nil {
		return err
	}
	return ix.fail("check", ix.tree.Check())
}

// Flush makes every committed mutation durable.
func (ix *Index) Flush() error {
	if err := ix.ready(); err != nil {
		return err
	}
	err := ix.fail("flush", ix.base.Flush())
	ix.log.logFlush(err)
	return err
}

// Close flushes an open index and releases its store. Close is
// idempotent: closing a closed Index returns nil. An Index in
// StatusFailed is closed without flushing.
func (ix *Index) Close() error {
	if ix.status == StatusClosed {
		return nil
	}
	var err error
	if ix.status == StatusOpen {
		err = ix.base.Flush()
	}
	if cerr := ix.base.Close(); err == nil {
		err = cerr
	}
	ix.toClosed()
	err = translateError(err)
	ix.log.logClose(err)
	return err
}

// discard releases the store without flushing, leaving whatever was
// last made durable.
func (ix *Index) discard() {
	if ix.status != StatusClosed {
		_ = ix.base.Close()
		ix.toClosed()
	}
}

// Reopen recovers an Index in StatusFailed, or refreshes an open one,
// by discarding all in-memory state and loading the index again from
// the last committed metadata. A file-backed index reopens its file,
// so it returns to its state as of the last Flush. Reopen returns
// ErrClosed if the Index has been closed.
func (ix *Index) Reopen() error {
	if ix.status == StatusClosed {
		return ErrClosed
	}
	err := ix.reopen()
	if err != nil {
		ix.toFailed(err)
	}
	ix.log.logReopen(err)
	return err
}

func (ix *Index) reopen() error {
	if ix.path != "" {
		_ = ix.base.Close()
		f, err := pagestore.OpenFile(ix.path, pagestore.FileOptions{PageSize: ix.opts.pageSize})
		if err != nil {
			return translateError(err)
		}
		ix.base = f
	}
	return ix.load(nil)
}

// Status returns the lifecycle state of the Index.
func (ix *Index) Status() Status {
	return ix.status
}

// Dims returns the dimensionality of the index.
func (ix *Index) Dims() int {
	return ix.dims
}

// Path returns the file path of the index, or "" if it is not backed
// by a file opened by Open.
func (ix *Index) Path() string {
	return ix.path
}

// Len returns the number of entries in the index.
func (ix *Index) Len() uint64 {
	if ix.tree == nil {
		return 0
	}
	return ix.tree.Len()
}

// Height returns the number of edges from the root to each leaf.
func (ix *Index) Height() int {
	if ix.tree == nil {
		return 0
	}
	return ix.tree.Height()
}

// Bounds returns the bounding box of every entry in the index, which
// is rtree.EmptyBox if the index is empty.
func (ix *Index) Bounds() rtree.Box {
	if ix.tree == nil {
		return rtree.EmptyBox(ix.dims)
	}
	return ix.tree.Bounds()
}
