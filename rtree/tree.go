// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/gogama/spatialindex/pagestore"
)

// Config describes the shape of a Tree.
type Config struct {
	// Dims is the dimensionality of every box in the tree.
	Dims int
	// MaxEntries is the greatest number of items a node may hold. It
	// must be at least 2 and no more than the page Capacity.
	MaxEntries int
	// MinEntries is the least number of items a non-root node may
	// hold. It must be at least 1 and at most MaxEntries/2.
	MinEntries int
	// Splitter splits overflowing nodes. Nil means QuadraticSplit.
	Splitter Splitter
	// BulkFill is the fraction of MaxEntries BulkLoad aims to put in
	// each node. Zero means 1.0, fully packed nodes.
	BulkFill float64
}

func (cfg *Config) validate(pageSize int) error {
	capacity := Capacity(pageSize, cfg.Dims)
	switch {
	case cfg.Dims < 1 || cfg.Dims > math.MaxUint16:
		return wrapErr("dimensionality %d", ErrInvalidConfig, cfg.Dims)
	case cfg.MaxEntries < 2:
		return wrapErr("max entries %d is less than 2", ErrInvalidConfig, cfg.MaxEntries)
	case cfg.MaxEntries > capacity:
		return wrapErr("max entries %d exceeds page capacity %d", ErrInvalidConfig, cfg.MaxEntries, capacity)
	case cfg.MinEntries < 1 || cfg.MinEntries > cfg.MaxEntries/2:
		return wrapErr("min entries %d not in [1, %d]", ErrInvalidConfig, cfg.MinEntries, cfg.MaxEntries/2)
	case cfg.BulkFill < 0 || cfg.BulkFill > 1 || math.IsNaN(cfg.BulkFill):
		return wrapErr("bulk fill %g not in (0, 1]", ErrInvalidConfig, cfg.BulkFill)
	}
	if cfg.Splitter == nil {
		cfg.Splitter = QuadraticSplit{}
	}
	if cfg.BulkFill == 0 {
		cfg.BulkFill = 1
	}
	return nil
}

// State is the durable identity of a tree: everything needed, along
// with its Config and Store, to load it again.
type State struct {
	// Root is the page ID of the root node.
	Root pagestore.PageID
	// Height is the number of edges from the root to every leaf.
	Height int
	// Count is the number of entries in the tree.
	Count uint64
}

func (st State) String() string {
	return fmt.Sprintf("State{Root:%d,Height:%d,Count:%d}", st.Root, st.Height, st.Count)
}

// A CommitFunc is called by every mutation once all the mutation's
// node pages are written, and before any replaced page is freed. If it
// returns an error the mutation is abandoned and the tree is left as
// it was. A typical CommitFunc records the State in the Store meta.
type CommitFunc func(State) error

// Stats is a snapshot of a Tree's activity counters.
type Stats struct {
	NodeReads    uint64
	NodeWrites   uint64
	Splits       uint64
	Reinsertions uint64
	Commits      uint64
	Aborts       uint64
	// LeakedPages counts pages a committed mutation could not return
	// to the store. Check reports them until the tree is rebuilt.
	LeakedPages uint64
}

type counters struct {
	nodeReads    atomic.Uint64
	nodeWrites   atomic.Uint64
	splits       atomic.Uint64
	reinsertions atomic.Uint64
	commits      atomic.Uint64
	aborts       atomic.Uint64
	leakedPages  atomic.Uint64
}

// Tree is a dynamic R-Tree whose nodes are stored in a
// pagestore.Store.
type Tree struct {
	store  pagestore.Store
	cfg    Config
	codec  codec
	state  State
	bounds Box
	commit CommitFunc
	// gen is incremented by every committed mutation.
	gen   uint64
	stats counters
}

// New creates an empty tree in store. The new root is committed
// through commit, which may be nil.
func New(store pagestore.Store, cfg Config, commit CommitFunc) (*Tree, error) {
	t, err := newTree(store, cfg, commit)
	if err != nil {
		return nil, err
	}
	tx := t.begin()
	if tx.root, err = tx.write(pagestore.NoPage, &node{}); err != nil {
		tx.abort()
		return nil, err
	}
	if err = tx.commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// Load opens the existing tree described by st. The root node is read
// and validated before Load returns.
func Load(store pagestore.Store, cfg Config, st State, commit CommitFunc) (*Tree, error) {
	t, err := newTree(store, cfg, commit)
	if err != nil {
		return nil, err
	}
	if st.Height < 0 || st.Height > math.MaxUint16 {
		return nil, corruptf(st.Root, "tree height %d", st.Height)
	}
	root, err := t.readNode(st.Root, st.Height)
	if err != nil {
		return nil, err
	}
	if st.Count == 0 && len(root.items) > 0 || st.Count > 0 && len(root.items) == 0 {
		return nil, corruptf(st.Root, "root has %d items but tree count is %d", len(root.items), st.Count)
	}
	t.state = st
	t.bounds = root.bounds(cfg.Dims)
	return t, nil
}

func newTree(store pagestore.Store, cfg Config, commit CommitFunc) (*Tree, error) {
	if store == nil {
		textPanic("nil store")
	}
	if err := cfg.validate(store.PageSize()); err != nil {
		return nil, err
	}
	if commit == nil {
		commit = func(State) error { return nil }
	}
	return &Tree{
		store: store,
		cfg:   cfg,
		codec: codec{
			pageSize:   store.PageSize(),
			dims:       cfg.Dims,
			maxEntries: cfg.MaxEntries,
		},
		commit: commit,
	}, nil
}

// Config returns the tree's configuration, with defaults filled in.
func (t *Tree) Config() Config {
	return t.cfg
}

// State returns the tree's current durable state.
func (t *Tree) State() State {
	return t.state
}

// Len returns the number of entries in the tree.
func (t *Tree) Len() uint64 {
	return t.state.Count
}

// Height returns the number of edges from the root to each leaf. The
// height of a tree whose root is a leaf is zero.
func (t *Tree) Height() int {
	return t.state.Height
}

// Bounds returns the bounds of every entry in the tree, which is
// EmptyBox if the tree is empty.
func (t *Tree) Bounds() Box {
	return t.bounds.Clone()
}

// Stats returns a snapshot of the tree's activity counters.
func (t *Tree) Stats() Stats {
	return Stats{
		NodeReads:    t.stats.nodeReads.Load(),
		NodeWrites:   t.stats.nodeWrites.Load(),
		Splits:       t.stats.splits.Load(),
		Reinsertions: t.stats.reinsertions.Load(),
		Commits:      t.stats.commits.Load(),
		Aborts:       t.stats.aborts.Load(),
		LeakedPages:  t.stats.leakedPages.Load(),
	}
}

func (t *Tree) String() string {
	return fmt.Sprintf("Tree{Bounds:%s,Len:%d,Height:%d,MaxEntries:%d}", t.bounds, t.state.Count, t.state.Height, t.cfg.MaxEntries)
}

// readNode reads and decodes the committed node at page id, which is
// expected to be at the given level.
func (t *Tree) readNode(id pagestore.PageID, level int) (*node, error) {
	buf, err := t.store.Read(id)
	if err != nil {
		return nil, wrapErr("failed to read node %d", err, id)
	}
	t.stats.nodeReads.Add(1)
	n, err := t.codec.decode(id, buf)
	if err != nil {
		return nil, err
	}
	if n.level != level {
		return nil, corruptf(id, "node at level %d, want %d", n.level, level)
	}
	return n, nil
}

// checkBox validates a box supplied by a caller.
func (t *Tree) checkBox(b Box) error {
	if len(b.Min) != t.cfg.Dims {
		return &DimensionMismatchError{Want: t.cfg.Dims, Got: len(b.Min)}
	}
	if len(b.Max) != t.cfg.Dims {
		return &DimensionMismatchError{Want: t.cfg.Dims, Got: len(b.Max)}
	}
	return b.Validate()
}

func (t *Tree) checkPoint(p []float64) error {
	if len(p) != t.cfg.Dims {
		return &DimensionMismatchError{Want: t.cfg.Dims, Got: len(p)}
	}
	for i, v := range p {
		if math.IsNaN(v) {
			return wrapErr("NaN in dimension %d", ErrInvalidBox, i)
		}
	}
	return nil
}
