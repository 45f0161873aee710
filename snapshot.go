// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/gogama/spatialindex/littleendian"
	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

const (
	// SnapshotVersion is the snapshot format version written by
	// WriteSnapshot and the only version ReadSnapshot can read.
	SnapshotVersion = 0x01
	// snapshotMagicLen is the length of the snapshot magic number in
	// bytes.
	snapshotMagicLen = 8
	// snapshotMetaMaxLen is a limit on the size of the metadata table
	// ReadSnapshot will read, to prevent a corrupt snapshot from
	// causing a huge allocation.
	snapshotMetaMaxLen = 64 * 1024
)

// snapshotMagic contains the snapshot magic number. The last byte is
// the snapshot format version.
var snapshotMagic = [snapshotMagicLen]byte{0x72, 0x74, 0x73, 0x6e, 0x61, 0x70, 0x00, SnapshotVersion}

// WriteSnapshot writes a zstd-compressed copy of the whole index to w.
// The snapshot holds the tree metadata and every node page, children
// before parents, and can be restored into a new index by
// ReadSnapshot.
//
// The snapshot layout, before compression, is the magic number, the
// size-prefixed metadata table, the little-endian uint32 page size,
// then one record per node, each a little-endian uint64 page ID
// followed by the page bytes, and finally a zero page ID.
func (ix *Index) WriteSnapshot(w io.Writer) error {
	if err := ix.ready(); err != nil {
		return err
	}
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return wrapErr("failed to start snapshot compression", err)
	}

	m := newMeta(ix.tree.Config(), ix.tree.State())
	sw := &stickyWriter{w: zw}
	var buf [8]byte
	_, _ = sw.Write(snapshotMagic[:])
	_, _ = writeSizePrefixed(sw, m.marshal())
	littleendian.PutUint32(buf[:4], uint32(ix.base.PageSize()))
	_, _ = sw.Write(buf[:4])
	if sw.err == nil {
		err = ix.tree.Export(func(p rtree.RawPage) error {
			littleendian.PutUint64(buf[:], uint64(p.ID))
			_, _ = sw.Write(buf[:])
			_, err := sw.Write(p.Data)
			return err
		})
	}
	littleendian.PutUint64(buf[:], uint64(pagestore.NoPage))
	_, _ = sw.Write(buf[:])

	// Errors from w are the caller's concern and never fail the Index.
	if sw.err != nil {
		_ = zw.Close()
		return wrapErr("failed to write snapshot", sw.err)
	} else if err != nil {
		_ = zw.Close()
		return ix.fail("snapshot", err)
	} else if err = zw.Close(); err != nil {
		return wrapErr("failed to write snapshot", err)
	}
	return nil
}

// stickyWriter is an io.Writer which stops writing after the first
// error, remembering it.
type stickyWriter struct {
	w   io.Writer
	err error
}

func (sw *stickyWriter) Write(p []byte) (n int, err error) {
	if sw.err != nil {
		return 0, sw.err
	}
	n, sw.err = sw.w.Write(p)
	return n, sw.err
}

// ReadSnapshot creates a new index from a snapshot written by
// WriteSnapshot. The index is created at path, or in memory if path is
// the empty string. The file at path must not already hold an index
// unless WithOverwrite(true) is given.
//
// The shape of the tree (dimensionality, node capacities, split
// policy and bulk fill) and the page size are taken from the snapshot,
// overriding any options.
func ReadSnapshot(r io.Reader, path string, opts ...Option) (*Index, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, wrapErr("failed to start snapshot decompression", err)
	}
	defer zr.Close()

	m, pageSize, err := readSnapshotHeader(zr)
	if err != nil {
		return nil, err
	}
	o := newOptions(append(opts[:len(opts):len(opts)], WithPageSize(pageSize)))
	// A file created here is removed again if the restore fails.
	created := false
	if path != "" {
		_, statErr := os.Stat(path)
		created = errors.Is(statErr, fs.ErrNotExist) || o.overwrite
	}
	ix, err := open(path, m.dims, o, &m)
	if err != nil {
		return nil, err
	}
	if ix.base.PageSize() != pageSize {
		err = wrapErr("snapshot page size %d, store page size %d", ErrCapacity, pageSize, ix.base.PageSize())
	} else {
		err = ix.restore(zr, m, pageSize)
	}
	err = translateError(err)
	ix.log.logRestore("snapshot", ix.tree.Len(), err)
	if err != nil {
		ix.discard()
		if created {
			_ = os.Remove(path)
		}
		return nil, err
	}
	return ix, nil
}

// restore loads the pages of a snapshot into the empty tree, verifies
// the result and flushes it.
func (ix *Index) restore(r io.Reader, m meta, pageSize int) error {
	if err := ix.tree.Restore(snapshotPages(r, pageSize)); err != nil {
		return err
	}
	if ix.tree.Len() != m.state.Count || ix.tree.Height() != m.state.Height {
		return fmt.Errorf("%w: snapshot holds %d entries at height %d, metadata records %d at height %d",
			ErrCorruption, ix.tree.Len(), ix.tree.Height(), m.state.Count, m.state.Height)
	}
	if err := ix.tree.Check(); err != nil {
		return err
	}
	return ix.base.Flush()
}

func readSnapshotHeader(r io.Reader) (m meta, pageSize int, err error) {
	magic := make([]byte, snapshotMagicLen)
	if _, err = io.ReadFull(r, magic); err != nil {
		return meta{}, 0, truncatedSnapshot(err)
	}
	if !bytes.Equal(magic[:snapshotMagicLen-1], snapshotMagic[:snapshotMagicLen-1]) {
		return meta{}, 0, wrapErr("not a snapshot", ErrCorruption)
	}
	if magic[snapshotMagicLen-1] != SnapshotVersion {
		return meta{}, 0, wrapErr("snapshot version %d, want %d", ErrUnsupportedFormat, magic[snapshotMagicLen-1], SnapshotVersion)
	}
	raw, err := readSizePrefixed(r, snapshotMetaMaxLen)
	if err != nil {
		return meta{}, 0, truncatedSnapshot(err)
	}
	if m, err = unmarshalMeta(raw); err != nil {
		return meta{}, 0, err
	}
	var size [4]byte
	if _, err = io.ReadFull(r, size[:]); err != nil {
		return meta{}, 0, truncatedSnapshot(err)
	}
	return m, int(littleendian.Uint32(size[:])), nil
}

func snapshotPages(r io.Reader, pageSize int) iter.Seq2[rtree.RawPage, error] {
	return func(yield func(rtree.RawPage, error) bool) {
		var id [8]byte
		for {
			if _, err := io.ReadFull(r, id[:]); err != nil {
				yield(rtree.RawPage{}, truncatedSnapshot(err))
				return
			}
			pid := pagestore.PageID(littleendian.Uint64(id[:]))
			if pid == pagestore.NoPage {
				return
			}
			data := make([]byte, pageSize)
			if _, err := io.ReadFull(r, data); err != nil {
				yield(rtree.RawPage{}, truncatedSnapshot(err))
				return
			}
			if !yield(rtree.RawPage{ID: pid, Data: data}, nil) {
				return
			}
		}
	}
}

func truncatedSnapshot(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated snapshot: %w", ErrCorruption, err)
	}
	if errors.Is(err, ErrCorruption) {
		return err
	}
	return fmt.Errorf("%w: unreadable snapshot: %w", ErrCorruption, err)
}
