// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

import (
	"errors"
	"io"
	"os"
	"slices"
)

// FileOptions configures OpenFile.
type FileOptions struct {
	// PageSize is the page size used when creating a new file. It is
	// ignored when opening an existing file, whose header records its
	// own page size. Zero means DefaultPageSize.
	PageSize int
	// Overwrite truncates any existing file instead of opening it.
	Overwrite bool
}

// File is a Store backed by a single operating system file.
//
// Page 0 is the header page. Every Flush is a checkpoint: it writes the
// free list to a fresh chain of free-list pages, syncs, rewrites the
// header and syncs again. Pages freed between checkpoints are held
// back from reuse until the next checkpoint lands, so the state
// recorded by the last durable header is never overwritten and a
// crash at any point leaves a consistent file behind.
type File struct {
	f        *os.File
	path     string
	pageSize int
	// pageCount is the number of pages in the file, header included.
	pageCount uint64
	free      *freelist
	// chain lists the free-list pages written by the last checkpoint.
	chain  []PageID
	meta   []byte
	closed bool
}

// OpenFile opens or creates the file store at path. The file is locked
// for exclusive use until Close.
func OpenFile(path string, opts FileOptions) (s *File, err error) {
	if opts.PageSize == 0 {
		opts.PageSize = DefaultPageSize
	}
	if err = validatePageSize(opts.PageSize); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, wrapErr("failed to open %q", err, path)
	}
	// Release the descriptor on every failure path below.
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()
	if err = lockFile(f); err != nil {
		return nil, err
	}
	// Truncate only once the lock is held, so a locked file survives.
	if opts.Overwrite {
		if err = f.Truncate(0); err != nil {
			return nil, wrapErr("failed to truncate %q", err, path)
		}
	}

	s = &File{
		f:    f,
		path: path,
		free: newFreelist(),
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, wrapErr("failed to stat %q", err, path)
	}
	if stat.Size() == 0 {
		s.pageSize = opts.PageSize
		s.pageCount = 1
		if err = s.Flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err = s.load(stat.Size()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *File) load(fileSize int64) error {
	prefix := make([]byte, headerSize)
	if _, err := io.ReadFull(io.NewSectionReader(s.f, 0, headerSize), prefix); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return wrapErr("file too short for header", ErrCorrupt)
		}
		return wrapErr("failed to read header", err)
	}
	pageSize, err := decodeHeaderPrefix(prefix)
	if err != nil {
		return err
	}
	s.pageSize = pageSize
	buf, err := s.readRaw(0)
	if err != nil {
		return err
	}
	h, err := decodeHeader(buf)
	if err != nil {
		return err
	}
	s.pageCount = h.pageCount
	s.meta = h.meta

	// Load the free-list chain.
	var count uint64
	for next := h.freeHead; next != NoPage; {
		if uint64(next) >= s.pageCount || uint64(len(s.chain)) >= s.pageCount {
			return wrapErr("free-list chain reaches page %d", ErrCorrupt, next)
		}
		buf, err = s.readRaw(next)
		if err != nil {
			return err
		}
		ids, following, err := decodeFreelistPage(buf)
		if err != nil {
			return wrapErr("free-list page %d", err, next)
		}
		for _, id := range ids {
			if id == NoPage || uint64(id) >= s.pageCount || s.free.has(id) {
				return wrapErr("free-list page %d lists page %d", ErrCorrupt, next, id)
			}
			s.free.push(id)
		}
		count += uint64(len(ids))
		s.chain = append(s.chain, next)
		next = following
	}
	if count != h.freeCount {
		return wrapErr("free-list holds %d pages, header records %d", ErrCorrupt, count, h.freeCount)
	}
	for _, id := range s.chain {
		if s.free.has(id) {
			return wrapErr("free-list page %d is itself listed free", ErrCorrupt, id)
		}
	}

	// Pages past the recorded count were added after the last
	// checkpoint and hold nothing the durable state refers to.
	filePages := uint64(fileSize) / uint64(s.pageSize)
	for id := s.pageCount; id < filePages; id++ {
		s.free.push(PageID(id))
	}
	if filePages > s.pageCount {
		s.pageCount = filePages
	}
	return nil
}

// Path returns the path the File was opened with.
func (s *File) Path() string {
	return s.path
}

func (s *File) PageSize() int {
	return s.pageSize
}

func (s *File) Allocate() (PageID, error) {
	if s.closed {
		return NoPage, ErrClosed
	}
	if id, ok := s.free.pop(); ok {
		return id, nil
	}
	id := PageID(s.pageCount)
	s.pageCount++
	return id, nil
}

func (s *File) check(id PageID) error {
	if s.closed {
		return ErrClosed
	}
	if id == NoPage || uint64(id) >= s.pageCount || slices.Contains(s.chain, id) {
		return wrapErr("page %d", ErrInvalidPage, id)
	}
	if s.free.has(id) {
		return wrapErr("page %d", ErrFreedPage, id)
	}
	return nil
}

func (s *File) Read(id PageID) ([]byte, error) {
	if err := s.check(id); err != nil {
		return nil, err
	}
	return s.readRaw(id)
}

// readRaw reads page id without validating it. Bytes past the end of
// the file read as zero, since allocated pages are only materialized
// by their first write.
func (s *File) readRaw(id PageID) ([]byte, error) {
	p := make([]byte, s.pageSize)
	if _, err := s.f.ReadAt(p, int64(id)*int64(s.pageSize)); err != nil && !errors.Is(err, io.EOF) {
		return nil, wrapErr("failed to read page %d", err, id)
	}
	return p, nil
}

func (s *File) Write(id PageID, p []byte) error {
	if err := s.check(id); err != nil {
		return err
	}
	if len(p) != s.pageSize {
		return wrapErr("write of %d bytes to page %d", ErrPageSize, len(p), id)
	}
	return s.writeRaw(id, p)
}

func (s *File) writeRaw(id PageID, p []byte) error {
	if _, err := s.f.WriteAt(p, int64(id)*int64(s.pageSize)); err != nil {
		return wrapErr("failed to write page %d", err, id)
	}
	return nil
}

func (s *File) Free(id PageID) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.free.hold(id)
	return nil
}

func (s *File) IsFree(id PageID) bool {
	return s.free.has(id)
}

func (s *File) Meta() []byte {
	return append([]byte(nil), s.meta...)
}

func (s *File) SetMeta(meta []byte) error {
	if s.closed {
		return ErrClosed
	}
	if len(meta) > MaxMetaSize(s.pageSize) {
		return fmtErr("metadata of %d bytes exceeds limit of %d", len(meta), MaxMetaSize(s.pageSize))
	}
	s.meta = append(s.meta[:0], meta...)
	return nil
}

func (s *File) Usage() Usage {
	return Usage{
		Total:    s.pageCount - 1,
		Free:     uint64(s.free.len()),
		Pending:  uint64(s.free.numPending()),
		Reserved: uint64(len(s.chain)),
	}
}

// Flush checkpoints the store. See File for the protocol.
func (s *File) Flush() error {
	if s.closed {
		return ErrClosed
	}

	// Choose pages for the new free-list chain. Taking a page off the
	// reusable list shrinks the list to be written, so iterate until
	// the chain is long enough. The old chain pages become free once
	// the new header lands, so they are listed too.
	per := idsPerFreelistPage(s.pageSize)
	var chain []PageID
	for {
		n := s.free.len() + len(s.chain)
		if len(chain) >= (n+per-1)/per {
			break
		}
		id, ok := s.free.pop()
		if !ok {
			id = PageID(s.pageCount)
			s.pageCount++
		}
		chain = append(chain, id)
	}

	ids := make([]PageID, 0, s.free.len()+len(s.chain))
	s.free.ascend(func(id PageID) bool {
		ids = append(ids, id)
		return true
	})
	ids = append(ids, s.chain...)

	err := s.checkpoint(chain, ids)
	if err != nil {
		// Undo the chain reservation. Grown pages lie past the durable
		// page count, so they are as safe to recycle as the others.
		for _, id := range chain {
			s.free.push(id)
		}
		return err
	}

	s.free.release()
	for _, id := range s.chain {
		s.free.push(id)
	}
	s.chain = chain
	return nil
}

func (s *File) checkpoint(chain, ids []PageID) error {
	per := idsPerFreelistPage(s.pageSize)
	for i, id := range chain {
		next := NoPage
		if i+1 < len(chain) {
			next = chain[i+1]
		}
		lo := i * per
		hi := min(lo+per, len(ids))
		if err := s.writeRaw(id, encodeFreelistPage(s.pageSize, ids[lo:hi], next)); err != nil {
			return err
		}
	}
	if err := s.f.Sync(); err != nil {
		return wrapErr("failed to sync %q", err, s.path)
	}

	h := fileHeader{
		pageSize:  s.pageSize,
		pageCount: s.pageCount,
		freeCount: uint64(len(ids)),
		meta:      s.meta,
	}
	if len(chain) > 0 {
		h.freeHead = chain[0]
	}
	if err := s.writeRaw(0, h.encode()); err != nil {
		return err
	}
	if err := s.f.Sync(); err != nil {
		return wrapErr("failed to sync %q", err, s.path)
	}
	return nil
}

// Close unlocks and closes the file without flushing. It is safe to
// call Close more than once.
func (s *File) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	unlockErr := unlockFile(s.f)
	if err := s.f.Close(); err != nil {
		return wrapErr("failed to close %q", err, s.path)
	}
	return unlockErr
}
