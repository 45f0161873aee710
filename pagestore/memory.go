// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

// Memory is a Store held entirely in process memory. Its Flush is a
// no-op and freed pages are recyclable immediately.
type Memory struct {
	pageSize int
	pages    map[PageID][]byte
	// next is the smallest identifier never yet allocated.
	next   PageID
	free   *freelist
	meta   []byte
	closed bool
}

// NewMemory creates an empty in-memory Store with the given page
// size.
func NewMemory(pageSize int) (*Memory, error) {
	if err := validatePageSize(pageSize); err != nil {
		return nil, err
	}
	return &Memory{
		pageSize: pageSize,
		pages:    make(map[PageID][]byte),
		next:     1,
		free:     newFreelist(),
	}, nil
}

func (m *Memory) PageSize() int {
	return m.pageSize
}

func (m *Memory) Allocate() (PageID, error) {
	if m.closed {
		return NoPage, ErrClosed
	}
	id, ok := m.free.pop()
	if !ok {
		id = m.next
		m.next++
	}
	m.pages[id] = make([]byte, m.pageSize)
	return id, nil
}

func (m *Memory) check(id PageID) error {
	if m.closed {
		return ErrClosed
	}
	if id == NoPage || id >= m.next {
		return wrapErr("page %d", ErrInvalidPage, id)
	}
	if m.free.has(id) {
		return wrapErr("page %d", ErrFreedPage, id)
	}
	return nil
}

func (m *Memory) Read(id PageID) ([]byte, error) {
	if err := m.check(id); err != nil {
		return nil, err
	}
	p := make([]byte, m.pageSize)
	copy(p, m.pages[id])
	return p, nil
}

func (m *Memory) Write(id PageID, p []byte) error {
	if err := m.check(id); err != nil {
		return err
	}
	if len(p) != m.pageSize {
		return wrapErr("write of %d bytes to page %d", ErrPageSize, len(p), id)
	}
	copy(m.pages[id], p)
	return nil
}

func (m *Memory) Free(id PageID) error {
	if err := m.check(id); err != nil {
		return err
	}
	delete(m.pages, id)
	m.free.push(id)
	return nil
}

func (m *Memory) IsFree(id PageID) bool {
	return m.free.has(id)
}

func (m *Memory) Meta() []byte {
	return append([]byte(nil), m.meta...)
}

func (m *Memory) SetMeta(meta []byte) error {
	if m.closed {
		return ErrClosed
	}
	if len(meta) > MaxMetaSize(m.pageSize) {
		return fmtErr("metadata of %d bytes exceeds limit of %d", len(meta), MaxMetaSize(m.pageSize))
	}
	m.meta = append(m.meta[:0], meta...)
	return nil
}

func (m *Memory) Usage() Usage {
	return Usage{
		Total: uint64(m.next - 1),
		Free:  uint64(m.free.len()),
	}
}

func (m *Memory) Flush() error {
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Close() error {
	m.closed = true
	m.pages = nil
	return nil
}
