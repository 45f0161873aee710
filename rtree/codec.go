// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"hash/crc32"

	"github.com/gogama/spatialindex/littleendian"
	"github.com/gogama/spatialindex/pagestore"
)

// Node page layout:
//
//	Byte  0:     kind (leafKind or internalKind)
//	Byte  1:     reserved
//	Bytes 2-3:   item count (uint16)
//	Bytes 4-5:   dimensionality (uint16)
//	Bytes 6-7:   level, 0 for leaves (uint16)
//	Bytes 8-11:  CRC-32 of the page with this field zeroed
//	Bytes 12-15: reserved
//	Bytes 16-:   items
//
// Each item is D float64 minimums, then D float64 maximums, then an
// int64 reference: the entry ID in a leaf, or the child page ID in an
// internal node. Unused space after the last item is zero.
const (
	leafKind     = 1
	internalKind = 2

	nodeHeaderSize     = 16
	nodeChecksumOffset = 8
)

func itemSize(dims int) int {
	return 16*dims + 8
}

// Capacity returns the greatest number of items a node page of the
// given size can hold at the given dimensionality.
func Capacity(pageSize, dims int) int {
	if dims < 1 || pageSize <= nodeHeaderSize {
		return 0
	}
	return (pageSize - nodeHeaderSize) / itemSize(dims)
}

// A codec encodes and decodes node pages for one tree shape.
type codec struct {
	pageSize   int
	dims       int
	maxEntries int
}

func (c *codec) encode(n *node) []byte {
	if len(n.items) > c.maxEntries {
		fmtPanic("encoding node with %d items, max is %d", len(n.items), c.maxEntries)
	}
	buf := make([]byte, c.pageSize)
	if n.level == 0 {
		buf[0] = leafKind
	} else {
		buf[0] = internalKind
	}
	littleendian.PutUint16(buf[2:4], uint16(len(n.items)))
	littleendian.PutUint16(buf[4:6], uint16(c.dims))
	littleendian.PutUint16(buf[6:8], uint16(n.level))
	off := nodeHeaderSize
	for i := range n.items {
		it := &n.items[i]
		for _, v := range it.Min {
			littleendian.PutFloat64(buf[off:], v)
			off += 8
		}
		for _, v := range it.Max {
			littleendian.PutFloat64(buf[off:], v)
			off += 8
		}
		littleendian.PutUint64(buf[off:], uint64(it.ref))
		off += 8
	}
	littleendian.PutUint32(buf[nodeChecksumOffset:], nodeChecksum(buf))
	return buf
}

func (c *codec) decode(id pagestore.PageID, buf []byte) (*node, error) {
	if len(buf) != c.pageSize {
		return nil, corruptf(id, "page length %d, want %d", len(buf), c.pageSize)
	}
	if sum := littleendian.Uint32(buf[nodeChecksumOffset:]); sum != nodeChecksum(buf) {
		return nil, corruptf(id, "checksum mismatch")
	}
	kind := buf[0]
	count := int(littleendian.Uint16(buf[2:4]))
	dims := int(littleendian.Uint16(buf[4:6]))
	level := int(littleendian.Uint16(buf[6:8]))
	switch {
	case kind != leafKind && kind != internalKind:
		return nil, corruptf(id, "unknown node kind %d", kind)
	case dims != c.dims:
		return nil, corruptf(id, "dimensionality %d, want %d", dims, c.dims)
	case count > c.maxEntries:
		return nil, corruptf(id, "item count %d exceeds max %d", count, c.maxEntries)
	case (kind == leafKind) != (level == 0):
		return nil, corruptf(id, "node kind %d at level %d", kind, level)
	case kind == internalKind && count == 0:
		return nil, corruptf(id, "internal node has no children")
	}

	n := &node{level: level, items: make([]item, count)}
	off := nodeHeaderSize
	for i := range n.items {
		it := &n.items[i]
		it.Min = make([]float64, dims)
		it.Max = make([]float64, dims)
		for j := range it.Min {
			it.Min[j] = littleendian.Float64(buf[off:])
			off += 8
		}
		for j := range it.Max {
			it.Max[j] = littleendian.Float64(buf[off:])
			off += 8
		}
		it.ref = int64(littleendian.Uint64(buf[off:]))
		off += 8
		if err := it.Validate(); err != nil {
			return nil, corruptf(id, "item %d: %v", i, err)
		}
		if level > 0 && it.ref <= 0 {
			return nil, corruptf(id, "item %d: invalid child page %d", i, it.ref)
		}
	}
	return n, nil
}

func nodeChecksum(buf []byte) uint32 {
	var zero [4]byte
	sum := crc32.Update(0, crc32.IEEETable, buf[:nodeChecksumOffset])
	sum = crc32.Update(sum, crc32.IEEETable, zero[:])
	return crc32.Update(sum, crc32.IEEETable, buf[nodeChecksumOffset+4:])
}
