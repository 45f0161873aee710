// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

import (
	"hash/crc32"

	"github.com/gogama/spatialindex/littleendian"
)

const (
	// magicLen is the length of the file store magic number in bytes.
	magicLen = 8
	// FormatVersion is the major version of the file store format
	// written, and the only major version read, by this package.
	FormatVersion = 0x01
	// headerSize is the number of bytes at the front of page 0 used
	// by fixed header fields. The metadata blob follows.
	headerSize = 64
)

// magic contains the file store magic number.
//
// The seventh byte is the format major version and the last byte is
// the format patch version.
var magic = [magicLen]byte{'s', 'p', 'x', 'i', 'd', 'x', FormatVersion, 0x00}

// Header page layout:
//
//	Bytes 0-7:   magic number
//	Bytes 8-11:  page size (uint32)
//	Bytes 12-15: metadata length (uint32)
//	Bytes 16-23: page count, header page included (uint64)
//	Bytes 24-31: first free-list page (PageID)
//	Bytes 32-39: free page count (uint64)
//	Bytes 40-43: CRC-32 of the page with this field zeroed
//	Bytes 44-63: reserved
//	Bytes 64-:   metadata
type fileHeader struct {
	pageSize  int
	pageCount uint64
	freeHead  PageID
	freeCount uint64
	meta      []byte
}

const headerChecksumOffset = 40

func (h *fileHeader) encode() []byte {
	buf := make([]byte, h.pageSize)
	copy(buf[0:8], magic[:])
	littleendian.PutUint32(buf[8:12], uint32(h.pageSize))
	littleendian.PutUint32(buf[12:16], uint32(len(h.meta)))
	littleendian.PutUint64(buf[16:24], h.pageCount)
	littleendian.PutUint64(buf[24:32], uint64(h.freeHead))
	littleendian.PutUint64(buf[32:40], h.freeCount)
	copy(buf[headerSize:], h.meta)
	littleendian.PutUint32(buf[headerChecksumOffset:], pageChecksum(buf, headerChecksumOffset))
	return buf
}

// checkMagic validates the magic number at the front of b, returning
// ErrUnsupportedFormat for a recognized file written in another major
// version.
func checkMagic(b []byte) error {
	if len(b) < magicLen {
		return wrapErr("file too short for magic number", ErrCorrupt)
	}
	if b[0] != magic[0] ||
		b[1] != magic[1] ||
		b[2] != magic[2] ||
		b[3] != magic[3] ||
		b[4] != magic[4] ||
		b[5] != magic[5] {
		return wrapErr("invalid magic number", ErrCorrupt)
	}
	if b[6] != FormatVersion {
		return wrapErr("file format version %d.%d, want %d.x", ErrUnsupportedFormat, b[6], b[7], FormatVersion)
	}
	return nil
}

// decodeHeaderPrefix reads the fixed fields which do not depend on the
// page size, so the caller learns how large page 0 is.
func decodeHeaderPrefix(b []byte) (pageSize int, err error) {
	if err = checkMagic(b); err != nil {
		return
	}
	if len(b) < headerSize {
		err = wrapErr("file too short for header", ErrCorrupt)
		return
	}
	pageSize = int(littleendian.Uint32(b[8:12]))
	if validatePageSize(pageSize) != nil {
		err = wrapErr("header page size %d", ErrCorrupt, pageSize)
	}
	return
}

func decodeHeader(buf []byte) (h fileHeader, err error) {
	if h.pageSize, err = decodeHeaderPrefix(buf); err != nil {
		return
	}
	if len(buf) != h.pageSize {
		err = wrapErr("header page length %d, want %d", ErrCorrupt, len(buf), h.pageSize)
		return
	}
	if sum := littleendian.Uint32(buf[headerChecksumOffset:]); sum != pageChecksum(buf, headerChecksumOffset) {
		err = wrapErr("header checksum mismatch", ErrCorrupt)
		return
	}
	metaLen := int(littleendian.Uint32(buf[12:16]))
	if metaLen > MaxMetaSize(h.pageSize) {
		err = wrapErr("metadata length %d", ErrCorrupt, metaLen)
		return
	}
	h.pageCount = littleendian.Uint64(buf[16:24])
	h.freeHead = PageID(littleendian.Uint64(buf[24:32]))
	h.freeCount = littleendian.Uint64(buf[32:40])
	h.meta = append([]byte(nil), buf[headerSize:headerSize+metaLen]...)
	if h.pageCount < 1 {
		err = wrapErr("page count %d", ErrCorrupt, h.pageCount)
	}
	return
}

// Free-list page layout:
//
//	Byte  0:     page kind (freelistPageKind)
//	Bytes 4-7:   CRC-32 of the page with this field zeroed
//	Bytes 8-11:  entry count (uint32)
//	Bytes 16-23: next free-list page (PageID), 0 if last
//	Bytes 24-:   free PageIDs
const (
	freelistPageKind       = 0xf1
	freelistChecksumOffset = 4
	freelistEntriesOffset  = 24
)

func idsPerFreelistPage(pageSize int) int {
	return (pageSize - freelistEntriesOffset) / 8
}

func encodeFreelistPage(pageSize int, ids []PageID, next PageID) []byte {
	buf := make([]byte, pageSize)
	buf[0] = freelistPageKind
	littleendian.PutUint32(buf[8:12], uint32(len(ids)))
	littleendian.PutUint64(buf[16:24], uint64(next))
	for i, id := range ids {
		littleendian.PutUint64(buf[freelistEntriesOffset+8*i:], uint64(id))
	}
	littleendian.PutUint32(buf[freelistChecksumOffset:], pageChecksum(buf, freelistChecksumOffset))
	return buf
}

func decodeFreelistPage(buf []byte) (ids []PageID, next PageID, err error) {
	if buf[0] != freelistPageKind {
		err = wrapErr("free-list page kind 0x%02x", ErrCorrupt, buf[0])
		return
	}
	if sum := littleendian.Uint32(buf[freelistChecksumOffset:]); sum != pageChecksum(buf, freelistChecksumOffset) {
		err = wrapErr("free-list page checksum mismatch", ErrCorrupt)
		return
	}
	n := int(littleendian.Uint32(buf[8:12]))
	if n > idsPerFreelistPage(len(buf)) {
		err = wrapErr("free-list page entry count %d", ErrCorrupt, n)
		return
	}
	next = PageID(littleendian.Uint64(buf[16:24]))
	ids = make([]PageID, n)
	for i := range ids {
		ids[i] = PageID(littleendian.Uint64(buf[freelistEntriesOffset+8*i:]))
	}
	return
}

// pageChecksum computes the CRC-32 of buf as though the four bytes at
// off were zero.
func pageChecksum(buf []byte, off int) uint32 {
	var zero [4]byte
	sum := crc32.Update(0, crc32.IEEETable, buf[:off])
	sum = crc32.Update(sum, crc32.IEEETable, zero[:])
	return crc32.Update(sum, crc32.IEEETable, buf[off+4:])
}
