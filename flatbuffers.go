// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"fmt"
	"io"

	flatbuffers "github.com/google/flatbuffers/go"
)

// safeFlatBuffersInteraction runs a function that interacts with
// FlatBuffers, trapping any panic that occurs and converting it to a
// normal Go error.
//
// This function exists because FlatBuffer's Go code doesn't use
// standard Go error handling, allegedly for performance reasons, and
// consequently any invalid attempt to interact with FlatBuffer data
// may trigger a panic.
func safeFlatBuffersInteraction(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: flatbuffers: %v", r)
		}
	}()
	err = f()
	return
}

// sizePrefixedLen returns the length, including the prefix itself, of
// the size-prefixed FlatBuffers buffer at the start of b.
func sizePrefixedLen(b []byte) (int, error) {
	if len(b) < flatbuffers.SizeUint32 {
		return 0, fmtErr("FlatBuffers buffer is smaller than its size prefix (Len=%d)", len(b))
	}
	size := uint64(flatbuffers.GetUint32(b))
	if size+flatbuffers.SizeUint32 > uint64(len(b)) {
		return 0, fmtErr("FlatBuffers buffer is smaller than the size prefix (Len=%d, size=%d)", len(b), size)
	}
	return flatbuffers.SizeUint32 + int(size), nil
}

// writeSizePrefixed writes the size-prefixed FlatBuffers buffer at the
// start of b to an output stream.
func writeSizePrefixed(w io.Writer, b []byte) (n int, err error) {
	var size int
	if size, err = sizePrefixedLen(b); err != nil {
		return
	}
	return w.Write(b[:size])
}

// readSizePrefixed reads one size-prefixed FlatBuffers buffer from r,
// refusing any buffer larger than maxLen bytes.
func readSizePrefixed(r io.Reader, maxLen int) ([]byte, error) {
	prefix := make([]byte, flatbuffers.SizeUint32)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, err
	}
	size := flatbuffers.GetUint32(prefix)
	if uint64(size) > uint64(maxLen) {
		return nil, fmtErr("FlatBuffers buffer size %d exceeds limit %d", size, maxLen)
	}
	b := make([]byte, flatbuffers.SizeUint32+int(size))
	copy(b, prefix)
	if _, err := io.ReadFull(r, b[flatbuffers.SizeUint32:]); err != nil {
		return nil, err
	}
	return b, nil
}
