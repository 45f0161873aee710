// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"cmp"
	"math"
	"slices"
)

const (
	// HilbertOrder is the order of the two-dimensional Hilbert curve
	// used by HilbertSort.
	HilbertOrder = 16
	// hilbertMax is the maximum input X- or Y-coordinate hilbertFromXY.
	//
	// In a Hilbert curve of order N, X- and Y- coordinates range from
	// zero to 2^N-1, so in a Hilbert curve of order 1, the X- and Y-
	// coordinates range from 0 to 1, and so on.
	hilbertMax = (1 << HilbertOrder) - 1
)

// HilbertSort sorts entries, whose bounds are given by extent, by the
// position of each entry's box center along a Hilbert curve.
//
// Two-dimensional entries use a curve of order HilbertOrder. Entries
// with D other than 2 use a D-dimensional curve of order 64/D, so the
// whole index fits in 64 bits. The sort is stable.
func HilbertSort(entries []Entry, extent Box) {
	type keyed struct {
		key   uint64
		entry Entry
	}
	ks := make([]keyed, len(entries))
	for i := range entries {
		ks[i] = keyed{key: hilbertKey(entries[i].Box, extent), entry: entries[i]}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		return cmp.Compare(a.key, b.key)
	})
	for i := range ks {
		entries[i] = ks[i].entry
	}
}

// hilbertKey returns the Hilbert curve index of the center of b within
// extent.
func hilbertKey(b, extent Box) uint64 {
	dims := len(extent.Min)
	if dims == 2 {
		hx := hilbertCoord(b.center(0), extent.Min[0], extent.Max[0], hilbertMax)
		hy := hilbertCoord(b.center(1), extent.Min[1], extent.Max[1], hilbertMax)
		return uint64(hilbertFromXY(hx, hy))
	}
	bits := max(1, min(32, 64/dims))
	maxCoord := uint32(1<<bits - 1)
	x := make([]uint32, dims)
	for i := range x {
		x[i] = hilbertCoord(b.center(i), extent.Min[i], extent.Max[i], maxCoord)
	}
	return hilbertFromAxes(x, bits)
}

// hilbertCoord scales v from [lo, hi] onto the integers [0, top].
func hilbertCoord(v, lo, hi float64, top uint32) uint32 {
	w := hi - lo
	if w <= 0 || math.IsInf(w, 0) || math.IsNaN(v) {
		return 0
	}
	r := (v - lo) / w
	if r <= 0 {
		return 0
	} else if r >= 1 {
		return top
	}
	return uint32(math.Floor(float64(top) * r))
}

// hilbertFromAxes returns the Hilbert curve index of the point x on a
// len(x)-dimensional curve of the given order, using John Skilling's
// axes-to-transpose transform ("Programming the Hilbert curve", AIP
// Conference Proceedings 707, 2004). Bits beyond the 64th are lost
// when len(x)*order exceeds 64.
func hilbertFromAxes(x []uint32, order int) uint64 {
	n := len(x)
	m := uint32(1) << (order - 1)

	// Inverse undo.
	for q := m; q > 1; q >>= 1 {
		p := q - 1
		for i := 0; i < n; i++ {
			if x[i]&q != 0 {
				x[0] ^= p
			} else {
				t := (x[0] ^ x[i]) & p
				x[0] ^= t
				x[i] ^= t
			}
		}
	}

	// Gray encode.
	for i := 1; i < n; i++ {
		x[i] ^= x[i-1]
	}
	var t uint32
	for q := m; q > 1; q >>= 1 {
		if x[n-1]&q != 0 {
			t ^= q - 1
		}
	}
	for i := 0; i < n; i++ {
		x[i] ^= t
	}

	// Interleave the transposed bits, most significant first.
	var index uint64
	for b := order - 1; b >= 0; b-- {
		for i := 0; i < n; i++ {
			index = index<<1 | uint64(x[i]>>uint(b)&1)
		}
	}
	return index
}

// hilbertFromXY calculates the Hilbert curve index of a given
// two-dimensional coordinate.
//
// NOTES:
//   - Based on https://github.com/rawrunprotected/hilbert_curves, which
//     is in the public domain.
//   - This version of the code is a straight conversion to GoLang from
//     https://github.com/flatgeobuf/flatgeobuf/blob/20fd93430cd78907c7843cf26d601574d3c5b913/src/cpp/packedrtree.cpp.
func hilbertFromXY(x, y uint32) uint32 {
	a := x ^ y
	b := 0xFFFF ^ a
	c := 0xFFFF ^ (x | y)
	d := x & (y ^ 0xFFFF)

	A := a | (b >> 1)
	B := (a >> 1) ^ a
	C := ((c >> 1) ^ (b & (d >> 1))) ^ c
	D := ((a & (c >> 1)) ^ (d >> 1)) ^ d

	a = A
	b = B
	c = C
	d = D
	A = (a & (a >> 2)) ^ (b & (b >> 2))
	B = (a & (b >> 2)) ^ (b & ((a ^ b) >> 2))
	C ^= (a & (c >> 2)) ^ (b & (d >> 2))
	D ^= (b & (c >> 2)) ^ ((a ^ b) & (d >> 2))

	a = A
	b = B
	c = C
	d = D
	A = (a & (a >> 4)) ^ (b & (b >> 4))
	B = (a & (b >> 4)) ^ (b & ((a ^ b) >> 4))
	C ^= (a & (c >> 4)) ^ (b & (d >> 4))
	D ^= (b & (c >> 4)) ^ ((a ^ b) & (d >> 4))

	a = A
	b = B
	c = C
	d = D
	C ^= (a & (c >> 8)) ^ (b & (d >> 8))
	D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))

	a = C ^ (C >> 1)
	b = D ^ (D >> 1)

	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	i0 = (i0 | (i0 << 8)) & 0x00FF00FF
	i0 = (i0 | (i0 << 4)) & 0x0F0F0F0F
	i0 = (i0 | (i0 << 2)) & 0x33333333
	i0 = (i0 | (i0 << 1)) & 0x55555555

	i1 = (i1 | (i1 << 8)) & 0x00FF00FF
	i1 = (i1 | (i1 << 4)) & 0x0F0F0F0F
	i1 = (i1 | (i1 << 2)) & 0x33333333
	i1 = (i1 | (i1 << 1)) & 0x55555555

	index := (i1 << 1) | i0

	return index
}
