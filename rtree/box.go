// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"math"
	"strconv"
	"strings"
)

// Box is an axis-aligned bounding box in D dimensions. Min[i] and
// Max[i] give the extent of the box along dimension i.
//
// A valid Box has len(Min) == len(Max), no NaN coordinates, and
// Min[i] <= Max[i] for every i. Degenerate boxes, such as points, are
// valid.
type Box struct {
	Min []float64
	Max []float64
}

// NewBox returns a validated Box holding copies of min and max.
func NewBox(min, max []float64) (Box, error) {
	b := Box{
		Min: append([]float64(nil), min...),
		Max: append([]float64(nil), max...),
	}
	if err := b.Validate(); err != nil {
		return Box{}, err
	}
	return b, nil
}

// Point returns the degenerate Box at the given coordinates.
func Point(coords ...float64) Box {
	return Box{
		Min: append([]float64(nil), coords...),
		Max: append([]float64(nil), coords...),
	}
}

// Rect returns a two-dimensional Box.
func Rect(xMin, yMin, xMax, yMax float64) Box {
	return Box{
		Min: []float64{xMin, yMin},
		Max: []float64{xMax, yMax},
	}
}

// EmptyBox returns the D-dimensional box which is the identity for
// Expand: every minimum is +Inf and every maximum is -Inf. To compute
// the bounds of a set of boxes, start with EmptyBox, not the zero Box.
func EmptyBox(dims int) Box {
	b := Box{
		Min: make([]float64, dims),
		Max: make([]float64, dims),
	}
	for i := 0; i < dims; i++ {
		b.Min[i] = math.Inf(1)
		b.Max[i] = math.Inf(-1)
	}
	return b
}

// Dims returns the dimensionality of the box.
func (b Box) Dims() int {
	return len(b.Min)
}

// Validate returns ErrInvalidBox, wrapped, if b is not a valid Box.
func (b Box) Validate() error {
	if len(b.Min) != len(b.Max) {
		return wrapErr("%d minimums but %d maximums", ErrInvalidBox, len(b.Min), len(b.Max))
	}
	for i := range b.Min {
		if math.IsNaN(b.Min[i]) || math.IsNaN(b.Max[i]) {
			return wrapErr("NaN in dimension %d", ErrInvalidBox, i)
		} else if b.Min[i] > b.Max[i] {
			return wrapErr("min %g > max %g in dimension %d", ErrInvalidBox, b.Min[i], b.Max[i], i)
		}
	}
	return nil
}

// IsEmpty reports whether b contains no points, as EmptyBox does.
func (b Box) IsEmpty() bool {
	for i := range b.Min {
		if b.Min[i] > b.Max[i] {
			return true
		}
	}
	return false
}

// Area returns the hyper-volume of b.
func (b Box) Area() float64 {
	a := 1.0
	for i := range b.Min {
		a *= b.Max[i] - b.Min[i]
	}
	return a
}

// Margin returns the sum of b's edge lengths, one per dimension.
func (b Box) Margin() float64 {
	var m float64
	for i := range b.Min {
		m += b.Max[i] - b.Min[i]
	}
	return m
}

func (b Box) center(i int) float64 {
	return (b.Min[i] + b.Max[i]) / 2
}

// Intersects reports whether b and o share at least one point.
// Touching boxes intersect.
func (b Box) Intersects(o Box) bool {
	for i := range b.Min {
		if b.Max[i] < o.Min[i] || b.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// Contains reports whether o lies wholly inside b.
func (b Box) Contains(o Box) bool {
	for i := range b.Min {
		if o.Min[i] < b.Min[i] || o.Max[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Expand enlarges b, if necessary, to contain o.
func (b *Box) Expand(o Box) {
	for i := range b.Min {
		if o.Min[i] < b.Min[i] {
			b.Min[i] = o.Min[i]
		}
		if o.Max[i] > b.Max[i] {
			b.Max[i] = o.Max[i]
		}
	}
}

// Union returns the smallest box containing both b and o.
func (b Box) Union(o Box) Box {
	u := b.Clone()
	u.Expand(o)
	return u
}

// Enlargement returns how much b's area grows if expanded to contain
// o.
func (b Box) Enlargement(o Box) float64 {
	a := 1.0
	for i := range b.Min {
		a *= math.Max(b.Max[i], o.Max[i]) - math.Min(b.Min[i], o.Min[i])
	}
	return a - b.Area()
}

// Overlap returns the area of the intersection of b and o, or zero if
// they do not intersect.
func (b Box) Overlap(o Box) float64 {
	a := 1.0
	for i := range b.Min {
		lo := math.Max(b.Min[i], o.Min[i])
		hi := math.Min(b.Max[i], o.Max[i])
		if hi <= lo {
			return 0
		}
		a *= hi - lo
	}
	return a
}

// MinDist returns the Euclidean distance from point p to the nearest
// point of b, which is zero if p lies in b.
func (b Box) MinDist(p []float64) float64 {
	return math.Sqrt(b.minDist2(p))
}

func (b Box) minDist2(p []float64) float64 {
	var d float64
	for i := range b.Min {
		var di float64
		if p[i] < b.Min[i] {
			di = b.Min[i] - p[i]
		} else if p[i] > b.Max[i] {
			di = p[i] - b.Max[i]
		}
		d += di * di
	}
	return d
}

// Equal reports whether b and o have identical coordinates.
func (b Box) Equal(o Box) bool {
	if len(b.Min) != len(o.Min) || len(b.Max) != len(o.Max) {
		return false
	}
	for i := range b.Min {
		if b.Min[i] != o.Min[i] || b.Max[i] != o.Max[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of b.
func (b Box) Clone() Box {
	return Box{
		Min: append([]float64(nil), b.Min...),
		Max: append([]float64(nil), b.Max...),
	}
}

// String formats b as its minimums followed by its maximums, for
// example "[0,0,1,1]" for the unit square.
func (b Box) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range b.Min {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range b.Max {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteByte(']')
	return sb.String()
}
