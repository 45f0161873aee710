// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var splitters = []Splitter{QuadraticSplit{}, LinearSplit{}, RStarSplit{}}

func TestSplitters_Partition(t *testing.T) {
	r := rand.New(rand.NewPCG(21, 21))
	for _, s := range splitters {
		for _, shape := range []struct{ n, min, dims int }{{5, 2, 2}, {11, 5, 2}, {101, 40, 2}, {9, 1, 3}, {13, 6, 1}} {
			t.Run(fmt.Sprintf("%s/n=%d,min=%d,dims=%d", KindOf(s), shape.n, shape.min, shape.dims), func(t *testing.T) {
				boxes := make([]Box, shape.n)
				for i := range boxes {
					boxes[i] = randomBox(r, shape.dims, 100, 10)
				}

				left, right := s.Split(boxes, shape.min)

				assert.GreaterOrEqual(t, len(left), shape.min)
				assert.GreaterOrEqual(t, len(right), shape.min)
				all := append(slices.Clone(left), right...)
				slices.Sort(all)
				assert.Equal(t, without(shape.n), all)
			})
		}
	}
}

func TestSplitters_Identical(t *testing.T) {
	boxes := make([]Box, 7)
	for i := range boxes {
		boxes[i] = Rect(1, 1, 2, 2)
	}
	for _, s := range splitters {
		t.Run(KindOf(s).String(), func(t *testing.T) {
			left, right := s.Split(boxes, 3)

			assert.GreaterOrEqual(t, len(left), 3)
			assert.GreaterOrEqual(t, len(right), 3)
			assert.Equal(t, 7, len(left)+len(right))
		})
	}
}

func TestSplitters_Clusters(t *testing.T) {
	// Two well separated clusters must be split apart.
	boxes := []Box{
		Rect(0, 0, 1, 1),
		Rect(100, 100, 101, 101),
		Rect(0.5, 0.5, 1.5, 1.5),
		Rect(100.5, 100, 101.5, 101),
		Rect(0, 1, 1, 2),
		Rect(101, 101, 102, 102),
	}
	for _, s := range splitters {
		t.Run(KindOf(s).String(), func(t *testing.T) {
			left, right := s.Split(boxes, 2)

			slices.Sort(left)
			slices.Sort(right)
			groups := [][]int{left, right}
			slices.SortFunc(groups, func(a, b []int) int { return a[0] - b[0] })
			assert.Equal(t, [][]int{{0, 2, 4}, {1, 3, 5}}, groups)
		})
	}
}

func TestSplitKind(t *testing.T) {
	testCases := []struct {
		kind     SplitKind
		splitter Splitter
		name     string
	}{
		{CustomSplit, nil, "custom"},
		{Quadratic, QuadraticSplit{}, "quadratic"},
		{Linear, LinearSplit{}, "linear"},
		{RStar, RStarSplit{}, "rstar"},
		{SplitKind(99), nil, "unknown"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.name, testCase.kind.String())
			assert.Equal(t, testCase.splitter, testCase.kind.Splitter())
			if testCase.splitter != nil {
				assert.Equal(t, testCase.kind, KindOf(testCase.splitter))
			}
		})
	}
	assert.Equal(t, RStar, KindOf(&RStarSplit{}))
	assert.Equal(t, CustomSplit, KindOf(badSplitter{}))
}

// badSplitter puts everything but one item on the left.
type badSplitter struct{}

func (badSplitter) Split(boxes []Box, _ int) (left, right []int) {
	return without(len(boxes), 0), []int{0}
}

func TestTree_BadSplitter(t *testing.T) {
	cfg := smallConfig
	cfg.Splitter = badSplitter{}
	tr, _ := newTestTree(t, cfg)
	entries := randomEntries(22, 5, 2)
	insertAll(t, tr, entries[:4])

	err := tr.Insert(entries[4])

	require.Error(t, err)
	assert.Contains(t, err.Error(), "splitter produced groups of 4 and 1")
	assert.Equal(t, uint64(4), tr.Len())
	assert.NoError(t, tr.Check())
}
