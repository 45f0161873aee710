// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("textErr", func(t *testing.T) {
		assert.EqualError(t, textErr("foo"), "rtree: foo")
	})

	t.Run("fmtErr", func(t *testing.T) {
		assert.EqualError(t, fmtErr("my %s is %s-ed to %d", "bar", "baz", 11), "rtree: my bar is baz-ed to 11")
	})

	t.Run("wrapErr", func(t *testing.T) {
		cause := errors.New("the root cause")
		err := wrapErr("the error is %q by", cause, "caused")

		assert.ErrorIs(t, err, cause)
		assert.Equal(t, `rtree: the error is "caused" by: the root cause`, err.Error())
	})

	t.Run("textPanic", func(t *testing.T) {
		assert.PanicsWithValue(t, "rtree: foo", func() {
			textPanic("foo")
		})
	})

	t.Run("fmtPanic", func(t *testing.T) {
		assert.PanicsWithValue(t, "rtree: my bar is baz-ed to 10", func() {
			fmtPanic("my %s is %s-ed to %d", "bar", "baz", 10)
		})
	})

	t.Run("CorruptNodeError", func(t *testing.T) {
		err := corruptf(7, "item %d: %s", 3, "bad")

		assert.EqualError(t, err, "rtree: corrupt node at page 7: item 3: bad")
		assert.ErrorIs(t, err, ErrCorrupt)
		var target *CorruptNodeError
		assert.ErrorAs(t, err, &target)
		assert.Equal(t, &CorruptNodeError{Page: 7, Reason: "item 3: bad"}, target)
	})

	t.Run("DimensionMismatchError", func(t *testing.T) {
		err := error(&DimensionMismatchError{Want: 2, Got: 3})

		assert.EqualError(t, err, "rtree: dimension mismatch: tree has 2, got 3")
	})
}
