// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import (
	"errors"
	"fmt"

	"github.com/gogama/spatialindex/pagestore"
	"github.com/gogama/spatialindex/rtree"
)

var (
	// ErrNotFound is returned by Delete when no entry has both the box
	// and the ID given.
	ErrNotFound = textErr("not found")
	// ErrCorruption is returned when a node, header, free-list page,
	// metadata table or snapshot fails validation.
	ErrCorruption = textErr("corruption")
	// ErrUnsupportedFormat is returned when opening an index or
	// snapshot written in a format version this package cannot read.
	ErrUnsupportedFormat = textErr("unsupported format")
	// ErrIndexUnavailable is returned by every operation on an Index
	// in the StatusFailed state. It wraps the error which caused the
	// failure.
	ErrIndexUnavailable = textErr("index unavailable")
	// ErrCapacity is returned when the configuration is invalid, for
	// example when the maximum entries per node is less than 2.
	ErrCapacity = textErr("invalid capacity")
	// ErrClosed is returned when attempting to use an Index which has
	// been closed.
	ErrClosed = textErr("closed")
	// ErrInvalidBox is returned for a box having a NaN coordinate or a
	// minimum greater than its maximum.
	ErrInvalidBox = textErr("invalid box")
	// ErrInvalidK is returned by Nearest when k is not positive.
	ErrInvalidK = textErr("k must be positive")
	// ErrStaleCursor is reported by a Cursor whose Index was mutated,
	// reopened or closed after the Cursor was created.
	ErrStaleCursor = textErr("stale cursor")
	// ErrLocked is returned when opening a file which is already open
	// in another Index.
	ErrLocked = textErr("locked")
)

// DimensionMismatchError is returned when a box or point does not have
// the dimensionality of the index, or when an existing index is opened
// with the wrong dimensionality. It matches ErrCapacity in errors.Is.
//
// The underlying error, if any, can be accessed via errors.Unwrap.
type DimensionMismatchError struct {
	Want  int
	Got   int
	cause error
}

func (err *DimensionMismatchError) Error() string {
	return fmt.Sprintf(packageName+"dimension mismatch: index has %d, got %d", err.Want, err.Got)
}

func (err *DimensionMismatchError) Unwrap() error { return err.cause }

func (err *DimensionMismatchError) Is(target error) bool {
	return target == ErrCapacity
}

var translations = []struct {
	from, to error
}{
	{rtree.ErrNotFound, ErrNotFound},
	{rtree.ErrCorrupt, ErrCorruption},
	{pagestore.ErrCorrupt, ErrCorruption},
	{pagestore.ErrInvalidPage, ErrCorruption},
	{pagestore.ErrFreedPage, ErrCorruption},
	{pagestore.ErrUnsupportedFormat, ErrUnsupportedFormat},
	{rtree.ErrInvalidConfig, ErrCapacity},
	{pagestore.ErrPageSize, ErrCapacity},
	{pagestore.ErrClosed, ErrClosed},
	{pagestore.ErrLocked, ErrLocked},
	{rtree.ErrInvalidBox, ErrInvalidBox},
	{rtree.ErrInvalidK, ErrInvalidK},
	{rtree.ErrStaleCursor, ErrStaleCursor},
}

// translateError maps errors from the rtree and pagestore packages
// onto this package's error values. The original error stays in the
// chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *rtree.DimensionMismatchError
	if errors.As(err, &dm) {
		return &DimensionMismatchError{Want: dm.Want, Got: dm.Got, cause: err}
	}
	for _, t := range translations {
		if errors.Is(err, t.to) {
			return err
		}
		if errors.Is(err, t.from) {
			return fmt.Errorf("%w: %w", t.to, err)
		}
	}
	return err
}

// isFatal reports whether a translated error should move the Index to
// StatusFailed. Caller mistakes are never fatal.
func isFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidBox),
		errors.Is(err, ErrInvalidK),
		errors.Is(err, ErrStaleCursor),
		errors.Is(err, ErrCapacity),
		errors.Is(err, ErrClosed):
		return false
	default:
		return true
	}
}

const packageName = "spatialindex: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...interface{}) error {
	return fmt.Errorf(packageName+format, a...)
}

func wrapErr(text string, err error, a ...interface{}) error {
	return fmt.Errorf(packageName+text+": %w", append(a, err)...)
}

func textPanic(text string) {
	panic(packageName + text)
}

func fmtPanic(format string, a ...interface{}) {
	panic(fmt.Sprintf(packageName+format, a...))
}
