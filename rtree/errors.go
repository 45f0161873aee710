// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package rtree

import (
	"errors"
	"fmt"

	"github.com/gogama/spatialindex/pagestore"
)

const packageName = "rtree: "

var (
	// ErrNotFound is returned by Delete when no entry matches both
	// the box and the ID given.
	ErrNotFound = textErr("entry not found")
	// ErrCorrupt is wrapped by every CorruptNodeError.
	ErrCorrupt = textErr("corrupt node")
	// ErrInvalidBox is returned for a box having a NaN coordinate or a
	// minimum greater than its maximum.
	ErrInvalidBox = textErr("invalid box")
	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = textErr("invalid configuration")
	// ErrInvalidK is returned by Nearest when k is not positive.
	ErrInvalidK = textErr("k must be positive")
	// ErrStaleCursor is reported by a Cursor whose Tree committed a
	// mutation after the Cursor was created.
	ErrStaleCursor = textErr("tree modified during iteration")
)

// DimensionMismatchError is returned when a box or point does not
// have the dimensionality of the tree.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (err *DimensionMismatchError) Error() string {
	return fmt.Sprintf(packageName+"dimension mismatch: tree has %d, got %d", err.Want, err.Got)
}

// CorruptNodeError is returned when a node page fails validation.
type CorruptNodeError struct {
	Page   pagestore.PageID
	Reason string
}

func (err *CorruptNodeError) Error() string {
	return fmt.Sprintf(packageName+"corrupt node at page %d: %s", err.Page, err.Reason)
}

func (err *CorruptNodeError) Unwrap() error {
	return ErrCorrupt
}

func corruptf(id pagestore.PageID, format string, a ...interface{}) error {
	return &CorruptNodeError{Page: id, Reason: fmt.Sprintf(format, a...)}
}

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
