// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package pagestore

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when attempting to use a Store which has
	// been closed.
	ErrClosed = textErr("closed")
	// ErrCorrupt is returned when a header or free-list page fails
	// validation.
	ErrCorrupt = textErr("corrupt page store")
	// ErrUnsupportedFormat is returned when opening a file written in
	// a format version this package cannot read.
	ErrUnsupportedFormat = textErr("unsupported format version")
	// ErrLocked is returned when a file store is already held open by
	// another handle.
	ErrLocked = textErr("file is locked by another handle")
	// ErrInvalidPage is returned when a page identifier does not name
	// an allocated page.
	ErrInvalidPage = textErr("invalid page id")
	// ErrFreedPage is returned when reading, writing or freeing a page
	// which is currently free.
	ErrFreedPage = textErr("page is free")
	// ErrPageSize is returned for an unusable page size or a buffer
	// whose length differs from the page size.
	ErrPageSize = textErr("invalid page size")
)

const packageName = "pagestore: "

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...interface{}) error {
	return fmt.Errorf(packageName+format, a...)
}

func wrapErr(text string, err error, a ...interface{}) error {
	return fmt.Errorf(packageName+text+": %w", append(a, err)...)
}
