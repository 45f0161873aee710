// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package spatialindex

import "fmt"

// Status is the lifecycle state of an Index.
type Status int

const (
	// StatusClosed is the state of an Index which has been closed.
	StatusClosed Status = iota
	// StatusOpen is the state of a usable Index.
	StatusOpen
	// StatusFailed is the state of an Index after an unrecoverable
	// I/O or corruption error. Every operation returns
	// ErrIndexUnavailable until Reopen succeeds or the Index is
	// closed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusClosed:
		return "closed"
	case StatusOpen:
		return "open"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

type stateful struct {
	status Status
	// err is the cause of the transition to StatusFailed.
	err error
	// epoch is incremented whenever the underlying tree is replaced
	// or released, invalidating outstanding cursors.
	epoch uint64
}

func (s *stateful) sanityCheckStatus() {
	if s.status < StatusClosed || s.status > StatusFailed {
		fmtPanic("logic error: invalid status %d", s.status)
	}
}

// ready returns nil if operations are allowed in the current status,
// and otherwise the error an operation should return.
func (s *stateful) ready() error {
	switch s.status {
	case StatusOpen:
		return nil
	case StatusFailed:
		return fmt.Errorf("%w: %w", ErrIndexUnavailable, s.err)
	case StatusClosed:
		return ErrClosed
	}
	s.sanityCheckStatus()
	return nil
}

func (s *stateful) toOpen() {
	s.sanityCheckStatus()
	s.status = StatusOpen
	s.err = nil
	s.epoch++
}

// toErr moves an open Index to StatusFailed if err is fatal, and
// returns err.
func (s *stateful) toErr(err error) error {
	if s.status == StatusOpen && isFatal(err) {
		s.status = StatusFailed
		s.err = err
	}
	return err
}

// toFailed moves the Index to StatusFailed unconditionally.
func (s *stateful) toFailed(err error) {
	s.sanityCheckStatus()
	s.status = StatusFailed
	s.err = err
	s.epoch++
}

func (s *stateful) toClosed() {
	s.sanityCheckStatus()
	s.status = StatusClosed
	s.epoch++
}
