// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

//go:build !unix

package pagestore

import "os"

// No advisory locking outside Unix; callers must not open the same
// file twice.
func lockFile(_ *os.File) error { return nil }

func unlockFile(_ *os.File) error { return nil }
