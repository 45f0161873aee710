// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/gogama/spatialindex"
	"github.com/gogama/spatialindex/flat"
	"github.com/gogama/spatialindex/pagestore"
)

func versionCmd(e *env, args []string) error {
	fs := flag.NewFlagSet("rtreectl version", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return errUsage
	}
	fmt.Fprintf(e.stdout, "File format:     %d\n", pagestore.FormatVersion)
	fmt.Fprintf(e.stdout, "Metadata table:  %d (schema %s)\n", spatialindex.MetaVersion, strings.TrimSpace(flat.Version.MetaSchema))
	fmt.Fprintf(e.stdout, "Snapshot format: %d\n", spatialindex.SnapshotVersion)
	fmt.Fprintf(e.stdout, "flatc:           %s\n", strings.TrimSpace(flat.Version.Flatc))
	fmt.Fprintf(e.stdout, "Go:              %s\n", runtime.Version())
	return nil
}
