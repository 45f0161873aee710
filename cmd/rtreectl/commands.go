// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/gogama/spatialindex"
	"github.com/gogama/spatialindex/rtree"
)

// errUsage reports a command line error already described to the
// user.
var errUsage = errors.New("usage")

// indexFlags are the flags shared by every command which opens an
// index.
type indexFlags struct {
	path    string
	dims    int
	verbose bool
}

// flagSet returns the flags of a command. Commands which never create
// an index default -dims to 0, meaning the dimensionality stored in the
// index file.
func (e *env) flagSet(name string, f *indexFlags, dims int) *flag.FlagSet {
	fs := flag.NewFlagSet("rtreectl "+name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&f.path, "index", "", "index file path (required)")
	usage := "number of dimensions"
	if dims == 0 {
		usage = "number of dimensions (0 for the index's own)"
	}
	fs.IntVar(&f.dims, "dims", dims, usage)
	fs.BoolVar(&f.verbose, "v", false, "log index events to standard error")
	return fs
}

func (e *env) parse(fs *flag.FlagSet, f *indexFlags, args []string) error {
	if err := fs.Parse(args); errors.Is(err, flag.ErrHelp) {
		return err
	} else if err != nil {
		return errUsage
	}
	if f.path == "" {
		fmt.Fprintln(e.stderr, "flag -index is required")
		fs.Usage()
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(e.stderr, "unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return errUsage
	}
	return nil
}

func (f *indexFlags) options(opts ...spatialindex.Option) []spatialindex.Option {
	if f.verbose {
		opts = append(opts, spatialindex.WithLogger(spatialindex.NewTextLogger(slog.LevelDebug)))
	}
	return opts
}

// withIndex opens an existing index file and calls fn with it.
func (f *indexFlags) withIndex(fn func(*spatialindex.Index) error, opts ...spatialindex.Option) error {
	if _, err := os.Stat(f.path); err != nil {
		return err
	}
	return spatialindex.WithIndex(f.path, f.dims, fn, f.options(opts...)...)
}

func infoCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("info", &f, 0)
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	return f.withIndex(func(ix *spatialindex.Index) error {
		info, err := ix.Info()
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "Path:        %s\n", info.Path)
		fmt.Fprintf(e.stdout, "Dimensions:  %d\n", info.Dims)
		fmt.Fprintf(e.stdout, "Entries:     %d\n", info.Len)
		fmt.Fprintf(e.stdout, "Height:      %d\n", info.Height)
		fmt.Fprintf(e.stdout, "Bounds:      %s\n", info.Bounds)
		fmt.Fprintf(e.stdout, "Node fill:   %d..%d\n", info.MinEntries, info.MaxEntries)
		fmt.Fprintf(e.stdout, "Split:       %s\n", info.Split)
		fmt.Fprintf(e.stdout, "Bulk fill:   %g\n", info.BulkFill)
		fmt.Fprintf(e.stdout, "Page size:   %d\n", info.PageSize)
		fmt.Fprintf(e.stdout, "Pages:       %d (%d free)\n", info.Pages.Total, info.Pages.Free)
		return nil
	})
}

func checkCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("check", &f, 0)
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	return f.withIndex(func(ix *spatialindex.Index) error {
		if err := ix.Check(); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "ok: %d entries, height %d\n", ix.Len(), ix.Height())
		return nil
	})
}

func loadCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("load", &f, 2)
	in := fs.String("in", "-", "CSV input file, or - for standard input")
	bulk := fs.Bool("bulk", false, "replace the index contents by bulk loading")
	maxEntries := fs.Int("max-entries", 0, "maximum entries per node for a new index (0 for default)")
	split := fs.String("split", "quadratic", "split policy for a new index: quadratic, linear or rstar")
	pageSize := fs.Int("page-size", 0, "page size in bytes for a new index (0 for default)")
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	kind, err := parseSplit(*split)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return errUsage
	}
	opts := []spatialindex.Option{spatialindex.WithSplitter(kind.Splitter())}
	if *maxEntries > 0 {
		opts = append(opts, spatialindex.WithMaxEntries(*maxEntries))
	}
	if *pageSize > 0 {
		opts = append(opts, spatialindex.WithPageSize(*pageSize))
	}

	r := e.stdin
	if *in != "-" {
		file, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}
	entries, err := readEntries(r, f.dims)
	if err != nil {
		return err
	}

	return spatialindex.WithIndex(f.path, f.dims, func(ix *spatialindex.Index) error {
		if *bulk {
			if err := ix.BulkLoad(entries); err != nil {
				return err
			}
		} else {
			for _, entry := range entries {
				if err := ix.Insert(entry.Box, entry.ID); err != nil {
					return fmt.Errorf("entry %d: %w", entry.ID, err)
				}
			}
		}
		fmt.Fprintf(e.stdout, "loaded %d entries: %d total, height %d\n", len(entries), ix.Len(), ix.Height())
		return nil
	}, f.options(opts...)...)
}

func searchCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("search", &f, 0)
	box := fs.String("box", "", "query box as min...,max... (required)")
	within := fs.Bool("within", false, "list only entries inside the box")
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	region, err := parseBox(*box, f.dims)
	if err != nil {
		fmt.Fprintf(e.stderr, "flag -box: %v\n", err)
		return errUsage
	}
	return f.withIndex(func(ix *spatialindex.Index) error {
		query := ix.Intersection
		if *within {
			query = ix.Within
		}
		c, err := query(region)
		if err != nil {
			return err
		}
		w := csv.NewWriter(e.stdout)
		for entry, err := range c.All() {
			if err != nil {
				return err
			}
			if err = w.Write(formatEntry(entry)); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func nearestCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("nearest", &f, 0)
	point := fs.String("point", "", "query point as comma-separated coordinates (required)")
	k := fs.Int("k", 1, "number of neighbors")
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	p, err := parseFloats(*point, f.dims)
	if err != nil {
		fmt.Fprintf(e.stderr, "flag -point: %v\n", err)
		return errUsage
	}
	return f.withIndex(func(ix *spatialindex.Index) error {
		neighbors, err := ix.Nearest(p, *k)
		if err != nil {
			return err
		}
		w := csv.NewWriter(e.stdout)
		for _, n := range neighbors {
			record := append(formatEntry(n.Entry), strconv.FormatFloat(n.Distance, 'g', -1, 64))
			if err = w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

func snapshotCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("snapshot", &f, 0)
	out := fs.String("out", "", "snapshot output file, or - for standard output (required)")
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	if *out == "" {
		fmt.Fprintln(e.stderr, "flag -out is required")
		return errUsage
	}
	return f.withIndex(func(ix *spatialindex.Index) error {
		if *out == "-" {
			return ix.WriteSnapshot(e.stdout)
		}
		file, err := os.Create(*out)
		if err != nil {
			return err
		}
		if err = ix.WriteSnapshot(file); err != nil {
			_ = file.Close()
			return err
		}
		return file.Close()
	})
}

func restoreCmd(e *env, args []string) error {
	var f indexFlags
	fs := e.flagSet("restore", &f, 0)
	in := fs.String("in", "-", "snapshot input file, or - for standard input")
	overwrite := fs.Bool("overwrite", false, "replace an existing index file")
	if err := e.parse(fs, &f, args); err != nil {
		return err
	}
	var r io.Reader = e.stdin
	if *in != "-" {
		file, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}
	ix, err := spatialindex.ReadSnapshot(r, f.path, f.options(spatialindex.WithOverwrite(*overwrite))...)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "restored %d entries, height %d\n", ix.Len(), ix.Height())
	return ix.Close()
}

func parseSplit(s string) (rtree.SplitKind, error) {
	for _, kind := range []rtree.SplitKind{rtree.Quadratic, rtree.Linear, rtree.RStar} {
		if kind.String() == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown split policy %q", s)
}
