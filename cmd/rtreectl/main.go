// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command rtreectl inspects, loads and queries persistent spatial
// index files.
//
// Usage:
//
//	rtreectl <command> [flags]
//
// Run "rtreectl help" for the list of commands.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type command struct {
	name  string
	usage string
	run   func(e *env, args []string) error
}

var commands = []command{
	{"info", "describe an index", infoCmd},
	{"check", "verify index structure", checkCmd},
	{"load", "add CSV entries to an index", loadCmd},
	{"search", "list entries intersecting or within a box", searchCmd},
	{"nearest", "list the entries nearest a point", nearestCmd},
	{"snapshot", "write a compressed snapshot of an index", snapshotCmd},
	{"restore", "create an index from a snapshot", restoreCmd},
	{"version", "print format and build versions", versionCmd},
}

// env holds the standard streams of one invocation.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// run executes the command line args, which exclude the program name,
// and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}
	switch args[0] {
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return 0
	}
	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(e, args[1:]); errors.Is(err, flag.ErrHelp) {
			return 0
		} else if errors.Is(err, errUsage) {
			return 2
		} else if err != nil {
			fmt.Fprintf(stderr, "rtreectl %s: %v\n", c.name, err)
			return 1
		}
		return 0
	}
	fmt.Fprintf(stderr, "rtreectl: unknown command %q\n", args[0])
	fmt.Fprintln(stderr, "Run 'rtreectl help' for usage.")
	return 2
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rtreectl <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-9s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'rtreectl <command> -h' for command flags.")
}
