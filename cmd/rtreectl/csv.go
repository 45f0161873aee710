// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gogama/spatialindex/rtree"
)

// readEntries reads CSV records of the form id,min...,max... with
// 2*dims coordinates. Blank lines and lines starting with '#' are
// skipped.
func readEntries(r io.Reader, dims int) ([]rtree.Entry, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = 1 + 2*dims
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var entries []rtree.Entry
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		} else if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		id, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id: %w", line, err)
		}
		coords, err := parseCoords(record[1:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		box, err := rtree.NewBox(coords[:dims], coords[dims:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, rtree.Entry{Box: box, ID: id})
	}
}

// formatEntry returns the CSV record read back by readEntries.
func formatEntry(e rtree.Entry) []string {
	record := make([]string, 0, 1+len(e.Min)+len(e.Max))
	record = append(record, strconv.FormatInt(e.ID, 10))
	for _, v := range e.Min {
		record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
	}
	for _, v := range e.Max {
		record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return record
}

// parseBox parses "min...,max..." into a box of the given
// dimensionality, or of half as many dimensions as there are
// coordinates if dims is zero.
func parseBox(s string, dims int) (rtree.Box, error) {
	coords, err := parseFloats(s, 2*dims)
	if err != nil {
		return rtree.Box{}, err
	}
	if len(coords)%2 != 0 {
		return rtree.Box{}, fmt.Errorf("odd number of coordinates (%d)", len(coords))
	}
	dims = len(coords) / 2
	return rtree.NewBox(coords[:dims], coords[dims:])
}

// parseFloats parses exactly n comma-separated numbers, or any
// positive count of them if n is zero.
func parseFloats(s string, n int) ([]float64, error) {
	if s == "" {
		return nil, errors.New("value required")
	}
	fields := strings.Split(s, ",")
	if n > 0 && len(fields) != n {
		return nil, fmt.Errorf("got %d coordinates, want %d", len(fields), n)
	}
	return parseCoords(fields)
}

func parseCoords(fields []string) ([]float64, error) {
	coords := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("bad coordinate %q", field)
		}
		coords[i] = v
	}
	return coords, nil
}
