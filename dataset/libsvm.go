// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Parse reads a two-class dataset in LIBSVM text format:
//
//	<label> <index>:<value> <index>:<value> ...
//
// Indices are 1-based and must be strictly increasing within a line.
// Labels are normalized to ±1: positive labels map to +1, everything
// else (including the 0 of 0/1 encoded sets) maps to -1.
// The column count is inferred from the largest index seen.
func Parse(r io.Reader) (*Matrix, []float64, error) {

	m := &Matrix{RowPtr: []int{0}}
	var labels []float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<24)

	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		label, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "libsvm: bad label at line %d", line)
		}
		if label > 0 {
			labels = append(labels, 1)
		} else {
			labels = append(labels, -1)
		}

		prev := 0
		for _, f := range fields[1:] {
			sep := strings.IndexByte(f, ':')
			if sep <= 0 {
				return nil, nil, errors.Errorf("libsvm: malformed feature %q at line %d", f, line)
			}
			idx, err := strconv.Atoi(f[:sep])
			if err != nil {
				return nil, nil, errors.Wrapf(err, "libsvm: bad index at line %d", line)
			}
			if idx <= prev {
				return nil, nil, errors.Errorf("libsvm: index %d not increasing at line %d", idx, line)
			}
			val, err := strconv.ParseFloat(f[sep+1:], 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "libsvm: bad value at line %d", line)
			}
			prev = idx
			if idx > m.Cols {
				m.Cols = idx
			}
			m.ColIdx = append(m.ColIdx, idx-1)
			m.Val = append(m.Val, val)
		}

		m.Rows++
		m.RowPtr = append(m.RowPtr, len(m.Val))
	}

	if err := sc.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "libsvm: read")
	}
	if m.Rows == 0 {
		return nil, nil, errors.New("libsvm: empty dataset")
	}
	return m, labels, nil
}

// Load parses a LIBSVM file from disk.
func Load(path string) (*Matrix, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "libsvm: open")
	}
	defer f.Close()
	return Parse(f)
}
