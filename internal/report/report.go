// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package report prints dispatch results as a fixed-width console table.
package report

import (
	"bufio"
	"fmt"
	"io"
)

// Column widths.
const (
	LabelWidth = 12
	ValueWidth = 10
)

// Row labels.
const (
	LabelA   = "Array A: "
	LabelB   = "Array B: "
	LabelSum = "In common: "
)

// Row is one labelled line of values.
type Row struct {
	Label  string
	Values []uint32
}

// Write prints each row as the label right-aligned in LabelWidth columns
// followed by every value right-aligned in ValueWidth columns and a space.
// Each row ends with a newline.
func Write(w io.Writer, rows ...Row) error {
	bw := bufio.NewWriter(w)
	for _, r := range rows {
		fmt.Fprintf(bw, "%*s", LabelWidth, r.Label)
		for _, v := range r.Values {
			fmt.Fprintf(bw, "%*d ", ValueWidth, v)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Arrays prints the two inputs and their element-wise sum.
func Arrays(w io.Writer, a, b, sum []uint32) error {
	return Write(w,
		Row{Label: LabelA, Values: a},
		Row{Label: LabelB, Values: b},
		Row{Label: LabelSum, Values: sum},
	)
}
