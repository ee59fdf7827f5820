// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"gonum.org/v1/gonum/mat"
)

// Matrix is a sparse design matrix stored in CSR layout.
// Row i occupies Val[RowPtr[i]:RowPtr[i+1]] with column indices
// ColIdx[RowPtr[i]:RowPtr[i+1]] in strictly increasing order.
type Matrix struct {
	Rows, Cols int
	RowPtr     []int
	ColIdx     []int
	Val        []float64
}

// Dims returns the row and column count of the matrix.
func (m *Matrix) Dims() (rows, cols int) {
	return m.Rows, m.Cols
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.Val)
}

// MulVec computes y = A𝐱.
func (m *Matrix) MulVec(x, y []float64) {
	if len(x) < m.Cols || len(y) < m.Rows {
		panic("bound check error")
	}
	for i := 0; i < m.Rows; i++ {
		lo, hi := m.RowPtr[i], m.RowPtr[i+1]
		idx, val := m.ColIdx[lo:hi], m.Val[lo:hi]
		sum := 0.0
		for k, j := range idx {
			sum += val[k] * x[j]
		}
		y[i] = sum
	}
}

// MulTransVec computes y = Aᵀ𝐫.
func (m *Matrix) MulTransVec(r, y []float64) {
	if len(r) < m.Rows || len(y) < m.Cols {
		panic("bound check error")
	}
	for j := range y[:m.Cols] {
		y[j] = 0
	}
	for i := 0; i < m.Rows; i++ {
		lo, hi := m.RowPtr[i], m.RowPtr[i+1]
		idx, val := m.ColIdx[lo:hi], m.Val[lo:hi]
		ri := r[i]
		if ri == 0 {
			continue
		}
		for k, j := range idx {
			y[j] += val[k] * ri
		}
	}
}

// Dense expands the matrix into a gonum dense copy.
// Intended for small problems and cross-checks, not for the solve path.
func (m *Matrix) Dense() *mat.Dense {
	d := mat.NewDense(m.Rows, m.Cols, nil)
	for i := 0; i < m.Rows; i++ {
		lo, hi := m.RowPtr[i], m.RowPtr[i+1]
		for k := lo; k < hi; k++ {
			d.Set(i, m.ColIdx[k], m.Val[k])
		}
	}
	return d
}
