// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dataset

import (
	"math"
	"math/rand"
	"sort"
)

// Synthetic generates a random sparse two-class problem with a planted
// sparse weight vector. Roughly density×cols entries are stored per row
// (at least one) and labels follow the logistic model of the planted
// weights, so the dataset is separable up to label noise.
func Synthetic(rows, cols int, density float64, seed int64) (*Matrix, []float64) {

	if rows <= 0 || cols <= 0 {
		panic("synthetic dims must be positive")
	}
	density = math.Min(math.Max(density, 0), 1)

	rng := rand.New(rand.NewSource(seed))

	// Planted weights: ~10% of coordinates active.
	truth := make([]float64, cols)
	active := max(1, cols/10)
	for _, j := range rng.Perm(cols)[:active] {
		truth[j] = rng.NormFloat64() * 2
	}

	nnz := max(1, int(density*float64(cols)))
	m := &Matrix{
		Rows: rows, Cols: cols,
		RowPtr: make([]int, 1, rows+1),
	}
	labels := make([]float64, rows)

	for i := 0; i < rows; i++ {
		idx := rng.Perm(cols)[:nnz]
		sort.Ints(idx)
		margin := 0.0
		for _, j := range idx {
			v := rng.NormFloat64()
			m.ColIdx = append(m.ColIdx, j)
			m.Val = append(m.Val, v)
			margin += v * truth[j]
		}
		m.RowPtr = append(m.RowPtr, len(m.Val))
		if rng.Float64() < 1/(1+math.Exp(-margin)) {
			labels[i] = 1
		} else {
			labels[i] = -1
		}
	}
	return m, labels
}
