// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logitreg

import (
	"math"
	"sort"
)

// Project replaces 𝐱 with its Euclidean projection onto { 𝐱 : ‖𝐱‖₁ ≤ τ }
// using the sort-based algorithm of Duchi et al. (ICML 2008).
// Points already inside the ball are left untouched.
func (m *Model) Project(x []float64) {

	sum := 0.0
	for _, v := range x {
		sum += math.Abs(v)
	}
	if sum <= m.Tau {
		return
	}

	// Find the threshold θ such that ∑ 𝚖𝚊𝚡(|𝐱ᵢ|-θ, 0) = τ.
	mu := make([]float64, len(x))
	for i, v := range x {
		mu[i] = math.Abs(v)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(mu)))

	theta, cum := 0.0, 0.0
	for k, v := range mu {
		cum += v
		t := (cum - m.Tau) / float64(k+1)
		if v-t <= 0 {
			break
		}
		theta = t
	}

	for i, v := range x {
		s := math.Abs(v) - theta
		if s <= 0 {
			x[i] = 0
		} else if v > 0 {
			x[i] = s
		} else {
			x[i] = -s
		}
	}
}

// LMO writes into s the vertex of the L1 ball minimizing ⟨𝐠,𝐬⟩:
// the signed axis vertex -τ·𝚜𝚒𝚐𝚗(𝐠ⱼ)·𝐞ⱼ at the largest |𝐠ⱼ|.
func (m *Model) LMO(g, s []float64) {

	best, arg := 0.0, 0
	for j, v := range g {
		s[j] = 0
		if a := math.Abs(v); a > best {
			best, arg = a, j
		}
	}
	if g[arg] > 0 {
		s[arg] = -m.Tau
	} else {
		s[arg] = m.Tau
	}
}
