// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchmark drives the solver comparison: it wires one
// elastic-net logistic regression model into the proximal-Newton solver
// and the two first-order baselines, collects per-iteration objective
// histories against a shared clock, and renders convergence curves.
package benchmark

import (
	"math"
	"time"
)

// Sample is one point of a convergence history.
type Sample struct {
	Iter    int
	Elapsed time.Duration
	F       float64
}

// Curve is the recorded run of a single solver.
type Curve struct {
	Name      string
	Samples   []Sample
	F         float64 // final objective
	Converged bool
	Status    string
	NumIter   int
	NumEval   int
}

// LastElapsed returns the wall-clock time of the last recorded sample,
// or zero when the solver halted before its first emit.
func (c *Curve) LastElapsed() time.Duration {
	if len(c.Samples) == 0 {
		return 0
	}
	return c.Samples[len(c.Samples)-1].Elapsed
}

// BestObjective returns the smallest final objective across curves.
// The agreement of final objectives across solvers is the empirical
// correctness check of the experiment.
func BestObjective(curves []Curve) float64 {
	best := math.Inf(1)
	for _, c := range curves {
		if c.F < best {
			best = c.F
		}
	}
	return best
}
