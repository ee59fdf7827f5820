// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwpn

import (
	"math"
	"testing"
)

// l1Oracle returns the LMO of the ball {‖𝐬‖₁ ≤ τ}: a signed vertex
// at the coordinate of the largest gradient magnitude.
func l1Oracle(tau float64) LinOracle {
	return func(g, s []float64) {
		best, idx := 0.0, 0
		for i, v := range g {
			s[i] = 0
			if a := math.Abs(v); a > best {
				best, idx = a, i
			}
		}
		s[idx] = -tau * math.Copysign(1, g[idx])
	}
}

// TestQuadraticOverBall minimizes ½‖𝐱-𝐜‖² over the unit L1 ball.
// The unconstrained optimum c = (2,-1,0,0,0) lies outside, so the
// solution is the ball vertex (1,0,0,0,0) with value 1.
func TestQuadraticOverBall(t *testing.T) {

	c := []float64{2, -1, 0, 0, 0}
	n := len(c)

	p := Problem{
		N: n,
		Eval: func(x, g []float64) float64 {
			f := 0.0
			for i := range x {
				r := x[i] - c[i]
				f += 0.5 * r * r
				if g != nil {
					g[i] = r
				}
			}
			return f
		},
		Hess: func(x []float64) HessProd {
			return func(v, hv []float64) { copy(hv, v) }
		},
		LMO: l1Oracle(1),
		Stop: Termination{
			MaxIterations:      100,
			StepTolerance:      1e-10,
			DecrementTolerance: 1e-9,
		},
	}

	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	r := o.Fit(make([]float64, n), o.Init())
	if !r.OK {
		t.Fatalf("not converged: %s", r.Status)
	}
	if math.Abs(r.F-1) > 1e-6 {
		t.Fatalf("f = %v, want 1", r.F)
	}
	want := []float64{1, 0, 0, 0, 0}
	for i := range want {
		if math.Abs(r.X[i]-want[i]) > 1e-4 {
			t.Fatalf("x[%d] = %v, want %v", i, r.X[i], want[i])
		}
	}
	if r.NumIter == 0 || r.NumEval == 0 {
		t.Fatalf("empty summary: %+v", r.Summary)
	}
}

// TestLogisticDescent runs the solver on a tiny dense logistic loss and
// checks that traced objectives never increase and the iterates stay
// inside the ball.
func TestLogisticDescent(t *testing.T) {

	a := [][]float64{
		{1.0, -0.5, 0.2},
		{-0.3, 0.8, -1.0},
		{0.6, 0.1, 0.4},
		{-1.2, -0.7, 0.9},
		{0.2, 1.5, -0.3},
		{-0.8, 0.4, 0.7},
	}
	y := []float64{1, -1, 1, -1, 1, -1}
	const rho, tau = 0.1, 1.5
	m, n := len(a), len(a[0])

	eval := func(x, g []float64) float64 {
		if g != nil {
			for i := range g {
				g[i] = rho * x[i]
			}
		}
		f := 0.0
		for i := range a {
			z := 0.0
			for j := range x {
				z += a[i][j] * x[j]
			}
			z *= y[i]
			f += math.Log1p(math.Exp(-z)) / float64(m)
			if g != nil {
				sig := 1 / (1 + math.Exp(z))
				for j := range x {
					g[j] -= sig * y[i] * a[i][j] / float64(m)
				}
			}
		}
		for _, v := range x {
			f += 0.5 * rho * v * v
		}
		return f
	}

	hess := func(x []float64) HessProd {
		wts := make([]float64, m)
		for i := range a {
			z := 0.0
			for j := range x {
				z += a[i][j] * x[j]
			}
			sig := 1 / (1 + math.Exp(-y[i]*z))
			wts[i] = sig * (1 - sig) / float64(m)
		}
		return func(v, hv []float64) {
			for j := range hv {
				hv[j] = rho * v[j]
			}
			for i := range a {
				av := 0.0
				for j := range v {
					av += a[i][j] * v[j]
				}
				for j := range hv {
					hv[j] += wts[i] * av * a[i][j]
				}
			}
		}
	}

	var trace []float64
	p := Problem{
		N:     n,
		Eval:  eval,
		Hess:  hess,
		LMO:   l1Oracle(tau),
		Stop:  Termination{MaxIterations: 50, DecrementTolerance: 1e-8},
		Trace: func(pr Progress) { trace = append(trace, pr.F) },
	}

	o, err := p.New(&Logger{Level: LogNoop})
	if err != nil {
		t.Fatal(err)
	}

	r := o.Fit(make([]float64, n), o.Init())
	if !r.OK && r.Status != OverIterLimit {
		t.Fatalf("abnormal exit: %s", r.Status)
	}
	if len(trace) < 2 || r.F >= trace[0] {
		t.Fatalf("no progress: f %v from %v", r.F, trace[0])
	}

	for i := 1; i < len(trace); i++ {
		if trace[i] > trace[i-1]+1e-12 {
			t.Fatalf("objective increased at sample %d: %v -> %v", i, trace[i-1], trace[i])
		}
	}
	sum := 0.0
	for _, v := range r.X {
		sum += math.Abs(v)
	}
	if sum > tau+1e-9 {
		t.Fatalf("solution infeasible: ‖x‖₁ = %v", sum)
	}
}

// TestInexactSubproblemRefinement starts the tolerance schedule above
// the initial Frank-Wolfe gap, so the first subproblem returns the zero
// step with decrement 0 at a point far from the solution. The solver
// must tighten the schedule and keep going instead of reporting
// convergence at the starting objective.
func TestInexactSubproblemRefinement(t *testing.T) {

	c := []float64{2, -1, 0, 0, 0}
	n := len(c)

	p := Problem{
		N: n,
		Eval: func(x, g []float64) float64 {
			f := 0.0
			for i := range x {
				r := x[i] - c[i]
				f += 0.5 * r * r
				if g != nil {
					g[i] = r
				}
			}
			return f
		},
		Hess: func(x []float64) HessProd {
			return func(v, hv []float64) { copy(hv, v) }
		},
		LMO: l1Oracle(1),
		Sub: SubProblem{InitTolerance: 10}, // above the starting gap of 2
		Stop: Termination{
			MaxIterations:      100,
			StepTolerance:      1e-10,
			DecrementTolerance: 1e-9,
		},
	}

	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	r := o.Fit(make([]float64, n), o.Init())
	if !r.OK {
		t.Fatalf("not converged: %s", r.Status)
	}
	if math.Abs(r.F-1) > 1e-6 {
		t.Fatalf("f = %v, want 1 (stopped on a coarse model)", r.F)
	}
	if math.Abs(r.X[0]-1) > 1e-4 {
		t.Fatalf("x[0] = %v, want 1", r.X[0])
	}
	if r.NumIter < 2 {
		t.Fatalf("exited after %d iterations", r.NumIter)
	}
}

func TestWorkspaceReuse(t *testing.T) {

	c := []float64{0.3, -0.2}
	p := Problem{
		N: 2,
		Eval: func(x, g []float64) float64 {
			f := 0.0
			for i := range x {
				r := x[i] - c[i]
				f += 0.5 * r * r
				if g != nil {
					g[i] = r
				}
			}
			return f
		},
		Hess: func(x []float64) HessProd {
			return func(v, hv []float64) { copy(hv, v) }
		},
		LMO:  l1Oracle(1),
		Stop: Termination{MaxIterations: 100, DecrementTolerance: 1e-10},
	}

	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	w := o.Init()
	r1 := o.Fit(make([]float64, 2), w)
	r2 := o.Fit(make([]float64, 2), w)
	if !r1.OK || !r2.OK {
		t.Fatalf("reuse failed: %s / %s", r1.Status, r2.Status)
	}
	if math.Abs(r1.F-r2.F) > 1e-12 {
		t.Fatalf("reuse changed result: %v vs %v", r1.F, r2.F)
	}
}

func TestProblemValidation(t *testing.T) {

	eval := func(x, g []float64) float64 { return 0 }
	hess := func(x []float64) HessProd { return func(v, hv []float64) {} }
	lmo := func(g, s []float64) {}

	base := func() Problem {
		return Problem{
			N: 2, Eval: eval, Hess: hess, LMO: lmo,
			Stop: Termination{MaxIterations: 10},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Problem)
	}{
		{"bad dim", func(p *Problem) { p.N = 0 }},
		{"nil eval", func(p *Problem) { p.Eval = nil }},
		{"nil hess", func(p *Problem) { p.Hess = nil }},
		{"nil lmo", func(p *Problem) { p.LMO = nil }},
		{"bad iter", func(p *Problem) { p.Stop.MaxIterations = -1 }},
		{"bad stop tol", func(p *Problem) { p.Stop.StepTolerance = -1 }},
		{"bad sub tol", func(p *Problem) { p.Sub.InitTolerance = 1e-12; p.Sub.MinTolerance = 1e-6 }},
		{"bad shrink", func(p *Problem) { p.Sub.ShrinkFactor = 2 }},
		{"bad trust", func(p *Problem) { p.Trust.Init = 2 }},
		{"bad expand", func(p *Problem) { p.Trust.Expand = 0.5 }},
		{"bad floor", func(p *Problem) { p.Trust.Floor = 2 }},
	}
	for _, c := range cases {
		p := base()
		c.mutate(&p)
		if _, err := p.New(nil); err == nil {
			t.Fatalf("%s: expect validation error", c.name)
		}
	}
}
