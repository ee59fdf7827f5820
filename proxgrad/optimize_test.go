// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proxgrad

import (
	"math"
	"sort"
	"testing"
)

// l1Projection projects onto the ball {‖𝐱‖₁ ≤ τ} by sorting the
// magnitudes and soft-thresholding.
func l1Projection(tau float64) Projection {
	return func(x []float64) {
		sum := 0.0
		for _, v := range x {
			sum += math.Abs(v)
		}
		if sum <= tau {
			return
		}
		u := make([]float64, len(x))
		for i, v := range x {
			u[i] = math.Abs(v)
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(u)))
		cum, theta := 0.0, 0.0
		for i, v := range u {
			cum += v
			if t := (cum - tau) / float64(i+1); v > t {
				theta = t
			}
		}
		for i, v := range x {
			x[i] = math.Copysign(math.Max(math.Abs(v)-theta, 0), v)
		}
	}
}

func distSquare(c []float64) Evaluation {
	return func(x, g []float64) float64 {
		f := 0.0
		for i := range x {
			r := x[i] - c[i]
			f += 0.5 * r * r
			if g != nil {
				g[i] = r
			}
		}
		return f
	}
}

// TestProjectedGradient minimizes ½‖𝐱-𝐜‖² over the unit L1 ball with
// 𝐜 = (2,-1). One exact gradient step lands on the solution (1,0).
func TestProjectedGradient(t *testing.T) {

	p := Problem{
		N:         2,
		Eval:      distSquare([]float64{2, -1}),
		Proj:      l1Projection(1),
		Lipschitz: 1,
		Stop:      Termination{MaxIterations: 100, StepTolerance: 1e-10},
	}

	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	r := o.Fit(make([]float64, 2), o.Init())
	if !r.OK {
		t.Fatalf("not converged: %s", r.Status)
	}
	if math.Abs(r.F-1) > 1e-9 {
		t.Fatalf("f = %v, want 1", r.F)
	}
	if math.Abs(r.X[0]-1) > 1e-9 || math.Abs(r.X[1]) > 1e-9 {
		t.Fatalf("x = %v, want (1,0)", r.X)
	}
}

// TestAcceleration compares FISTA against the plain method on an
// ill-conditioned diagonal quadratic under the same iteration budget.
func TestAcceleration(t *testing.T) {

	n := 20
	diag := make([]float64, n)
	for i := range diag {
		diag[i] = 1 + float64(i*i)*5 // condition number ~1800
	}
	eval := func(x, g []float64) float64 {
		f := 0.0
		for i := range x {
			f += 0.5 * diag[i] * x[i] * x[i]
			if g != nil {
				g[i] = diag[i] * x[i]
			}
		}
		return f
	}
	lip := diag[n-1]

	run := func(accel bool) *Result {
		p := Problem{
			N:           n,
			Eval:        eval,
			Proj:        func(x []float64) {}, // constraint inactive
			Lipschitz:   lip,
			Accelerated: accel,
			Restart:     accel,
			Stop:        Termination{MaxIterations: 100},
		}
		o, err := p.New(nil)
		if err != nil {
			t.Fatal(err)
		}
		x0 := make([]float64, n)
		for i := range x0 {
			x0[i] = 1
		}
		return o.Fit(x0, o.Init())
	}

	ista := run(false)
	fista := run(true)

	if ista.Status != OverIterLimit || fista.Status != OverIterLimit {
		t.Fatalf("expect budget exit, got %s / %s", ista.Status, fista.Status)
	}
	if fista.F >= ista.F {
		t.Fatalf("fista %v not better than ista %v", fista.F, ista.F)
	}
}

// TestBacktracking starts from a severe Lipschitz underestimate and
// checks the search inflates it enough to converge.
func TestBacktracking(t *testing.T) {

	var lastL float64
	p := Problem{
		N: 1,
		Eval: func(x, g []float64) float64 {
			if g != nil {
				g[0] = 4 * x[0]
			}
			return 2 * x[0] * x[0]
		},
		Proj:      func(x []float64) {},
		Lipschitz: 0.5,
		Line:      Backtrack{MaxSteps: 20},
		Stop:      Termination{MaxIterations: 200, StepTolerance: 1e-10},
		Trace:     func(pr Progress) { lastL = pr.L },
	}

	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}

	r := o.Fit([]float64{3}, o.Init())
	if !r.OK {
		t.Fatalf("not converged: %s", r.Status)
	}
	if math.Abs(r.F) > 1e-12 {
		t.Fatalf("f = %v, want 0", r.F)
	}
	if lastL < 4-1e-9 {
		t.Fatalf("lipschitz estimate %v below true constant 4", lastL)
	}
}

func TestRestartMonotone(t *testing.T) {

	var trace []float64
	p := Problem{
		N:           2,
		Eval:        distSquare([]float64{0.4, -0.3}),
		Proj:        l1Projection(1),
		Lipschitz:   1,
		Accelerated: true,
		Restart:     true,
		Stop:        Termination{MaxIterations: 300, StepTolerance: 1e-12},
		Trace:       func(pr Progress) { trace = append(trace, pr.F) },
	}

	o, err := p.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	r := o.Fit([]float64{-1, 0.5}, o.Init())
	if !r.OK {
		t.Fatalf("not converged: %s", r.Status)
	}
	if math.Abs(r.F) > 1e-10 {
		t.Fatalf("f = %v, want 0", r.F)
	}
	for i := 1; i < len(trace); i++ {
		if trace[i] > trace[i-1]+1e-12 {
			t.Fatalf("restart failed to keep descent at %d: %v -> %v", i, trace[i-1], trace[i])
		}
	}
}

func TestProblemValidation(t *testing.T) {

	eval := func(x, g []float64) float64 { return 0 }
	proj := func(x []float64) {}

	base := func() Problem {
		return Problem{
			N: 2, Eval: eval, Proj: proj, Lipschitz: 1,
			Stop: Termination{MaxIterations: 10},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Problem)
	}{
		{"bad dim", func(p *Problem) { p.N = 0 }},
		{"nil eval", func(p *Problem) { p.Eval = nil }},
		{"nil proj", func(p *Problem) { p.Proj = nil }},
		{"bad lip", func(p *Problem) { p.Lipschitz = 0 }},
		{"bad iter", func(p *Problem) { p.Stop.MaxIterations = 0 }},
		{"bad tol", func(p *Problem) { p.Stop.FDiffTolerance = -1 }},
		{"bad line", func(p *Problem) { p.Line = Backtrack{Eta: 0.5, MaxSteps: 5} }},
	}
	for _, c := range cases {
		p := base()
		c.mutate(&p)
		if _, err := p.New(nil); err == nil {
			t.Fatalf("%s: expect validation error", c.name)
		}
	}
}
