// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmark

import (
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/curioloop/sparselogit/fwpn"
	"github.com/curioloop/sparselogit/logitreg"
	"github.com/curioloop/sparselogit/proxgrad"
)

// Solver names accepted by Options.Solvers.
const (
	SolverFWPN  = "fwpn"
	SolverPG    = "pg"
	SolverFISTA = "fista"
)

// Options bound the solver runs. Zero values select the defaults.
type Options struct {
	Solvers       []string // subset of {fwpn, pg, fista}; nil runs all three
	MaxIterations int      // outer iteration budget per solver (default 200)
	SubIterations int      // inner Frank-Wolfe budget per outer iteration (default 200)
	Tolerance     float64  // step tolerance; 0 runs the full budget
	PowerIters    int      // power iterations for the Lipschitz estimate (default 50)
	Verbose       bool     // print the solver exit summaries to stdout
}

func (o *Options) defaults() {
	if len(o.Solvers) == 0 {
		o.Solvers = []string{SolverFWPN, SolverPG, SolverFISTA}
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 200
	}
	if o.SubIterations == 0 {
		o.SubIterations = 200
	}
	if o.PowerIters == 0 {
		o.PowerIters = 50
	}
}

// Run executes the selected solvers sequentially from a common feasible
// starting point and returns one convergence curve per solver.
func Run(model *logitreg.Model, x0 []float64, opts Options) ([]Curve, error) {

	opts.defaults()

	start := slices.Clone(x0)
	model.Project(start)

	lip := model.Lipschitz(opts.PowerIters)
	_, n := model.A.Dims()

	curves := make([]Curve, 0, len(opts.Solvers))
	for _, name := range opts.Solvers {

		curve := Curve{Name: name}
		clock := time.Now()
		record := func(iter int, f float64) {
			curve.Samples = append(curve.Samples, Sample{Iter: iter, Elapsed: time.Since(clock), F: f})
		}

		switch name {
		case SolverFWPN:
			p := fwpn.Problem{
				N:    n,
				Eval: model.Eval,
				Hess: func(x []float64) fwpn.HessProd { return model.Hessian(x) },
				LMO:  model.LMO,
				Stop: fwpn.Termination{
					MaxIterations:      opts.MaxIterations,
					StepTolerance:      opts.Tolerance,
					DecrementTolerance: opts.Tolerance,
				},
				Sub:   fwpn.SubProblem{MaxIterations: opts.SubIterations},
				Trace: func(p fwpn.Progress) { record(p.Iter, p.F) },
			}
			var pnLog *fwpn.Logger
			if opts.Verbose {
				pnLog = &fwpn.Logger{Level: fwpn.LogLast}
			}
			opt, err := p.New(pnLog)
			if err != nil {
				return nil, errors.Wrapf(err, "benchmark: build %s", name)
			}
			clock = time.Now()
			res := opt.Fit(start, opt.Init())
			curve.F, curve.Converged = res.F, res.OK
			curve.Status = res.Status.String()
			curve.NumIter, curve.NumEval = res.NumIter, res.NumEval

		case SolverPG, SolverFISTA:
			p := proxgrad.Problem{
				N:           n,
				Eval:        model.Eval,
				Proj:        model.Project,
				Lipschitz:   lip,
				Accelerated: name == SolverFISTA,
				Restart:     true,
				Line:        proxgrad.Backtrack{MaxSteps: 20},
				Stop: proxgrad.Termination{
					MaxIterations: opts.MaxIterations,
					StepTolerance: opts.Tolerance,
				},
				Trace: func(p proxgrad.Progress) { record(p.Iter, p.F) },
			}
			var pgLog *proxgrad.Logger
			if opts.Verbose {
				pgLog = &proxgrad.Logger{Level: proxgrad.LogLast}
			}
			opt, err := p.New(pgLog)
			if err != nil {
				return nil, errors.Wrapf(err, "benchmark: build %s", name)
			}
			clock = time.Now()
			res := opt.Fit(start, opt.Init())
			curve.F, curve.Converged = res.F, res.OK
			curve.Status = res.Status.String()
			curve.NumIter, curve.NumEval = res.NumIter, res.NumEval

		default:
			return nil, errors.Errorf("benchmark: unknown solver %q", name)
		}

		curves = append(curves, curve)
	}
	return curves, nil
}
