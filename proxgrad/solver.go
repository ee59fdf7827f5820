// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package proxgrad

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type pgSolver struct {
	optimizer *Optimizer
	workspace *Workspace
	location  *pgLoc
}

// evalAt evaluates f (and g when non-nil) at x,
// converting a callback panic into a halt.
func (s *pgSolver) evalAt(x, g []float64) (f float64, ok bool) {
	spec, ctx := &s.optimizer.pgSpec, &s.workspace.pgCtx
	ok = true
	func() {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		f = spec.eval(x, g)
		ctx.totalEval++
	}()
	return
}

func (s *pgSolver) projAt(x []float64) (ok bool) {
	spec := &s.optimizer.pgSpec
	ok = true
	func() {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		spec.proj(x)
	}()
	return
}

func (s *pgSolver) emit() {
	spec, ctx, loc := &s.optimizer.pgSpec, &s.workspace.pgCtx, s.location
	if spec.trace == nil {
		return
	}
	spec.trace(Progress{
		Iter:     ctx.iter,
		NumEval:  ctx.totalEval,
		F:        loc.f,
		StepNorm: ctx.stepNorm,
		L:        ctx.lip,
	})
}

func (s *pgSolver) mainLoop() (task pgTask) {

	loc := s.location
	ctx := &s.workspace.pgCtx
	spec := &s.optimizer.pgSpec

	log := &spec.logger
	ctx.clear(spec)

	task = pgLoop
	if !s.projAt(loc.x) {
		return HaltEvalPanic
	}

	// Calculate f₀ at the projected start
	f0, ok := s.evalAt(loc.x, nil)
	if !ok {
		return HaltEvalPanic
	}
	loc.f = f0
	copy(ctx.v, loc.x)

	if log.enable(LogLast) {
		if spec.accel {
			log.log("RUNNING THE FISTA CODE\n")
		} else {
			log.log("RUNNING THE PROXIMAL GRADIENT CODE\n")
		}
		log.log("N = %d    L = %.5e\n", spec.n, ctx.lip)
		log.log("At iterate %5d    f= %12.5e\n", 0, loc.f)
	}
	s.emit()

	for task == pgLoop {

		if ctx.iter++; ctx.iter > spec.stop.MaxIterations {
			ctx.iter--
			task = OverIterLimit
			break
		}

		fv, ok := s.evalAt(ctx.v, ctx.g)
		if !ok {
			task = HaltEvalPanic
			break
		}

		// Proximal step from the extrapolation point,
		// inflating L until the quadratic upper bound holds.
		var ft float64
		for steps := 0; ; steps++ {
			floats.AddScaledTo(ctx.xt, ctx.v, -1/ctx.lip, ctx.g)
			if !s.projAt(ctx.xt) {
				task = HaltEvalPanic
				break
			}
			if ft, ok = s.evalAt(ctx.xt, nil); !ok {
				task = HaltEvalPanic
				break
			}
			if spec.line.MaxSteps == 0 {
				break
			}
			floats.SubTo(ctx.dx, ctx.xt, ctx.v)
			bound := fv + floats.Dot(ctx.g, ctx.dx) + 0.5*ctx.lip*floats.Dot(ctx.dx, ctx.dx)
			if ft <= bound+1e-12*math.Abs(bound) {
				break
			}
			if steps >= spec.line.MaxSteps {
				task = StopLineSearch
				break
			}
			ctx.lip *= spec.line.Eta
		}
		if task != pgLoop {
			break
		}

		floats.SubTo(ctx.dx, ctx.xt, loc.x)
		ctx.stepNorm = floats.Norm(ctx.dx, 2)

		if spec.accel {
			if spec.rstart && ft > loc.f {
				// Adaptive restart: drop the momentum that overshot.
				ctx.momentum = 1
				copy(ctx.v, ctx.xt)
			} else {
				next := (1 + math.Sqrt(1+4*ctx.momentum*ctx.momentum)) / 2
				floats.AddScaledTo(ctx.v, ctx.xt, (ctx.momentum-1)/next, ctx.dx)
				ctx.momentum = next
			}
		} else {
			copy(ctx.v, ctx.xt)
		}

		ctx.fOld = loc.f
		loc.f = ft
		copy(loc.x, ctx.xt)

		if log.enable(LogEval) && ctx.iter%int(log.Level) == 0 {
			log.log("At iterate %5d    f= %12.5e    |dx|= %9.2e    L= %9.2e\n",
				ctx.iter, loc.f, ctx.stepNorm, ctx.lip)
		}
		s.emit()

		switch {
		case spec.stop.FDiffTolerance > 0 &&
			math.Abs(loc.f-ctx.fOld) <= spec.stop.FDiffTolerance*math.Max(1, math.Abs(loc.f)):
			task = ConvFDiff
		case spec.stop.StepTolerance > 0 && ctx.stepNorm <= spec.stop.StepTolerance:
			task = ConvStepNorm
		case ctx.totalEval >= spec.stop.MaxEvaluations:
			task = OverEvalLimit
		}
	}

	if log.enable(LogLast) {
		log.log("\n   N    Tit    Tnf       F\n")
		log.log("%5d %6d %6d %12.5e\n", spec.n, ctx.iter, ctx.totalEval, loc.f)
		log.log("\n%s\n", task)
	}
	return
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}
