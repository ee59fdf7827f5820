// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwpn

import (
	"fmt"
	"math"
)

// sufficient decrease slope for the Armijo acceptance test
const sufficientDecrease = 1.0e-3

// pnSolver solves the composite problem
//
//	minimize 𝒇(𝐱) + δ_C(𝐱)
//
// where 𝒇 is smooth convex and δ_C is the indicator of a compact convex
// set C reachable only through its linear minimization oracle (LMO).
//
// # Outer loop
//
// At the iterate 𝐱ᵏ the smooth part is replaced by its quadratic
// Newton-type model
//
//	Qₖ(𝐳) = ⟨𝐠ᵏ, 𝐳-𝐱ᵏ⟩ + ½⟨𝐳-𝐱ᵏ, 𝐇ᵏ(𝐳-𝐱ᵏ)⟩   (𝐠ᵏ = ∇𝒇(𝐱ᵏ), 𝐇ᵏ = ∇²𝒇(𝐱ᵏ))
//
// and the subproblem 𝚖𝚒𝚗 Qₖ(𝐳) over 𝐳 ∈ C is solved approximately by the
// inner Frank-Wolfe loop up to the scheduled tolerance 𝚝𝚘𝚕ₖ. The inner
// solution yields the step 𝐝ᵏ = 𝐳ᵏ - 𝐱ᵏ and the proximal-Newton decrement
//
//	λₖ = √(𝐝ᵏᵀ𝐇ᵏ𝐝ᵏ)
//
// which measures proximity to the solution the way the Newton decrement
// does for unconstrained problems.
//
// # Step acceptance
//
// The damped step length is controlled by a trust parameter β ∈ (0,1]:
//
//	ɑ = 𝚖𝚒𝚗(1, β/(β+λₖ))    𝐱ᵏ⁺¹ = 𝐱ᵏ + ɑ𝐝ᵏ
//
// A trial point is accepted when it satisfies the sufficient decrease
// condition 𝒇(𝐱ᵏ+ɑ𝐝ᵏ) ≤ 𝒇(𝐱ᵏ) + η·ɑ·⟨𝐠ᵏ,𝐝ᵏ⟩ (η = 10⁻³). Acceptance
// expands β toward 1, recovering the full proximal-Newton step near the
// solution; rejection shrinks β (hence ɑ) and retries the same direction
// without re-solving the subproblem. The outer loop stops when the trust
// parameter collapses below its floor, when the accepted step or the
// decrement falls under its tolerance, or when a budget is exhausted.
// A budget stop still reports the best iterate found.
//
// A small decrement or step alone proves nothing while the subproblem is
// solved coarsely: an early iterate whose initial gap sits under the
// scheduled 𝚝𝚘𝚕ₖ yields the zero step with λ = 0 far from the solution.
// A convergence claim is therefore accepted only when the final
// Frank-Wolfe gap certifies it at the requested accuracy; otherwise the
// schedule is tightened and the subproblem re-solved.
//
// Since ɑ ≤ 1 and 𝐳ᵏ ∈ C, every iterate is a convex combination of
// feasible points: the loop maintains feasibility but never projects.
//
// # Reference
//
// D. Liu, V. Cevher, Q. Tran-Dinh:
// "A Newton Frank-Wolfe method for constrained self-concordant minimization".
// arXiv:2002.07003, 2020
type pnSolver struct {
	optimizer *Optimizer
	workspace *Workspace
	location  *pnLoc
}

// evalLoc evaluates f and g at the current iterate,
// converting a callback panic into a halt status.
func (s *pnSolver) evalLoc(task pnTask) pnTask {
	spec, ctx, loc := &s.optimizer.pnSpec, &s.workspace.pnCtx, s.location
	func() {
		defer func() {
			if r := recover(); r != nil {
				task = HaltEvalPanic
			}
		}()
		loc.f = spec.eval(loc.x, loc.g)
		ctx.totalEval++
	}()
	return task
}

// evalTrial evaluates f and g at the trial point ctx.xt.
func (s *pnSolver) evalTrial() (ft float64, ok bool) {
	spec, ctx := &s.optimizer.pnSpec, &s.workspace.pnCtx
	ok = true
	func() {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		ft = spec.eval(ctx.xt, ctx.gt)
		ctx.totalEval++
	}()
	return
}

// certified reports whether the final subproblem gap backs a
// convergence claim at the given tolerance. The gap bounds the model
// suboptimality, which scales with the squared decrement.
func (s *pnSolver) certified(tol float64) bool {
	spec, ctx := &s.optimizer.pnSpec, &s.workspace.pnCtx
	return ctx.gap <= math.Max(tol*tol, spec.sub.MinTolerance)
}

// refine tightens the subproblem tolerance schedule one notch,
// reporting false once the floor is reached.
func (s *pnSolver) refine() bool {
	spec, ctx := &s.optimizer.pnSpec, &s.workspace.pnCtx
	if ctx.tol <= spec.sub.MinTolerance {
		return false
	}
	ctx.tol = math.Max(spec.sub.MinTolerance, ctx.tol*spec.sub.ShrinkFactor)
	return true
}

// hessLoc builds the curvature operator at the current iterate.
func (s *pnSolver) hessLoc() (h HessProd, ok bool) {
	spec, loc := &s.optimizer.pnSpec, s.location
	ok = true
	func() {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		h = spec.hess(loc.x)
	}()
	return h, ok && h != nil
}

func (s *pnSolver) emit() {
	spec, ctx, loc := &s.optimizer.pnSpec, &s.workspace.pnCtx, s.location
	if spec.trace == nil {
		return
	}
	spec.trace(Progress{
		Iter:      ctx.iter,
		NumEval:   ctx.totalEval,
		NumSub:    ctx.totalSub,
		F:         loc.f,
		Decrement: ctx.decrement,
		Gap:       ctx.gap,
		Step:      ctx.alpha,
		Trust:     ctx.beta,
	})
}

func (s *pnSolver) mainLoop() (task pnTask) {

	loc := s.location
	ctx := &s.workspace.pnCtx
	spec := &s.optimizer.pnSpec

	n, log := spec.n, &spec.logger
	ctx.clear(spec)

	// Calculate f₀ and g₀
	if task = s.evalLoc(pnLoop); task != pnLoop {
		s.printExit(task)
		return
	}

	if log.enable(LogLast) {
		log.log("RUNNING THE PROXIMAL-NEWTON FRANK-WOLFE CODE\n")
		log.log("N = %d\n", n)
		log.log("At iterate %5d    f= %12.5e\n", 0, loc.f)
	}
	s.emit()

	for task == pnLoop {

		if ctx.iter++; ctx.iter > spec.stop.MaxIterations {
			ctx.iter--
			task = OverIterLimit
			break
		}

		hess, ok := s.hessLoc()
		if !ok {
			task = HaltEvalPanic
			break
		}

		// Solve the quadratic model over C up to 𝚝𝚘𝚕ₖ.
		sub := frankWolfe(loc, spec, ctx, hess)
		ctx.totalSub += sub

		ctx.decrement = math.Sqrt(math.Max(ddot(n, ctx.d, ctx.hd), zero))
		ctx.dNorm = dnrm2(n, ctx.d)
		gd := ddot(n, loc.g, ctx.d)

		if spec.stop.DecrementTolerance > zero && ctx.decrement <= spec.stop.DecrementTolerance {
			if s.certified(spec.stop.DecrementTolerance) || !s.refine() {
				task = ConvDecrement
				break
			}
			continue // re-solve under the tightened schedule
		}
		if gd >= zero {
			// The model step cannot decrease f to first order.
			if ctx.dNorm <= spec.stop.StepTolerance {
				if s.certified(spec.stop.StepTolerance) || !s.refine() {
					task = ConvStepNorm
					break
				}
				continue
			}
			task = StopAscentDirection
			break
		}

		accepted, halted := false, false
		for rejects := 0; rejects <= spec.trust.MaxRejects; rejects++ {

			ctx.alpha = math.Min(one, ctx.beta/(ctx.beta+ctx.decrement))
			dcopy(n, loc.x, ctx.xt)
			daxpy(n, ctx.alpha, ctx.d, ctx.xt)

			ft, ok := s.evalTrial()
			if !ok {
				halted = true
				break
			}

			if ft <= loc.f+sufficientDecrease*ctx.alpha*gd {
				ctx.fOld = loc.f
				loc.f = ft
				dcopy(n, ctx.xt, loc.x)
				dcopy(n, ctx.gt, loc.g)
				ctx.beta = math.Min(one, ctx.beta*spec.trust.Expand)
				accepted = true
				break
			}

			if log.enable(LogTrace) {
				log.log("Rejecting step ɑ= %9.2e (f %12.5e -> %12.5e), shrinking trust\n", ctx.alpha, loc.f, ft)
			}
			ctx.beta *= spec.trust.Shrink
			if ctx.beta < spec.trust.Floor {
				break
			}
		}

		switch {
		case halted:
			task = HaltEvalPanic
		case !accepted:
			task = StopTrustCollapse
		}
		if task != pnLoop {
			break
		}

		s.printIter()
		s.emit()

		switch {
		case spec.stop.StepTolerance > zero && ctx.alpha*ctx.dNorm <= spec.stop.StepTolerance &&
			s.certified(spec.stop.StepTolerance):
			task = ConvStepNorm
		case ctx.totalEval >= spec.stop.MaxEvaluations:
			task = OverEvalLimit
		}

		ctx.tol = math.Max(spec.sub.MinTolerance, ctx.tol*spec.sub.ShrinkFactor)
	}

	s.printExit(task)
	return
}

func (s *pnSolver) printIter() {
	spec, ctx, loc := &s.optimizer.pnSpec, &s.workspace.pnCtx, s.location
	log := &spec.logger
	if log.enable(LogTrace) {
		log.log("At iterate %5d    f= %12.5e    λ= %9.2e    gap= %9.2e    ɑ= %7.4f    β= %7.4f\n",
			ctx.iter, loc.f, ctx.decrement, ctx.gap, ctx.alpha, ctx.beta)
	} else if log.enable(LogEval) && ctx.iter%int(log.Level) == 0 {
		log.log("At iterate %5d    f= %12.5e    λ= %9.2e    gap= %9.2e\n",
			ctx.iter, loc.f, ctx.decrement, ctx.gap)
	}
}

func (s *pnSolver) printExit(task pnTask) {
	spec, ctx, loc := &s.optimizer.pnSpec, &s.workspace.pnCtx, s.location
	log := &spec.logger
	if !log.enable(LogLast) {
		return
	}
	log.log("\n   N    Tit    Tnf   Tsub    Decrement       F\n")
	log.log("%5d %6d %6d %6d %12.5e %12.5e\n",
		spec.n, ctx.iter, ctx.totalEval, ctx.totalSub, ctx.decrement, loc.f)
	log.log("\n%s\n", task)
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}
