// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package proxgrad implements the first-order baselines of the composite
// problem 𝚖𝚒𝚗 𝒇(𝐱) + δ_C(𝐱): the proximal (projected) gradient method
//
//	𝐱ᵏ⁺¹ = 𝚙𝚛𝚘𝚓_C( 𝐱ᵏ - (1/L)∇𝒇(𝐱ᵏ) )
//
// and its accelerated FISTA variant with the momentum sequence
//
//	tₖ₊₁ = (1 + √(1+4tₖ²))/2
//	𝐯ᵏ⁺¹ = 𝐱ᵏ⁺¹ + ((tₖ-1)/tₖ₊₁)(𝐱ᵏ⁺¹ - 𝐱ᵏ)
//
// where L is the Lipschitz constant of ∇𝒇. When the supplied constant is
// an underestimate, backtracking restores the quadratic upper bound
//
//	𝒇(𝐱⁺) ≤ 𝒇(𝐯) + ⟨∇𝒇(𝐯), 𝐱⁺-𝐯⟩ + (L/2)‖𝐱⁺-𝐯‖₂²
//
// by inflating L.
//
// # Reference
//
// A. Beck, M. Teboulle:
// "A fast iterative shrinkage-thresholding algorithm for linear inverse problems".
// SIAM J. Imaging Sciences 2(1), 2009
package proxgrad

import (
	"errors"
	"io"
	"math"
	"os"
	"slices"
)

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only the exit summary
	LogLast LogLevel = 0
	// LogEval print f and the step norm every `level` iterations
	LogEval LogLevel = 1
)

// Logger handles logging output for the optimizer.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

// Evaluation evaluates the smooth objective 𝒇(𝐱) and,
// when g is non-nil, writes ∇𝒇(𝐱) into g.
type Evaluation func(x, g []float64) (f float64)

// Projection replaces 𝐱 in place with its Euclidean projection onto the
// feasible set (the proximal operator of the nonsmooth part).
type Projection func(x []float64)

// Termination specifies the stopping criteria of the iteration.
type Termination struct {
	// The iteration stop when the number of iterations exceeds limit.
	MaxIterations int
	// The iteration stop when the total number of function and gradient evaluations exceeds limit.
	MaxEvaluations int
	// The iteration will stop when |𝒇ₖ₊₁-𝒇ₖ| ≤ 𝚍𝚏𝚝𝚘𝚕 × 𝚖𝚊𝚡(1,|𝒇ₖ₊₁|) (0 disables).
	FDiffTolerance float64
	// The iteration will stop when ‖𝐱ₖ₊₁-𝐱ₖ‖₂ ≤ 𝚜𝚝𝚙𝚝𝚘𝚕 (0 disables).
	StepTolerance float64
}

// Backtrack configures the Lipschitz backtracking line search.
// MaxSteps = 0 trusts the supplied constant and disables the search.
type Backtrack struct {
	Eta      float64 // inflation factor (> 1)
	MaxSteps int     // bound on inflations per iteration
}

// Progress is a per-iteration report delivered to the Trace hook.
type Progress struct {
	Iter     int     // iteration count (0 is the starting point)
	NumEval  int     // cumulative function and gradient evaluations
	F        float64 // objective at the current iterate
	StepNorm float64 // ‖𝐱ₖ₊₁-𝐱ₖ‖₂
	L        float64 // Lipschitz estimate in use
}

// Problem specifies the problem for the proximal gradient optimizer.
type Problem struct {
	N           int        // The problem dimension
	Eval        Evaluation // Smooth objective and gradient
	Proj        Projection // Projection onto the feasible set
	Lipschitz   float64    // Gradient Lipschitz constant (or an initial estimate)
	Accelerated bool       // Use the FISTA momentum sequence
	Restart     bool       // Reset momentum when the objective increases
	Line        Backtrack  // Optional Lipschitz backtracking
	Stop        Termination
	Trace       func(Progress) // Optional per-iteration hook
}

// New creates a new proximal gradient optimizer for given problem.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = &Logger{Level: LogNoop}
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}

	stop, line := p.Stop, p.Line

	stop.MaxEvaluations = max(stop.MaxEvaluations, 0)
	if stop.MaxEvaluations == 0 {
		stop.MaxEvaluations = math.MaxInt
	}
	if line.MaxSteps > 0 && line.Eta == 0 {
		line.Eta = 2
	}

	switch {
	case p.N <= 0:
		err = errors.New("problem dimension must greater than 0")
	case p.Eval == nil:
		err = errors.New("evaluation target is required")
	case p.Proj == nil:
		err = errors.New("projection operator is required")
	case p.Lipschitz <= 0 || math.IsNaN(p.Lipschitz):
		err = errors.New("lipschitz constant must greater than 0")
	case stop.MaxIterations <= 0:
		err = errors.New("max iteration must greater than 1")
	case stop.FDiffTolerance < 0 || stop.StepTolerance < 0:
		err = errors.New("stop tolerance must not less than 0")
	case line.MaxSteps < 0:
		err = errors.New("backtrack step limit must not less than 0")
	case line.MaxSteps > 0 && line.Eta <= 1:
		err = errors.New("backtrack inflation factor must greater than 1")
	}

	if err != nil {
		return
	}

	optimizer = &Optimizer{
		pgSpec{
			n:      p.N,
			eval:   p.Eval,
			proj:   p.Proj,
			lip:    p.Lipschitz,
			accel:  p.Accelerated,
			rstart: p.Restart,
			line:   line,
			stop:   stop,
			trace:  p.Trace,
			logger: *logger,
		},
	}
	return
}

// Optimizer implemented using the proximal gradient algorithm.
type Optimizer struct {
	pgSpec
}

type pgSpec struct {
	n      int
	eval   Evaluation
	proj   Projection
	lip    float64
	accel  bool
	rstart bool
	line   Backtrack
	stop   Termination
	trace  func(Progress)
	logger Logger
}

// Workspace contains the state and context of the optimization process.
// Given problem dimension n, total work space is float64[4×n].
type Workspace struct {
	n int
	pgCtx
}

type pgCtx struct {
	iter      int
	totalEval int

	lip      float64 // current Lipschitz estimate
	momentum float64 // FISTA tₖ
	stepNorm float64
	fOld     float64

	v, g   []float64 // extrapolation point and its gradient
	xt, dx []float64 // trial point and step
}

func (c *pgCtx) clear(spec *pgSpec) {
	c.iter, c.totalEval = 0, 0
	c.lip = spec.lip
	c.momentum = 1
	c.stepNorm, c.fOld = 0, 0
}

// pgTask describes the state of the iteration.
type pgTask int

const (
	pgLoop pgTask = 1 << iota
	// ConvFDiff the relative objective change fell below FDiffTolerance.
	ConvFDiff
	// ConvStepNorm the step norm fell below StepTolerance.
	ConvStepNorm
	// OverIterLimit the iteration budget is exhausted.
	OverIterLimit
	// OverEvalLimit the evaluation budget is exhausted.
	OverEvalLimit
	// StopLineSearch backtracking exceeded its step limit.
	StopLineSearch
	// HaltEvalPanic a user callback panicked.
	HaltEvalPanic
)

const pgConv = ConvFDiff | ConvStepNorm

func (t pgTask) String() string {
	switch t {
	case ConvFDiff:
		return "CONVERGENCE: REL_REDUCTION_OF_F_<=_DFTOL"
	case ConvStepNorm:
		return "CONVERGENCE: STEP_NORM_<=_STPTOL"
	case OverIterLimit:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	case OverEvalLimit:
		return "STOP: TOTAL NO. of f AND g EVALUATIONS EXCEEDS LIMIT"
	case StopLineSearch:
		return "STOP: BACKTRACKING EXCEEDED ITS STEP LIMIT"
	case HaltEvalPanic:
		return "STOP: CALLBACK REQUESTED HALT"
	}
	return "UNKNOWN TASK"
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool      // Whether the optimization was converged.
	F       float64   // Final function value.
	X       []float64 // Final solution.
	Summary           // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status  pgTask // Final task status after optimization.
	NumIter int    // Number of iterations performed.
	NumEval int    // Number of function and gradient evaluations performed.
}

// Init allocate the workspace for the proximal gradient optimizer.
// To avoid race conditions, separate workspaces need to be created for
// each goroutine. But multiple workspaces could share one optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n = o.n
	wrk := make([]float64, 4*o.n)
	w.pgCtx = pgCtx{
		v:  wrk[0*o.n : 1*o.n],
		g:  wrk[1*o.n : 2*o.n],
		xt: wrk[2*o.n : 3*o.n],
		dx: wrk[3*o.n : 4*o.n],
	}
	return w
}

// Fit runs the optimization process using the initial guess x and workspace w.
// The starting point is projected onto the feasible set first.
func (o *Optimizer) Fit(x []float64, w *Workspace) *Result {

	if len(x) != o.n {
		panic("initial x dimension not match spec")
	}

	if w.n != o.n {
		panic("workspace dimension not match spec")
	}

	loc := pgLoc{
		x: slices.Clone(x),
	}

	solver := pgSolver{
		optimizer: o,
		workspace: w,
		location:  &loc,
	}

	res := solver.mainLoop()
	return &Result{
		OK: res&pgConv > 0,
		X:  loc.x, F: loc.f,
		Summary: Summary{
			Status:  res,
			NumIter: w.iter,
			NumEval: w.totalEval,
		},
	}
}

type pgLoc struct {
	x []float64
	f float64
}
