// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwpn

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
	// LogEval print f, decrement and gap every `level` iterations
	LogEval LogLevel = 1
	// LogTrace print details of every iteration including trust updates
	LogTrace LogLevel = 99
)

// Logger handles logging output for the optimizer.
// The writer must be thread-safe when shared.
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

// HessProd applies the Hessian-vector product hv = ∇²𝒇(𝐱)𝐯
// at the point the product was built for.
type HessProd func(v, hv []float64)

// HessFactory fixes the curvature at 𝐱 and returns its product operator.
// The factory is invoked once per outer iteration; the returned operator
// is then applied once per inner iteration.
type HessFactory func(x []float64) HessProd

// LinOracle writes into s the minimizer of the linear model ⟨𝐠,𝐬⟩
// over the feasible set C (the linear minimization oracle).
type LinOracle func(g, s []float64)

// Termination specifies the stopping criteria of the outer loop.
type Termination struct {
	// The iteration stop when the number of outer iterations exceeds limit.
	MaxIterations int
	// The iteration stop when the total number of function and gradient evaluations exceeds limit.
	MaxEvaluations int
	// The iteration will stop when the accepted step satisfies ɑ‖𝐝‖₂ ≤ 𝚜𝚝𝚙𝚝𝚘𝚕 (0 disables).
	StepTolerance float64
	// The iteration will stop when the proximal-Newton decrement satisfies λ ≤ 𝚍𝚎𝚌𝚝𝚘𝚕 (0 disables).
	DecrementTolerance float64
}

// SubProblem bounds the inner Frank-Wolfe solver and its tolerance schedule
//
//	𝚝𝚘𝚕ₖ = 𝚖𝚊𝚡(MinTolerance, InitTolerance × ShrinkFactorᵏ)
type SubProblem struct {
	MaxIterations int
	InitTolerance float64
	MinTolerance  float64
	ShrinkFactor  float64
}

// Trust controls the damped-step acceptance of the outer loop.
// The trial step ɑ = 𝚖𝚒𝚗(1, β/(β+λ)) shrinks with the trust parameter β
// on each rejection and β expands back toward 1 on acceptance.
type Trust struct {
	Init   float64 // initial β
	Expand float64 // growth factor on acceptance (> 1)
	Shrink float64 // decay factor on rejection (0 < 𝚜 < 1)
	Floor  float64 // give up when β falls below this
	// A single outer iteration aborts after this many rejected trials.
	MaxRejects int
}

// Progress is a per-iteration report delivered to the Trace hook.
type Progress struct {
	Iter      int     // outer iteration count (0 is the starting point)
	NumEval   int     // cumulative function and gradient evaluations
	NumSub    int     // cumulative inner iterations
	F         float64 // objective at the current iterate
	Decrement float64 // proximal-Newton decrement λ = √(𝐝ᵀH𝐝)
	Gap       float64 // final Frank-Wolfe gap of the subproblem
	Step      float64 // accepted step length ɑ
	Trust     float64 // trust parameter β after the update
}

// Problem specifies the problem for the proximal-Newton optimizer.
type Problem struct {
	N     int            // The problem dimension
	Eval  Evaluation     // Smooth objective and gradient
	Hess  HessFactory    // Curvature factory
	LMO   LinOracle      // Linear minimization oracle of the feasible set
	Stop  Termination    // Stop condition
	Sub   SubProblem     // Inner solver budget and tolerance schedule
	Trust Trust          // Step acceptance control
	Trace func(Progress) // Optional per-iteration hook
}

// New creates a new proximal-Newton optimizer for given problem.
func (p *Problem) New(logger *Logger) (optimizer *Optimizer, err error) {

	if logger == nil {
		logger = &Logger{Level: LogNoop}
	}
	if logger.Msg == nil {
		logger.Msg = os.Stdout
	}

	stop, sub, trust := p.Stop, p.Sub, p.Trust

	stop.MaxEvaluations = max(stop.MaxEvaluations, 0)
	if stop.MaxEvaluations == 0 {
		stop.MaxEvaluations = math.MaxInt
	}

	if sub.MaxIterations == 0 {
		sub.MaxIterations = 100
	}
	if sub.InitTolerance == 0 {
		sub.InitTolerance = 0.1
	}
	if sub.MinTolerance == 0 {
		sub.MinTolerance = 1e-10
	}
	if sub.ShrinkFactor == 0 {
		sub.ShrinkFactor = 0.5
	}

	if trust.Init == 0 {
		trust.Init = one
	}
	if trust.Expand == 0 {
		trust.Expand = 2
	}
	if trust.Shrink == 0 {
		trust.Shrink = 0.5
	}
	if trust.Floor == 0 {
		trust.Floor = 1e-4
	}
	if trust.MaxRejects == 0 {
		trust.MaxRejects = 20
	}

	switch {
	case p.N <= 0:
		err = errors.New("problem dimension must greater than 0")
	case p.Eval == nil:
		err = errors.New("evaluation target is required")
	case p.Hess == nil:
		err = errors.New("curvature factory is required")
	case p.LMO == nil:
		err = errors.New("linear minimization oracle is required")
	case stop.MaxIterations <= 0:
		err = errors.New("max iteration must greater than 1")
	case stop.StepTolerance < zero || stop.DecrementTolerance < zero:
		err = errors.New("stop tolerance must not less than 0")
	case sub.MaxIterations < 0:
		err = errors.New("subproblem iteration must not less than 0")
	case sub.InitTolerance < sub.MinTolerance || sub.MinTolerance <= zero:
		err = errors.New("subproblem tolerance schedule is invalid")
	case sub.ShrinkFactor <= zero || sub.ShrinkFactor > one:
		err = errors.New("subproblem tolerance shrink must lie in (0,1]")
	case trust.Init <= zero || trust.Init > one:
		err = errors.New("trust parameter must lie in (0,1]")
	case trust.Expand <= one:
		err = errors.New("trust expand factor must greater than 1")
	case trust.Shrink <= zero || trust.Shrink >= one:
		err = errors.New("trust shrink factor must lie in (0,1)")
	case trust.Floor <= zero || trust.Floor > trust.Init:
		err = errors.New("trust floor must lie in (0,init]")
	case trust.MaxRejects < 0:
		err = errors.New("trust reject limit must not less than 0")
	}

	if err != nil {
		return
	}

	optimizer = &Optimizer{
		pnSpec{
			n:      p.N,
			eval:   p.Eval,
			hess:   p.Hess,
			lmo:    p.LMO,
			stop:   stop,
			sub:    sub,
			trust:  trust,
			trace:  p.Trace,
			logger: *logger,
		},
	}
	return
}

// Optimizer implemented using the proximal-Newton Frank-Wolfe algorithm.
type Optimizer struct {
	pnSpec
}

type pnSpec struct {
	n      int
	eval   Evaluation
	hess   HessFactory
	lmo    LinOracle
	stop   Termination
	sub    SubProblem
	trust  Trust
	trace  func(Progress)
	logger Logger
}

// Workspace contains the state and context of the optimization process.
// Given problem dimension n, total work space is float64[8×n].
// To avoid race conditions, separate workspaces need to be created for
// each goroutine. But multiple workspaces could share one optimizer.
type Workspace struct {
	n int
	pnCtx
}

type pnCtx struct {
	iter     int
	totalNum // evaluation counters

	beta  float64 // trust parameter
	tol   float64 // current subproblem tolerance
	alpha float64 // last accepted step length

	decrement float64 // λ = √(𝐝ᵀH𝐝)
	gap       float64 // final Frank-Wolfe gap
	dNorm     float64 // ‖𝐝‖₂
	fOld      float64

	d, hd  []float64 // subproblem step and H𝐝
	q, w   []float64 // model gradient and Frank-Wolfe direction
	s      []float64 // oracle vertex
	hw     []float64 // H𝐰
	xt, gt []float64 // trial point and gradient
}

type totalNum struct {
	totalEval int
	totalSub  int
}

func (c *pnCtx) clear(spec *pnSpec) {
	c.iter = 0
	c.totalNum = totalNum{}
	c.beta = spec.trust.Init
	c.tol = spec.sub.InitTolerance
	c.alpha = zero
	c.decrement, c.gap, c.dNorm, c.fOld = zero, zero, zero, zero
}

type pnLoc struct {
	x, g []float64
	f    float64
}

// pnTask describes the state of the outer iteration.
type pnTask int

const (
	pnLoop pnTask = 1 << iota
	// ConvStepNorm the accepted step fell below StepTolerance.
	ConvStepNorm
	// ConvDecrement the proximal-Newton decrement fell below DecrementTolerance.
	ConvDecrement
	// OverIterLimit the outer iteration budget is exhausted.
	OverIterLimit
	// OverEvalLimit the evaluation budget is exhausted.
	OverEvalLimit
	// StopTrustCollapse no trial step achieved sufficient decrease.
	StopTrustCollapse
	// StopAscentDirection the subproblem returned a non-descent step.
	StopAscentDirection
	// HaltEvalPanic a user callback panicked.
	HaltEvalPanic
)

const (
	pnConv = ConvStepNorm | ConvDecrement
)

func (t pnTask) String() string {
	switch t {
	case ConvStepNorm:
		return "CONVERGENCE: STEP_LENGTH_<=_STPTOL"
	case ConvDecrement:
		return "CONVERGENCE: NEWTON_DECREMENT_<=_DECTOL"
	case OverIterLimit:
		return "STOP: TOTAL NO. of ITERATIONS REACHED LIMIT"
	case OverEvalLimit:
		return "STOP: TOTAL NO. of f AND g EVALUATIONS EXCEEDS LIMIT"
	case StopTrustCollapse:
		return "STOP: TRUST PARAMETER COLLAPSED BELOW FLOOR"
	case StopAscentDirection:
		return "STOP: SUBPROBLEM RETURNED ASCENT DIRECTION"
	case HaltEvalPanic:
		return "STOP: CALLBACK REQUESTED HALT"
	}
	return "UNKNOWN TASK"
}

// Result contains the final result of the optimization process.
type Result struct {
	OK      bool      // Whether the optimization was converged.
	F       float64   // Final function value.
	X, G    []float64 // Final solution and gradient.
	Summary           // Optimization summary.
}

// Summary contains a summary of the optimization process.
type Summary struct {
	Status     pnTask // Final task status after optimization.
	NumIter    int    // Number of outer iterations performed.
	NumEval    int    // Number of function and gradient evaluations performed.
	NumSubIter int    // Number of inner Frank-Wolfe iterations performed.
}

// Init allocate the workspace for the proximal-Newton optimizer.
func (o *Optimizer) Init() *Workspace {
	w := new(Workspace)
	w.n = o.n
	wrk := make([]float64, 8*o.n)
	w.pnCtx = pnCtx{
		d:  wrk[0*o.n : 1*o.n],
		hd: wrk[1*o.n : 2*o.n],
		q:  wrk[2*o.n : 3*o.n],
		w:  wrk[3*o.n : 4*o.n],
		s:  wrk[4*o.n : 5*o.n],
		hw: wrk[5*o.n : 6*o.n],
		xt: wrk[6*o.n : 7*o.n],
		gt: wrk[7*o.n : 8*o.n],
	}
	return w
}

// Fit runs the optimization process using the initial guess x and workspace w.
// The starting point must be feasible: every iterate is a convex combination
// of the start and oracle vertices, so feasibility is preserved but never
// established.
func (o *Optimizer) Fit(x []float64, w *Workspace) *Result {

	if len(x) != o.n {
		panic("initial x dimension not match spec")
	}

	if w.n != o.n {
		panic("workspace dimension not match spec")
	}

	loc := pnLoc{
		x: slices.Clone(x),
		g: make([]float64, o.n),
	}

	solver := pnSolver{
		optimizer: o,
		workspace: w,
		location:  &loc,
	}

	res := solver.mainLoop()
	return &Result{
		OK: res&pnConv > 0,
		X:  loc.x, F: loc.f, G: loc.g,
		Summary: Summary{
			Status:     res,
			NumIter:    w.iter,
			NumEval:    w.totalEval,
			NumSubIter: w.totalSub,
		},
	}
}
