// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command sparselogit benchmarks three convex solvers on elastic-net
// regularized sparse logistic regression and plots their convergence.
package main

import (
	"flag"
	"log"
	"strings"

	"github.com/curioloop/sparselogit/benchmark"
	"github.com/curioloop/sparselogit/dataset"
	"github.com/curioloop/sparselogit/logitreg"
)

func main() {

	dataPath := flag.String("data", "", "LIBSVM dataset path (empty generates a synthetic problem)")
	rows := flag.Int("rows", 2000, "Synthetic sample count")
	cols := flag.Int("cols", 500, "Synthetic feature count")
	density := flag.Float64("density", 0.05, "Synthetic nonzero density per row")
	seed := flag.Int64("seed", 1, "Synthetic PRNG seed")

	rho := flag.Float64("rho", 0.01, "L2 penalty weight")
	tau := flag.Float64("tau", 5, "L1 ball radius")
	iters := flag.Int("iters", 200, "Outer iteration budget per solver")
	subIters := flag.Int("sub-iters", 200, "Inner Frank-Wolfe budget per outer iteration")
	tol := flag.Float64("tol", 1e-8, "Step tolerance (0 runs the full budget)")
	solvers := flag.String("solvers", "fwpn,pg,fista", "Comma-separated solvers to run")
	plotPath := flag.String("plot", "", "Save the convergence plot as PNG (empty shows it interactively)")
	noPlot := flag.Bool("no-plot", false, "Skip plotting")
	verbose := flag.Bool("v", false, "Print the solver exit summaries")

	flag.Parse()

	var (
		data   *dataset.Matrix
		labels []float64
		err    error
	)
	if *dataPath != "" {
		data, labels, err = dataset.Load(*dataPath)
		if err != nil {
			log.Fatalf("failed to load dataset: %v", err)
		}
	} else {
		data, labels = dataset.Synthetic(*rows, *cols, *density, *seed)
	}
	r, c := data.Dims()
	log.Printf("dataset rows=%d cols=%d nnz=%d", r, c, data.NNZ())

	model, err := logitreg.New(data, labels, *rho, *tau)
	if err != nil {
		log.Fatalf("invalid model: %v", err)
	}

	curves, err := benchmark.Run(model, make([]float64, c), benchmark.Options{
		Solvers:       strings.Split(*solvers, ","),
		MaxIterations: *iters,
		SubIterations: *subIters,
		Tolerance:     *tol,
		Verbose:       *verbose,
	})
	if err != nil {
		log.Fatalf("benchmark failed: %v", err)
	}

	fMin := benchmark.BestObjective(curves)
	for _, c := range curves {
		log.Printf("solver=%-5s f=%.9e gap=%.2e iters=%d evals=%d time=%s status=%q",
			c.Name, c.F, c.F-fMin, c.NumIter, c.NumEval, c.LastElapsed().Round(0), c.Status)
	}

	if !*noPlot {
		if err := benchmark.PlotConvergence(curves, fMin, *plotPath); err != nil {
			log.Fatalf("plotting failed: %v", err)
		}
	}
}
