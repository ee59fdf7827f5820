// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logitreg provides the oracles of elastic-net-regularized
// logistic regression over a sparse design matrix:
//
//	𝒇(𝐱) = (1/m) ∑ᵢ 𝚕𝚘𝚐(1 + 𝚎𝚡𝚙(-yᵢ·𝐚ᵢᵀ𝐱)) + (ρ/2)‖𝐱‖₂²
//
// minimized over the elastic-net feasible set C = { 𝐱 : ‖𝐱‖₁ ≤ τ }.
// The L2 penalty is folded into the smooth part while the L1 term is
// kept as a ball constraint, so first-order solvers need the projection
// onto C and projection-free solvers need its linear minimization oracle.
package logitreg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/curioloop/sparselogit/dataset"
)

// Model evaluates objective, gradient and curvature of the regularized
// logistic loss. The scratch buffers make oracle calls allocation-free,
// so a model must not be shared across goroutines.
type Model struct {
	A   *dataset.Matrix
	Y   []float64
	Rho float64 // L2 penalty weight
	Tau float64 // L1 ball radius

	margin []float64 // A𝐱
	resid  []float64 // per-sample loss derivative
}

// New validates the problem data and builds a model.
// Labels must be ±1 and match the row count of the design matrix.
func New(data *dataset.Matrix, labels []float64, rho, tau float64) (*Model, error) {
	switch {
	case data == nil || data.Rows == 0 || data.Cols == 0:
		return nil, errors.New("logitreg: empty design matrix")
	case len(labels) != data.Rows:
		return nil, fmt.Errorf("logitreg: %d labels for %d rows", len(labels), data.Rows)
	case rho <= 0:
		return nil, errors.New("logitreg: L2 penalty must be positive")
	case tau <= 0:
		return nil, errors.New("logitreg: L1 radius must be positive")
	}
	for i, y := range labels {
		if y != 1 && y != -1 {
			return nil, fmt.Errorf("logitreg: label %v at row %d is not ±1", y, i)
		}
	}
	return &Model{
		A: data, Y: labels, Rho: rho, Tau: tau,
		margin: make([]float64, data.Rows),
		resid:  make([]float64, data.Rows),
	}, nil
}

// sigmoid is the stable logistic function 1/(1+𝚎𝚡𝚙(-t)).
func sigmoid(t float64) float64 {
	if t >= 0 {
		return 1 / (1 + math.Exp(-t))
	}
	e := math.Exp(t)
	return e / (1 + e)
}

// logistic is the stable softplus 𝚕𝚘𝚐(1 + 𝚎𝚡𝚙(-t)).
func logistic(t float64) float64 {
	if t >= 0 {
		return math.Log1p(math.Exp(-t))
	}
	return -t + math.Log1p(math.Exp(t))
}

// Eval returns 𝒇(𝐱) and, when g is non-nil, writes ∇𝒇(𝐱) into g.
func (m *Model) Eval(x, g []float64) float64 {

	rows := float64(m.A.Rows)
	m.A.MulVec(x, m.margin)

	f := 0.0
	for i, z := range m.margin[:m.A.Rows] {
		t := m.Y[i] * z
		f += logistic(t)
		if g != nil {
			// ∂/∂zᵢ (1/m)𝚕𝚘𝚐(1+𝚎𝚡𝚙(-t)) = -yᵢ·σ(-t)/m
			m.resid[i] = -m.Y[i] * sigmoid(-t) / rows
		}
	}
	f /= rows
	f += 0.5 * m.Rho * floats.Dot(x, x)

	if g != nil {
		m.A.MulTransVec(m.resid, g)
		floats.AddScaled(g, m.Rho, x)
	}
	return f
}

// Hessian fixes the curvature weights at 𝐱 and returns a closure that
// applies the Hessian-vector product
//
//	∇²𝒇(𝐱)𝐯 = (1/m)·Aᵀ(𝐰 ⊙ A𝐯) + ρ𝐯,  𝐰ᵢ = σᵢ(1-σᵢ) ∈ [0,¼]
//
// The closure owns its buffers: it stays valid after later Eval calls
// and two closures for different points may coexist.
func (m *Model) Hessian(x []float64) func(v, hv []float64) {

	rows := float64(m.A.Rows)
	w := make([]float64, m.A.Rows)
	tmp := make([]float64, m.A.Rows)

	m.A.MulVec(x, tmp)
	for i, z := range tmp {
		s := sigmoid(m.Y[i] * z)
		w[i] = s * (1 - s) / rows
	}

	return func(v, hv []float64) {
		m.A.MulVec(v, tmp)
		for i := range tmp {
			tmp[i] *= w[i]
		}
		m.A.MulTransVec(tmp, hv)
		floats.AddScaled(hv, m.Rho, v)
	}
}

// Lipschitz estimates the gradient Lipschitz constant
//
//	L = ‖A‖₂²/(4m) + ρ
//
// with the given number of power iterations on AᵀA.
func (m *Model) Lipschitz(iters int) float64 {

	n := m.A.Cols
	v := make([]float64, n)
	u := make([]float64, m.A.Rows)
	for i := range v {
		v[i] = 1 / math.Sqrt(float64(n))
	}

	lambda := 0.0
	for k := 0; k < max(iters, 1); k++ {
		m.A.MulVec(v, u)
		m.A.MulTransVec(u, v)
		lambda = floats.Norm(v, 2)
		if lambda == 0 {
			break
		}
		floats.Scale(1/lambda, v)
	}
	return lambda/(4*float64(m.A.Rows)) + m.Rho
}

// Accuracy reports the share of training samples classified correctly
// by 𝚜𝚒𝚐𝚗(𝐚ᵢᵀ𝐱).
func (m *Model) Accuracy(x []float64) float64 {
	m.A.MulVec(x, m.margin)
	hit := 0
	for i, z := range m.margin[:m.A.Rows] {
		if (z > 0 && m.Y[i] > 0) || (z <= 0 && m.Y[i] < 0) {
			hit++
		}
	}
	return float64(hit) / float64(m.A.Rows)
}
