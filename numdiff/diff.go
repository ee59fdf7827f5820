// Package numdiff estimates gradients of scalar objectives by finite
// differences. It exists to cross-check analytic gradients in tests.
package numdiff

import (
	"errors"
	"math"
)

var sqrtEps = math.Sqrt(math.Nextafter(1, 2) - 1)
var cubeEps = math.Pow(math.Nextafter(1, 2)-1, float64(1)/3)

type Method int

const (
	// Forward use the first order accuracy forward difference.
	Forward Method = iota
	// Central use the second order accuracy central difference.
	Central
)

// GradSpec approximates the gradient of a scalar objective 𝒇 : ℝⁿ → ℝ.
//
// # Reference:
//
//   - https://en.wikipedia.org/wiki/Finite_difference
//   - https://github.com/scipy/scipy/blob/main/scipy/optimize/_numdiff.py
type GradSpec struct {
	N int
	// Function of which to estimate the gradient.
	// The argument x passed to this function is an n-vector.
	Object func(x []float64) float64
	// Finite difference method to use.
	Method Method
	// Relative step size used to compute the absolute step size
	//   h = RelStep × 𝚜𝚒𝚐𝚗(x₀ᵢ) × 𝚖𝚊𝚡(1, |x₀ᵢ|)
	// RelStep is selected automatically when zero:
	// √𝛆 for Forward and ∛𝛆 for Central.
	RelStep float64
}

// Approx estimates ∇𝒇(x) and stores the result into g.
// The content of x is restored before returning.
func (s *GradSpec) Approx(x, g []float64) error {

	switch {
	case s.N <= 0:
		return errors.New("problem dimension must greater than 0")
	case s.Object == nil:
		return errors.New("objective function is required")
	case len(x) < s.N || len(g) < s.N:
		return errors.New("vector size must not less than n")
	case s.RelStep < 0:
		return errors.New("relative step must not less than 0")
	}

	rel := s.RelStep
	if rel == 0 {
		if s.Method == Central {
			rel = cubeEps
		} else {
			rel = sqrtEps
		}
	}

	var f0 float64
	if s.Method == Forward {
		f0 = s.Object(x)
	}

	for i := 0; i < s.N; i++ {
		xi := x[i]
		h := rel * math.Max(1, math.Abs(xi))
		if xi < 0 {
			h = -h
		}
		// Ensure the perturbed value differs from xi in floating point.
		if xi+h == xi {
			h = math.Nextafter(xi, math.Inf(1)) - xi
		}
		switch s.Method {
		case Central:
			x[i] = xi + h
			fp := s.Object(x)
			x[i] = xi - h
			fm := s.Object(x)
			g[i] = (fp - fm) / (2 * h)
		default:
			x[i] = xi + h
			g[i] = (s.Object(x) - f0) / h
		}
		x[i] = xi
	}
	return nil
}
