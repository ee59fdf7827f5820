package numdiff

import (
	"math"
	"testing"
)

func TestApproxGradient(t *testing.T) {

	// 𝒇(x) = x₀² + 𝚎𝚡𝚙(x₁) + x₀x₂
	obj := func(x []float64) float64 {
		return x[0]*x[0] + math.Exp(x[1]) + x[0]*x[2]
	}
	grad := func(x, g []float64) {
		g[0] = 2*x[0] + x[2]
		g[1] = math.Exp(x[1])
		g[2] = x[0]
	}

	points := [][]float64{
		{0, 0, 0},
		{1, -2, 3},
		{-0.5, 0.25, 100},
	}

	for _, m := range []Method{Forward, Central} {
		tol := 1e-6
		if m == Forward {
			tol = 1e-4
		}
		for _, p := range points {
			x := append([]float64(nil), p...)
			g := make([]float64, 3)
			want := make([]float64, 3)
			grad(x, want)

			spec := GradSpec{N: 3, Object: obj, Method: m}
			if err := spec.Approx(x, g); err != nil {
				t.Fatalf("Approx failed: %v", err)
			}
			for i := range g {
				scale := math.Max(1, math.Abs(want[i]))
				if math.Abs(g[i]-want[i]) > tol*scale {
					t.Fatalf("method %v at %v: g[%d] = %v, want %v", m, p, i, g[i], want[i])
				}
			}
			for i := range x {
				if x[i] != p[i] {
					t.Fatalf("method %v: x not restored at %d", m, i)
				}
			}
		}
	}
}

func TestApproxSpecError(t *testing.T) {

	obj := func(x []float64) float64 { return x[0] }
	x, g := make([]float64, 2), make([]float64, 2)

	cases := []GradSpec{
		{N: 0, Object: obj},
		{N: 1, Object: nil},
		{N: 3, Object: obj},
		{N: 1, Object: obj, RelStep: -1},
	}
	for i, spec := range cases {
		if err := spec.Approx(x, g); err == nil {
			t.Fatalf("case %d: expect validation error", i)
		}
	}
}
