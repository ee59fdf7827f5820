// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwpn

import "math"

const (
	zero = 0.0
	one  = 1.0
)

// daxpy performs y += a·x on unit-stride vectors.
func daxpy(n int, a float64, x, y []float64) {
	if n <= 0 || a == 0 {
		return
	}
	if n > len(x) || n > len(y) {
		panic("bound check error")
	}
	m := n % 4
	for i := 0; i < m; i++ {
		y[i] += a * x[i]
	}
	for i := m; i < n; i += 4 {
		x := x[i : i+4 : i+4]
		y := y[i : i+4 : i+4]
		y[0] += a * x[0]
		y[1] += a * x[1]
		y[2] += a * x[2]
		y[3] += a * x[3]
	}
}

// ddot computes the dot product of two unit-stride vectors.
func ddot(n int, x, y []float64) (dot float64) {
	if n <= 0 {
		return
	}
	if n > len(x) || n > len(y) {
		panic("bound check error")
	}
	m := n % 5
	for i := 0; i < m; i++ {
		dot += x[i] * y[i]
	}
	for i := m; i < n; i += 5 {
		x := x[i : i+5 : i+5]
		y := y[i : i+5 : i+5]
		dot += x[0]*y[0] + x[1]*y[1] + x[2]*y[2] + x[3]*y[3] + x[4]*y[4]
	}
	return
}

// dnrm2 computes the Euclidean norm with overflow-safe scaling.
func dnrm2(n int, x []float64) float64 {
	if n <= 0 {
		return zero
	}
	if n > len(x) {
		panic("bound check error")
	}
	scale, ssq := zero, one
	for _, v := range x[:n] {
		if v == zero {
			continue
		}
		a := math.Abs(v)
		if scale < a {
			r := scale / a
			ssq = one + ssq*r*r
			scale = a
		} else {
			r := a / scale
			ssq += r * r
		}
	}
	return scale * math.Sqrt(ssq)
}

// dcopy copies the leading n entries of x into y.
func dcopy(n int, x, y []float64) {
	if n <= 0 {
		return
	}
	if n > len(x) || n > len(y) {
		panic("bound check error")
	}
	copy(y[:n], x[:n])
}

// dzero clears a vector.
func dzero(x []float64) {
	for i := range x {
		x[i] = 0
	}
}
