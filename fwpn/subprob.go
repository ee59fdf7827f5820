// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fwpn

import "math"

// frankWolfe approximately solves the quadratic subproblem
//
//	minimize Qₖ(𝐱ᵏ+𝐝) = ⟨𝐠ᵏ,𝐝⟩ + ½⟨𝐝,𝐇ᵏ𝐝⟩  subject to 𝐱ᵏ+𝐝 ∈ C
//
// by bounded Frank-Wolfe iterations. Each iteration costs one call to
// the linear minimization oracle and one Hessian-vector product:
//
//	∇Q(𝐝) = 𝐠ᵏ + 𝐇ᵏ𝐝
//	𝐬     = 𝚊𝚛𝚐𝚖𝚒𝚗 { ⟨∇Q(𝐝),𝐬⟩ : 𝐬 ∈ C }
//	𝐰     = 𝐬 - (𝐱ᵏ+𝐝)
//	𝚐𝚊𝚙   = -⟨∇Q(𝐝),𝐰⟩
//
// The gap bounds the model suboptimality Q(𝐝) - Q⁎ from above and is the
// residual estimate returned to the outer loop. The exact line search of
// a quadratic along 𝐰 gives the step
//
//	γ = 𝚖𝚒𝚗(1, 𝚐𝚊𝚙/⟨𝐰,𝐇ᵏ𝐰⟩)
//
// taking the full step when the curvature along 𝐰 vanishes. The products
// 𝐇ᵏ𝐝 are tracked incrementally (𝐇𝐝 += γ𝐇𝐰), so the outer loop reads the
// decrement λ² = ⟨𝐝,𝐇𝐝⟩ without another product.
//
// The solve stops when the gap reaches ctx.tol or the iteration budget is
// exhausted, leaving the step in ctx.d, its product in ctx.hd and the
// last gap in ctx.gap. A starting gap already below tolerance keeps the
// zero step.
func frankWolfe(loc *pnLoc, spec *pnSpec, ctx *pnCtx, hess HessProd) (iters int) {

	n := spec.n
	d, hd, q, w, s, hw := ctx.d, ctx.hd, ctx.q, ctx.w, ctx.s, ctx.hw

	if n > len(d) || n > len(hd) || n > len(q) || n > len(w) || n > len(s) || n > len(hw) {
		panic("bound check error")
	}

	dzero(d)
	dzero(hd)
	ctx.gap = math.Inf(1)

	for iters < spec.sub.MaxIterations {

		// ∇Q(𝐝) = 𝐠 + 𝐇𝐝
		dcopy(n, loc.g, q)
		daxpy(n, one, hd, q)

		spec.lmo(q, s)
		for i := 0; i < n; i++ {
			w[i] = s[i] - loc.x[i] - d[i]
		}

		if ctx.gap = -ddot(n, q, w); ctx.gap <= ctx.tol {
			break
		}

		iters++
		hess(w, hw)

		gamma := one
		if c := ddot(n, w, hw); c > zero {
			gamma = math.Min(one, ctx.gap/c)
		}
		daxpy(n, gamma, w, d)
		daxpy(n, gamma, hw, hd)
	}
	return
}
