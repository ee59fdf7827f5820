// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchmark

import (
	"math"

	"github.com/Arafatk/glot"
	"github.com/pkg/errors"
)

// relFloor keeps zero suboptimality drawable on a log axis.
const relFloor = 1e-16

// PlotConvergence renders the relative suboptimality
//
//	(𝒇ₖ - 𝒇ₘᵢₙ) / 𝚖𝚊𝚡(1, |𝒇ₘᵢₙ|)
//
// of every curve against wall-clock seconds on a log scale.
// An empty path opens the interactive gnuplot window, otherwise the
// plot is saved as PNG. Requires a gnuplot binary on the PATH.
func PlotConvergence(curves []Curve, fMin float64, path string) error {

	persist := path == ""
	plot, err := glot.NewPlot(2, persist, false)
	if err != nil {
		return errors.Wrap(err, "plot: init gnuplot")
	}

	_ = plot.SetTitle("Elastic-net logistic regression solvers")
	_ = plot.SetXLabel("seconds")
	_ = plot.SetYLabel("relative suboptimality")
	_ = plot.Cmd("set logscale y")

	scale := math.Max(1, math.Abs(fMin))
	for _, c := range curves {
		if len(c.Samples) == 0 {
			continue
		}
		xs := make([]float64, len(c.Samples))
		ys := make([]float64, len(c.Samples))
		for i, s := range c.Samples {
			xs[i] = s.Elapsed.Seconds()
			ys[i] = math.Max((s.F-fMin)/scale, relFloor)
		}
		if err := plot.AddPointGroup(c.Name, "lines", [][]float64{xs, ys}); err != nil {
			return errors.Wrapf(err, "plot: add curve %s", c.Name)
		}
	}

	if path != "" {
		return errors.Wrap(plot.SavePlot(path), "plot: save")
	}
	return nil
}
