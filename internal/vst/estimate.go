// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.


package vst

import (
	"fmt"

	"github.com/datajoint/CaImAn/internal/movie"
)

// Sampling parameters for noise model estimation
type EstimateOptions struct {
	PatchSize       int32  // Spatial patch edge length
	SpatialStride   int32  // Grid stride between patch origins
	TemporalStride  int32  // Sample frames {0, T, 2T, ...}
	MinValidSamples int    // Minimum non-degenerate samples for a reliable fit
	MaxSamples      int    // Cap on sampled patches, 0=no cap (deterministic)
}

func DefaultEstimateOptions() EstimateOptions {
	return EstimateOptions{
		PatchSize:       8,
		SpatialStride:   8,
		TemporalStride:  1,
		MinValidSamples: 50,
		MaxSamples:      0,
	}
}

// Estimates the mixed Poisson-Gaussian noise model of a movie: samples local
// (mean, variance) statistics on a patch grid, one accumulator per patch with
// no shared mutable state, then fits variance = alpha*mean + sigmaSq over the
// completed sample collection. The fit is a single-threaded reduction that
// only begins once all patch statistics have been gathered
func EstimateNoiseModel(c *Context, m *movie.Movie, opts EstimateOptions) (*NoiseModel, error) {
	if m==nil || len(m.Data)==0 {
		return nil, fmt.Errorf("%w: nil or empty movie", ErrInvalidArgument)
	}
	if opts.TemporalStride<=0 {
		return nil, fmt.Errorf("%w: non-positive temporal stride %d", ErrInvalidArgument, opts.TemporalStride)
	}

	grid, err:=PatchGrid(m.Height, m.Width, opts.PatchSize, opts.SpatialStride)
	if err!=nil { return nil, err }
	if len(grid)==0 {
		return nil, fmt.Errorf("%w: no %dx%d patches fit a %dx%d frame",
		                       ErrInsufficientSamples, opts.PatchSize, opts.PatchSize, m.Height, m.Width)
	}
	grid=SubsampleGrid(grid, opts.MaxSamples)
	c.logf("estimating noise model from %s movie, %d patches of %dx%d, temporal stride %d\n",
	       m.DimensionsToString(), len(grid), opts.PatchSize, opts.PatchSize, opts.TemporalStride)

	samples:=make([]StatsSample, len(grid))
	limiter:=make(chan bool, c.threads())
	for i, p:=range grid {
		limiter <- true
		go func(i int, p Patch) {
			defer func() { <-limiter }()
			samples[i]=PatchStats(m, p, opts.TemporalStride)
		}(i, p)
	}
	for i:=0; i<cap(limiter); i++ {  // barrier: all samples collected before the fit begins
		limiter <- true
	}

	degenerate:=0
	for _,s:=range samples {
		if s.Degenerate { degenerate++ }
	}
	if degenerate>0 {
		c.logf("excluded %d of %d patches as degenerate\n", degenerate, len(samples))
	}

	return FitNoiseModel(c, samples, opts.MinValidSamples)
}
