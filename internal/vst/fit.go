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
	"math"

	"gonum.org/v1/gonum/stat"
)

// Residual clipping threshold and iteration cap for robust fitting
const (
	fitClipSigma    =2.5
	fitMaxIterations=10
)

// Fits the linear noise model variance = alpha*mean + sigmaSq to the given
// patch samples. Ordinary least squares, iteratively re-fit with residual
// outlier rejection: patches dominated by structured signal have variance far
// above the noise-driven line and must not pull the slope. Degenerate samples
// are excluded up front. Fails with ErrInsufficientSamples if fewer than
// minValid samples remain; rejection stops before crossing that floor.
// Negative fitted parameters are clamped to zero and flagged low-confidence,
// never fatal
func FitNoiseModel(c *Context, samples []StatsSample, minValid int) (*NoiseModel, error) {
	if minValid<2 { minValid=2 }

	means:=make([]float64, 0, len(samples))
	vars :=make([]float64, 0, len(samples))
	for _,s:=range samples {
		if s.Degenerate { continue }
		means=append(means, float64(s.Mean))
		vars =append(vars,  float64(s.Variance))
	}
	if len(means)<minValid {
		return nil, fmt.Errorf("%w: %d valid samples of %d total, need %d",
		                       ErrInsufficientSamples, len(means), len(samples), minValid)
	}
	total:=len(means)

	sigmaSq, alpha:=stat.LinearRegression(means, vars, nil, false)
	for i:=0; i<fitMaxIterations; i++ {
		// residual standard deviation w.r.t. the current line
		sumSq:=float64(0)
		for j:=range means {
			r:=vars[j]-(alpha*means[j]+sigmaSq)
			sumSq+=r*r
		}
		stdDev:=math.Sqrt(sumSq/float64(len(means)))
		if stdDev==0 { break }

		// reject outliers beyond the clipping threshold, stopping before
		// the valid sample count would fall below the floor
		bound:=fitClipSigma*stdDev
		kept:=0
		for j:=range means {
			if math.Abs(vars[j]-(alpha*means[j]+sigmaSq))<=bound { kept++ }
		}
		if kept==len(means) || kept<minValid { break }
		o:=0
		for j:=range means {
			if math.Abs(vars[j]-(alpha*means[j]+sigmaSq))<=bound {
				means[o], vars[o] = means[j], vars[j]
				o++
			}
		}
		means, vars = means[:o], vars[:o]

		sigmaSq, alpha=stat.LinearRegression(means, vars, nil, false)
	}

	nm:=&NoiseModel{
		Alpha:    alpha,
		SigmaSq:  sigmaSq,
		Samples:  len(means),
		Rejected: total-len(means),
	}
	if nm.Alpha<0 {
		// a negative photon gain has no physical meaning; arises from
		// estimation noise in flat data
		nm.Alpha=0
		nm.SigmaSq=stat.Mean(vars, nil)
		nm.LowConfidence=true
	}
	if nm.SigmaSq<0 {
		nm.SigmaSq=0
		nm.LowConfidence=true
	}
	c.logf("noise model fit: %v\n", nm)
	return nm, nil
}
