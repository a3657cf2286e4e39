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
	"errors"
	"fmt"
)

// Fails fast on unknown inverse methods, non-positive patch sizes, strides or
// dimensions, before any pixel is processed
var ErrInvalidArgument=errors.New("invalid argument")

// Too few non-degenerate patch samples survived outlier rejection to fit a
// noise model reliably. Retrying requires different sampling parameters,
// which is a caller decision
var ErrInsufficientSamples=errors.New("insufficient samples")

// Local statistics of one patch, pooled across its spatial extent and a
// temporally strided subsample of frames
type StatsSample struct {
	Mean       float32  // Pooled sample mean
	Variance   float32  // Pooled unbiased sample variance
	N          int32    // Number of pooled values
	Degenerate bool     // Near-zero dynamic range, excluded from the fit
}

// The mixed Poisson-Gaussian noise model variance = Alpha*mean + SigmaSq.
// Estimated once per run from patch samples, immutable thereafter, and applied
// uniformly to the full-resolution movie by the forward/inverse transforms.
type NoiseModel struct {
	Alpha         float64  // Poisson gain, >= 0
	SigmaSq       float64  // Gaussian noise variance, >= 0

	Samples       int      // Valid samples the fit converged on
	Rejected      int      // Samples discarded by outlier rejection
	LowConfidence bool     // Set when a negative parameter was clamped to zero
}

// Pretty print the noise model to string
func (nm *NoiseModel) String() string {
	suffix:=""
	if nm.LowConfidence { suffix=" (low confidence, clamped)" }
	return fmt.Sprintf("alpha %.6g sigmaSq %.6g from %d samples, %d rejected%s",
	                   nm.Alpha, nm.SigmaSq, nm.Samples, nm.Rejected, suffix)
}
