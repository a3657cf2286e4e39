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

	"github.com/datajoint/CaImAn/internal/movie"
)

// Applies the forward generalized Anscombe transform pixelwise:
//
//	z = (2/alpha) * sqrt( max(0, alpha*y + alpha^2*(3/8) + sigmaSq - alpha*mu) )
//
// mu is the mean of the Gaussian noise component, usually 0. The output has
// the same shape as the input and noise of approximately unit variance.
// Negative radicands (sigmaSq estimation noise, or pixels far below the
// expected range) are clamped to 0 before the square root; this is a bias
// source at extreme low intensities. Frames are transformed in parallel
// against the immutable noise model
func Forward(c *Context, m *movie.Movie, nm *NoiseModel, mu float32) (*movie.Movie, error) {
	if err:=validateTransform(m, nm); err!=nil { return nil, err }

	alpha :=nm.Alpha
	offset:=0.375*alpha*alpha + nm.SigmaSq - alpha*float64(mu)
	scale :=2.0/alpha

	out:=movie.NewMovieLike(m)
	forEachFrame(c, m.Frames, func(t int32) {
		src, dst:=m.Frame(t), out.Frame(t)
		for i, y:=range src {
			r:=alpha*float64(y)+offset
			if r<0 { r=0 }
			dst[i]=float32(scale*math.Sqrt(r))
		}
	})
	out.LogHistory(fmt.Sprintf("gat forward alpha=%.6g sigmaSq=%.6g mu=%.6g", nm.Alpha, nm.SigmaSq, mu))
	return out, nil
}

// Shared eager validation for the transforms; nothing is allocated or
// processed when this fails
func validateTransform(m *movie.Movie, nm *NoiseModel) error {
	if m==nil || len(m.Data)==0 {
		return fmt.Errorf("%w: nil or empty movie", ErrInvalidArgument)
	}
	if m.Frames<=0 || m.Height<=0 || m.Width<=0 {
		return fmt.Errorf("%w: non-positive movie dimensions %s", ErrInvalidArgument, m.DimensionsToString())
	}
	if nm==nil || nm.Alpha<=0 {
		return fmt.Errorf("%w: noise model with non-positive alpha", ErrInvalidArgument)
	}
	return nil
}

// Runs fn for each frame index with bounded concurrency and joins.
// The transforms are pointwise, so frame order does not matter
func forEachFrame(c *Context, frames int32, fn func(t int32)) {
	limiter:=make(chan bool, c.threads())
	for t:=int32(0); t<frames; t++ {
		limiter <- true
		go func(t int32) {
			defer func() { <-limiter }()
			fn(t)
		}(t)
	}
	for i:=0; i<cap(limiter); i++ {  // wait for goroutines to finish
		limiter <- true
	}
}
