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
	"math"

	"github.com/datajoint/CaImAn/internal/movie"
)

// Pooled variance below this counts as degenerate (flat or saturated region)
const degenerateVariance=1e-10

// Computes the pooled sample mean and unbiased sample variance of one patch
// across frames {0, T, 2T, ...}, flattening space and the strided time axis
// into a single sample set. Flat or saturated patches are flagged degenerate
// instead of propagating NaN into the fit
func PatchStats(m *movie.Movie, p Patch, temporalStride int32) (s StatsSample) {
	sum, n:=float64(0), int64(0)
	for t:=int32(0); t<m.Frames; t+=temporalStride {
		frame:=m.Frame(t)
		for y:=p.Row; y<p.Row+p.Size; y++ {
			row:=frame[y*m.Width+p.Col : y*m.Width+p.Col+p.Size]
			for _,v:=range row {
				sum+=float64(v)
			}
		}
		n+=int64(p.Size)*int64(p.Size)
	}
	mean:=sum/float64(n)

	sumSqDiff:=float64(0)
	for t:=int32(0); t<m.Frames; t+=temporalStride {
		frame:=m.Frame(t)
		for y:=p.Row; y<p.Row+p.Size; y++ {
			row:=frame[y*m.Width+p.Col : y*m.Width+p.Col+p.Size]
			for _,v:=range row {
				diff:=float64(v)-mean
				sumSqDiff+=diff*diff
			}
		}
	}

	s.Mean=float32(mean)
	s.N   =int32(n)
	if n<2 {
		s.Degenerate=true
		return s
	}
	variance:=sumSqDiff/float64(n-1)
	s.Variance=float32(variance)
	if variance<=degenerateVariance || math.IsNaN(variance) || math.IsInf(variance, 0) {
		s.Degenerate=true
	}
	return s
}
