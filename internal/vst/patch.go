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

	"github.com/valyala/fastrand"
)

// A square patch of a frame, identified by its origin and size.
// Descriptor only; decoupled from the pixel data it indexes, so patches can
// be consumed in parallel without shared iteration state
type Patch struct {
	Row  int32
	Col  int32
	Size int32
}

// Returns the regular grid of patch origins covering a frame of the given
// dimensions at the given stride. Pure function of its arguments. Trailing
// partial patches that would run past the frame boundary are discarded, not
// truncated, to avoid biased statistics from boundary effects
func PatchGrid(height, width, size, stride int32) ([]Patch, error) {
	if height<=0 || width<=0 {
		return nil, fmt.Errorf("%w: non-positive frame dimensions %dx%d", ErrInvalidArgument, height, width)
	}
	if size<=0 || stride<=0 {
		return nil, fmt.Errorf("%w: non-positive patch size %d or stride %d", ErrInvalidArgument, size, stride)
	}
	rows:=int((height-size)/stride)+1
	cols:=int((width -size)/stride)+1
	if height<size || width<size { rows, cols=0, 0 }
	ps:=make([]Patch, 0, rows*cols)
	for y:=int32(0); y+size<=height; y+=stride {
		for x:=int32(0); x+size<=width; x+=stride {
			ps=append(ps, Patch{Row: y, Col: x, Size: size})
		}
	}
	return ps, nil
}

// Caps the patch grid at the given number of samples by picking a random
// subset, for bounded estimation cost on large frames. Reorders ps in place.
// maxSamples<=0 disables the cap and keeps estimation deterministic
func SubsampleGrid(ps []Patch, maxSamples int) []Patch {
	if maxSamples<=0 || len(ps)<=maxSamples { return ps }
	rng:=fastrand.RNG{}
	for i:=0; i<maxSamples; i++ {
		j:=i+int(rng.Uint32n(uint32(len(ps)-i)))
		ps[i], ps[j] = ps[j], ps[i]
	}
	return ps[:maxSamples]
}
