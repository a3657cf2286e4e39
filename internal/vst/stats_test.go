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
	"testing"

	"github.com/datajoint/CaImAn/internal/movie"
)

// 2 frames of 4x4 holding 0..31: pooled mean 15.5, unbiased variance
// sum((i-15.5)^2)/31 = 2728/31 = 88
func TestPatchStatsPooled(t *testing.T) {
	m := movie.NewMovie(2, 4, 4, nil)
	for i := range m.Data {
		m.Data[i] = float32(i)
	}
	s := PatchStats(m, Patch{Row: 0, Col: 0, Size: 4}, 1)
	if s.Degenerate {
		t.Fatal("pooled sample flagged degenerate")
	}
	if s.N != 32 {
		t.Errorf("got N=%d, want 32", s.N)
	}
	if math.Abs(float64(s.Mean-15.5)) > 1e-5 {
		t.Errorf("got mean %f, want 15.5", s.Mean)
	}
	if math.Abs(float64(s.Variance-88)) > 1e-3 {
		t.Errorf("got variance %f, want 88", s.Variance)
	}
}

// Temporal stride 2 on 2 frames pools only frame 0: values 0..15,
// mean 7.5, variance 340/15
func TestPatchStatsTemporalStride(t *testing.T) {
	m := movie.NewMovie(2, 4, 4, nil)
	for i := range m.Data {
		m.Data[i] = float32(i)
	}
	s := PatchStats(m, Patch{Row: 0, Col: 0, Size: 4}, 2)
	if s.N != 16 {
		t.Errorf("got N=%d, want 16", s.N)
	}
	if math.Abs(float64(s.Mean-7.5)) > 1e-5 {
		t.Errorf("got mean %f, want 7.5", s.Mean)
	}
	want := float32(340.0 / 15.0)
	if math.Abs(float64(s.Variance-want)) > 1e-4 {
		t.Errorf("got variance %f, want %f", s.Variance, want)
	}
}

// A sub-patch must only pool its own pixels
func TestPatchStatsSubRegion(t *testing.T) {
	m := movie.NewMovie(1, 4, 4, nil)
	for i := range m.Data {
		m.Data[i] = float32(i)
	}
	// rows 2-3, cols 2-3: values 10, 11, 14, 15
	s := PatchStats(m, Patch{Row: 2, Col: 2, Size: 2}, 1)
	if s.N != 4 {
		t.Errorf("got N=%d, want 4", s.N)
	}
	if math.Abs(float64(s.Mean-12.5)) > 1e-5 {
		t.Errorf("got mean %f, want 12.5", s.Mean)
	}
	// deviations -2.5, -1.5, 1.5, 2.5: variance (6.25+2.25+2.25+6.25)/3
	want := float32(17.0 / 3.0)
	if math.Abs(float64(s.Variance-want)) > 1e-4 {
		t.Errorf("got variance %f, want %f", s.Variance, want)
	}
}

func TestPatchStatsDegenerate(t *testing.T) {
	m := movie.NewMovie(8, 8, 8, nil)
	for i := range m.Data {
		m.Data[i] = 42
	}
	s := PatchStats(m, Patch{Row: 0, Col: 0, Size: 8}, 1)
	if !s.Degenerate {
		t.Error("constant patch not flagged degenerate")
	}
	if s.Variance != 0 {
		t.Errorf("constant patch has variance %f", s.Variance)
	}
	if math.Abs(float64(s.Mean-42)) > 1e-5 {
		t.Errorf("got mean %f, want 42", s.Mean)
	}
}
