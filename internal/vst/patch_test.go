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
	"testing"
)

func TestPatchGrid(t *testing.T) {
	tcs := []struct {
		height, width, size, stride int32
		want                        int
	}{
		{32, 32, 8, 8, 16},
		{30, 30, 8, 8, 9},   // trailing partials discarded
		{64, 32, 8, 8, 32},
		{8, 8, 8, 8, 1},
		{7, 8, 8, 8, 0},     // frame smaller than patch
		{32, 32, 8, 4, 49},  // stride-overlapping grid
	}
	for _, tc := range tcs {
		ps, err := PatchGrid(tc.height, tc.width, tc.size, tc.stride)
		if err != nil {
			t.Fatalf("grid %dx%d p%d s%d: %v", tc.height, tc.width, tc.size, tc.stride, err)
		}
		if len(ps) != tc.want {
			t.Errorf("grid %dx%d p%d s%d: got %d patches, want %d", tc.height, tc.width, tc.size, tc.stride, len(ps), tc.want)
		}
		for _, p := range ps {
			if p.Row < 0 || p.Col < 0 || p.Row+p.Size > tc.height || p.Col+p.Size > tc.width {
				t.Errorf("patch %v outside %dx%d frame", p, tc.height, tc.width)
			}
			if p.Size != tc.size {
				t.Errorf("patch %v with size %d, want %d", p, p.Size, tc.size)
			}
		}
	}
}

func TestPatchGridDeterministic(t *testing.T) {
	a, err := PatchGrid(100, 120, 16, 12)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := PatchGrid(100, 120, 16, 12)
	if len(a) != len(b) {
		t.Fatalf("restarted grid has %d patches, want %d", len(b), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("restarted grid differs at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestPatchGridInvalidArguments(t *testing.T) {
	tcs := []struct{ height, width, size, stride int32 }{
		{0, 32, 8, 8},
		{32, -1, 8, 8},
		{32, 32, 0, 8},
		{32, 32, 8, 0},
		{32, 32, -8, 8},
	}
	for _, tc := range tcs {
		_, err := PatchGrid(tc.height, tc.width, tc.size, tc.stride)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("grid %dx%d p%d s%d: got %v, want ErrInvalidArgument", tc.height, tc.width, tc.size, tc.stride, err)
		}
	}
}

func TestSubsampleGrid(t *testing.T) {
	ps, err := PatchGrid(64, 64, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got := SubsampleGrid(ps, 0); len(got) != len(ps) {
		t.Errorf("cap 0: got %d patches, want %d", len(got), len(ps))
	}
	if got := SubsampleGrid(ps, 1000); len(got) != len(ps) {
		t.Errorf("cap above grid size: got %d patches, want %d", len(got), len(ps))
	}

	ps, _ = PatchGrid(64, 64, 8, 8)
	got := SubsampleGrid(ps, 10)
	if len(got) != 10 {
		t.Fatalf("cap 10: got %d patches", len(got))
	}
	seen := map[Patch]bool{}
	for _, p := range got {
		if seen[p] {
			t.Errorf("duplicate patch %v in subsample", p)
		}
		seen[p] = true
		if p.Row%8 != 0 || p.Col%8 != 0 || p.Row > 56 || p.Col > 56 {
			t.Errorf("subsampled patch %v not from the original grid", p)
		}
	}
}
