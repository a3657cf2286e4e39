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

package movie

import (
	"bytes"
	"testing"

	"golang.org/x/image/tiff"
)

func TestNewMovie(t *testing.T) {
	m := NewMovie(3, 4, 5, nil)
	if m.Pixels != 20 {
		t.Errorf("got %d pixels per frame, want 20", m.Pixels)
	}
	if len(m.Data) != 60 {
		t.Errorf("got %d data values, want 60", len(m.Data))
	}
	if m.DimensionsToString() != "3x4x5" {
		t.Errorf("got dimensions %s, want 3x4x5", m.DimensionsToString())
	}
}

func TestMovieAccessors(t *testing.T) {
	m := NewMovie(2, 3, 4, nil)
	for i := range m.Data {
		m.Data[i] = float32(i)
	}
	if got := m.At(1, 2, 3); got != 23 {
		t.Errorf("At(1,2,3)=%f, want 23", got)
	}
	f := m.Frame(1)
	if len(f) != 12 || f[0] != 12 {
		t.Errorf("Frame(1) len %d first %f, want 12 and 12", len(f), f[0])
	}

	o := NewMovieLike(m)
	if !m.ShapeEquals(o) {
		t.Error("NewMovieLike changed the shape")
	}
	if o.Data[0] != 0 {
		t.Error("NewMovieLike did not allocate fresh data")
	}
	m.LogHistory("step one")
	o2 := NewMovieLike(m)
	if len(o2.History) != 1 || o2.History[0] != "step one" {
		t.Errorf("history not carried over: %v", o2.History)
	}
}

func TestRawRoundTrip(t *testing.T) {
	m := NewMovie(2, 4, 4, nil)
	for i := range m.Data {
		m.Data[i] = float32(i) * 0.5
	}
	buf := &bytes.Buffer{}
	if err := m.WriteRaw(buf); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != len(m.Data)*4 {
		t.Errorf("raw stream is %d bytes, want %d", buf.Len(), len(m.Data)*4)
	}
	o, err := ReadRaw(buf, 2, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range m.Data {
		if o.Data[i] != m.Data[i] {
			t.Errorf("data[%d]=%f, want %f", i, o.Data[i], m.Data[i])
		}
	}
}

func TestReadRawBadShape(t *testing.T) {
	if _, err := ReadRaw(&bytes.Buffer{}, 0, 4, 4); err == nil {
		t.Error("zero frames accepted")
	}
	// truncated stream
	buf := bytes.NewBuffer(make([]byte, 10))
	if _, err := ReadRaw(buf, 1, 4, 4); err == nil {
		t.Error("truncated stream accepted")
	}
}

func TestWriteTIFF16(t *testing.T) {
	m := NewMovie(2, 8, 8, nil)
	for i := range m.Frame(1) {
		m.Frame(1)[i] = float32(i)
	}
	min, max := m.FrameMinMax(1)
	if min != 0 || max != 63 {
		t.Fatalf("got frame range [%f, %f], want [0, 63]", min, max)
	}

	buf := &bytes.Buffer{}
	if err := m.WriteTIFF16(buf, 1, min, max, 1.0); err != nil {
		t.Fatal(err)
	}
	img, err := tiff.Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	b := img.Bounds()
	if b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("decoded %dx%d image, want 8x8", b.Dx(), b.Dy())
	}
	r0, _, _, _ := img.At(0, 0).RGBA()
	r1, _, _, _ := img.At(7, 7).RGBA()
	if r0 != 0 || r1 != 65535 {
		t.Errorf("got corner values %d and %d, want 0 and 65535", r0, r1)
	}

	if err := m.WriteTIFF16(&bytes.Buffer{}, 5, 0, 1, 1.0); err == nil {
		t.Error("out-of-range frame accepted")
	}
	if err := m.WriteTIFF16(&bytes.Buffer{}, 0, 1, 1, 1.0); err == nil {
		t.Error("empty preview range accepted")
	}
}
