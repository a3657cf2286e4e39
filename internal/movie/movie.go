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
	"fmt"
)

// An in-memory movie: a fixed-shape sequence of monochrome frames.
// Pixel intensities are stored frame-major, row-major within a frame.
// Shape is immutable once created; processing steps producing new values
// append to History for provenance.
type Movie struct {
	Frames int32       // Number of frames (time axis)
	Height int32       // Rows per frame
	Width  int32       // Columns per frame
	Pixels int32       // Pixels per frame. Product of Height and Width

	Data   []float32   // The pixel data, len = Frames*Pixels

	History []string   // Processing history entries, oldest first
}

// Creates a movie of the given shape. Data is not copied, allocated if nil
func NewMovie(frames, height, width int32, data []float32) *Movie {
	pixels:=height*width
	if data==nil {
		data=make([]float32, int(frames)*int(pixels))
	}
	return &Movie{
		Frames:  frames,
		Height:  height,
		Width:   width,
		Pixels:  pixels,
		Data:    data,
		History: nil,
	}
}

// Creates a movie with the same shape as the given movie. New data array
// will be allocated, history is carried over
func NewMovieLike(m *Movie) *Movie {
	res:=NewMovie(m.Frames, m.Height, m.Width, nil)
	res.History=append([]string(nil), m.History...)
	return res
}

// Returns the pixel data of frame t as a slice into the movie data
func (m *Movie) Frame(t int32) []float32 {
	return m.Data[t*m.Pixels : (t+1)*m.Pixels]
}

// Returns the intensity at (frame, row, col)
func (m *Movie) At(t, y, x int32) float32 {
	return m.Data[t*m.Pixels + y*m.Width + x]
}

// Returns true if both movies have identical shape
func (m *Movie) ShapeEquals(o *Movie) bool {
	return m.Frames==o.Frames && m.Height==o.Height && m.Width==o.Width
}

// Appends an entry to the processing history
func (m *Movie) LogHistory(entry string) {
	m.History=append(m.History, entry)
}

// Pretty prints the movie dimensions as TxHxW
func (m *Movie) DimensionsToString() string {
	return fmt.Sprintf("%dx%dx%d", m.Frames, m.Height, m.Width)
}
