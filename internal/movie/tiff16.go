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
	"bufio"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"golang.org/x/image/tiff"
)

// Write one frame of the movie to 16-bit grayscale TIFF, using the given min, max and gamma.
func (m *Movie) WriteTIFF16ToFile(fileName string, frame int32, min, max, gamma float32) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return m.WriteTIFF16(writer, frame, min, max, gamma)
}

// Write one frame of the movie to 16-bit grayscale TIFF, using the given min, max and gamma.
func (m *Movie) WriteTIFF16(writer io.Writer, frame int32, min, max, gamma float32) error {
	if frame < 0 || frame >= m.Frames {
		return fmt.Errorf("frame %d outside movie with %d frames", frame, m.Frames)
	}
	if max <= min {
		return fmt.Errorf("invalid preview range [%g, %g]", min, max)
	}

	// convert pixels into Golang Image
	width, height := int(m.Width), int(m.Height)
	img := image.NewGray16(image.Rectangle{image.Point{0, 0}, image.Point{width, height}})
	data := m.Frame(frame)
	scale := 1.0 / (max - min)
	gammaInv := float64(1.0 / gamma)
	for y := 0; y < height; y++ {
		yoffset := y * width
		for x := 0; x < width; x++ {
			v := (data[yoffset+x] - min) * scale
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			if gammaInv != 1.0 {
				v = float32(math.Pow(float64(v), gammaInv))
			}
			gray := uint16(v*65535 + 0.5)
			off := img.PixOffset(x, y)
			img.Pix[off] = uint8(gray >> 8)
			img.Pix[off+1] = uint8(gray)
		}
	}

	return tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// Returns the minimum and maximum intensity of one frame, for preview scaling
func (m *Movie) FrameMinMax(frame int32) (min, max float32) {
	data := m.Frame(frame)
	min, max = data[0], data[0]
	for _, v := range data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
