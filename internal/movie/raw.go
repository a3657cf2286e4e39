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
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Raw movie files are headerless streams of little-endian float32 pixel
// intensities, frame-major. Shape is supplied out of band by the caller.

// Reads a raw movie of the given shape from a file
func ReadRawFile(fileName string, frames, height, width int32) (*Movie, error) {
	f, err:=os.Open(fileName)
	if err!=nil { return nil, err }
	defer f.Close()
	return ReadRaw(bufio.NewReader(f), frames, height, width)
}

// Reads a raw movie of the given shape from an io.Reader
func ReadRaw(r io.Reader, frames, height, width int32) (*Movie, error) {
	if frames<=0 || height<=0 || width<=0 {
		return nil, fmt.Errorf("invalid raw movie shape %dx%dx%d", frames, height, width)
	}
	m:=NewMovie(frames, height, width, nil)
	if err:=binary.Read(r, binary.LittleEndian, m.Data); err!=nil {
		return nil, fmt.Errorf("reading %dx%dx%d raw movie: %w", frames, height, width, err)
	}
	return m, nil
}

// Writes a raw movie to a file. Creates/overwrites the file if necessary
func (m *Movie) WriteRawFile(fileName string) error {
	f, err:=os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err!=nil { return err }
	defer f.Close()
	w:=bufio.NewWriter(f)
	if err:=m.WriteRaw(w); err!=nil { return err }
	return w.Flush()
}

// Writes a raw movie to an io.Writer
func (m *Movie) WriteRaw(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, m.Data)
}
