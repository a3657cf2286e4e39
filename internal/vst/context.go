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
	"io"
	"runtime"

	"github.com/pbnjay/memory"

	"github.com/datajoint/CaImAn/internal/movie"
)

// An execution context for estimation and transforms
type Context struct {
	Log         io.Writer
	MemoryMB    int          // memory.TotalMemory()/1024/1024
	WorkMemoryMB int         // MemoryMB*7/10
	MaxThreads  int
}

func NewContext(log io.Writer) *Context {
	memoryMB:=int(memory.TotalMemory()/1024/1024)
	return &Context{
		Log          : log,
		MemoryMB     : memoryMB,
		WorkMemoryMB : memoryMB*7/10,
		MaxThreads   : runtime.GOMAXPROCS(0),
	}
}

// Returns true if the given number of copies of the movie fits the working
// memory budget. Advisory only; callers log a warning and proceed
func (c *Context) FitsInMemory(m *movie.Movie, copies int) bool {
	mb:=int(int64(len(m.Data))*4*int64(copies)/1024/1024)
	return mb<=c.WorkMemoryMB
}

// Concurrency limit for fan-out loops, at least one
func (c *Context) threads() int {
	if c==nil || c.MaxThreads<1 { return runtime.GOMAXPROCS(0) }
	return c.MaxThreads
}

// Logs to the context's writer, if any
func (c *Context) logf(format string, args ...interface{}) {
	if c==nil || c.Log==nil { return }
	fmt.Fprintf(c.Log, format, args...)
}
