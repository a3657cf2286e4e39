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


package rest

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/datajoint/CaImAn/internal/movie"
	"github.com/datajoint/CaImAn/internal/vst"
)

// Serves the variance stabilization API over raw movie files in the current
// directory tree
func Serve() {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET ("/ping",     getPing)
			v1.POST("/estimate", postEstimate)
			v1.POST("/forward",  postForward)
			v1.POST("/inverse",  postInverse)
		}
	}
	r.Run() // listen and serve on 0.0.0.0:8080
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// Raw movie location and shape, supplied with every request
type movieArgs struct {
	FileName string `json:"fileName"`
	Frames   int32  `json:"frames"`
	Height   int32  `json:"height"`
	Width    int32  `json:"width"`
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) { return false }          // relative paths only
	if strings.Contains(p, "..") { return false }  // no going outside the tree
	return true
}

func (a *movieArgs) load() (*movie.Movie, error) {
	if !isPathAllowed(a.FileName) {
		return nil, errors.New("filename outside current directory tree")
	}
	return movie.ReadRawFile(a.FileName, a.Frames, a.Height, a.Width)
}

type postEstimateArgs struct {
	movieArgs
	PatchSize       int32 `json:"patchSize"`
	SpatialStride   int32 `json:"spatialStride"`
	TemporalStride  int32 `json:"temporalStride"`
	MinValidSamples int   `json:"minValidSamples"`
	MaxSamples      int   `json:"maxSamples"`
}

func postEstimate(c *gin.Context) {
	var args postEstimateArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err:=args.load()
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts:=vst.DefaultEstimateOptions()
	if args.PatchSize>0       { opts.PatchSize=args.PatchSize }
	if args.SpatialStride>0   { opts.SpatialStride=args.SpatialStride }
	if args.TemporalStride>0  { opts.TemporalStride=args.TemporalStride }
	if args.MinValidSamples>0 { opts.MinValidSamples=args.MinValidSamples }
	if args.MaxSamples>0      { opts.MaxSamples=args.MaxSamples }

	ctx:=vst.NewContext(c.Writer)
	nm, err:=vst.EstimateNoiseModel(ctx, m, opts)
	if err!=nil {
		status:=http.StatusInternalServerError
		if errors.Is(err, vst.ErrInvalidArgument) || errors.Is(err, vst.ErrInsufficientSamples) {
			status=http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alpha":         nm.Alpha,
		"sigmaSq":       nm.SigmaSq,
		"samples":       nm.Samples,
		"rejected":      nm.Rejected,
		"lowConfidence": nm.LowConfidence,
	})
}

type postTransformArgs struct {
	movieArgs
	Out     string  `json:"out"`
	Alpha   float64 `json:"alpha"`
	SigmaSq float64 `json:"sigmaSq"`
	Mu      float64 `json:"mu"`
	Method  string  `json:"method"`  // inverse only
}

func postForward(c *gin.Context) {
	runTransform(c, func(ctx *vst.Context, m *movie.Movie, nm *vst.NoiseModel, args *postTransformArgs) (*movie.Movie, error) {
		return vst.Forward(ctx, m, nm, float32(args.Mu))
	})
}

func postInverse(c *gin.Context) {
	runTransform(c, func(ctx *vst.Context, m *movie.Movie, nm *vst.NoiseModel, args *postTransformArgs) (*movie.Movie, error) {
		method, err:=vst.ParseInverseMethod(args.Method)
		if err!=nil { return nil, err }
		return vst.Inverse(ctx, m, nm, method, float32(args.Mu))
	})
}

func runTransform(c *gin.Context, apply func(*vst.Context, *movie.Movie, *vst.NoiseModel, *postTransformArgs) (*movie.Movie, error)) {
	var args postTransformArgs
	if err:=c.ShouldBind(&args); err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isPathAllowed(args.Out) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "output filename outside current directory tree"})
		return
	}
	m, err:=args.load()
	if err!=nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	nm:=&vst.NoiseModel{Alpha: args.Alpha, SigmaSq: args.SigmaSq}
	ctx:=vst.NewContext(nil)
	out, err:=apply(ctx, m, nm, &args)
	if err!=nil {
		status:=http.StatusInternalServerError
		if errors.Is(err, vst.ErrInvalidArgument) {
			status=http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if err:=out.WriteRawFile(args.Out); err!=nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"out":     args.Out,
		"history": out.History,
	})
}
