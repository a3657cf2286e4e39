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

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"runtime/pprof"
	"time"

	"github.com/datajoint/CaImAn/internal/config"
	"github.com/datajoint/CaImAn/internal/movie"
	"github.com/datajoint/CaImAn/internal/rest"
	"github.com/datajoint/CaImAn/internal/vst"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var cfgFile = flag.String("config", "", "load job configuration from YAML `file`")
var logFile = flag.String("log", "", "mirror log output to `file`")

var frames = flag.Int64("frames", 0, "number of frames in the raw input movie")
var height = flag.Int64("height", 0, "frame height of the raw input movie in pixels")
var width  = flag.Int64("width", 0, "frame width of the raw input movie in pixels")

var patch      = flag.Int64("patch", 0, "patch size for noise estimation, 0=use config")
var stride     = flag.Int64("stride", 0, "spatial stride between patch origins, 0=use config")
var tStride    = flag.Int64("tStride", 0, "temporal stride for noise estimation, 0=use config")
var minSamples = flag.Int64("minSamples", 0, "minimum valid patch samples for a reliable fit, 0=use config")
var maxSamples = flag.Int64("maxSamples", -1, "cap on sampled patches, 0=no cap, -1=use config")

var alpha   = flag.Float64("alpha", 0, "Poisson gain of the noise model, overrides -model")
var sigmaSq = flag.Float64("sigmaSq", 0, "Gaussian noise variance of the noise model, overrides -model")
var mu      = flag.Float64("mu", 0, "mean of the Gaussian noise component")
var method  = flag.String("method", "", "inverse method: algebraic, asymptotic_unbiased, exact_unbiased; blank=use config")

var modelFile = flag.String("model", "", "read/write the noise model as JSON from/to `file`")
var out       = flag.String("out", "out.raw", "save output movie to `file`")

var preview      = flag.String("preview", "", "save a 16-bit TIFF preview of one output frame to `file`")
var previewFrame = flag.Int64("previewFrame", 0, "frame to preview")
var previewGamma = flag.Float64("previewGamma", 1.0, "gamma for the TIFF preview")

func main() {
	logWriter:=io.Writer(os.Stdout)
	start:=time.Now()
	flag.Usage=func(){
		fmt.Fprintf(logWriter, `caiman-vst Copyright (c) 2020 Markus L. Noga
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.
Refer to https://www.gnu.org/licenses/gpl-3.0.en.html for details.

Usage: %s [-flag value] (estimate|forward|inverse|roundtrip|serve|legal|version) movie.raw

Commands:
  estimate  Estimate the Poisson-Gaussian noise model of the input movie
  forward   Apply the forward generalized Anscombe transform
  inverse   Apply the selected inverse transform
  roundtrip Estimate, stabilize and invert, reporting reconstruction error
  serve     Serve the REST API
  legal     Show license and attribution information
  version   Show version information

Raw movies are headerless little-endian float32 streams; pass their shape
with -frames, -height and -width.

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	// Mirror logging to a file in addition to stdout, if selected
	if *logFile!="" {
		f, err:=os.OpenFile(*logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
		if err!=nil { fatalf("Unable to open logfile '%s': %s\n", *logFile, err) }
		defer f.Close()
		logWriter=io.MultiWriter(os.Stdout, f)
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fatalf("Could not create CPU profile: %s\n", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fatalf("Could not start CPU profile: %s\n", err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err:=config.LoadConfig(*cfgFile)
	if err!=nil { fatalf("%s\n", err) }
	applyFlagOverrides(cfg)

	args:=flag.Args()
	if len(args)<1 {
		flag.Usage()
		return
	}

	switch args[0] {
	case "estimate":
		m:=loadMovieArg(args)
		nm:=estimate(logWriter, cfg, m)
		saveModel(nm)
	case "forward":
		m:=loadMovieArg(args)
		nm:=resolveModel(logWriter, cfg, m)
		ctx:=newContext(logWriter, cfg)
		res, err:=vst.Forward(ctx, m, nm, float32(cfg.Transform.Mu))
		if err!=nil { fatalf("%s\n", err) }
		saveOutput(logWriter, res)
	case "inverse":
		m:=loadMovieArg(args)
		nm:=resolveModel(logWriter, cfg, m)
		im, err:=vst.ParseInverseMethod(cfg.Transform.Method)
		if err!=nil { fatalf("%s\n", err) }
		ctx:=newContext(logWriter, cfg)
		res, err:=vst.Inverse(ctx, m, nm, im, float32(cfg.Transform.Mu))
		if err!=nil { fatalf("%s\n", err) }
		saveOutput(logWriter, res)
	case "roundtrip":
		m:=loadMovieArg(args)
		roundtrip(logWriter, cfg, m)
	case "serve":
		rest.Serve()
	case "legal":
		fmt.Fprintf(logWriter, "%s\n", legal)
	case "version":
		fmt.Fprintf(logWriter, "caiman-vst version %s\n", version)
	case "help", "?":
		flag.Usage()
	default:
		fatalf("Unknown command '%s'. Run '%s help' for usage information\n", args[0], os.Args[0])
	}

	// Write memory profile if flagged
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fatalf("Could not create memory profile: %s\n", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fatalf("Could not write memory profile: %s\n", err)
		}
	}

	fmt.Fprintf(logWriter, "Done after %v\n", time.Since(start))
}

// Overrides config values with explicitly set flags
func applyFlagOverrides(cfg *config.Config) {
	if *patch>0      { cfg.Estimation.PatchSize=int(*patch) }
	if *stride>0     { cfg.Estimation.SpatialStride=int(*stride) }
	if *tStride>0    { cfg.Estimation.TemporalStride=int(*tStride) }
	if *minSamples>0 { cfg.Estimation.MinValidSamples=int(*minSamples) }
	if *maxSamples>=0 { cfg.Estimation.MaxSamples=int(*maxSamples) }
	if *method!=""   { cfg.Transform.Method=*method }
	if *mu!=0        { cfg.Transform.Mu=*mu }
}

func newContext(logWriter io.Writer, cfg *config.Config) *vst.Context {
	ctx:=vst.NewContext(logWriter)
	if !cfg.Output.Verbose { ctx.Log=nil }
	if cfg.MaxThreads>0 { ctx.MaxThreads=cfg.MaxThreads }
	return ctx
}

func estimateOptions(cfg *config.Config) vst.EstimateOptions {
	return vst.EstimateOptions{
		PatchSize:       int32(cfg.Estimation.PatchSize),
		SpatialStride:   int32(cfg.Estimation.SpatialStride),
		TemporalStride:  int32(cfg.Estimation.TemporalStride),
		MinValidSamples: cfg.Estimation.MinValidSamples,
		MaxSamples:      cfg.Estimation.MaxSamples,
	}
}

func loadMovieArg(args []string) *movie.Movie {
	if len(args)<2 { fatalf("Missing input movie filename\n") }
	m, err:=movie.ReadRawFile(args[1], int32(*frames), int32(*height), int32(*width))
	if err!=nil { fatalf("Error loading '%s': %s\n", args[1], err) }
	return m
}

func estimate(logWriter io.Writer, cfg *config.Config, m *movie.Movie) *vst.NoiseModel {
	ctx:=newContext(logWriter, cfg)
	if !ctx.FitsInMemory(m, 2) {
		fmt.Fprintf(logWriter, "WARNING movie %s exceeds the working memory budget of %d MiB\n",
		            m.DimensionsToString(), ctx.WorkMemoryMB)
	}
	nm, err:=vst.EstimateNoiseModel(ctx, m, estimateOptions(cfg))
	if err!=nil { fatalf("%s\n", err) }
	fmt.Fprintf(logWriter, "Noise model: %v\n", nm)
	return nm
}

// Resolves the noise model for a transform: -alpha/-sigmaSq flags take
// precedence, then -model JSON, then a fresh estimation on the input
func resolveModel(logWriter io.Writer, cfg *config.Config, m *movie.Movie) *vst.NoiseModel {
	if *alpha>0 {
		return &vst.NoiseModel{Alpha: *alpha, SigmaSq: *sigmaSq}
	}
	if *modelFile!="" {
		data, err:=os.ReadFile(*modelFile)
		if err==nil {
			nm:=&vst.NoiseModel{}
			if err:=json.Unmarshal(data, nm); err!=nil {
				fatalf("Error parsing model file '%s': %s\n", *modelFile, err)
			}
			fmt.Fprintf(logWriter, "Loaded noise model from %s: %v\n", *modelFile, nm)
			return nm
		}
	}
	return estimate(logWriter, cfg, m)
}

func saveModel(nm *vst.NoiseModel) {
	if *modelFile=="" { return }
	data, err:=json.MarshalIndent(nm, "", "  ")
	if err!=nil { fatalf("Error marshaling model: %s\n", err) }
	if err:=os.WriteFile(*modelFile, data, 0644); err!=nil {
		fatalf("Error writing model file '%s': %s\n", *modelFile, err)
	}
}

func saveOutput(logWriter io.Writer, m *movie.Movie) {
	if *out!="" {
		fmt.Fprintf(logWriter, "Writing %s movie to %s\n", m.DimensionsToString(), *out)
		if err:=m.WriteRawFile(*out); err!=nil {
			fatalf("Error writing '%s': %s\n", *out, err)
		}
	}
	if *preview!="" {
		t:=int32(*previewFrame)
		min, max:=m.FrameMinMax(t)
		fmt.Fprintf(logWriter, "Writing preview of frame %d [%.6g, %.6g] to %s\n", t, min, max, *preview)
		if err:=m.WriteTIFF16ToFile(*preview, t, min, max, float32(*previewGamma)); err!=nil {
			fatalf("Error writing '%s': %s\n", *preview, err)
		}
	}
}

// Estimates, stabilizes and inverts the movie, reporting the relative
// reconstruction error of the round trip
func roundtrip(logWriter io.Writer, cfg *config.Config, m *movie.Movie) {
	nm:=resolveModel(logWriter, cfg, m)
	im, err:=vst.ParseInverseMethod(cfg.Transform.Method)
	if err!=nil { fatalf("%s\n", err) }

	ctx:=newContext(logWriter, cfg)
	fwd, err:=vst.Forward(ctx, m, nm, float32(cfg.Transform.Mu))
	if err!=nil { fatalf("%s\n", err) }
	rec, err:=vst.Inverse(ctx, fwd, nm, im, float32(cfg.Transform.Mu))
	if err!=nil { fatalf("%s\n", err) }

	maxRel, sumRel, n:=0.0, 0.0, 0
	for i, y:=range m.Data {
		if y<=0 { continue }
		rel:=math.Abs(float64(rec.Data[i]-y))/float64(y)
		if rel>maxRel { maxRel=rel }
		sumRel+=rel
		n++
	}
	if n>0 {
		fmt.Fprintf(logWriter, "Round trip (%s): mean relative error %.4g, max %.4g over %d positive pixels\n",
		            im, sumRel/float64(n), maxRel, n)
	}
	saveOutput(logWriter, rec)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
