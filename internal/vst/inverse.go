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
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/datajoint/CaImAn/internal/movie"
)

// Enumerated type for inverse transform methods
type InverseMethod int
const (
	InverseAlgebraic     InverseMethod = iota  // Closed-form algebraic inverse; cheapest, biased near zero
	InverseAsymptotic                          // Asymptotic unbiased inverse with higher-order correction
	InverseExactUnbiased                       // Exact unbiased inverse via lookup table, built once per model
)

func (m InverseMethod) String() string {
	switch m {
	case InverseAlgebraic:     return "algebraic"
	case InverseAsymptotic:    return "asymptotic_unbiased"
	case InverseExactUnbiased: return "exact_unbiased"
	}
	return fmt.Sprintf("invalid(%d)", int(m))
}

// Parses an inverse method name. Unknown names fail with ErrInvalidArgument
func ParseInverseMethod(s string) (InverseMethod, error) {
	switch s {
	case "algebraic":           return InverseAlgebraic, nil
	case "asymptotic_unbiased": return InverseAsymptotic, nil
	case "exact_unbiased":      return InverseExactUnbiased, nil
	}
	return 0, fmt.Errorf("%w: unknown inverse method %q", ErrInvalidArgument, s)
}

// All inverse variants work in the unit-gain domain. The forward transform of
// intensity y equals the unit Anscombe transform 2*sqrt(lambda+3/8) of the
// scaled value lambda = (alpha*y + sigmaSq - alpha*mu)/alpha^2, so each
// variant inverts z to a lambda estimate and maps back through
//
//	y = alpha*lambda - sigmaSq/alpha + mu

// Transform range floor: the unit forward transform of lambda=0
var zFloor=2*math.Sqrt(0.375)

// Algebraic inverse of the unit Anscombe transform, exact for noise-free
// values but biased under noise for small lambda
func algebraicLambda(z float64) float64 {
	return 0.25*z*z - 0.375
}

// Closed-form approximation of the exact unbiased inverse of the unit
// Anscombe transform, from Makitalo & Foi, IEEE TIP 2011
func asymptoticLambda(z float64) float64 {
	if z<=zFloor { return 0 }
	zInv:=1.0/z
	lambda:=0.25*z*z - 0.125 +
		0.25*math.Sqrt(1.5)*zInv -
		1.375*zInv*zInv +
		0.625*math.Sqrt(1.5)*zInv*zInv*zInv
	if lambda<0 { lambda=0 }
	return lambda
}

// Number of grid points and largest tabulated lambda for the exact unbiased
// inverse. Beyond the grid the asymptotic form is accurate to <0.1%
const (
	exactGridPoints=600
	exactLambdaMax =100.0
)

// Exact unbiased inverse of the unit Anscombe transform. Tabulates the
// forward expectation E[2*sqrt(Poisson(lambda)+3/8)] on a quadratically
// spaced lambda grid, dense near zero, and inverts it by piecewise linear
// interpolation. Built once per noise model and reused across all pixels and
// frames of a run
type exactUnbiasedInverse struct {
	pl   interp.PiecewiseLinear
	zMin float64  // forward expectation at lambda=0
	zMax float64  // forward expectation at the end of the grid
}

func newExactUnbiasedInverse() *exactUnbiasedInverse {
	lambdas:=make([]float64, exactGridPoints)
	zs     :=make([]float64, exactGridPoints)
	for i:=range lambdas {
		frac:=float64(i)/float64(exactGridPoints-1)
		lambdas[i]=exactLambdaMax*frac*frac
		zs[i]=anscombeExpectation(lambdas[i])
	}
	e:=&exactUnbiasedInverse{zMin: zs[0], zMax: zs[exactGridPoints-1]}
	if err:=e.pl.Fit(zs, lambdas); err!=nil {
		// the expectation is strictly increasing in lambda, so the xs are
		// strictly increasing and Fit cannot fail
		panic(err)
	}
	return e
}

func (e *exactUnbiasedInverse) lambda(z float64) float64 {
	if z<=e.zMin { return 0 }
	if z>=e.zMax { return asymptoticLambda(z) }
	return e.pl.Predict(z)
}

// Returns E[2*sqrt(X+3/8)] for X ~ Poisson(lambda), by truncated series
func anscombeExpectation(lambda float64) float64 {
	if lambda==0 { return zFloor }
	term:=math.Exp(-lambda)
	sum :=term*zFloor
	kMax:=int(lambda+40*math.Sqrt(lambda)+50)
	for k:=1; k<=kMax; k++ {
		term*=lambda/float64(k)
		sum +=term*2*math.Sqrt(float64(k)+0.375)
	}
	return sum
}

// Applies the selected inverse of the generalized Anscombe transform
// pixelwise, approximately recovering the original intensity scale of a
// variance-stabilized movie. The method is validated eagerly before any pixel
// is processed, and recorded in the output movie's history so repeated calls
// are reproducible. Frames are transformed in parallel
func Inverse(c *Context, m *movie.Movie, nm *NoiseModel, method InverseMethod, mu float32) (*movie.Movie, error) {
	if err:=validateTransform(m, nm); err!=nil { return nil, err }

	var lambda func(z float64) float64
	switch method {
	case InverseAlgebraic:
		lambda=algebraicLambda
	case InverseAsymptotic:
		lambda=asymptoticLambda
	case InverseExactUnbiased:
		lambda=newExactUnbiasedInverse().lambda
	default:
		return nil, fmt.Errorf("%w: unknown inverse method %d", ErrInvalidArgument, int(method))
	}

	alpha :=nm.Alpha
	offset:=nm.SigmaSq/alpha - float64(mu)

	out:=movie.NewMovieLike(m)
	forEachFrame(c, m.Frames, func(t int32) {
		src, dst:=m.Frame(t), out.Frame(t)
		for i, z:=range src {
			dst[i]=float32(alpha*lambda(float64(z)) - offset)
		}
	})
	out.LogHistory(fmt.Sprintf("gat inverse method=%s alpha=%.6g sigmaSq=%.6g mu=%.6g", method, nm.Alpha, nm.SigmaSq, mu))
	return out, nil
}
