// Package ladder builds the truncated ladder operators of a single bosonic
// mode and the displacement and squeezing operators generated from them.
//
// All operators are dense dim×dim matrices in the Fock basis |0⟩..|dim-1⟩.
// Amplitude that an operator would move above level dim-1 is discarded, so
// the displacement and squeezing operators are only approximately unitary;
// the error grows with |α| and |ξ| relative to dim.
package ladder

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/alan-christopher/fock/fock/cmat"
	"github.com/alan-christopher/fock/fock/polar"
	"github.com/alan-christopher/fock/fock/qerr"
	"gonum.org/v1/gonum/mat"
)

// Annihilation returns â, with ⟨n|â|n+1⟩ = √(n+1).
func Annihilation(dim int) (*mat.CDense, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	a := mat.NewCDense(dim, dim, nil)
	for n := 0; n+1 < dim; n++ {
		a.Set(n, n+1, complex(math.Sqrt(float64(n+1)), 0))
	}
	return a, nil
}

// Creation returns â†, the conjugate transpose of Annihilation(dim).
func Creation(dim int) (*mat.CDense, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	a := mat.NewCDense(dim, dim, nil)
	for n := 0; n+1 < dim; n++ {
		a.Set(n+1, n, complex(math.Sqrt(float64(n+1)), 0))
	}
	return a, nil
}

// Displacement returns D̂(α) = exp(αâ† - α*â).
func Displacement(alpha polar.Complex, dim int) (*mat.CDense, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	al := alpha.Complex128()
	gen := mat.NewCDense(dim, dim, nil)
	for n := 0; n+1 < dim; n++ {
		s := complex(math.Sqrt(float64(n+1)), 0)
		gen.Set(n+1, n, al*s)
		gen.Set(n, n+1, -cmplx.Conj(al)*s)
	}
	d, err := cmat.Exp(gen)
	if err != nil {
		return nil, fmt.Errorf("displacement %v: %w", alpha, err)
	}
	return d, nil
}

// Squeezing returns Ŝ(ξ) = exp(½(ξ*â² - ξâ†²)).
func Squeezing(xi polar.Complex, dim int) (*mat.CDense, error) {
	if err := checkDim(dim); err != nil {
		return nil, err
	}
	x := xi.Complex128()
	gen := mat.NewCDense(dim, dim, nil)
	for n := 0; n+2 < dim; n++ {
		// ⟨n|â²|n+2⟩ = √((n+1)(n+2)), and â†² is its transpose.
		s := complex(math.Sqrt(float64((n+1)*(n+2))), 0)
		gen.Set(n, n+2, cmplx.Conj(x)*s/2)
		gen.Set(n+2, n, -x*s/2)
	}
	s, err := cmat.Exp(gen)
	if err != nil {
		return nil, fmt.Errorf("squeezing %v: %w", xi, err)
	}
	return s, nil
}

func checkDim(dim int) error {
	if dim <= 0 {
		return fmt.Errorf("dim %d: %w", dim, qerr.ErrInvalidDimension)
	}
	return nil
}
