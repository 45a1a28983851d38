// Package quadrature computes the probability density of homodyne
// measurements on a single-mode state.
//
// The rotated quadrature is X_θ = (âe^{-iθ} + â†e^{iθ})/√2, so the vacuum has
// variance 1/2 for every θ. Its density in state ρ is
//
//	q(θ, x) = Σ_{m,n} ρ_{m,n} e^{-i(m-n)θ} ψ_m(x) ψ_n(x)
//
// where ψ_n are the harmonic oscillator eigenfunctions.
package quadrature

import (
	"fmt"
	"math"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/qerr"
)

var piQuarter = math.Pow(math.Pi, -0.25)

// Wavefunctions writes ψ_0(x), ..., ψ_{len(dst)-1}(x) into dst.
func Wavefunctions(dst []float64, x float64) {
	if len(dst) == 0 {
		return
	}
	dst[0] = piQuarter * math.Exp(-x*x/2)
	if len(dst) > 1 {
		dst[1] = math.Sqrt2 * x * dst[0]
	}
	for n := 1; n+1 < len(dst); n++ {
		nf := float64(n)
		dst[n+1] = math.Sqrt(2/(nf+1))*x*dst[n] - math.Sqrt(nf/(nf+1))*dst[n-1]
	}
}

// An Evaluator computes q(θ, x) for a fixed state. It holds its own copy of
// the density matrix and scratch space, so it is cheap to call repeatedly
// but must not be shared between goroutines.
type Evaluator struct {
	dim int
	rho []complex128 // row major
	psi []float64
	phi []complex128
}

// NewEvaluator snapshots the density matrix of s.
func NewEvaluator(s fock.State) *Evaluator {
	rho := s.DensityMatrix()
	dim := s.Dim()
	e := &Evaluator{
		dim: dim,
		rho: make([]complex128, dim*dim),
		psi: make([]float64, dim),
		phi: make([]complex128, dim),
	}
	for m := 0; m < dim; m++ {
		for n := 0; n < dim; n++ {
			e.rho[m*dim+n] = rho.At(m, n)
		}
	}
	return e
}

// Dim returns the truncation of the snapshotted state.
func (e *Evaluator) Dim() int {
	return e.dim
}

// PDF returns q(θ, x). Truncation error can leave it slightly negative far
// in the tails; the raw value is returned.
func (e *Evaluator) PDF(theta, x float64) float64 {
	Wavefunctions(e.psi, x)
	for n, p := range e.psi {
		s, c := math.Sincos(float64(n) * theta)
		e.phi[n] = complex(c*p, s*p)
	}
	var q float64
	for m := 0; m < e.dim; m++ {
		row := e.rho[m*e.dim : (m+1)*e.dim]
		var acc complex128
		for n, r := range row {
			acc += r * e.phi[n]
		}
		// conj(φ_m)·acc
		pm := e.phi[m]
		q += real(pm)*real(acc) + imag(pm)*imag(acc)
	}
	return q
}

// PDF returns q(θ, x) for s.
func PDF(s fock.State, theta, x float64) float64 {
	return NewEvaluator(s).PDF(theta, x)
}

// Grid evaluates q on every combination of thetas and xs. The result is
// indexed [i][j] for (thetas[i], xs[j]).
func Grid(s fock.State, thetas, xs []float64) ([][]float64, error) {
	if err := checkFinite("theta", thetas); err != nil {
		return nil, err
	}
	if err := checkFinite("x", xs); err != nil {
		return nil, err
	}
	e := NewEvaluator(s)
	out := make([][]float64, len(thetas))
	for i, th := range thetas {
		out[i] = make([]float64, len(xs))
		for j, x := range xs {
			out[i][j] = e.PDF(th, x)
		}
	}
	return out, nil
}

// Pairs evaluates q at (thetas[i], xs[i]) for each i.
func Pairs(s fock.State, thetas, xs []float64) ([]float64, error) {
	if len(thetas) != len(xs) {
		return nil, fmt.Errorf("%d phases and %d positions: %w", len(thetas), len(xs), qerr.ErrInvalidParameter)
	}
	if err := checkFinite("theta", thetas); err != nil {
		return nil, err
	}
	if err := checkFinite("x", xs); err != nil {
		return nil, err
	}
	e := NewEvaluator(s)
	out := make([]float64, len(xs))
	for i := range xs {
		out[i] = e.PDF(thetas[i], xs[i])
	}
	return out, nil
}

func checkFinite(name string, vs []float64) error {
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d] = %v: %w", name, i, v, qerr.ErrInvalidParameter)
		}
	}
	return nil
}
