// Package fock provides quantum states of a single bosonic mode, represented
// in the Fock basis truncated to a fixed number of levels.
//
// A state is either a StateVector (pure, amplitude per level) or a
// StateMatrix (density matrix). Both satisfy the State interface, which is all
// the analysis packages (wigner, quadrature, sampler) need.
package fock

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/alan-christopher/fock/fock/cmat"
	"github.com/alan-christopher/fock/fock/qerr"
	"gonum.org/v1/gonum/mat"
)

// DefaultDim is the truncation used when a constructor is not given WithDim.
const DefaultDim = 70

// A State is a quantum state of a single mode in a truncated Fock basis.
type State interface {
	// Dim returns the number of Fock levels retained.
	Dim() int
	// DensityMatrix returns a fresh copy of ρ, with entry (m, n) = ⟨m|ρ|n⟩.
	DensityMatrix() *mat.CDense
	// Purity returns Tr(ρ²).
	Purity() float64
	// Gaussian reports whether the state is known to have a Gaussian Wigner
	// function, e.g. because it was built from vacuum by displacement and
	// squeezing only.
	Gaussian() bool
}

// A StateVector is a pure state |ψ⟩ = Σ ψ_n |n⟩.
//
// Operators acting on a StateVector do not renormalize it: amplitude pushed
// above the truncation is lost, and callers who need normalized
// probabilities must call Normalize.
type StateVector struct {
	v        []complex128
	gaussian bool
}

// NewStateVector returns a state whose amplitudes are a copy of v.
func NewStateVector(v []complex128) (*StateVector, error) {
	if len(v) == 0 {
		return nil, fmt.Errorf("empty amplitude vector: %w", qerr.ErrInvalidDimension)
	}
	c := make([]complex128, len(v))
	copy(c, v)
	return &StateVector{v: c}, nil
}

// Dim implements the State interface.
func (s *StateVector) Dim() int {
	return len(s.v)
}

// Vec returns a copy of the amplitudes.
func (s *StateVector) Vec() []complex128 {
	c := make([]complex128, len(s.v))
	copy(c, s.v)
	return c
}

// Amplitude returns ⟨n|ψ⟩, or 0 if n is outside the truncation.
func (s *StateVector) Amplitude(n int) complex128 {
	if n < 0 || n >= len(s.v) {
		return 0
	}
	return s.v[n]
}

// Clone returns an independent copy of s.
func (s *StateVector) Clone() *StateVector {
	return &StateVector{v: s.Vec(), gaussian: s.gaussian}
}

// DensityMatrix implements the State interface.
func (s *StateVector) DensityMatrix() *mat.CDense {
	return cmat.Outer(s.v)
}

// Purity implements the State interface. A vector state is pure by
// construction.
func (s *StateVector) Purity() float64 {
	return 1
}

// Gaussian implements the State interface.
func (s *StateVector) Gaussian() bool {
	return s.gaussian
}

// Norm returns √⟨ψ|ψ⟩.
func (s *StateVector) Norm() float64 {
	var sum float64
	for _, a := range s.v {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

// Normalize rescales s to unit norm. A zero vector is left untouched.
func (s *StateVector) Normalize() {
	n := s.Norm()
	if n == 0 {
		return
	}
	for i := range s.v {
		s.v[i] /= complex(n, 0)
	}
}

// A StateMatrix is a density matrix ρ, Hermitian with unit trace and
// positive semi-definite up to truncation error.
type StateMatrix struct {
	rho      *mat.CDense
	gaussian bool
}

// NewStateMatrix returns the density matrix |ψ⟩⟨ψ| of v.
func NewStateMatrix(v *StateVector) *StateMatrix {
	return &StateMatrix{rho: v.DensityMatrix(), gaussian: v.gaussian}
}

// NewStateMatrixFromRho returns a state whose density matrix is a copy of rho.
// rho is not checked for hermiticity or positivity.
func NewStateMatrixFromRho(rho mat.CMatrix) (*StateMatrix, error) {
	r, c := rho.Dims()
	if r != c || r == 0 {
		return nil, fmt.Errorf("density matrix of shape %dx%d: %w", r, c, qerr.ErrInvalidDimension)
	}
	return &StateMatrix{rho: cmat.Clone(rho)}, nil
}

// Dim implements the State interface.
func (s *StateMatrix) Dim() int {
	r, _ := s.rho.Dims()
	return r
}

// Rho returns a copy of the density matrix.
func (s *StateMatrix) Rho() *mat.CDense {
	return cmat.Clone(s.rho)
}

// DensityMatrix implements the State interface.
func (s *StateMatrix) DensityMatrix() *mat.CDense {
	return s.Rho()
}

// Clone returns an independent copy of s.
func (s *StateMatrix) Clone() *StateMatrix {
	return &StateMatrix{rho: cmat.Clone(s.rho), gaussian: s.gaussian}
}

// Purity implements the State interface.
func (s *StateMatrix) Purity() float64 {
	n := s.Dim()
	var p float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			p += real(s.rho.At(i, j) * s.rho.At(j, i))
		}
	}
	return p
}

// Gaussian implements the State interface.
func (s *StateMatrix) Gaussian() bool {
	return s.gaussian
}

// Trace returns Tr(ρ). It falls below 1 when operators have pushed
// population above the truncation.
func (s *StateMatrix) Trace() float64 {
	return real(cmat.Trace(s.rho))
}

// Population returns ⟨n|ρ|n⟩, the probability of finding n photons.
func Population(s State, n int) float64 {
	if n < 0 || n >= s.Dim() {
		return 0
	}
	switch st := s.(type) {
	case *StateVector:
		a := st.v[n]
		return real(a * cmplx.Conj(a))
	case *StateMatrix:
		return real(st.rho.At(n, n))
	}
	return real(s.DensityMatrix().At(n, n))
}
