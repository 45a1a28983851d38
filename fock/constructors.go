package fock

import (
	"fmt"
	"math"

	"github.com/alan-christopher/fock/fock/polar"
	"github.com/alan-christopher/fock/fock/qerr"
	"gonum.org/v1/gonum/mat"
)

// An Option configures a state constructor.
type Option func(*config)

type config struct {
	dim int
}

// WithDim sets the number of Fock levels retained. Defaults to DefaultDim.
func WithDim(dim int) Option {
	return func(c *config) {
		c.dim = dim
	}
}

func newConfig(opts []Option) (config, error) {
	c := config{dim: DefaultDim}
	for _, o := range opts {
		o(&c)
	}
	if c.dim <= 0 {
		return config{}, fmt.Errorf("dim %d: %w", c.dim, qerr.ErrInvalidDimension)
	}
	return c, nil
}

// Vacuum returns |0⟩.
func Vacuum(opts ...Option) (*StateVector, error) {
	return Fock(0, opts...)
}

// Fock returns the number state |n⟩.
func Fock(n int, opts ...Option) (*StateVector, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if n < 0 || n >= c.dim {
		return nil, fmt.Errorf("fock level %d with dim %d: %w", n, c.dim, qerr.ErrIndexOutOfRange)
	}
	v := make([]complex128, c.dim)
	v[n] = 1
	return &StateVector{v: v, gaussian: n == 0}, nil
}

// Number is an alias for Fock.
func Number(n int, opts ...Option) (*StateVector, error) {
	return Fock(n, opts...)
}

// SinglePhoton returns |1⟩.
func SinglePhoton(opts ...Option) (*StateVector, error) {
	return Fock(1, opts...)
}

// Coherent returns |α⟩ = D̂(α)|0⟩, the eigenstate of â with eigenvalue α.
func Coherent(alpha polar.Complex, opts ...Option) (*StateVector, error) {
	s, err := Vacuum(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Displace(alpha); err != nil {
		return nil, err
	}
	return s, nil
}

// Squeezed returns the squeezed vacuum |ξ⟩ = Ŝ(ξ)|0⟩.
func Squeezed(xi polar.Complex, opts ...Option) (*StateVector, error) {
	s, err := Vacuum(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Squeeze(xi); err != nil {
		return nil, err
	}
	return s, nil
}

// Thermal returns the thermal state with mean photon number nbar, whose
// populations follow the Bose-Einstein distribution nbar^n/(nbar+1)^(n+1).
// The populations are renormalized so that the truncated trace is 1.
func Thermal(nbar float64, opts ...Option) (*StateMatrix, error) {
	c, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if nbar < 0 || math.IsNaN(nbar) || math.IsInf(nbar, 0) {
		return nil, fmt.Errorf("mean photon number %v: %w", nbar, qerr.ErrInvalidParameter)
	}
	pops := make([]float64, c.dim)
	ratio := nbar / (nbar + 1)
	p, sum := 1/(nbar+1), 0.0
	for n := range pops {
		pops[n] = p
		sum += p
		p *= ratio
	}
	rho := mat.NewCDense(c.dim, c.dim, nil)
	for n, p := range pops {
		rho.Set(n, n, complex(p/sum, 0))
	}
	return &StateMatrix{rho: rho, gaussian: true}, nil
}

// SqueezedThermal returns Ŝ(ξ)ρ_th Ŝ(ξ)†, where ρ_th = Thermal(nbar).
func SqueezedThermal(xi polar.Complex, nbar float64, opts ...Option) (*StateMatrix, error) {
	s, err := Thermal(nbar, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Squeeze(xi); err != nil {
		return nil, err
	}
	return s, nil
}

// VacuumMatrix is Vacuum in density matrix form.
func VacuumMatrix(opts ...Option) (*StateMatrix, error) {
	return asMatrix(Vacuum(opts...))
}

// FockMatrix is Fock in density matrix form.
func FockMatrix(n int, opts ...Option) (*StateMatrix, error) {
	return asMatrix(Fock(n, opts...))
}

// NumberMatrix is Number in density matrix form.
func NumberMatrix(n int, opts ...Option) (*StateMatrix, error) {
	return asMatrix(Number(n, opts...))
}

// SinglePhotonMatrix is SinglePhoton in density matrix form.
func SinglePhotonMatrix(opts ...Option) (*StateMatrix, error) {
	return asMatrix(SinglePhoton(opts...))
}

// CoherentMatrix is Coherent in density matrix form.
func CoherentMatrix(alpha polar.Complex, opts ...Option) (*StateMatrix, error) {
	return asMatrix(Coherent(alpha, opts...))
}

// SqueezedMatrix is Squeezed in density matrix form.
func SqueezedMatrix(xi polar.Complex, opts ...Option) (*StateMatrix, error) {
	return asMatrix(Squeezed(xi, opts...))
}

func asMatrix(v *StateVector, err error) (*StateMatrix, error) {
	if err != nil {
		return nil, err
	}
	return NewStateMatrix(v), nil
}
