package fock

import (
	"fmt"

	"github.com/alan-christopher/fock/fock/cmat"
	"github.com/alan-christopher/fock/fock/ladder"
	"github.com/alan-christopher/fock/fock/polar"
	"github.com/alan-christopher/fock/fock/qerr"
	"gonum.org/v1/gonum/mat"
)

// An Operand is a state that the ladder, displacement and squeezing operators
// can act on, either in place (the methods) or on a copy (the package-level
// functions AnnihilateCopy, CreateCopy, DisplaceCopy and SqueezeCopy).
type Operand[S any] interface {
	State
	Clone() S
	Apply(op mat.CMatrix) error
	Annihilate() error
	Create() error
	Displace(alpha polar.Complex) error
	Squeeze(xi polar.Complex) error
}

var (
	_ Operand[*StateVector] = (*StateVector)(nil)
	_ Operand[*StateMatrix] = (*StateMatrix)(nil)
)

// Apply replaces |ψ⟩ with op|ψ⟩. op must be Dim()×Dim().
func (s *StateVector) Apply(op mat.CMatrix) error {
	if err := checkOperator(op, s.Dim()); err != nil {
		return err
	}
	s.v = cmat.MulVec(op, s.v)
	s.gaussian = false
	return nil
}

// Apply replaces ρ with op·ρ·op†. op must be Dim()×Dim().
func (s *StateMatrix) Apply(op mat.CMatrix) error {
	if err := checkOperator(op, s.Dim()); err != nil {
		return err
	}
	s.rho = cmat.Sandwich(op, s.rho)
	s.gaussian = false
	return nil
}

// Annihilate applies â in place. The result is not renormalized.
func (s *StateVector) Annihilate() error {
	a, err := ladder.Annihilation(s.Dim())
	if err != nil {
		return err
	}
	return s.Apply(a)
}

// Create applies â† in place. Amplitude at the top level is lost.
func (s *StateVector) Create() error {
	a, err := ladder.Creation(s.Dim())
	if err != nil {
		return err
	}
	return s.Apply(a)
}

// Displace applies D̂(α) in place.
func (s *StateVector) Displace(alpha polar.Complex) error {
	d, err := ladder.Displacement(alpha, s.Dim())
	if err != nil {
		return err
	}
	g := s.gaussian
	if err := s.Apply(d); err != nil {
		return err
	}
	s.gaussian = g
	return nil
}

// Squeeze applies Ŝ(ξ) in place.
func (s *StateVector) Squeeze(xi polar.Complex) error {
	sq, err := ladder.Squeezing(xi, s.Dim())
	if err != nil {
		return err
	}
	g := s.gaussian
	if err := s.Apply(sq); err != nil {
		return err
	}
	s.gaussian = g
	return nil
}

// Annihilate replaces ρ with âρâ† in place. The result is not renormalized.
func (s *StateMatrix) Annihilate() error {
	a, err := ladder.Annihilation(s.Dim())
	if err != nil {
		return err
	}
	return s.Apply(a)
}

// Create replaces ρ with â†ρâ in place.
func (s *StateMatrix) Create() error {
	a, err := ladder.Creation(s.Dim())
	if err != nil {
		return err
	}
	return s.Apply(a)
}

// Displace replaces ρ with D̂(α)ρD̂(α)† in place.
func (s *StateMatrix) Displace(alpha polar.Complex) error {
	d, err := ladder.Displacement(alpha, s.Dim())
	if err != nil {
		return err
	}
	g := s.gaussian
	if err := s.Apply(d); err != nil {
		return err
	}
	s.gaussian = g
	return nil
}

// Squeeze replaces ρ with Ŝ(ξ)ρŜ(ξ)† in place.
func (s *StateMatrix) Squeeze(xi polar.Complex) error {
	sq, err := ladder.Squeezing(xi, s.Dim())
	if err != nil {
		return err
	}
	g := s.gaussian
	if err := s.Apply(sq); err != nil {
		return err
	}
	s.gaussian = g
	return nil
}

// AnnihilateCopy returns â applied to a copy of s.
func AnnihilateCopy[S Operand[S]](s S) (S, error) {
	c := s.Clone()
	if err := c.Annihilate(); err != nil {
		var zero S
		return zero, err
	}
	return c, nil
}

// CreateCopy returns â† applied to a copy of s.
func CreateCopy[S Operand[S]](s S) (S, error) {
	c := s.Clone()
	if err := c.Create(); err != nil {
		var zero S
		return zero, err
	}
	return c, nil
}

// DisplaceCopy returns D̂(α) applied to a copy of s.
func DisplaceCopy[S Operand[S]](s S, alpha polar.Complex) (S, error) {
	c := s.Clone()
	if err := c.Displace(alpha); err != nil {
		var zero S
		return zero, err
	}
	return c, nil
}

// SqueezeCopy returns Ŝ(ξ) applied to a copy of s.
func SqueezeCopy[S Operand[S]](s S, xi polar.Complex) (S, error) {
	c := s.Clone()
	if err := c.Squeeze(xi); err != nil {
		var zero S
		return zero, err
	}
	return c, nil
}

func checkOperator(op mat.CMatrix, dim int) error {
	r, c := op.Dims()
	if r != dim || c != dim {
		return fmt.Errorf("%dx%d operator on %d-level state: %w", r, c, dim, qerr.ErrInvalidDimension)
	}
	return nil
}
