// Package polar provides complex numbers in polar form, as used for coherent
// amplitudes and squeezing parameters.
package polar

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/alan-christopher/fock/fock/qerr"
)

// A Complex represents the value r·exp(-iθ). Note the sign of the phase: a
// Complex with phase θ points at angle -θ in the complex plane.
type Complex struct {
	r     float64
	theta float64
}

// New returns the polar value r·exp(-iθ), or an error if r is negative or
// either argument is not finite.
func New(r, theta float64) (Complex, error) {
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return Complex{}, fmt.Errorf("magnitude %v: %w", r, qerr.ErrInvalidParameter)
	}
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return Complex{}, fmt.Errorf("phase %v: %w", theta, qerr.ErrInvalidParameter)
	}
	return Complex{r: r, theta: theta}, nil
}

// Alpha returns the coherent amplitude r·exp(-iθ), i.e. the eigenvalue of the
// annihilation operator. It panics on invalid input and is intended for
// literal arguments.
func Alpha(r, theta float64) Complex {
	c, err := New(r, theta)
	if err != nil {
		panic(err)
	}
	return c
}

// Xi returns the squeezing parameter r·exp(-iθ). It panics on invalid input
// and is intended for literal arguments.
func Xi(r, theta float64) Complex {
	return Alpha(r, theta)
}

// Magnitude returns r.
func (c Complex) Magnitude() float64 {
	return c.r
}

// Phase returns θ.
func (c Complex) Phase() float64 {
	return c.theta
}

// Complex128 returns the cartesian value r·exp(-iθ).
func (c Complex) Complex128() complex128 {
	return cmplx.Rect(c.r, -c.theta)
}

// Neg returns the value with the opposite sign, keeping the magnitude.
func (c Complex) Neg() Complex {
	return Complex{r: c.r, theta: c.theta + math.Pi}
}

func (c Complex) String() string {
	return fmt.Sprintf("%gexp(-%gi)", c.r, c.theta)
}
