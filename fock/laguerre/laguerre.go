// Package laguerre evaluates generalized Laguerre polynomials L_n^α(x) by their
// three-term recurrence in n.
package laguerre

import (
	"fmt"
	"math"

	"github.com/alan-christopher/fock/fock/qerr"
)

// Eval returns L_n^α(x).
func Eval(n, alpha int, x float64) (float64, error) {
	if n < 0 {
		return 0, fmt.Errorf("laguerre degree %d: %w", n, qerr.ErrInvalidParameter)
	}
	a := float64(alpha)
	prev, cur := 0.0, 1.0
	for k := 0; k < n; k++ {
		kf := float64(k)
		prev, cur = cur, ((2*kf+1+a-x)*cur-(kf+a)*prev)/(kf+1)
	}
	if math.IsNaN(cur) || math.IsInf(cur, 0) {
		return 0, fmt.Errorf("L_%d^%d(%v): %w", n, alpha, x, qerr.ErrNumericDivergence)
	}
	return cur, nil
}

// Polynomial returns L_n^α as a function of x.
func Polynomial(n, alpha int) func(x float64) (float64, error) {
	return func(x float64) (float64, error) {
		return Eval(n, alpha, x)
	}
}

// Fill writes L_0^α(x), ..., L_{len(dst)-1}^α(x) into dst in a single sweep of
// the recurrence.
func Fill(dst []float64, alpha int, x float64) error {
	if len(dst) == 0 {
		return nil
	}
	a := float64(alpha)
	dst[0] = 1
	if len(dst) > 1 {
		dst[1] = 1 + a - x
	}
	for k := 1; k+1 < len(dst); k++ {
		kf := float64(k)
		dst[k+1] = ((2*kf+1+a-x)*dst[k] - (kf+a)*dst[k-1]) / (kf + 1)
	}
	last := dst[len(dst)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return fmt.Errorf("L_%d^%d(%v): %w", len(dst)-1, alpha, x, qerr.ErrNumericDivergence)
	}
	return nil
}
