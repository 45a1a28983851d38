// Package cmat provides the handful of dense complex matrix operations the
// state and operator code needs on top of gonum's mat package.
//
// gonum's CDense carries storage but little arithmetic, so products and the
// matrix exponential go through the real embedding
//
//	B + iC  ->  [ B  -C ]
//	            [ C   B ]
//
// which is an algebra homomorphism: products and exponentials of embedded
// matrices are the embeddings of the complex products and exponentials.
package cmat

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/alan-christopher/fock/fock/qerr"
	"gonum.org/v1/gonum/mat"
)

// Realify returns the 2n×2m real embedding of a.
func Realify(a mat.CMatrix) *mat.Dense {
	r, c := a.Dims()
	out := mat.NewDense(2*r, 2*c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			out.Set(i, j, real(v))
			out.Set(i, c+j, -imag(v))
			out.Set(r+i, j, imag(v))
			out.Set(r+i, c+j, real(v))
		}
	}
	return out
}

// Complexify inverts Realify. Only the left half of the embedding is read.
func Complexify(m mat.Matrix) *mat.CDense {
	r2, c2 := m.Dims()
	r, c := r2/2, c2/2
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, complex(m.At(i, j), m.At(r+i, j)))
		}
	}
	return out
}

// Mul returns the product ab.
func Mul(a, b mat.CMatrix) *mat.CDense {
	var p mat.Dense
	p.Mul(Realify(a), Realify(b))
	return Complexify(&p)
}

// Sandwich returns u·m·u†.
func Sandwich(u, m mat.CMatrix) *mat.CDense {
	var um, umu mat.Dense
	ur := Realify(u)
	um.Mul(ur, Realify(m))
	umu.Mul(&um, ur.T())
	return Complexify(&umu)
}

// MulVec returns the matrix-vector product av.
func MulVec(a mat.CMatrix, v []complex128) []complex128 {
	r, c := a.Dims()
	out := make([]complex128, r)
	for i := 0; i < r; i++ {
		var s complex128
		for j := 0; j < c && j < len(v); j++ {
			if v[j] == 0 {
				continue
			}
			s += a.At(i, j) * v[j]
		}
		out[i] = s
	}
	return out
}

// Exp returns the matrix exponential of the square matrix a, computed by
// gonum's Padé scaling-and-squaring routine on the real embedding.
func Exp(a mat.CMatrix) (*mat.CDense, error) {
	r, c := a.Dims()
	if r != c {
		return nil, fmt.Errorf("exp of %dx%d matrix: %w", r, c, qerr.ErrInvalidDimension)
	}
	var e mat.Dense
	e.Exp(Realify(a))
	out := Complexify(&e)
	if !Finite(out) {
		return nil, fmt.Errorf("matrix exponential of %dx%d generator: %w", r, c, qerr.ErrNumericDivergence)
	}
	return out, nil
}

// Adjoint returns the conjugate transpose of a as a new matrix.
func Adjoint(a mat.CMatrix) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(j, i, cmplx.Conj(a.At(i, j)))
		}
	}
	return out
}

// Clone returns a copy of a.
func Clone(a mat.CMatrix) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}

// Outer returns the outer product |v⟩⟨v|.
func Outer(v []complex128) *mat.CDense {
	n := len(v)
	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		if v[i] == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			out.Set(i, j, v[i]*cmplx.Conj(v[j]))
		}
	}
	return out
}

// Trace returns the sum of the diagonal of a.
func Trace(a mat.CMatrix) complex128 {
	r, c := a.Dims()
	var t complex128
	for i := 0; i < r && i < c; i++ {
		t += a.At(i, i)
	}
	return t
}

// Flatten returns the entries of a in row-major order.
func Flatten(a mat.CMatrix) []complex128 {
	r, c := a.Dims()
	out := make([]complex128, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, a.At(i, j))
		}
	}
	return out
}

// Finite reports whether every entry of a is finite.
func Finite(a mat.CMatrix) bool {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if cmplx.IsNaN(v) || math.IsInf(real(v), 0) || math.IsInf(imag(v), 0) {
				return false
			}
		}
	}
	return true
}

// EqualApprox reports whether a and b have the same shape and agree entrywise
// to within tol in absolute value.
func EqualApprox(a, b mat.CMatrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			if cmplx.Abs(a.At(i, j)-b.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}
