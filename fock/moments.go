package fock

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Moments holds the first and second moments of the ladder operators of a
// state, normalized by its trace. For a Gaussian state they determine every
// quadrature distribution.
type Moments struct {
	A  complex128 // ⟨â⟩
	A2 complex128 // ⟨â²⟩
	N  float64    // ⟨â†â⟩
}

// MomentsOf computes the ladder moments of s from its density matrix.
func MomentsOf(s State) Moments {
	return momentsOf(s.DensityMatrix())
}

func momentsOf(rho mat.CMatrix) Moments {
	dim, _ := rho.Dims()
	var m Moments
	var tr float64
	for n := 0; n < dim; n++ {
		p := real(rho.At(n, n))
		tr += p
		m.N += float64(n) * p
		if n+1 < dim {
			m.A += rho.At(n+1, n) * complex(math.Sqrt(float64(n+1)), 0)
		}
		if n+2 < dim {
			m.A2 += rho.At(n+2, n) * complex(math.Sqrt(float64((n+1)*(n+2))), 0)
		}
	}
	if tr > 0 {
		m.A /= complex(tr, 0)
		m.A2 /= complex(tr, 0)
		m.N /= tr
	}
	return m
}

// QuadratureMean returns ⟨X_θ⟩ for X_θ = (âe^{-iθ} + â†e^{iθ})/√2.
func (m Moments) QuadratureMean(theta float64) float64 {
	return math.Sqrt2 * real(m.A*cmplx.Exp(complex(0, -theta)))
}

// QuadratureVariance returns Var(X_θ). The vacuum value is 1/2.
func (m Moments) QuadratureVariance(theta float64) float64 {
	mean := m.QuadratureMean(theta)
	second := real(m.A2*cmplx.Exp(complex(0, -2*theta))) + m.N + 0.5
	return second - mean*mean
}
