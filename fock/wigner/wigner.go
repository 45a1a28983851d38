// Package wigner evaluates the Wigner quasiprobability distribution of a
// single-mode state on a rectangular phase-space grid.
//
// With x = (â+â†)/√2, p = (â-â†)/(i√2) and r² = x²+p², the kernel of |m⟩⟨n|
// for n ≥ m is
//
//	W_{m,n}(x, p) = (-1)^m/π · √(2^{n-m} m!/n!) · (x+ip)^{n-m} · e^{-r²} · L_m^{n-m}(2r²)
//
// and W_{n,m} is its conjugate. The Wigner function of ρ is
// Re Σ_{m,n} ρ_{m,n} W_{m,n}, which is evaluated one diagonal k = n-m at a
// time so that each cell costs one Laguerre sweep per diagonal and a Horner
// pass in x+ip.
package wigner

import (
	"fmt"
	"math"
	"sync"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/laguerre"
	"github.com/alan-christopher/fock/fock/qerr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// A Function is a reusable Wigner evaluator for a fixed grid and truncation.
// It is safe for concurrent use.
type Function struct {
	x, p    []float64
	dim     int
	workers int
	// coef[k][m] = (-1)^m √(2^k m!/(m+k)!)/π, doubled for k > 0 to account
	// for the conjugate diagonal.
	coef [][]float64
}

// An Option configures a Function.
type Option func(*Function)

// WithDim sets the truncation of the states the Function accepts. Defaults
// to fock.DefaultDim.
func WithDim(dim int) Option {
	return func(f *Function) {
		f.dim = dim
	}
}

// WithWorkers evaluates rows of the grid on n goroutines. Values below 2
// evaluate serially. Results do not depend on n.
func WithWorkers(n int) Option {
	return func(f *Function) {
		f.workers = n
	}
}

// New returns a Function over the grid x × p.
func New(x, p []float64, opts ...Option) (*Function, error) {
	f := &Function{
		x:   append([]float64(nil), x...),
		p:   append([]float64(nil), p...),
		dim: fock.DefaultDim,
	}
	for _, o := range opts {
		o(f)
	}
	if f.dim <= 0 {
		return nil, fmt.Errorf("dim %d: %w", f.dim, qerr.ErrInvalidDimension)
	}
	if len(f.x) == 0 || len(f.p) == 0 {
		return nil, fmt.Errorf("empty %dx%d grid: %w", len(f.x), len(f.p), qerr.ErrInvalidParameter)
	}
	for _, v := range append(append([]float64(nil), f.x...), f.p...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("grid coordinate %v: %w", v, qerr.ErrInvalidParameter)
		}
	}

	f.coef = make([][]float64, f.dim)
	for k := range f.coef {
		f.coef[k] = make([]float64, f.dim-k)
		for m := range f.coef[k] {
			lm, _ := math.Lgamma(float64(m + 1))
			lmk, _ := math.Lgamma(float64(m + k + 1))
			c := math.Exp(0.5*(float64(k)*math.Ln2+lm-lmk)) / math.Pi
			if m%2 == 1 {
				c = -c
			}
			if k > 0 {
				c *= 2
			}
			f.coef[k][m] = c
		}
	}
	return f, nil
}

// Range returns lo, lo+step, ... up to and including hi when hi-lo is a
// whole number of steps.
func Range(lo, hi, step float64) ([]float64, error) {
	if !(step > 0) || !(hi >= lo) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("range [%v, %v] step %v: %w", lo, hi, step, qerr.ErrInvalidParameter)
	}
	n := int(math.Floor((hi-lo)/step+1e-9)) + 1
	if n == 1 {
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, lo+float64(n-1)*step), nil
}

// X returns a copy of the x coordinates.
func (f *Function) X() []float64 {
	return append([]float64(nil), f.x...)
}

// P returns a copy of the p coordinates.
func (f *Function) P() []float64 {
	return append([]float64(nil), f.p...)
}

// Dim returns the truncation the Function accepts.
func (f *Function) Dim() int {
	return f.dim
}

// A Surface is the Wigner function of one state sampled on a grid. W[i][j] is
// the value at (X[i], P[j]).
type Surface struct {
	X []float64
	P []float64
	W [][]float64
}

// Integral approximates ∫∫W dx dp with Simpson's rule along each axis. Both
// axes need at least three points; otherwise it returns NaN.
func (s *Surface) Integral() float64 {
	if len(s.X) < 3 || len(s.P) < 3 {
		return math.NaN()
	}
	rows := make([]float64, len(s.X))
	for i, row := range s.W {
		rows[i] = integrate.Simpsons(s.P, row)
	}
	return integrate.Simpsons(s.X, rows)
}

// Apply evaluates the Wigner function of s on the grid. The state's
// truncation must match the Function's.
func (f *Function) Apply(s fock.State) (*Surface, error) {
	if s.Dim() != f.dim {
		return nil, fmt.Errorf("state of dim %d on wigner function of dim %d: %w", s.Dim(), f.dim, qerr.ErrInvalidDimension)
	}
	rho := s.DensityMatrix()
	weights := make([][]complex128, f.dim)
	for k := range weights {
		weights[k] = make([]complex128, f.dim-k)
		for m := range weights[k] {
			weights[k][m] = complex(f.coef[k][m], 0) * rho.At(m, m+k)
		}
	}

	surf := &Surface{
		X: f.X(),
		P: f.P(),
		W: make([][]float64, len(f.x)),
	}
	errs := make([]error, len(f.x))
	row := func(i int, c *cell) {
		surf.W[i] = make([]float64, len(f.p))
		for j, p := range f.p {
			w, err := c.eval(weights, f.x[i], p)
			if err != nil {
				errs[i] = err
				return
			}
			surf.W[i][j] = w
		}
	}

	if f.workers < 2 {
		c := newCell(f.dim)
		for i := range f.x {
			row(i, c)
		}
	} else {
		rows := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < f.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c := newCell(f.dim)
				for i := range rows {
					row(i, c)
				}
			}()
		}
		for i := range f.x {
			rows <- i
		}
		close(rows)
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return surf, nil
}

// cell holds per-goroutine scratch space.
type cell struct {
	lag  []float64
	diag []complex128
}

func newCell(dim int) *cell {
	return &cell{
		lag:  make([]float64, dim),
		diag: make([]complex128, dim),
	}
}

func (c *cell) eval(weights [][]complex128, x, p float64) (float64, error) {
	r2 := x*x + p*p
	g := math.Exp(-r2)
	if g == 0 {
		return 0, nil
	}
	for k, wk := range weights {
		lag := c.lag[:len(wk)]
		if err := laguerre.Fill(lag, k, 2*r2); err != nil {
			return 0, fmt.Errorf("wigner at (%v, %v): %w", x, p, err)
		}
		var d complex128
		for m, w := range wk {
			d += w * complex(lag[m], 0)
		}
		c.diag[k] = d
	}
	z := complex(x, p)
	acc := c.diag[len(weights)-1]
	for k := len(weights) - 2; k >= 0; k-- {
		acc = acc*z + c.diag[k]
	}
	w := g * real(acc)
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("wigner at (%v, %v): %w", x, p, qerr.ErrNumericDivergence)
	}
	return w, nil
}
