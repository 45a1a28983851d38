package sampler

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/qerr"
	"github.com/alan-christopher/fock/fock/quadrature"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Adaptive draws n points by rejection sampling q(θ, x) on the box
// (ThetaRange + BiasPhase) × XRange. It is shorthand for drawing once from a
// new AdaptiveSampler.
func Adaptive(s fock.State, n int, opts Opts) ([]Point, Stats, error) {
	if n < 0 {
		return nil, Stats{}, fmt.Errorf("%d samples: %w", n, qerr.ErrInvalidParameter)
	}
	a, err := NewAdaptiveSampler(s, opts)
	if err != nil {
		return nil, Stats{}, err
	}
	return a.Sample(n)
}

// An AdaptiveSampler draws points from the quadrature distribution of one
// state by rejection under a piecewise constant envelope.
//
// The envelope has a height per cell of a ThetaBins × XBins grid over the
// box, and every height is a proven upper bound on q over its cell. With
// u_n = e^{inθ}ψ_n(x) the density is q = ‖ρ^{1/2}u‖², so √q is Lipschitz in
// θ and in x with constants set by bounds on |ψ_n| and |ψ_n'| over a column
// of cells. Those come from a second order Taylor expansion about the
// column's grid abscissae, using ψ_n'' = (x² - 2n - 1)ψ_n, and never exceed
// Cramér's bound |ψ_n| ≤ π^{-1/4}. A cell's height is the least of
//
//	Σ|ρ_mn|·sup|ψ_m|·sup|ψ_n| over its column,
//	(√max grid value + K_θ·dθ/4 + K_x·dx/4)², as q is evaluated at every cell
//	corner and midpoint and so within a quarter cell of any point,
//	(√q(s) + K_θ·|θ-θ_s| + K_x·|x-x_s|)² at the far corner, for each point s
//	evaluated in the cell so far,
//
// divided by C and capped by √Tr(ρ²)·dim/√π, which bounds q everywhere.
//
// The first WarmUp candidates are drawn uniformly from the box under a flat
// envelope at the largest height. After the warm-up, and again after every
// BatchSize accepted points, the heights are refit to the points evaluated
// so far and candidates are drawn cell by cell in proportion to envelope
// mass. A density above its envelope would bias the output, so it fails the
// draw with ErrEnvelopeViolation.
//
// The envelope and Stats persist across calls to Sample, so repeated draws
// from one state pay for the grid scan once. An AdaptiveSampler is not safe for
// concurrent use.
type AdaptiveSampler struct {
	opts  Opts
	q     *quadrature.Evaluator
	env   *envelope
	rnd   *rand.Rand
	log   zerolog.Logger
	stats Stats
	warm  int // warm-up candidates drawn
	since int // points accepted since the last refit
}

// NewAdaptiveSampler scans the quadrature density of s and fits the initial
// envelope.
func NewAdaptiveSampler(s fock.State, opts Opts) (*AdaptiveSampler, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	rho := s.DensityMatrix()
	a := &AdaptiveSampler{
		opts: o,
		q:    quadrature.NewEvaluator(s),
		env:  newEnvelope(o, rho),
		rnd:  rand.New(o.Rand),
		log:  o.Logger.With().Str("component", "sampler").Str("path", "adaptive").Logger(),
	}
	for i := 0; i <= 2*a.env.nTheta; i++ {
		for j := 0; j <= 2*a.env.nX; j++ {
			theta, x := a.env.gridPoint(i, j)
			v, err := a.eval(theta, x)
			if err != nil {
				return nil, err
			}
			a.env.record(i, j, v)
		}
	}
	a.stats.Scans = a.stats.Evaluations

	ceil := ceiling(rho)
	a.env.fit(ceil, o.C)
	if a.env.uniform == 0 {
		return nil, fmt.Errorf("density vanishes on θ %v, x %v: %w", o.ThetaRange, o.XRange, qerr.ErrInvalidParameter)
	}
	a.log.Debug().
		Int("scans", a.stats.Scans).
		Float64("ceiling", ceil).
		Float64("uniform", a.env.uniform).
		Msg("scanned density")
	return a, nil
}

// Stats returns the work done since the sampler was built.
func (a *AdaptiveSampler) Stats() Stats {
	return a.stats
}

// Sample draws n more points. The returned Stats are cumulative.
func (a *AdaptiveSampler) Sample(n int) ([]Point, Stats, error) {
	if n < 0 {
		return nil, a.stats, fmt.Errorf("%d samples: %w", n, qerr.ErrInvalidParameter)
	}
	o, env := a.opts, a.env
	pts := make([]Point, 0, n)

	for ; a.warm < o.WarmUp && len(pts) < n; a.warm++ {
		theta := env.theta0 + a.rnd.Float64()*(o.ThetaRange[1]-o.ThetaRange[0])
		x := env.x0 + a.rnd.Float64()*(o.XRange[1]-o.XRange[0])
		ok, err := a.try(theta, x, env.uniform)
		if err != nil {
			return nil, a.stats, err
		}
		if ok {
			pts = append(pts, Point{Theta: theta, X: x})
		}
	}

	for len(pts) < n {
		if a.stats.Refits == 0 || a.since >= o.BatchSize {
			env.refit(o.C)
			a.stats.Refits++
			a.since = 0
			a.log.Debug().
				Int("refit", a.stats.Refits).
				Int("accepted", a.stats.Accepted+len(pts)).
				Float64("acceptance", a.stats.AcceptanceRate()).
				Float64("mass", env.mass()).
				Msg("refit envelope")
		}

		c := int(env.cells.Rand())
		theta, x := env.propose(c, a.rnd)
		ok, err := a.try(theta, x, env.height[c])
		if err != nil {
			return nil, a.stats, err
		}
		if ok {
			pts = append(pts, Point{Theta: theta, X: x})
			a.since++
		}
	}
	a.stats.Accepted += len(pts)
	a.log.Debug().
		Int("n", n).
		Int("evaluations", a.stats.Evaluations).
		Float64("acceptance", a.stats.AcceptanceRate()).
		Msg("sampled state")
	return pts, a.stats, nil
}

func (a *AdaptiveSampler) eval(theta, x float64) (float64, error) {
	a.stats.Evaluations++
	v := a.q.PDF(theta, x)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("density at (%v, %v) is %v: %w", theta, x, v, qerr.ErrNumericDivergence)
	}
	// Truncation error can leave tiny negative tails.
	return math.Max(v, 0), nil
}

// try evaluates a candidate drawn under an envelope of height bound and
// reports whether it is accepted.
func (a *AdaptiveSampler) try(theta, x, bound float64) (bool, error) {
	v, err := a.eval(theta, x)
	if err != nil {
		return false, err
	}
	if v > bound {
		a.stats.Violations++
		return false, fmt.Errorf("density %v above envelope %v at (%v, %v): %w", v, bound, theta, x, qerr.ErrEnvelopeViolation)
	}
	a.env.observe(theta, x, v)
	return a.rnd.Float64()*bound < v, nil
}

// ceiling bounds q for any θ and x. With φ_n = e^{inθ}ψ_n(x),
// q = φ†ρφ ≤ λ_max(ρ)|φ|², λ_max ≤ √Tr(ρ²) and |ψ_n|² ≤ 1/√π.
func ceiling(rho mat.CMatrix) float64 {
	dim, _ := rho.Dims()
	var p float64
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			a := cmplx.Abs(rho.At(i, j))
			p += a * a
		}
	}
	return math.Sqrt(p) * float64(dim) / math.Sqrt(math.Pi)
}

// envelope is the piecewise constant bound of one AdaptiveSampler. Cell
// (i, j) covers θ in [θ0+i·dθ, θ0+(i+1)·dθ] and x in [x0+j·dx, x0+(j+1)·dx]
// and is stored at i*nX+j.
type envelope struct {
	theta0, dTheta float64
	x0, dx         float64
	nTheta, nX     int

	// Per column of cells: a bound on q, and Lipschitz constants of √q in θ
	// and in x.
	column, kTheta, kX []float64

	uniform float64
	scanned []float64 // largest grid value per cell
	anchor  []float64 // least bound on √q over the cell from a single point
	height  []float64
	cells   distuv.Categorical
	src     rand.Source
}

func newEnvelope(o Opts, rho mat.CMatrix) *envelope {
	n := o.ThetaBins * o.XBins
	e := &envelope{
		theta0:  o.ThetaRange[0] + o.BiasPhase,
		dTheta:  (o.ThetaRange[1] - o.ThetaRange[0]) / float64(o.ThetaBins),
		x0:      o.XRange[0],
		dx:      (o.XRange[1] - o.XRange[0]) / float64(o.XBins),
		nTheta:  o.ThetaBins,
		nX:      o.XBins,
		column:  make([]float64, o.XBins),
		kTheta:  make([]float64, o.XBins),
		kX:      make([]float64, o.XBins),
		scanned: make([]float64, n),
		anchor:  make([]float64, n),
		height:  make([]float64, n),
		src:     o.Rand,
	}
	for k := range e.anchor {
		e.anchor[k] = math.Inf(1)
	}
	e.bindColumns(rho)
	return e
}

// bindColumns fills column, kTheta and kX. Every point of a column lies
// within dx/4 of one of its three grid abscissae, where ψ_n and ψ_n' are
// known exactly; between them |ψ_n''| ≤ max|x² - 2n - 1|·sup|ψ_n|.
//
// Shifting the phase of u by e^{-icθ} leaves √q unchanged, so K_θ weighs
// level n by |n - c|, with c the mean photon number.
func (e *envelope) bindColumns(rho mat.CMatrix) {
	dim, _ := rho.Dims()
	abs := make([]float64, dim*dim)
	var tr, c float64
	for m := 0; m < dim; m++ {
		for n := 0; n < dim; n++ {
			abs[m*dim+n] = cmplx.Abs(rho.At(m, n))
		}
		p := real(rho.At(m, m))
		tr += p
		c += float64(m) * p
	}
	if tr > 0 {
		c /= tr
	}

	psi := make([][]float64, 2*e.nX+1)
	dpsi := make([][]float64, 2*e.nX+1)
	for h := range psi {
		_, x := e.gridPoint(0, h)
		psi[h] = make([]float64, dim+1)
		quadrature.Wavefunctions(psi[h], x)
		dpsi[h] = make([]float64, dim)
		for n := range dpsi[h] {
			d := -math.Sqrt(float64(n+1)/2) * psi[h][n+1]
			if n > 0 {
				d += math.Sqrt(float64(n)/2) * psi[h][n-1]
			}
			dpsi[h][n] = d
		}
	}

	cramer := math.Pow(math.Pi, -0.25)
	delta := e.dx / 4
	sup := make([]float64, dim)
	dsup := make([]float64, dim)
	for j := 0; j < e.nX; j++ {
		lo, hi := e.x0+float64(j)*e.dx, e.x0+float64(j+1)*e.dx
		lo2, hi2 := math.Min(lo*lo, hi*hi), math.Max(lo*lo, hi*hi)
		if lo <= 0 && hi >= 0 {
			lo2 = 0
		}
		for n := 0; n < dim; n++ {
			var a, b float64
			for h := 2 * j; h <= 2*j+2; h++ {
				a = math.Max(a, math.Abs(psi[h][n])+delta*math.Abs(dpsi[h][n]))
				b = math.Max(b, math.Abs(dpsi[h][n]))
			}
			level := float64(2*n + 1)
			w := math.Max(math.Abs(lo2-level), math.Abs(hi2-level))
			sup[n] = cramer
			if r := delta * delta * w / 2; r < 1 {
				sup[n] = math.Min(cramer, a/(1-r))
			}
			dcramer := (math.Sqrt(float64(n)/2) + math.Sqrt(float64(n+1)/2)) * cramer
			dsup[n] = math.Min(dcramer, b+delta*w*sup[n])
		}

		var col, kt, kx float64
		for m := 0; m < dim; m++ {
			for n := 0; n < dim; n++ {
				r := abs[m*dim+n]
				if r == 0 {
					continue
				}
				col += r * sup[m] * sup[n]
				kt += r * math.Abs(float64(m)-c) * math.Abs(float64(n)-c) * sup[m] * sup[n]
				kx += r * dsup[m] * dsup[n]
			}
		}
		e.column[j], e.kTheta[j], e.kX[j] = col, math.Sqrt(kt), math.Sqrt(kx)
	}
}

// gridPoint returns the coordinates of grid point (i, j) on the half-cell grid.
func (e *envelope) gridPoint(i, j int) (theta, x float64) {
	return e.theta0 + float64(i)*e.dTheta/2, e.x0 + float64(j)*e.dx/2
}

// record stores v for every cell touching grid point (i, j).
func (e *envelope) record(i, j int, v float64) {
	theta, x := e.gridPoint(i, j)
	for _, ci := range adjacent(i, e.nTheta) {
		for _, cj := range adjacent(j, e.nX) {
			k := ci*e.nX + cj
			e.scanned[k] = math.Max(e.scanned[k], v)
			e.tighten(k, theta, x, v)
		}
	}
}

// adjacent returns the cells touching half-grid index h out of n cells.
func adjacent(h, n int) []int {
	if h%2 == 1 {
		return []int{h / 2}
	}
	var out []int
	if h > 0 {
		out = append(out, h/2-1)
	}
	if h < 2*n {
		out = append(out, h/2)
	}
	return out
}

func (e *envelope) cell(theta, x float64) int {
	i := int((theta - e.theta0) / e.dTheta)
	j := int((x - e.x0) / e.dx)
	i = min(max(i, 0), e.nTheta-1)
	j = min(max(j, 0), e.nX-1)
	return i*e.nX + j
}

func (e *envelope) observe(theta, x, v float64) {
	e.tighten(e.cell(theta, x), theta, x, v)
}

// tighten bounds √q over cell k from its value v at (theta, x).
func (e *envelope) tighten(k int, theta, x, v float64) {
	i, j := k/e.nX, k%e.nX
	lo := e.theta0 + float64(i)*e.dTheta
	xl := e.x0 + float64(j)*e.dx
	dt := math.Max(math.Abs(theta-lo), math.Abs(lo+e.dTheta-theta))
	dx := math.Max(math.Abs(x-xl), math.Abs(xl+e.dx-x))
	e.anchor[k] = math.Min(e.anchor[k], math.Sqrt(v)+e.kTheta[j]*dt+e.kX[j]*dx)
}

// bound is the least proven bound on q over cell k.
func (e *envelope) bound(k int) float64 {
	j := k % e.nX
	cover := math.Sqrt(e.scanned[k]) + e.kTheta[j]*e.dTheta/4 + e.kX[j]*e.dx/4
	b := math.Min(e.column[j], cover*cover)
	return math.Min(b, e.anchor[k]*e.anchor[k])
}

// fit sets the flat warm-up envelope. ceil bounds q everywhere.
func (e *envelope) fit(ceil, c float64) {
	var top float64
	for k := range e.height {
		top = math.Max(top, e.bound(k))
	}
	e.uniform = math.Min(ceil, top/c)
}

// refit recomputes cell heights and the proposal weights.
func (e *envelope) refit(c float64) {
	area := e.dTheta * e.dx
	w := make([]float64, len(e.height))
	for k := range e.height {
		e.height[k] = math.Min(e.uniform, e.bound(k)/c)
		w[k] = e.height[k] * area
	}
	e.cells = distuv.NewCategorical(w, e.src)
}

// mass is the integral of the envelope over the box.
func (e *envelope) mass() float64 {
	var m float64
	for _, h := range e.height {
		m += h
	}
	return m * e.dTheta * e.dx
}

// propose draws a point uniformly from cell k.
func (e *envelope) propose(k int, rnd *rand.Rand) (theta, x float64) {
	i, j := k/e.nX, k%e.nX
	theta = e.theta0 + (float64(i)+rnd.Float64())*e.dTheta
	x = e.x0 + (float64(j)+rnd.Float64())*e.dx
	return theta, x
}
