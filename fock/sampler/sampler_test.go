package sampler

import (
	"bytes"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/polar"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func xs(pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.X
	}
	return out
}

func thetas(pts []Point) []float64 {
	out := make([]float64, len(pts))
	for i, p := range pts {
		out[i] = p.Theta
	}
	return out
}

func mustFock(t *testing.T, n int) *fock.StateVector {
	s, err := fock.Fock(n)
	require.NoError(t, err)
	return s
}

// cat returns the normalized even cat state |α⟩ + |-α⟩.
func cat(t *testing.T, alpha float64) *fock.StateVector {
	plus, err := fock.Coherent(polar.Alpha(alpha, 0))
	require.NoError(t, err)
	minus, err := fock.Coherent(polar.Alpha(alpha, math.Pi))
	require.NoError(t, err)
	v := plus.Vec()
	for i, a := range minus.Vec() {
		v[i] += a
	}
	s, err := fock.NewStateVector(v)
	require.NoError(t, err)
	s.Normalize()
	return s
}

func TestGaussianVacuum(t *testing.T) {
	vac, err := fock.Vacuum()
	require.NoError(t, err)
	pts, stats, err := Gaussian(vac, 10000, Opts{Rand: rand.NewPCG(1, 2)})
	require.NoError(t, err)
	require.Len(t, pts, 10000)
	assert.Equal(t, 10000, stats.Accepted)

	mean, variance := stat.MeanVariance(xs(pts), nil)
	assert.InDelta(t, 0, mean, 0.03)
	assert.InDelta(t, 0.5, variance, 0.03)
	for _, p := range pts {
		if p.Theta < 0 || p.Theta > 2*math.Pi {
			t.Fatalf("θ = %v outside [0, 2π]", p.Theta)
		}
	}
}

func TestGaussianQuadratures(t *testing.T) {
	sq, err := fock.Squeezed(polar.Xi(0.5, 0))
	require.NoError(t, err)
	coh, err := fock.Coherent(polar.Alpha(1.5, 0))
	require.NoError(t, err)
	th, err := fock.Thermal(1)
	require.NoError(t, err)

	tcs := []struct {
		name  string
		state fock.State
		theta float64
		emean float64
		evar  float64
	}{
		{"squeezed x", sq, 0, 0, math.Exp(-1) / 2},
		{"squeezed p", sq, math.Pi / 2, 0, math.Exp(1) / 2},
		{"coherent x", coh, 0, 1.5 * math.Sqrt2, 0.5},
		{"thermal", th, 1, 0, 1.5},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			pts, _, err := Gaussian(tc.state, 10000, Opts{
				ThetaRange: [2]float64{tc.theta, tc.theta + 1e-9},
				Rand:       rand.NewPCG(3, 4),
			})
			require.NoError(t, err)
			mean, variance := stat.MeanVariance(xs(pts), nil)
			assert.InDelta(t, tc.emean, mean, 5*math.Sqrt(tc.evar/10000))
			assert.InDelta(t, tc.evar, variance, 0.06*tc.evar)
		})
	}
}

func TestBiasPhase(t *testing.T) {
	vac, err := fock.Vacuum(fock.WithDim(10))
	require.NoError(t, err)
	pts, _, err := Sample(vac, 500, Opts{BiasPhase: 10, Rand: rand.NewPCG(5, 6)})
	require.NoError(t, err)
	for _, p := range pts {
		if p.Theta < 10 || p.Theta > 10+2*math.Pi {
			t.Fatalf("θ = %v outside [10, 10+2π]", p.Theta)
		}
	}

	// With θ pinned near 0 and a bias of π/2 the shots measure p, whose mean
	// vanishes for real α, rather than x.
	coh, err := fock.Coherent(polar.Alpha(2, 0), fock.WithDim(30))
	require.NoError(t, err)
	displaced, err := fock.SinglePhoton(fock.WithDim(20))
	require.NoError(t, err)
	require.NoError(t, displaced.Displace(polar.Alpha(1, 0)))

	tcs := []struct {
		name  string
		state fock.State
		evar  float64
	}{
		{"gaussian", coh, 0.5},
		{"adaptive", displaced, 1.5},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			n := 3000
			pts, _, err := Sample(tc.state, n, Opts{
				ThetaRange: [2]float64{0, 0.01},
				ThetaBins:  1,
				BiasPhase:  math.Pi / 2,
				Rand:       rand.NewPCG(5, 7),
			})
			require.NoError(t, err)
			theta := stat.Mean(thetas(pts), nil)
			assert.InDelta(t, math.Pi/2+0.005, theta, 0.01)
			emean := fock.MomentsOf(tc.state).QuadratureMean(theta)
			assert.InDelta(t, emean, stat.Mean(xs(pts), nil), 5*math.Sqrt(tc.evar/float64(n)))
		})
	}
}

func TestAdaptive(t *testing.T) {
	vac, err := fock.Vacuum(fock.WithDim(10))
	require.NoError(t, err)
	one, err := fock.SinglePhoton(fock.WithDim(10))
	require.NoError(t, err)

	tcs := []struct {
		name  string
		state fock.State
		evar  float64
	}{
		{"vacuum", vac, 0.5},
		{"single photon", one, 1.5},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			pts, stats, err := Adaptive(tc.state, 4000, Opts{Rand: rand.NewPCG(7, 8)})
			require.NoError(t, err)
			require.Len(t, pts, 4000)
			assert.Equal(t, 0, stats.Violations)
			assert.Equal(t, 65*129, stats.Scans)
			assert.Greater(t, stats.Refits, 1)
			assert.Greater(t, stats.AcceptanceRate(), 0.3)

			mean, variance := stat.MeanVariance(xs(pts), nil)
			assert.InDelta(t, 0, mean, 0.1)
			assert.InDelta(t, tc.evar, variance, 0.1)
			assert.InDelta(t, math.Pi, stat.Mean(thetas(pts), nil), 0.15)
		})
	}
}

func TestAdaptivePhaseDependence(t *testing.T) {
	// A displaced Fock state is not Gaussian but its quadrature means still
	// follow ⟨X_θ⟩ = √2 Re(αe^{-iθ}).
	s, err := fock.SinglePhoton(fock.WithDim(20))
	require.NoError(t, err)
	require.NoError(t, s.Displace(polar.Alpha(1, 0)))
	require.False(t, s.Gaussian())

	pts, _, err := Sample(s, 3000, Opts{
		ThetaRange: [2]float64{0, 0.01},
		ThetaBins:  1,
		Rand:       rand.NewPCG(9, 10),
	})
	require.NoError(t, err)
	mean, variance := stat.MeanVariance(xs(pts), nil)
	assert.InDelta(t, math.Sqrt2, mean, 0.1)
	assert.InDelta(t, 1.5, variance, 0.15)
}

func TestAdaptiveReproducible(t *testing.T) {
	s, err := fock.FockMatrix(2, fock.WithDim(8))
	require.NoError(t, err)
	run := func() []Point {
		pts, _, err := Adaptive(s, 300, Opts{Rand: rand.NewPCG(11, 12), ThetaBins: 8, XBins: 32})
		require.NoError(t, err)
		return pts
	}
	assert.Equal(t, run(), run())
}

func TestHighlyExcitedStates(t *testing.T) {
	// Averaged over θ, ⟨X_θ²⟩ = ⟨n⟩ + 1/2.
	tcs := []struct {
		name  string
		state fock.State
		enbar float64
	}{
		{"fock 20", mustFock(t, 20), 20},
		{"cat 4", cat(t, 4), 16 * math.Tanh(16)},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			pts, stats, err := Sample(tc.state, 2000, Opts{Rand: rand.NewPCG(21, 22)})
			require.NoError(t, err)
			require.Len(t, pts, 2000)
			assert.Equal(t, 0, stats.Violations)

			sq := xs(pts)
			for i := range sq {
				sq[i] *= sq[i]
			}
			assert.InDelta(t, tc.enbar+0.5, stat.Mean(sq, nil), 1.5)
			assert.InDelta(t, 0, stat.Mean(xs(pts), nil), 0.4)
			assert.InDelta(t, math.Pi, stat.Mean(thetas(pts), nil), 0.2)
		})
	}
}

func TestEnvelopeBoundsDensity(t *testing.T) {
	tcs := []struct {
		name  string
		state fock.State
	}{
		{"fock 20", mustFock(t, 20)},
		{"cat 4", cat(t, 4)},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewAdaptiveSampler(tc.state, Opts{Rand: rand.NewPCG(23, 24)})
			require.NoError(t, err)
			a.env.refit(a.opts.C)
			e := a.env

			// Points a quarter cell from every grid point are the hardest to bound.
			for k := range e.height {
				i, j := k/e.nX, k%e.nX
				for _, ft := range []float64{0.25, 0.75} {
					for _, fx := range []float64{0.125, 0.25, 0.375, 0.625, 0.75, 0.875} {
						theta := e.theta0 + (float64(i)+ft)*e.dTheta
						x := e.x0 + (float64(j)+fx)*e.dx
						q := a.q.PDF(theta, x)
						if q > e.height[k] || q > e.uniform {
							t.Fatalf("q(%v, %v) == %v above envelope %v (uniform %v)", theta, x, q, e.height[k], e.uniform)
						}
					}
				}
			}
		})
	}

	a, err := NewAdaptiveSampler(mustFock(t, 20), Opts{Rand: rand.NewPCG(25, 26)})
	require.NoError(t, err)
	a.env.refit(a.opts.C)
	theta, x := 4.789, 3.057
	assert.LessOrEqual(t, a.q.PDF(theta, x), a.env.height[a.env.cell(theta, x)])
}

func TestEnvelopeViolation(t *testing.T) {
	s, err := fock.Fock(2, fock.WithDim(8))
	require.NoError(t, err)
	a, err := NewAdaptiveSampler(s, Opts{Rand: rand.NewPCG(13, 14)})
	require.NoError(t, err)
	// ψ_2² reaches about 0.37, far above this.
	a.env.uniform = 0.05
	_, stats, err := a.Sample(1000)
	assert.ErrorIs(t, err, fock.ErrEnvelopeViolation)
	assert.Equal(t, 1, stats.Violations)
}

func TestAdaptiveSamplerReuse(t *testing.T) {
	one, err := fock.SinglePhoton(fock.WithDim(8))
	require.NoError(t, err)
	a, err := NewAdaptiveSampler(one, Opts{Rand: rand.NewPCG(27, 28)})
	require.NoError(t, err)
	scans := a.Stats().Scans
	assert.Equal(t, 65*129, scans)

	first, _, err := a.Sample(300)
	require.NoError(t, err)
	second, stats, err := a.Sample(300)
	require.NoError(t, err)
	assert.Len(t, first, 300)
	assert.Len(t, second, 300)
	assert.NotEqual(t, first, second)
	assert.Equal(t, scans, stats.Scans)
	assert.Equal(t, 600, stats.Accepted)

	_, _, err = a.Sample(-1)
	assert.ErrorIs(t, err, fock.ErrInvalidParameter)
}

func TestNoWarmUp(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	one, err := fock.SinglePhoton(fock.WithDim(6))
	require.NoError(t, err)
	pts, stats, err := Adaptive(one, 50, Opts{WarmUp: -1, Rand: rand.NewPCG(29, 30), Logger: &log})
	require.NoError(t, err)
	assert.Len(t, pts, 50)
	assert.Equal(t, 1, stats.Refits)
	// The envelope is fit before any candidate is drawn.
	assert.Contains(t, buf.String(), `"refit":1,"accepted":0`)
}

func TestOptsValidation(t *testing.T) {
	vac, err := fock.Vacuum(fock.WithDim(5))
	require.NoError(t, err)

	tcs := []struct {
		name string
		opts Opts
		n    int
	}{
		{"negative n", Opts{}, -1},
		{"empty theta range", Opts{ThetaRange: [2]float64{1, 1}}, 1},
		{"reversed x range", Opts{XRange: [2]float64{1, -1}}, 1},
		{"nan bias", Opts{BiasPhase: math.NaN()}, 1},
		{"c above one", Opts{C: 1.5}, 1},
		{"negative c", Opts{C: -0.5}, 1},
		{"negative bins", Opts{XBins: -4}, 1},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Adaptive(vac, tc.n, tc.opts)
			assert.ErrorIs(t, err, fock.ErrInvalidParameter)
			_, _, err = Gaussian(vac, tc.n, tc.opts)
			assert.ErrorIs(t, err, fock.ErrInvalidParameter)
		})
	}
}

func TestSampleDispatch(t *testing.T) {
	vac, err := fock.Vacuum(fock.WithDim(6))
	require.NoError(t, err)
	one, err := fock.SinglePhoton(fock.WithDim(6))
	require.NoError(t, err)

	tcs := []struct {
		name      string
		state     fock.State
		opts      Opts
		eAdaptive bool
	}{
		{"gaussian state", vac, Opts{}, false},
		{"non-gaussian state", one, Opts{}, true},
		{"forced gaussian", one, Opts{Gaussian: true}, false},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Rand = rand.NewPCG(15, 16)
			_, stats, err := Sample(tc.state, 10, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.eAdaptive, stats.Scans > 0)
		})
	}

	p, err := SampleOne(one, Opts{Rand: rand.NewPCG(17, 18)})
	require.NoError(t, err)
	assert.True(t, p.X >= -10 && p.X <= 10)
}

func TestLogsRefits(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	one, err := fock.SinglePhoton(fock.WithDim(6))
	require.NoError(t, err)
	_, _, err = Adaptive(one, 200, Opts{Rand: rand.NewPCG(19, 20), Logger: &log})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"component":"sampler"`)
	assert.Contains(t, buf.String(), "refit envelope")
}

func BenchmarkAdaptive(b *testing.B) {
	s, err := fock.SinglePhoton()
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < b.N; i++ {
		if _, _, err := Adaptive(s, 1000, Opts{Rand: rand.NewPCG(uint64(i), 0)}); err != nil {
			b.Fatal(err)
		}
	}
}
