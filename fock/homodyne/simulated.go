package homodyne

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/qerr"
	"github.com/alan-christopher/fock/fock/sampler"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimulatedOpts configures a SimulatedDetector.
type SimulatedOpts struct {
	// Loss is the fraction of the signal lost before detection, 1-η for a
	// detector of efficiency η. Lost signal is replaced by vacuum noise, so
	// a Loss of 1 records vacuum statistics. Defaults to 0.
	Loss float64
	// Sampler configures how shots are drawn from the state. Its Rand, if
	// set, also drives the loss noise.
	Sampler sampler.Opts
	Logger  *zerolog.Logger
}

// A SimulatedDetector measures repeated copies of a fixed state. Shots of
// a non-Gaussian state come from one AdaptiveSampler, built on the first call
// to Next, so its envelope grid scan is paid for once per detector.
type SimulatedDetector struct {
	state    fock.State
	eta      float64
	opts     sampler.Opts
	adaptive *sampler.AdaptiveSampler
	noise    distuv.Normal
	log      zerolog.Logger
	shots    int
}

var _ Detector = (*SimulatedDetector)(nil)

// NewSimulatedDetector returns a detector whose shots are drawn from the
// quadrature distribution of s.
func NewSimulatedDetector(s fock.State, opts SimulatedOpts) (*SimulatedDetector, error) {
	if !(opts.Loss >= 0 && opts.Loss <= 1) {
		return nil, fmt.Errorf("loss %v: %w", opts.Loss, qerr.ErrInvalidParameter)
	}
	so := opts.Sampler
	if so.Rand == nil {
		so.Rand = rand.NewPCG(uint64(time.Now().UnixNano()), 0)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	if so.Logger == nil {
		so.Logger = &log
	}
	return &SimulatedDetector{
		state: s,
		eta:   1 - opts.Loss,
		opts:  so,
		noise: distuv.Normal{Mu: 0, Sigma: math.Sqrt(0.5), Src: so.Rand},
		log:   log.With().Str("component", "homodyne").Logger(),
	}, nil
}

// Next implements the Detector interface.
func (d *SimulatedDetector) Next(n int) (thetas, xs []float64, err error) {
	if n < 0 {
		return nil, nil, fmt.Errorf("%d shots: %w", n, qerr.ErrInvalidParameter)
	}
	pts, stats, err := d.sample(n)
	if err != nil {
		return nil, nil, fmt.Errorf("sampling shots %d to %d: %w", d.shots, d.shots+n, err)
	}
	thetas = make([]float64, n)
	xs = make([]float64, n)
	a, b := math.Sqrt(d.eta), math.Sqrt(1-d.eta)
	for i, p := range pts {
		thetas[i] = p.Theta
		xs[i] = a * p.X
		if b > 0 {
			xs[i] += b * d.noise.Rand()
		}
	}
	d.shots += n

	if n > 1 && d.log.GetLevel() <= zerolog.DebugLevel {
		mean, variance := stat.MeanVariance(xs, nil)
		d.log.Debug().
			Int("n", n).
			Int("shots", d.shots).
			Int("evaluations", stats.Evaluations).
			Float64("mean", mean).
			Float64("variance", variance).
			Msg("detected batch")
	}
	return thetas, xs, nil
}

func (d *SimulatedDetector) sample(n int) ([]sampler.Point, sampler.Stats, error) {
	if d.opts.Gaussian || d.state.Gaussian() {
		return sampler.Gaussian(d.state, n, d.opts)
	}
	if d.adaptive == nil {
		a, err := sampler.NewAdaptiveSampler(d.state, d.opts)
		if err != nil {
			return nil, sampler.Stats{}, err
		}
		d.adaptive = a
	}
	return d.adaptive.Sample(n)
}

// Shots returns the number of measurements made so far.
func (d *SimulatedDetector) Shots() int {
	return d.shots
}
