// Package sampler draws (θ, x) pairs from the quadrature distribution of a
// single-mode state, as a homodyne detector with a randomized local
// oscillator phase would record them.
//
// Gaussian states are sampled exactly from their first and second moments.
// Everything else goes through an adaptive rejection sampler over the
// density computed by package quadrature.
package sampler

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/qerr"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"
)

// Defaults for zero-valued fields of Opts.
var (
	DefaultThetaRange = [2]float64{0, 2 * math.Pi}
	DefaultXRange     = [2]float64{-10, 10}
)

const (
	DefaultWarmUp    = 128
	DefaultBatchSize = 64
	DefaultC         = 0.9
	DefaultThetaBins = 32
	DefaultXBins     = 64
)

// A Point is one homodyne outcome: the quadrature X_θ was measured and
// found to be X.
type Point struct {
	Theta float64
	X     float64
}

// Stats describes the work done by one sampling run.
type Stats struct {
	// Evaluations counts density evaluations, including the envelope's grid scan.
	Evaluations int
	Scans       int
	Accepted    int
	Refits      int
	// Violations counts points where the density exceeded the envelope. Runs
	// that observe one fail, so it is 0 whenever the returned error is nil.
	Violations int
}

// AcceptanceRate is the fraction of candidates that were accepted.
func (s Stats) AcceptanceRate() float64 {
	if s.Evaluations-s.Scans <= 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Evaluations-s.Scans)
}

// Opts configures a sampling run. The zero value is usable.
type Opts struct {
	// ThetaRange bounds the local oscillator phase. Defaults to
	// DefaultThetaRange.
	ThetaRange [2]float64
	// XRange bounds the quadrature values the adaptive sampler can produce.
	// Defaults to DefaultXRange. The Gaussian path ignores it.
	XRange [2]float64
	// BiasPhase shifts the local oscillator: θ is drawn from ThetaRange +
	// BiasPhase and x from the distribution of X_θ at that θ.
	BiasPhase float64

	// WarmUp is the number of uniform candidates drawn before the envelope
	// is first fit. Zero means DefaultWarmUp; a negative value skips the
	// warm-up.
	WarmUp int
	// BatchSize is the number of accepted points between envelope refits.
	// Defaults to DefaultBatchSize.
	BatchSize int
	// C in (0, 1] scales the envelope: a cell's height is its proven bound
	// on the density divided by C, which leaves headroom for rounding.
	// Defaults to DefaultC.
	C float64
	// ThetaBins and XBins set the envelope resolution. Default to
	// DefaultThetaBins and DefaultXBins.
	ThetaBins int
	XBins     int

	// Gaussian forces the closed-form path even for states that do not
	// report themselves as Gaussian.
	Gaussian bool

	// Rand is the source of randomness. Defaults to a PCG seeded from the
	// clock. Runs with equal sources and options produce equal output.
	Rand rand.Source
	// Logger receives refit diagnostics at debug level. Defaults to a no-op
	// logger.
	Logger *zerolog.Logger
}

func (o Opts) withDefaults() (Opts, error) {
	if o.ThetaRange == [2]float64{} {
		o.ThetaRange = DefaultThetaRange
	}
	if o.XRange == [2]float64{} {
		o.XRange = DefaultXRange
	}
	switch {
	case o.WarmUp == 0:
		o.WarmUp = DefaultWarmUp
	case o.WarmUp < 0:
		o.WarmUp = 0
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.C == 0 {
		o.C = DefaultC
	}
	if o.ThetaBins == 0 {
		o.ThetaBins = DefaultThetaBins
	}
	if o.XBins == 0 {
		o.XBins = DefaultXBins
	}
	if o.Rand == nil {
		o.Rand = rand.NewPCG(uint64(time.Now().UnixNano()), 0)
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}

	switch {
	case !validRange(o.ThetaRange):
		return o, fmt.Errorf("theta range %v: %w", o.ThetaRange, qerr.ErrInvalidParameter)
	case !validRange(o.XRange):
		return o, fmt.Errorf("x range %v: %w", o.XRange, qerr.ErrInvalidParameter)
	case math.IsNaN(o.BiasPhase) || math.IsInf(o.BiasPhase, 0):
		return o, fmt.Errorf("bias phase %v: %w", o.BiasPhase, qerr.ErrInvalidParameter)
	case o.BatchSize < 0:
		return o, fmt.Errorf("batch size %d: %w", o.BatchSize, qerr.ErrInvalidParameter)
	case !(o.C > 0 && o.C <= 1):
		return o, fmt.Errorf("envelope scale %v: %w", o.C, qerr.ErrInvalidParameter)
	case o.ThetaBins < 0 || o.XBins < 0:
		return o, fmt.Errorf("%dx%d envelope bins: %w", o.ThetaBins, o.XBins, qerr.ErrInvalidParameter)
	}
	return o, nil
}

func validRange(r [2]float64) bool {
	for _, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r[1] > r[0]
}

// Sample draws n points from the quadrature distribution of s. States that
// report themselves Gaussian, or any state when opts.Gaussian is set, use
// the closed form; the rest are sampled by Adaptive.
func Sample(s fock.State, n int, opts Opts) ([]Point, Stats, error) {
	if opts.Gaussian || s.Gaussian() {
		return Gaussian(s, n, opts)
	}
	return Adaptive(s, n, opts)
}

// SampleOne draws a single point.
func SampleOne(s fock.State, opts Opts) (Point, error) {
	pts, _, err := Sample(s, 1, opts)
	if err != nil {
		return Point{}, err
	}
	return pts[0], nil
}

// Gaussian samples s as if it were Gaussian: θ is uniform on ThetaRange +
// BiasPhase and x is normal with the mean and variance of X_θ
// computed from the moments of s. No rejection is involved, so the result
// is exact for Gaussian states and meaningless for others.
func Gaussian(s fock.State, n int, opts Opts) ([]Point, Stats, error) {
	var stats Stats
	if n < 0 {
		return nil, stats, fmt.Errorf("%d samples: %w", n, qerr.ErrInvalidParameter)
	}
	o, err := opts.withDefaults()
	if err != nil {
		return nil, stats, err
	}
	log := o.Logger.With().Str("component", "sampler").Str("path", "gaussian").Logger()

	m := fock.MomentsOf(s)
	theta := distuv.Uniform{Min: o.ThetaRange[0] + o.BiasPhase, Max: o.ThetaRange[1] + o.BiasPhase, Src: o.Rand}
	pts := make([]Point, n)
	for i := range pts {
		th := theta.Rand()
		v := m.QuadratureVariance(th)
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, stats, fmt.Errorf("quadrature variance %v at θ = %v: %w", v, th, qerr.ErrNumericDivergence)
		}
		x := distuv.Normal{Mu: m.QuadratureMean(th), Sigma: math.Sqrt(v), Src: o.Rand}.Rand()
		pts[i] = Point{Theta: th, X: x}
		stats.Evaluations++
		stats.Accepted++
	}
	log.Debug().Int("n", n).Msg("sampled gaussian state")
	return pts, stats, nil
}
