// bench.go builds a displaced squeezed thermal state for each entry in the
// cartesian product of a collection of state and truncation parameters, and
// outputs a CSV of numerical health and cost for each combination, e.g. trace
// and population leakage into the top Fock level, the integral of the Wigner
// function, and the acceptance rate of the adaptive sampler.
package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/polar"
	"github.com/alan-christopher/fock/fock/sampler"
	"github.com/alan-christopher/fock/fock/wigner"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

var (
	dims    = flag.IntSlice("dims", []int{fock.DefaultDim}, "The Fock space truncations to build states in.")
	rs      = flag.Float64Slice("rs", []float64{0.5}, "The squeezing magnitudes |ξ|.")
	nbars   = flag.Float64Slice("nbars", []float64{0}, "The mean thermal photon numbers before squeezing.")
	alphas  = flag.Float64Slice("alphas", []float64{0}, "The displacement magnitudes |α|.")
	samples = flag.IntSlice("samples", []int{2000}, "The number of points to draw with the adaptive sampler.")
	step    = flag.Float64("step", 0.1, "The Wigner grid spacing.")
	extent  = flag.Float64("extent", 10, "The Wigner grid covers [-extent, extent]².")
	workers = flag.Int("workers", 4, "The goroutines used to evaluate the Wigner function.")
	seed    = flag.Uint64("seed", 1234, "The sampler seed.")
	pretty  = flag.Bool("pretty", true, "Log human readable lines rather than JSON.")
)

var columns = []string{"Dim", "R", "NBar", "Alpha", "Samples", "Trace", "Purity",
	"Leakage", "WignerIntegral", "WignerSeconds", "Acceptance", "SamplerSeconds",
	"Succeeded"}

// An Experiment packages together the result of benchmarking a single
// parameterization for easy formatting.
type Experiment struct {
	// Fields corresponding to experiment parameters
	Dim     int
	R       float64
	NBar    float64
	Alpha   float64
	Samples int

	// Fields corresponding to experiment results
	Trace          float64
	Purity         float64
	Leakage        float64
	WignerIntegral float64
	WignerSeconds  float64
	Acceptance     float64
	SamplerSeconds float64
	Succeeded      bool
}

func main() {
	flag.Parse()
	var log zerolog.Logger
	if *pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	grid, err := wigner.Range(-*extent, *extent, *step)
	if err != nil {
		log.Fatal().Err(err).Msg("bad wigner grid")
	}

	fmt.Println(strings.Join(columns, ", "))
	row := rowTemplate()
	sweep([]int{len(*dims), len(*rs), len(*nbars), len(*alphas), len(*samples)}, func(i []int) {
		exp := &Experiment{
			Dim:     (*dims)[i[0]],
			R:       (*rs)[i[1]],
			NBar:    (*nbars)[i[2]],
			Alpha:   (*alphas)[i[3]],
			Samples: (*samples)[i[4]],
		}
		if err := bench(exp, grid); err != nil {
			log.Error().Err(err).Interface("experiment", exp).Msg("benchmark failed")
		}
		if err := row.Execute(os.Stdout, exp); err != nil {
			log.Fatal().Err(err).Msg("BUG: could not fill in row template")
		}
	})
}

func bench(exp *Experiment, grid []float64) error {
	xi, err := polar.New(exp.R, 0)
	if err != nil {
		return err
	}
	alpha, err := polar.New(exp.Alpha, 0)
	if err != nil {
		return err
	}
	s, err := fock.SqueezedThermal(xi, exp.NBar, fock.WithDim(exp.Dim))
	if err != nil {
		return err
	}
	if err := s.Displace(alpha); err != nil {
		return err
	}
	exp.Trace = s.Trace()
	exp.Purity = s.Purity()
	exp.Leakage = fock.Population(s, exp.Dim-1)

	f, err := wigner.New(grid, grid, wigner.WithDim(exp.Dim), wigner.WithWorkers(*workers))
	if err != nil {
		return err
	}
	start := time.Now()
	surf, err := f.Apply(s)
	if err != nil {
		return err
	}
	exp.WignerSeconds = time.Since(start).Seconds()
	exp.WignerIntegral = surf.Integral()

	start = time.Now()
	_, stats, err := sampler.Adaptive(s, exp.Samples, sampler.Opts{Rand: rand.NewPCG(*seed, 0)})
	if err != nil {
		return err
	}
	exp.SamplerSeconds = time.Since(start).Seconds()
	exp.Acceptance = stats.AcceptanceRate()
	exp.Succeeded = true
	return nil
}

// rowTemplate renders an Experiment as one CSV row in column order.
func rowTemplate() *template.Template {
	fields := make([]string, len(columns))
	for i, c := range columns {
		fields[i] = "{{." + c + "}}"
	}
	return template.Must(template.New("row").Parse(strings.Join(fields, ", ") + "\n"))
}

// sweep calls f once per element of the cartesian product of index ranges
// [0, lens[k]), varying the last index fastest. f must not retain idx.
func sweep(lens []int, f func(idx []int)) {
	for _, l := range lens {
		if l == 0 {
			return
		}
	}
	idx := make([]int, len(lens))
	for {
		f(idx)
		k := len(lens) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < lens[k] {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return
		}
	}
}
