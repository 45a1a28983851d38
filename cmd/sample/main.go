// sample prepares a single-mode state and writes either simulated homodyne
// measurements of it or its Wigner function to stdout.
//
// Examples:
//
//	sample --state squeezed --r 0.8 --count 5000 > shots.csv
//	sample --state fock --n 3 --dim 20 --format proto --count 10000 > shots.bin
//	sample --state coherent --r 2 --theta 0.5 --wigner --step 0.05 --format msgpack
package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
)

var (
	state  = flag.String("state", "vacuum", "One of vacuum, fock, coherent, squeezed, thermal, squeezed-thermal.")
	level  = flag.Int("n", 1, "The Fock level of a fock state.")
	r      = flag.Float64("r", 1, "The magnitude of α for coherent states or ξ for squeezed ones.")
	theta  = flag.Float64("theta", 0, "The phase of α or ξ; the parameter is r·exp(-i·theta).")
	nbar   = flag.Float64("nbar", 0.5, "The mean photon number of thermal states.")
	dim    = flag.Int("dim", 70, "The Fock space truncation.")
	count  = flag.Int("count", 1000, "The number of measurements to simulate.")
	seed   = flag.Uint64("seed", 0, "The random seed. 0 seeds from the clock.")
	loss   = flag.Float64("loss", 0, "The fraction of signal lost before detection.")
	format = flag.String("format", "csv", "One of csv, proto, msgpack.")

	doWigner = flag.Bool("wigner", false, "Write the Wigner function instead of measurements.")
	xRange   = flag.Float64Slice("x-range", []float64{-5, 5}, "The x extent of the Wigner grid.")
	pRange   = flag.Float64Slice("p-range", []float64{-5, 5}, "The p extent of the Wigner grid.")
	step     = flag.Float64("step", 0.1, "The Wigner grid spacing.")
	workers  = flag.Int("workers", 1, "The goroutines used to evaluate the Wigner function.")

	logLevel = flag.String("log-level", "info", "One of trace, debug, info, warn, error.")
	pretty   = flag.Bool("pretty", false, "Log human readable lines rather than JSON.")
)

func main() {
	flag.Parse()

	var log zerolog.Logger
	if *pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log = zerolog.New(os.Stderr)
	}
	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("bad log level")
	}
	runID := uuid.New().String()
	log = log.Level(lvl).With().Timestamp().Str("run", runID).Logger()

	cfg := config{
		RunID:   runID,
		State:   *state,
		N:       *level,
		R:       *r,
		Theta:   *theta,
		NBar:    *nbar,
		Dim:     *dim,
		Count:   *count,
		Seed:    *seed,
		Loss:    *loss,
		Format:  *format,
		Wigner:  *doWigner,
		XRange:  *xRange,
		PRange:  *pRange,
		Step:    *step,
		Workers: *workers,
	}
	if err := run(cfg, os.Stdout, log); err != nil {
		log.Fatal().Err(err).Msg("sample failed")
	}
}
