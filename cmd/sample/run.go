package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/alan-christopher/fock/fock"
	"github.com/alan-christopher/fock/fock/framing"
	"github.com/alan-christopher/fock/fock/homodyne"
	"github.com/alan-christopher/fock/fock/polar"
	"github.com/alan-christopher/fock/fock/sampler"
	"github.com/alan-christopher/fock/fock/wigner"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

type config struct {
	RunID  string
	State  string
	N      int
	R      float64
	Theta  float64
	NBar   float64
	Dim    int
	Count  int
	Seed   uint64
	Loss   float64
	Format string

	Wigner  bool
	XRange  []float64
	PRange  []float64
	Step    float64
	Workers int
}

// shotsRecord and surfaceRecord are the msgpack layouts.
type shotsRecord struct {
	RunID string    `msgpack:"run_id"`
	Theta []float64 `msgpack:"theta"`
	X     []float64 `msgpack:"x"`
}

type surfaceRecord struct {
	RunID string      `msgpack:"run_id"`
	X     []float64   `msgpack:"x"`
	P     []float64   `msgpack:"p"`
	W     [][]float64 `msgpack:"w"`
}

func buildState(cfg config) (fock.State, error) {
	opts := []fock.Option{fock.WithDim(cfg.Dim)}
	switch cfg.State {
	case "vacuum":
		return fock.Vacuum(opts...)
	case "fock":
		return fock.Fock(cfg.N, opts...)
	case "coherent", "squeezed", "squeezed-thermal":
		z, err := polar.New(cfg.R, cfg.Theta)
		if err != nil {
			return nil, err
		}
		switch cfg.State {
		case "coherent":
			return fock.Coherent(z, opts...)
		case "squeezed":
			return fock.Squeezed(z, opts...)
		}
		return fock.SqueezedThermal(z, cfg.NBar, opts...)
	case "thermal":
		return fock.Thermal(cfg.NBar, opts...)
	}
	return nil, fmt.Errorf("unknown state %q", cfg.State)
}

func run(cfg config, out io.Writer, log zerolog.Logger) error {
	switch cfg.Format {
	case "csv", "proto", "msgpack":
	default:
		return fmt.Errorf("unknown format %q", cfg.Format)
	}
	s, err := buildState(cfg)
	if err != nil {
		return err
	}
	log.Info().
		Str("state", cfg.State).
		Int("dim", s.Dim()).
		Float64("purity", s.Purity()).
		Bool("gaussian", s.Gaussian()).
		Msg("prepared state")

	w := bufio.NewWriter(out)
	if cfg.Wigner {
		err = writeWigner(cfg, s, w, log)
	} else {
		err = writeShots(cfg, s, w, log)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

func writeShots(cfg config, s fock.State, w io.Writer, log zerolog.Logger) error {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	d, err := homodyne.NewSimulatedDetector(s, homodyne.SimulatedOpts{
		Loss:    cfg.Loss,
		Sampler: sampler.Opts{Rand: rand.NewPCG(seed, 0)},
		Logger:  &log,
	})
	if err != nil {
		return err
	}
	start := time.Now()
	thetas, xs, err := d.Next(cfg.Count)
	if err != nil {
		return err
	}
	log.Info().Int("count", cfg.Count).Uint64("seed", seed).Dur("elapsed", time.Since(start)).Msg("simulated measurements")

	switch cfg.Format {
	case "proto":
		batch := &framing.SampleBatch{RunID: cfg.RunID, Points: make([]sampler.Point, len(xs))}
		for i := range xs {
			batch.Points[i] = sampler.Point{Theta: thetas[i], X: xs[i]}
		}
		return framing.NewWriter(w).Write(batch)
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(shotsRecord{RunID: cfg.RunID, Theta: thetas, X: xs})
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"theta", "x"}); err != nil {
		return err
	}
	for i := range xs {
		if err := cw.Write([]string{formatFloat(thetas[i]), formatFloat(xs[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeWigner(cfg config, s fock.State, w io.Writer, log zerolog.Logger) error {
	if len(cfg.XRange) != 2 || len(cfg.PRange) != 2 {
		return fmt.Errorf("ranges need two values, got x %v and p %v", cfg.XRange, cfg.PRange)
	}
	xs, err := wigner.Range(cfg.XRange[0], cfg.XRange[1], cfg.Step)
	if err != nil {
		return err
	}
	ps, err := wigner.Range(cfg.PRange[0], cfg.PRange[1], cfg.Step)
	if err != nil {
		return err
	}
	f, err := wigner.New(xs, ps, wigner.WithDim(s.Dim()), wigner.WithWorkers(cfg.Workers))
	if err != nil {
		return err
	}
	start := time.Now()
	surf, err := f.Apply(s)
	if err != nil {
		return err
	}
	ev := log.Info().Int("cells", len(xs)*len(ps)).Dur("elapsed", time.Since(start))
	if len(xs) >= 3 && len(ps) >= 3 {
		ev = ev.Float64("integral", surf.Integral())
	}
	ev.Msg("evaluated wigner function")

	switch cfg.Format {
	case "proto":
		return framing.NewWriter(w).Write((*framing.Surface)(surf))
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(surfaceRecord{RunID: cfg.RunID, X: surf.X, P: surf.P, W: surf.W})
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "p", "w"}); err != nil {
		return err
	}
	for i, x := range surf.X {
		for j, p := range surf.P {
			if err := cw.Write([]string{formatFloat(x), formatFloat(p), formatFloat(surf.W[i][j])}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
