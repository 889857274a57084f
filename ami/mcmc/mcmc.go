package mcmc

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/cwbudde/algo-astro/ami/binarymodel"
	"github.com/cwbudde/algo-astro/ami/gridfit"
	"github.com/cwbudde/algo-astro/ami/oifits"
)

const (
	defaultSteps     = 5000
	defaultMaxOffset = 500.0
)

// ErrNoPoints is returned when the observation carries no data points.
var ErrNoPoints = errors.New("mcmc: observation has no data points")

// ErrBadStart is returned when the starting model is outside the prior.
var ErrBadStart = errors.New("mcmc: starting model outside prior bounds")

// Config holds Metropolis-Hastings sampling parameters.
type Config struct {
	Steps      int   // chain length after burn-in (default 5000)
	BurnIn     int   // discarded leading steps (default Steps/5)
	Thin       int   // keep every Thin-th sample (default 1)
	Seed       int64 // RNG seed; 1 when zero so runs are reproducible
	StepDX     float64
	StepDY     float64 // Gaussian proposal widths [mas]
	StepF      float64 // proposal width on the flux ratio
	MaxOffset  float64 // prior half-width on |DX|, |DY| [mas]
	SmearOrder int
}

// Sample is one retained state of the chain.
type Sample struct {
	DX, DY, F float64
	Chi2      float64
}

// ParamSummary holds posterior statistics for one parameter.
type ParamSummary struct {
	Mean float64
	Std  float64
	P16  float64
	P50  float64
	P84  float64
}

// Result holds the thinned chain and per-parameter posterior summaries.
type Result struct {
	Samples    []Sample
	DX, DY, F  ParamSummary
	Acceptance float64
}

// Run samples the binary-model posterior around a starting solution
// with a sequential Metropolis-Hastings chain on (DX, DY, F). The
// likelihood is exp(-chi2/2) with flat priors: F in (0, 1) and offsets
// within MaxOffset.
func Run(obs *oifits.Observation, start binarymodel.Binary, cfg Config) (Result, error) {
	if obs == nil || obs.NPoints() == 0 {
		return Result{}, ErrNoPoints
	}

	cfg = normalizeConfig(cfg, start)

	if !inPrior(start, cfg) {
		return Result{}, ErrBadStart
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	cur := start
	curChi2 := gridfit.Chi2(obs, cur, cfg.SmearOrder)

	total := cfg.BurnIn + cfg.Steps
	accepted := 0
	samples := make([]Sample, 0, cfg.Steps/cfg.Thin+1)

	for step := 0; step < total; step++ {
		prop := binarymodel.Binary{
			DX: cur.DX + rng.NormFloat64()*cfg.StepDX,
			DY: cur.DY + rng.NormFloat64()*cfg.StepDY,
			F:  cur.F + rng.NormFloat64()*cfg.StepF,
		}

		if inPrior(prop, cfg) {
			propChi2 := gridfit.Chi2(obs, prop, cfg.SmearOrder)

			// Accept with probability exp(-(chi2' - chi2)/2).
			if propChi2 <= curChi2 || rng.Float64() < math.Exp(-(propChi2-curChi2)/2) {
				cur = prop
				curChi2 = propChi2
				accepted++
			}
		}

		if step >= cfg.BurnIn && (step-cfg.BurnIn)%cfg.Thin == 0 {
			samples = append(samples, Sample{DX: cur.DX, DY: cur.DY, F: cur.F, Chi2: curChi2})
		}
	}

	res := Result{
		Samples:    samples,
		Acceptance: float64(accepted) / float64(total),
	}
	res.DX = summarize(samples, func(s Sample) float64 { return s.DX })
	res.DY = summarize(samples, func(s Sample) float64 { return s.DY })
	res.F = summarize(samples, func(s Sample) float64 { return s.F })

	return res, nil
}

func inPrior(b binarymodel.Binary, cfg Config) bool {
	return b.F > 0 && b.F < 1 &&
		math.Abs(b.DX) <= cfg.MaxOffset &&
		math.Abs(b.DY) <= cfg.MaxOffset
}

func summarize(samples []Sample, get func(Sample) float64) ParamSummary {
	n := len(samples)
	if n == 0 {
		return ParamSummary{}
	}

	values := make([]float64, n)

	mean := 0.0
	for i, s := range samples {
		values[i] = get(s)
		mean += values[i]
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	sort.Float64s(values)

	return ParamSummary{
		Mean: mean,
		Std:  math.Sqrt(variance),
		P16:  percentile(values, 0.16),
		P50:  percentile(values, 0.50),
		P84:  percentile(values, 0.84),
	}
}

// percentile interpolates linearly on sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	frac := pos - float64(lo)

	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func normalizeConfig(cfg Config, start binarymodel.Binary) Config {
	if cfg.Steps <= 0 {
		cfg.Steps = defaultSteps
	}

	if cfg.BurnIn <= 0 {
		cfg.BurnIn = cfg.Steps / 5
	}

	if cfg.Thin <= 0 {
		cfg.Thin = 1
	}

	if cfg.Seed == 0 {
		cfg.Seed = 1
	}

	if cfg.StepDX <= 0 {
		cfg.StepDX = 2
	}

	if cfg.StepDY <= 0 {
		cfg.StepDY = 2
	}

	if cfg.StepF <= 0 {
		cfg.StepF = math.Max(0.1*start.F, 1e-4)
	}

	if cfg.MaxOffset <= 0 {
		cfg.MaxOffset = defaultMaxOffset
	}

	if cfg.SmearOrder <= 0 {
		cfg.SmearOrder = 3
	}

	return cfg
}
