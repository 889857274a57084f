package template

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-astro/spectro/continuum"
	"github.com/cwbudde/algo-astro/spectro/spectrum"
)

const (
	defaultZMax            = 1.0
	defaultLogStep         = 1e-4
	defaultContinuumDegree = 3
)

var (
	// ErrEmptyLibrary is returned when the template library holds no
	// spectra.
	ErrEmptyLibrary = errors.New("template: empty library")
	// ErrNoOverlap is returned when no redshift in the scan range
	// brings a template into overlap with the observed spectrum.
	ErrNoOverlap = errors.New("template: no overlap in redshift range")
)

// Template is one rest-frame reference spectrum.
type Template struct {
	Name string
	Spec *spectrum.Spectrum
}

// Library is a set of rest-frame templates.
type Library struct {
	Templates []Template
}

// LoadLibrary reads every file matching the glob pattern as a
// plain-text template spectrum. Template names are the file basenames
// without extension.
func LoadLibrary(pattern string) (*Library, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("template: glob %s: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %s", ErrEmptyLibrary, pattern)
	}

	sort.Strings(paths)

	lib := &Library{}
	for _, p := range paths {
		s, err := spectrum.LoadASCII(p)
		if err != nil {
			return nil, err
		}

		name := filepath.Base(p)
		name = strings.TrimSuffix(name, filepath.Ext(name))

		lib.Templates = append(lib.Templates, Template{Name: name, Spec: s})
	}

	return lib, nil
}

// Config holds redshift-scan parameters.
type Config struct {
	ZMin float64 // lower bound of the redshift scan (default 0)
	ZMax float64 // upper bound of the redshift scan (default 1)
	// LogStep is the log-wavelength sampling step used for the
	// cross-correlation (default 1e-4, about 30 km/s per bin).
	LogStep float64
	// ContinuumDegree is the polynomial degree used to remove the
	// continuum from both spectra before correlating (default 3).
	ContinuumDegree int
}

func normalizeConfig(cfg Config) Config {
	if cfg.ZMax <= cfg.ZMin {
		cfg.ZMax = defaultZMax
	}
	if cfg.LogStep <= 0 {
		cfg.LogStep = defaultLogStep
	}
	if cfg.ContinuumDegree <= 0 {
		cfg.ContinuumDegree = defaultContinuumDegree
	}
	return cfg
}

// Match is the best redshift for one template.
type Match struct {
	Template string
	Z        float64
	// Score is the peak normalized cross-correlation, at most 1 for a
	// perfect match.
	Score float64
}

// Result ranks the library against one observed spectrum.
type Result struct {
	// Best is the highest-scoring match over the whole library.
	Best Match
	// Ranked holds the best match per template, highest score first.
	Ranked []Match
}

// MatchSpectrum cross-correlates the observed spectrum against every
// library template over the configured redshift range and ranks the
// templates by peak correlation. Both spectra are continuum-subtracted
// and resampled onto a common logarithmic wavelength step, so a
// redshift becomes a pure translation recoverable from the correlation
// peak lag.
func MatchSpectrum(s *spectrum.Spectrum, lib *Library, cfg Config) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if lib == nil || len(lib.Templates) == 0 {
		return nil, ErrEmptyLibrary
	}

	cfg = normalizeConfig(cfg)

	obs, obsLn0, err := prepare(s, cfg)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, t := range lib.Templates {
		tpl, tplLn0, err := prepare(t.Spec, cfg)
		if err != nil {
			return nil, fmt.Errorf("template: %s: %w", t.Name, err)
		}

		z, score, err := peakRedshift(obs, tpl, obsLn0-tplLn0, cfg)
		if err != nil {
			return nil, fmt.Errorf("template: %s: %w", t.Name, err)
		}

		res.Ranked = append(res.Ranked, Match{Template: t.Name, Z: z, Score: score})
	}

	sort.Slice(res.Ranked, func(a, b int) bool {
		return res.Ranked[a].Score > res.Ranked[b].Score
	})
	res.Best = res.Ranked[0]

	return res, nil
}

// Correlation returns the normalized cross-correlation of the observed
// spectrum against one template as a function of trial redshift, for
// inspection and plotting.
func Correlation(s *spectrum.Spectrum, t Template, cfg Config) (zs, scores []float64, err error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}

	cfg = normalizeConfig(cfg)

	obs, obsLn0, err := prepare(s, cfg)
	if err != nil {
		return nil, nil, err
	}
	tpl, tplLn0, err := prepare(t.Spec, cfg)
	if err != nil {
		return nil, nil, err
	}

	corr, err := crossCorrelate(obs, tpl)
	if err != nil {
		return nil, nil, err
	}

	lnOffset := obsLn0 - tplLn0
	for k := range corr {
		lag := k - (len(tpl) - 1)
		zk := math.Exp(lnOffset+float64(lag)*cfg.LogStep) - 1
		if zk < cfg.ZMin || zk > cfg.ZMax {
			continue
		}
		zs = append(zs, zk)
		scores = append(scores, corr[k])
	}
	if len(zs) == 0 {
		return nil, nil, ErrNoOverlap
	}

	return zs, scores, nil
}

// prepare continuum-subtracts the spectrum, resamples it onto a
// uniform log-wavelength grid, and scales it to unit L2 norm. It
// returns the prepared samples and the log of the first grid
// wavelength.
func prepare(s *spectrum.Spectrum, cfg Config) ([]float64, float64, error) {
	cont, err := continuum.Fit(s, continuum.Config{Degree: cfg.ContinuumDegree})
	if err != nil {
		return nil, 0, err
	}
	sub := continuum.Subtract(s, cont)

	ln0 := math.Log(s.Wave[0])
	ln1 := math.Log(s.Wave[s.Len()-1])
	n := int(math.Floor((ln1-ln0)/cfg.LogStep)) + 1

	grid := make([]float64, n)
	for i := range grid {
		grid[i] = math.Exp(ln0 + float64(i)*cfg.LogStep)
	}

	r := sub.Resample(grid)

	out := make([]float64, n)
	var norm float64
	for i, v := range r.Flux {
		if math.IsInf(r.Err[i], 1) {
			continue
		}
		out[i] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i] /= norm
		}
	}

	return out, ln0, nil
}

// peakRedshift cross-correlates the prepared observed and template
// series and returns the redshift of the strongest peak inside the
// scan range, refined with parabolic interpolation.
func peakRedshift(obs, tpl []float64, lnOffset float64, cfg Config) (z, score float64, err error) {
	corr, err := crossCorrelate(obs, tpl)
	if err != nil {
		return 0, 0, err
	}

	best := -1
	for k := range corr {
		lag := k - (len(tpl) - 1)
		zk := math.Exp(lnOffset+float64(lag)*cfg.LogStep) - 1
		if zk < cfg.ZMin || zk > cfg.ZMax {
			continue
		}
		if best < 0 || corr[k] > corr[best] {
			best = k
		}
	}
	if best < 0 {
		return 0, 0, ErrNoOverlap
	}

	lag := float64(best - (len(tpl) - 1))
	if best > 0 && best < len(corr)-1 {
		lo, mid, hi := corr[best-1], corr[best], corr[best+1]
		if den := lo - 2*mid + hi; den != 0 {
			lag += 0.5 * (lo - hi) / den
		}
	}

	return math.Exp(lnOffset+lag*cfg.LogStep) - 1, corr[best], nil
}

// crossCorrelate computes the full linear cross-correlation of a and b
// through zero-padded FFTs. Output index k corresponds to lag
// k - (len(b) - 1).
func crossCorrelate(a, b []float64) ([]float64, error) {
	n := len(a)
	m := len(b)
	fftSize := nextPowerOf2(n + m - 1)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	aPadded := make([]complex128, fftSize)
	bPadded := make([]complex128, fftSize)
	for i, v := range a {
		aPadded[i] = complex(v, 0)
	}
	for i, v := range b {
		bPadded[i] = complex(v, 0)
	}

	aFreq := make([]complex128, fftSize)
	bFreq := make([]complex128, fftSize)
	if err := plan.Forward(aFreq, aPadded); err != nil {
		return nil, fmt.Errorf("forward FFT: %w", err)
	}
	if err := plan.Forward(bFreq, bPadded); err != nil {
		return nil, fmt.Errorf("forward FFT: %w", err)
	}

	prodFreq := make([]complex128, fftSize)
	for i := range prodFreq {
		prodFreq[i] = aFreq[i] * complex(real(bFreq[i]), -imag(bFreq[i]))
	}

	prodTime := make([]complex128, fftSize)
	if err := plan.Inverse(prodTime, prodFreq); err != nil {
		return nil, fmt.Errorf("inverse FFT: %w", err)
	}

	// Rearrange circular correlation into linear order: negative lags
	// sit at the tail of the FFT output.
	out := make([]float64, n+m-1)
	for i := 0; i < n; i++ {
		out[m-1+i] = real(prodTime[i])
	}
	for i := 0; i < m-1; i++ {
		out[i] = real(prodTime[fftSize-m+1+i])
	}

	return out, nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
