package lines

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/maorshutman/lm"

	"github.com/cwbudde/algo-astro/spectro/continuum"
	"github.com/cwbudde/algo-astro/spectro/spectrum"
)

const (
	defaultThreshold    = 5.0
	defaultFitHalfWidth = 15.0
	defaultMaxLines     = 32

	// FWHM of a Gaussian in units of its sigma.
	fwhmFactor = 2.3548200450309493
)

var (
	// ErrNoLines is returned when no peak clears the detection
	// threshold.
	ErrNoLines = errors.New("lines: no peaks above threshold")
	// ErrWindowTooNarrow is returned when a fit window holds fewer
	// samples than Gaussian parameters.
	ErrWindowTooNarrow = errors.New("lines: fit window holds too few samples")
)

// Config holds emission-line detection and fit parameters.
type Config struct {
	// Threshold is the peak detection threshold in units of the robust
	// noise of the continuum-subtracted spectrum (default 5).
	Threshold float64
	// FitHalfWidth is the half-width of the per-line fit window, in
	// wavelength units (default 15).
	FitHalfWidth float64
	// MaxLines caps the number of fitted lines, strongest first
	// (default 32).
	MaxLines int
}

func normalizeConfig(cfg Config) Config {
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	if cfg.FitHalfWidth <= 0 {
		cfg.FitHalfWidth = defaultFitHalfWidth
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = defaultMaxLines
	}
	return cfg
}

// Line is one fitted emission line.
type Line struct {
	Center    float64 // fitted line center [wavelength units]
	Amplitude float64 // peak flux above the continuum
	Sigma     float64 // Gaussian sigma [wavelength units]
	FWHM      float64 // 2.3548 Sigma
	Flux      float64 // integrated line flux, Amplitude*Sigma*sqrt(2*pi)
	EW        float64 // equivalent width, Flux over continuum at Center
	SNR       float64 // Amplitude over the robust spectrum noise
}

// Detect returns the sample indices of local maxima in the
// continuum-subtracted spectrum that exceed threshold times its robust
// noise, strongest first.
func Detect(sub *spectrum.Spectrum, threshold float64) []int {
	_, noise := sub.MedianNoise()
	if noise <= 0 {
		return nil
	}

	var peaks []int
	for i := 1; i < sub.Len()-1; i++ {
		if math.IsInf(sub.Err[i], 1) {
			continue
		}
		if sub.Flux[i] <= sub.Flux[i-1] || sub.Flux[i] < sub.Flux[i+1] {
			continue
		}
		if sub.Flux[i] > threshold*noise {
			peaks = append(peaks, i)
		}
	}

	sort.Slice(peaks, func(a, b int) bool {
		return sub.Flux[peaks[a]] > sub.Flux[peaks[b]]
	})

	return peaks
}

// Measure subtracts the continuum model, detects emission lines, and
// fits a Gaussian profile to each. Lines are returned in ascending
// wavelength order.
func Measure(s *spectrum.Spectrum, cont *continuum.Result, cfg Config) ([]Line, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg = normalizeConfig(cfg)

	sub := continuum.Subtract(s, cont)
	_, noise := sub.MedianNoise()

	peaks := Detect(sub, cfg.Threshold)
	if len(peaks) == 0 {
		return nil, ErrNoLines
	}
	if len(peaks) > cfg.MaxLines {
		peaks = peaks[:cfg.MaxLines]
	}

	var out []Line
	for _, idx := range peaks {
		center := sub.Wave[idx]
		if tooClose(out, center, cfg.FitHalfWidth) {
			continue
		}

		g, err := FitGaussian(sub, center, cfg.FitHalfWidth)
		if err != nil {
			return nil, fmt.Errorf("lines: fit at %.2f: %w", center, err)
		}

		l := Line{
			Center:    g.Center,
			Amplitude: g.Amplitude,
			Sigma:     g.Sigma,
			FWHM:      fwhmFactor * g.Sigma,
			Flux:      g.Amplitude * g.Sigma * math.Sqrt(2*math.Pi),
		}
		if c := cont.Eval(g.Center); c > 0 {
			l.EW = l.Flux / c
		}
		if noise > 0 {
			l.SNR = g.Amplitude / noise
		}

		out = append(out, l)
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Center < out[b].Center })

	return out, nil
}

// GaussFit holds the parameters of a single Gaussian profile fit.
type GaussFit struct {
	Amplitude float64
	Center    float64
	Sigma     float64
}

// FitGaussian fits a Gaussian profile to the continuum-subtracted
// spectrum within halfWidth of the initial center guess, weighting
// residuals by the per-sample errors.
func FitGaussian(sub *spectrum.Spectrum, center, halfWidth float64) (GaussFit, error) {
	win := sub.Window(center-halfWidth, center+halfWidth)
	if win.Len() < 3 {
		return GaussFit{}, ErrWindowTooNarrow
	}

	peak := 0.0
	for _, v := range win.Flux {
		if v > peak {
			peak = v
		}
	}

	resFunc := func(dst, params []float64) {
		amp, cen, sig := params[0], params[1], params[2]
		for i := range win.Wave {
			w := 1.0
			if win.Err[i] > 0 && !math.IsInf(win.Err[i], 1) {
				w = 1 / win.Err[i]
			}
			d := (win.Wave[i] - cen) / sig
			dst[i] = (amp*math.Exp(-0.5*d*d) - win.Flux[i]) * w
		}
	}

	nj := &lm.NumJac{Func: resFunc}

	problem := lm.LMProblem{
		Dim:        3,
		Size:       win.Len(),
		Func:       resFunc,
		Jac:        nj.Jac,
		InitParams: []float64{peak, center, halfWidth / 4},
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := lm.LM(problem, &lm.Settings{Iterations: 200, ObjectiveTol: 1e-16})
	if err != nil {
		return GaussFit{}, err
	}

	return GaussFit{
		Amplitude: results.X[0],
		Center:    results.X[1],
		Sigma:     math.Abs(results.X[2]),
	}, nil
}

// tooClose reports whether a candidate center falls inside the fit
// window of an already fitted line.
func tooClose(fitted []Line, center, halfWidth float64) bool {
	for _, l := range fitted {
		if math.Abs(l.Center-center) < halfWidth {
			return true
		}
	}
	return false
}
