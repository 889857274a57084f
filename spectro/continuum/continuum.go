package continuum

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-astro/spectro/spectrum"
)

const (
	defaultDegree    = 3
	defaultClipSigma = 3.0
	defaultMaxIter   = 10
)

var (
	// ErrTooFewPoints is returned when fewer unmasked samples remain
	// than polynomial coefficients.
	ErrTooFewPoints = errors.New("continuum: too few samples for the polynomial degree")
)

// Config holds continuum-fit parameters.
type Config struct {
	Degree    int     // polynomial degree (default 3)
	ClipSigma float64 // rejection threshold in robust sigma (default 3)
	MaxIter   int     // maximum clipping iterations (default 10)
}

func normalizeConfig(cfg Config) Config {
	if cfg.Degree <= 0 {
		cfg.Degree = defaultDegree
	}
	if cfg.ClipSigma <= 0 {
		cfg.ClipSigma = defaultClipSigma
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = defaultMaxIter
	}
	return cfg
}

// Result holds a fitted continuum model.
type Result struct {
	// Coeffs are the polynomial coefficients, low order first, in the
	// rescaled wavelength coordinate used internally.
	Coeffs []float64
	// Model is the continuum evaluated on the input wavelength grid.
	Model []float64
	// Mask flags the samples that survived sigma clipping.
	Mask []bool
	// Iterations is the number of clipping passes performed.
	Iterations int

	mid, half float64
}

// Eval evaluates the fitted continuum at an arbitrary wavelength.
func (r *Result) Eval(wave float64) float64 {
	x := (wave - r.mid) / r.half

	v := 0.0
	for i := len(r.Coeffs) - 1; i >= 0; i-- {
		v = v*x + r.Coeffs[i]
	}

	return v
}

// Fit models the continuum as a low-order polynomial, iteratively
// rejecting samples that deviate from the current model by more than
// ClipSigma robust sigma. Emission and absorption lines are clipped out
// after the first pass so the polynomial tracks the line-free baseline.
func Fit(s *spectrum.Spectrum, cfg Config) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg = normalizeConfig(cfg)

	n := s.Len()

	r := &Result{
		Model: make([]float64, n),
		Mask:  make([]bool, n),
		mid:   (s.Wave[0] + s.Wave[n-1]) / 2,
		half:  (s.Wave[n-1] - s.Wave[0]) / 2,
	}
	if r.half == 0 {
		r.half = 1
	}

	for i := range r.Mask {
		r.Mask[i] = !math.IsInf(s.Err[i], 1)
	}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		r.Iterations = iter + 1

		coeffs, err := polyFit(s, r.Mask, cfg.Degree, r.mid, r.half)
		if err != nil {
			return nil, err
		}
		r.Coeffs = coeffs

		for i, w := range s.Wave {
			r.Model[i] = r.Eval(w)
		}

		if !clip(s, r, cfg.ClipSigma) {
			break
		}
	}

	return r, nil
}

// Subtract returns the spectrum with the continuum model removed.
func Subtract(s *spectrum.Spectrum, r *Result) *spectrum.Spectrum {
	flux := make([]float64, s.Len())
	for i := range flux {
		flux[i] = s.Flux[i] - r.Model[i]
	}

	return &spectrum.Spectrum{
		Wave: append([]float64(nil), s.Wave...),
		Flux: flux,
		Err:  append([]float64(nil), s.Err...),
	}
}

// Normalize returns the spectrum divided by the continuum model.
// Samples where the model is not positive are zeroed with infinite
// error so downstream weighting ignores them.
func Normalize(s *spectrum.Spectrum, r *Result) *spectrum.Spectrum {
	flux := make([]float64, s.Len())
	errs := make([]float64, s.Len())

	for i := range flux {
		if r.Model[i] <= 0 {
			errs[i] = math.Inf(1)
			continue
		}
		flux[i] = s.Flux[i] / r.Model[i]
		errs[i] = s.Err[i] / r.Model[i]
	}

	return &spectrum.Spectrum{
		Wave: append([]float64(nil), s.Wave...),
		Flux: flux,
		Err:  errs,
	}
}

// clip rejects samples deviating from the model by more than nsigma
// robust sigma. It reports whether the mask changed.
func clip(s *spectrum.Spectrum, r *Result, nsigma float64) bool {
	var dev []float64
	for i := range s.Flux {
		if r.Mask[i] {
			dev = append(dev, math.Abs(s.Flux[i]-r.Model[i]))
		}
	}
	if len(dev) == 0 {
		return false
	}

	sort.Float64s(dev)
	sigma := 1.4826 * median(dev)

	// Stop once the scatter reaches the numerical noise floor, so exact
	// data does not trigger runaway clipping.
	floor := 0.0
	for _, v := range r.Model {
		if a := math.Abs(v); a > floor {
			floor = a
		}
	}
	if sigma <= 1e-10*floor {
		return false
	}

	changed := false
	for i := range s.Flux {
		if r.Mask[i] && math.Abs(s.Flux[i]-r.Model[i]) > nsigma*sigma {
			r.Mask[i] = false
			changed = true
		}
	}

	return changed
}

// polyFit solves the weighted least-squares polynomial fit over the
// unmasked samples via QR decomposition.
func polyFit(s *spectrum.Spectrum, mask []bool, degree int, mid, half float64) ([]float64, error) {
	rows := 0
	for _, m := range mask {
		if m {
			rows++
		}
	}

	cols := degree + 1
	if rows < cols {
		return nil, fmt.Errorf("%w: %d samples, %d coefficients", ErrTooFewPoints, rows, cols)
	}

	a := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)

	row := 0
	for i := range s.Wave {
		if !mask[i] {
			continue
		}

		w := 1.0
		if s.Err[i] > 0 && !math.IsInf(s.Err[i], 1) {
			w = 1 / s.Err[i]
		}

		x := (s.Wave[i] - mid) / half
		term := w
		for j := 0; j < cols; j++ {
			a.Set(row, j, term)
			term *= x
		}
		b.SetVec(row, s.Flux[i]*w)
		row++
	}

	var qr mat.QR
	qr.Factorize(a)

	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("continuum: solve: %w", err)
	}

	coeffs := make([]float64, cols)
	for j := range coeffs {
		coeffs[j] = sol.At(j, 0)
	}

	return coeffs, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
