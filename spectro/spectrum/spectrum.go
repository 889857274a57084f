package spectrum

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	errLengthMismatch = errors.New("spectrum: wavelength, flux, and error arrays must have the same length")
	errNotAscending   = errors.New("spectrum: wavelength grid must be strictly ascending")
	errEmpty          = errors.New("spectrum: empty spectrum")
)

// Spectrum is a 1-D spectrum: flux and 1-sigma uncertainty sampled on
// a strictly ascending wavelength grid. Units are whatever the source
// file uses; the analysis packages only require consistency.
type Spectrum struct {
	Wave []float64
	Flux []float64
	Err  []float64
}

// New validates and wraps the given arrays. Err may be nil, in which
// case unit errors are assumed.
func New(wave, flux, errs []float64) (*Spectrum, error) {
	if errs == nil {
		errs = make([]float64, len(flux))
		for i := range errs {
			errs[i] = 1
		}
	}

	s := &Spectrum{Wave: wave, Flux: flux, Err: errs}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks the structural invariants.
func (s *Spectrum) Validate() error {
	if len(s.Wave) == 0 {
		return errEmpty
	}

	if len(s.Wave) != len(s.Flux) || len(s.Wave) != len(s.Err) {
		return fmt.Errorf("%w: %d/%d/%d", errLengthMismatch, len(s.Wave), len(s.Flux), len(s.Err))
	}

	for i := 1; i < len(s.Wave); i++ {
		if s.Wave[i] <= s.Wave[i-1] {
			return fmt.Errorf("%w: index %d", errNotAscending, i)
		}
	}

	return nil
}

// Len returns the number of samples.
func (s *Spectrum) Len() int { return len(s.Wave) }

// Window returns the sub-spectrum with wavelengths in [lo, hi]. The
// returned slices alias the original arrays.
func (s *Spectrum) Window(lo, hi float64) *Spectrum {
	start := sort.SearchFloat64s(s.Wave, lo)
	end := sort.Search(len(s.Wave), func(i int) bool { return s.Wave[i] > hi })

	return &Spectrum{
		Wave: s.Wave[start:end],
		Flux: s.Flux[start:end],
		Err:  s.Err[start:end],
	}
}

// Resample linearly interpolates the spectrum onto grid. Points outside
// the original coverage get zero flux and infinite error so downstream
// weighting ignores them.
func (s *Spectrum) Resample(grid []float64) *Spectrum {
	out := &Spectrum{
		Wave: append([]float64(nil), grid...),
		Flux: make([]float64, len(grid)),
		Err:  make([]float64, len(grid)),
	}

	for i, w := range grid {
		if w < s.Wave[0] || w > s.Wave[len(s.Wave)-1] {
			out.Err[i] = math.Inf(1)
			continue
		}

		j := sort.SearchFloat64s(s.Wave, w)
		if j < len(s.Wave) && s.Wave[j] == w {
			out.Flux[i] = s.Flux[j]
			out.Err[i] = s.Err[j]
			continue
		}

		frac := (w - s.Wave[j-1]) / (s.Wave[j] - s.Wave[j-1])
		out.Flux[i] = s.Flux[j-1]*(1-frac) + s.Flux[j]*frac
		out.Err[i] = s.Err[j-1]*(1-frac) + s.Err[j]*frac
	}

	return out
}

// MedianNoise returns the median flux and a robust noise estimate
// (1.4826 times the median absolute deviation).
func (s *Spectrum) MedianNoise() (median, noise float64) {
	if len(s.Flux) == 0 {
		return 0, 0
	}

	median = medianOf(s.Flux)

	dev := make([]float64, len(s.Flux))
	for i, v := range s.Flux {
		dev[i] = math.Abs(v - median)
	}

	return median, 1.4826 * medianOf(dev)
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return (sorted[n/2-1] + sorted[n/2]) / 2
}
