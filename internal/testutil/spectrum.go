package testutil

import (
	"math"
	"math/rand"
)

// GaussianLine describes one synthetic emission line.
type GaussianLine struct {
	Center    float64 // [angstrom]
	Amplitude float64 // peak flux above continuum
	Sigma     float64 // [angstrom]
}

// LinearGrid returns n evenly spaced values spanning [lo, hi].
func LinearGrid(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// SyntheticSpectrum evaluates a linear continuum plus Gaussian emission
// lines on the wavelength grid, adding Gaussian noise of amplitude
// noise with a fixed seed. It returns the flux and the per-pixel error
// array (the noise amplitude, floored for noiseless inputs).
func SyntheticSpectrum(wave []float64, contLevel, contSlope float64, lines []GaussianLine, noise float64, seed int64) (flux, errs []float64) {
	rng := rand.New(rand.NewSource(seed))

	errVal := noise
	if errVal <= 0 {
		errVal = 1e-6
	}

	flux = make([]float64, len(wave))
	errs = make([]float64, len(wave))

	mid := 0.0
	if len(wave) > 0 {
		mid = (wave[0] + wave[len(wave)-1]) / 2
	}

	for i, w := range wave {
		v := contLevel + contSlope*(w-mid)
		for _, l := range lines {
			d := (w - l.Center) / l.Sigma
			v += l.Amplitude * math.Exp(-0.5*d*d)
		}
		flux[i] = v + rng.NormFloat64()*noise
		errs[i] = errVal
	}

	return flux, errs
}
