package companion

import (
	"errors"
	"fmt"
	"math"
)

var (
	errZeroSeparation = errors.New("companion: offset has zero separation")
	errFluxRatio      = errors.New("companion: flux ratio must be > 0")
)

// Fit holds a Cartesian binary-fit solution: the companion offset in
// milliarcseconds, the companion-to-primary flux ratio, and their
// 1-sigma uncertainties.
type Fit struct {
	X  float64 // east offset [mas]
	Y  float64 // north offset [mas]
	F  float64 // flux ratio (secondary / primary)
	EX float64 // 1-sigma uncertainty on X [mas]
	EY float64 // 1-sigma uncertainty on Y [mas]
	EF float64 // 1-sigma uncertainty on F
}

// Polar holds the astronomer-facing representation of a binary fit:
// separation, position angle, and magnitude difference, with
// uncertainties propagated at the requested confidence multiplier.
type Polar struct {
	Sep    float64 // separation [mas]
	PA     float64 // position angle, 360 + atan2(X, Y) [deg]
	DMag   float64 // magnitude difference, -2.5 log10(F) [mag]
	SepErr float64 // propagated separation uncertainty [mas]
	PAErr  float64 // propagated position angle uncertainty [deg]
	DMagLo float64 // magnitude difference at F + sigma*EF (bright bound) [mag]
	DMagHi float64 // magnitude difference at F - sigma*EF (faint bound) [mag]
}

// Convert transforms a Cartesian fit into polar/magnitude quantities at
// confidence multiplier sigma (1 for 1-sigma intervals).
//
// Separation and position angle uncertainties use first-order error
// propagation. The magnitude bounds are evaluated directly at
// F +/- sigma*EF because the logarithm makes the interval asymmetric;
// when F - sigma*EF is not positive the faint bound is +Inf.
//
// Convert returns an error for a zero-length offset (the propagation
// divides by the separation) and for a non-positive flux ratio.
func Convert(fit Fit, sigma float64) (Polar, error) {
	sep := math.Hypot(fit.X, fit.Y)
	if sep == 0 {
		return Polar{}, errZeroSeparation
	}

	if fit.F <= 0 {
		return Polar{}, fmt.Errorf("%w: %g", errFluxRatio, fit.F)
	}

	if sigma <= 0 {
		sigma = 1
	}

	pa := 360 + math.Atan2(fit.X, fit.Y)*180/math.Pi

	// d(sep)/dx = x/sep, d(sep)/dy = y/sep.
	sepErr := sigma * math.Hypot(fit.X/sep*fit.EX, fit.Y/sep*fit.EY)

	// d(atan2(x,y))/dx = y/sep^2, d(atan2(x,y))/dy = -x/sep^2.
	sep2 := sep * sep
	paErr := sigma * math.Hypot(fit.Y/sep2*fit.EX, -fit.X/sep2*fit.EY) * 180 / math.Pi

	dmag := fluxRatioToDMag(fit.F)

	lo := fluxRatioToDMag(fit.F + sigma*fit.EF)

	hi := math.Inf(1)
	if faint := fit.F - sigma*fit.EF; faint > 0 {
		hi = fluxRatioToDMag(faint)
	}

	return Polar{
		Sep:    sep,
		PA:     pa,
		DMag:   dmag,
		SepErr: sepErr,
		PAErr:  paErr,
		DMagLo: lo,
		DMagHi: hi,
	}, nil
}

// fluxRatioToDMag converts a flux ratio to a magnitude difference.
// Callers guarantee f > 0.
func fluxRatioToDMag(f float64) float64 {
	return -2.5 * math.Log10(f)
}
