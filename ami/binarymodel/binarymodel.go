package binarymodel

import (
	"math"
	"math/cmplx"
)

// mas2rad converts milliarcseconds to radians.
const mas2rad = math.Pi / 180 / 3600 / 1000

// Binary is a two-point-source model: an unresolved primary at the
// origin and an unresolved companion at offset (DX, DY) with flux
// ratio F relative to the primary.
type Binary struct {
	DX float64 // east offset [mas]
	DY float64 // north offset [mas]
	F  float64 // flux ratio (companion / primary)
}

// Vis returns the normalized complex visibility of the binary at
// spatial frequency (u, v) in rad^-1 (baseline / wavelength).
func (b Binary) Vis(u, v float64) complex128 {
	phase := -2 * math.Pi * (u*b.DX + v*b.DY) * mas2rad
	vis := 1 + complex(b.F, 0)*cmplx.Exp(complex(0, phase))
	return vis / complex(1+b.F, 0)
}

// V2 returns the squared visibility at spatial frequency (u, v) in rad^-1.
func (b Binary) V2(u, v float64) float64 {
	vis := b.Vis(u, v)
	return real(vis)*real(vis) + imag(vis)*imag(vis)
}

// ClosurePhase returns the closure phase in degrees over the baseline
// triangle with the first two legs at spatial frequencies (u1, v1) and
// (u2, v2) in rad^-1. The third leg closes the triangle at
// (-(u1+u2), -(v1+v2)).
func (b Binary) ClosurePhase(u1, v1, u2, v2 float64) float64 {
	bispec := b.Vis(u1, v1) * b.Vis(u2, v2) * b.Vis(-(u1 + u2), -(v1 + v2))
	return cmplx.Phase(bispec) * 180 / math.Pi
}

// subChannels returns the wavelengths of order evenly spaced
// sub-channels spanning [lambda - dlambda/2, lambda + dlambda/2].
// For order <= 1 the single nominal wavelength is returned.
func subChannels(lambda, dlambda float64, order int) []float64 {
	if order <= 1 || dlambda <= 0 {
		return []float64{lambda}
	}

	out := make([]float64, order)
	for j := range out {
		frac := (float64(j)+0.5)/float64(order) - 0.5
		out[j] = lambda + frac*dlambda
	}

	return out
}

// V2Smeared returns the squared visibility for a baseline (uM, vM) in
// meters observed through a spectral channel of effective wavelength
// lambda and width dlambda (both meters), averaging the model over
// order sub-channels to account for bandwidth smearing. The incoherent
// average is taken over squared visibilities.
func (b Binary) V2Smeared(uM, vM, lambda, dlambda float64, order int) float64 {
	sub := subChannels(lambda, dlambda, order)

	sum := 0.0
	for _, l := range sub {
		sum += b.V2(uM/l, vM/l)
	}

	return sum / float64(len(sub))
}

// ClosurePhaseSmeared returns the bandwidth-smeared closure phase in
// degrees for a triangle with legs (u1M, v1M) and (u2M, v2M) in meters.
// The bispectrum is averaged coherently over order sub-channels before
// taking the phase.
func (b Binary) ClosurePhaseSmeared(u1M, v1M, u2M, v2M, lambda, dlambda float64, order int) float64 {
	sub := subChannels(lambda, dlambda, order)

	var bispec complex128
	for _, l := range sub {
		u1, v1 := u1M/l, v1M/l
		u2, v2 := u2M/l, v2M/l
		bispec += b.Vis(u1, v1) * b.Vis(u2, v2) * b.Vis(-(u1 + u2), -(v1 + v2))
	}

	return cmplx.Phase(bispec) * 180 / math.Pi
}

// WrapPhaseDeg wraps a phase difference in degrees into (-180, 180].
func WrapPhaseDeg(p float64) float64 {
	p = math.Mod(p, 360)
	if p > 180 {
		p -= 360
	} else if p <= -180 {
		p += 360
	}
	return p
}
