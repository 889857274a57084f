package testutil

import (
	"math/rand"

	"github.com/cwbudde/algo-astro/ami/binarymodel"
	"github.com/cwbudde/algo-astro/ami/oifits"
)

// maskHoles is a small non-redundant aperture mask geometry [m],
// loosely modeled on a seven-hole mask.
var maskHoles = [][2]float64{
	{0.00, 0.00},
	{2.64, 0.00},
	{-1.20, 2.30},
	{0.60, -2.70},
	{-2.40, -1.00},
	{1.90, 2.10},
	{-0.50, 3.10},
}

// testChannels are the synthetic spectral channels [m].
var testChannels = []oifits.Channel{
	{Wave: 4.3e-6, Band: 0.2e-6},
	{Wave: 4.8e-6, Band: 0.2e-6},
}

// SyntheticObservation simulates an AMI observation of a binary: all
// mask baselines and the hole-0 triangles, evaluated through the
// bandwidth-smeared binary model with Gaussian noise of the given
// amplitudes added. The noise amplitudes double as the reported error
// bars, with a small floor so chi-squared stays defined for noiseless
// inputs.
func SyntheticObservation(b binarymodel.Binary, seed int64, v2Noise, cpNoise float64) *oifits.Observation {
	rng := rand.New(rand.NewSource(seed))

	v2Err := v2Noise
	if v2Err <= 0 {
		v2Err = 1e-4
	}
	cpErr := cpNoise
	if cpErr <= 0 {
		cpErr = 1e-2
	}

	obs := &oifits.Observation{Channels: testChannels}

	for i := 0; i < len(maskHoles); i++ {
		for j := i + 1; j < len(maskHoles); j++ {
			u := maskHoles[j][0] - maskHoles[i][0]
			v := maskHoles[j][1] - maskHoles[i][1]

			for _, ch := range testChannels {
				value := b.V2Smeared(u, v, ch.Wave, ch.Band, 3) + rng.NormFloat64()*v2Noise
				obs.Vis2 = append(obs.Vis2, oifits.Vis2{
					U: u, V: v,
					Wave: ch.Wave, Band: ch.Band,
					Value: value, Err: v2Err,
				})
			}
		}
	}

	for i := 1; i < len(maskHoles); i++ {
		for j := i + 1; j < len(maskHoles); j++ {
			u1 := maskHoles[i][0] - maskHoles[0][0]
			v1 := maskHoles[i][1] - maskHoles[0][1]
			u2 := maskHoles[j][0] - maskHoles[i][0]
			v2 := maskHoles[j][1] - maskHoles[i][1]

			for _, ch := range testChannels {
				phase := b.ClosurePhaseSmeared(u1, v1, u2, v2, ch.Wave, ch.Band, 3) +
					rng.NormFloat64()*cpNoise
				obs.T3 = append(obs.T3, oifits.T3{
					U1: u1, V1: v1, U2: u2, V2: v2,
					Wave: ch.Wave, Band: ch.Band,
					Phase: phase, Err: cpErr,
				})
			}
		}
	}

	return obs
}
