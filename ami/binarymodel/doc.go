// Package binarymodel provides the analytic interferometric observables
// of a binary point source: complex visibility, squared visibility, and
// closure phase, with optional bandwidth smearing over a finite spectral
// channel.
//
// Spatial frequencies are baseline coordinates divided by wavelength
// (rad^-1). The smeared variants take baselines in meters together with
// the channel's effective wavelength and width and average the model
// over a configurable number of sub-channels.
//
// # Usage
//
//	b := binarymodel.Binary{DX: -120, DY: 80, F: 0.05}
//	v2 := b.V2Smeared(u, v, 4.8e-6, 0.3e-6, 3)
//	cp := b.ClosurePhase(u1, v1, u2, v2)
package binarymodel
