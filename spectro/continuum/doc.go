// Package continuum fits a low-order polynomial baseline to a 1-D
// spectrum with iterative sigma clipping, so that emission and
// absorption features do not bias the model. The fitted continuum can
// then be subtracted from or divided out of the spectrum.
package continuum
