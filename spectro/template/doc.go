// Package template estimates galaxy redshifts by cross-correlating an
// observed spectrum against a library of rest-frame templates. Both
// sides are continuum-subtracted and resampled onto a common
// logarithmic wavelength grid, where a redshift is a pure translation
// and the correlation peak lag maps directly to ln(1+z).
package template
