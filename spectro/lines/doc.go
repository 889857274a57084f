// Package lines detects emission lines in a continuum-subtracted 1-D
// spectrum and fits each with a Gaussian profile, reporting center,
// width, integrated flux, and equivalent width.
package lines
