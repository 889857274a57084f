// Package spectrum holds the 1-D spectrum type shared by the
// spectroscopy packages, with loaders for FITS image spectra (flux plus
// optional weight-map extension) and plain-text template files, linear
// resampling, windowing, and robust noise statistics.
package spectrum
