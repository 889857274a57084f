// Package plot renders the analysis products as image files: PNG
// charts through gonum.org/v1/plot (chi-squared map, contrast curve,
// spectrum with fitted lines, correlation curve, posterior cloud) and
// a hand-built SVG polar chart of the companion position.
package plot
