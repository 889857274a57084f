package plot

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/cwbudde/algo-astro/ami/companion"
)

// SVG chart constants.
const (
	chartWidth       = 600
	chartHeight      = 600
	chartMargin      = 60
	chartCenterX     = chartWidth / 2
	chartCenterY     = chartHeight / 2
	chartRadius      = (chartWidth / 2) - chartMargin
	axisLabelSize    = 16 // N, E
	ringLabelSize    = 10 // separation ring labels
	axisColor        = "black"
	ringColor        = "dimgray"
	ringStrokeWidth  = "0.5"
	axisStrokeWidth  = "1"
	companionRadius  = 5.0
	labelOffsetUnits = 10.0
)

// skyToCartesian maps a separation and position angle onto chart
// coordinates: north up, east left, position angle counted from north
// through east.
func skyToCartesian(sep, pa, maxSep float64) (x, y float64) {
	r := chartRadius * sep / maxSep
	paRad := pa * math.Pi / 180
	x = chartCenterX - r*math.Sin(paRad)
	y = chartCenterY - r*math.Cos(paRad)
	return
}

// ringStep picks a 1-2-5 rounded ring spacing for a chart radius.
func ringStep(maxSep float64) float64 {
	raw := maxSep / 3
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch {
	case raw/mag >= 5:
		return 5 * mag
	case raw/mag >= 2:
		return 2 * mag
	default:
		return mag
	}
}

// CompanionPolarSVG renders a polar sky chart of the companion
// position: north up, east left, separation rings in mas, and the
// companion marked with its uncertainties.
func CompanionPolarSVG(pol companion.Polar) string {
	maxSep := 1.3 * (pol.Sep + pol.SepErr)
	if maxSep <= 0 {
		maxSep = 1
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg" style="background-color:white;">`, chartWidth, chartHeight))

	// Separation rings with labels along the north axis.
	step := ringStep(maxSep)
	for sep := step; sep <= maxSep; sep += step {
		r := chartRadius * sep / maxSep
		b.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="%f" stroke="%s" stroke-width="%s" fill="none" stroke-dasharray="4,4"/>`,
			chartCenterX, chartCenterY, r, ringColor, ringStrokeWidth))
		b.WriteString(fmt.Sprintf(`<text x="%d" y="%f" fill="%s" font-size="%d" text-anchor="start">%g mas</text>`,
			chartCenterX+4, float64(chartCenterY)-r-3, ringColor, ringLabelSize, sep))
	}

	// Primary star at the origin.
	b.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="4" fill="%s"/>`, chartCenterX, chartCenterY, axisColor))

	// North and east axes.
	b.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%s"/>`,
		chartCenterX, chartCenterY, chartCenterX, chartCenterY-chartRadius, axisColor, axisStrokeWidth))
	b.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="%s"/>`,
		chartCenterX, chartCenterY, chartCenterX-chartRadius, chartCenterY, axisColor, axisStrokeWidth))
	b.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="%s" font-size="%d" text-anchor="middle">N</text>`,
		chartCenterX, chartCenterY-chartRadius-8, axisColor, axisLabelSize))
	b.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="%s" font-size="%d" text-anchor="end" dominant-baseline="middle">E</text>`,
		chartCenterX-chartRadius-8, chartCenterY, axisColor, axisLabelSize))

	// Radial separation error bar.
	x1, y1 := skyToCartesian(pol.Sep-pol.SepErr, pol.PA, maxSep)
	x2, y2 := skyToCartesian(pol.Sep+pol.SepErr, pol.PA, maxSep)
	b.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="darkred" stroke-width="2"/>`, x1, y1, x2, y2))

	// Tangential position angle error bar.
	x1, y1 = skyToCartesian(pol.Sep, pol.PA-pol.PAErr, maxSep)
	x2, y2 = skyToCartesian(pol.Sep, pol.PA+pol.PAErr, maxSep)
	b.WriteString(fmt.Sprintf(`<line x1="%f" y1="%f" x2="%f" y2="%f" stroke="darkred" stroke-width="2"/>`, x1, y1, x2, y2))

	// Companion marker and label.
	cx, cy := skyToCartesian(pol.Sep, pol.PA, maxSep)
	b.WriteString(fmt.Sprintf(`<circle cx="%f" cy="%f" r="%f" fill="darkblue" stroke="black" stroke-width="0.5"/>`,
		cx, cy, companionRadius))
	b.WriteString(fmt.Sprintf(`<text x="%f" y="%f" fill="darkblue" font-size="12" text-anchor="middle">Δm=%.2f</text>`,
		cx, cy-labelOffsetUnits, pol.DMag))

	b.WriteString(`</svg>`)
	return b.String()
}

// SaveCompanionChart writes the polar companion chart to an SVG file.
func SaveCompanionChart(pol companion.Polar, path string) error {
	if err := os.WriteFile(path, []byte(CompanionPolarSVG(pol)), 0o644); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}
	return nil
}
