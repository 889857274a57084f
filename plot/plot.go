package plot

import (
	"errors"
	"fmt"
	"math"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cwbudde/algo-astro/ami/gridfit"
	"github.com/cwbudde/algo-astro/ami/mcmc"
	"github.com/cwbudde/algo-astro/spectro/continuum"
	"github.com/cwbudde/algo-astro/spectro/lines"
	"github.com/cwbudde/algo-astro/spectro/spectrum"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("plot: no data")

type chi2Grid struct {
	m gridfit.Chi2Map
}

func (g chi2Grid) Dims() (c, r int)   { return len(g.m.X), len(g.m.Y) }
func (g chi2Grid) Z(c, r int) float64 { return g.m.Values[r][c] }
func (g chi2Grid) X(c int) float64    { return g.m.X[c] }
func (g chi2Grid) Y(r int) float64    { return g.m.Y[r] }

// SaveChi2Map renders the grid-search chi-squared map as a heat map
// with the best-fit position marked.
func SaveChi2Map(m gridfit.Chi2Map, best gridfit.Result, path string) error {
	if len(m.X) == 0 || len(m.Y) == 0 {
		return ErrNoData
	}

	p := gplot.New()
	p.Title.Text = "Companion grid search"
	p.X.Label.Text = "ΔRA [mas]"
	p.Y.Label.Text = "ΔDec [mas]"

	h := plotter.NewHeatMap(chi2Grid{m}, palette.Heat(16, 1))
	p.Add(h)

	mark, err := plotter.NewScatter(plotter.XYs{{X: best.DX, Y: best.DY}})
	if err != nil {
		return fmt.Errorf("plot: chi2 map: %w", err)
	}
	mark.GlyphStyle.Shape = draw.CircleGlyph{}
	mark.GlyphStyle.Radius = vg.Points(3)
	p.Add(mark)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}

	return nil
}

// SaveContrastCurve renders detection limits as achievable magnitude
// difference versus separation. The magnitude axis grows downward so
// deeper limits sit lower, matching the usual contrast-curve
// convention.
func SaveContrastCurve(points []gridfit.ContrastPoint, path string) error {
	if len(points) == 0 {
		return ErrNoData
	}

	pts := make(plotter.XYs, len(points))
	for i, cp := range points {
		pts[i].X = cp.Sep
		pts[i].Y = -cp.DMag
	}

	p := gplot.New()
	p.Title.Text = "Detection limits"
	p.X.Label.Text = "separation [mas]"
	p.Y.Label.Text = "-Δmag"

	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: contrast curve: %w", err)
	}
	l.LineStyle.Color = plotutil.Color(0)
	p.Add(l)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}

	return nil
}

// SaveSpectrum renders the observed flux, the fitted continuum, and the
// full line model.
func SaveSpectrum(s *spectrum.Spectrum, cont *continuum.Result, ls []lines.Line, path string) error {
	if s == nil || s.Len() == 0 {
		return ErrNoData
	}

	data := make(plotter.XYs, s.Len())
	for i := range data {
		data[i].X = s.Wave[i]
		data[i].Y = s.Flux[i]
	}

	p := gplot.New()
	p.Title.Text = "Spectrum"
	p.X.Label.Text = "wavelength"
	p.Y.Label.Text = "flux"

	dl, err := plotter.NewLine(data)
	if err != nil {
		return fmt.Errorf("plot: spectrum: %w", err)
	}
	dl.LineStyle.Color = plotutil.Color(0)
	p.Add(dl)
	p.Legend.Add("data", dl)

	if cont != nil {
		model := make(plotter.XYs, s.Len())
		for i := range model {
			model[i].X = s.Wave[i]
			model[i].Y = cont.Model[i]
		}

		cl, err := plotter.NewLine(model)
		if err != nil {
			return fmt.Errorf("plot: continuum: %w", err)
		}
		cl.LineStyle.Color = plotutil.Color(1)
		cl.LineStyle.Dashes = plotutil.Dashes(1)
		p.Add(cl)
		p.Legend.Add("continuum", cl)

		if len(ls) > 0 {
			full := make(plotter.XYs, s.Len())
			for i := range full {
				v := cont.Model[i]
				for _, l := range ls {
					d := (s.Wave[i] - l.Center) / l.Sigma
					v += l.Amplitude * math.Exp(-0.5*d*d)
				}
				full[i].X = s.Wave[i]
				full[i].Y = v
			}

			fl, err := plotter.NewLine(full)
			if err != nil {
				return fmt.Errorf("plot: line model: %w", err)
			}
			fl.LineStyle.Color = plotutil.Color(2)
			p.Add(fl)
			p.Legend.Add("model", fl)
		}
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}

	return nil
}

// SavePosterior renders the MCMC position samples as a scatter cloud.
func SavePosterior(samples []mcmc.Sample, path string) error {
	if len(samples) == 0 {
		return ErrNoData
	}

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.DX
		pts[i].Y = s.DY
	}

	p := gplot.New()
	p.Title.Text = "Position posterior"
	p.X.Label.Text = "ΔRA [mas]"
	p.Y.Label.Text = "ΔDec [mas]"

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("plot: posterior: %w", err)
	}
	sc.GlyphStyle.Radius = vg.Points(1)
	sc.GlyphStyle.Color = plotutil.Color(0)
	p.Add(sc)

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}

	return nil
}

// SaveCorrelation renders a template cross-correlation against trial
// redshift.
func SaveCorrelation(zs, scores []float64, path string) error {
	if len(zs) == 0 || len(zs) != len(scores) {
		return ErrNoData
	}

	pts := make(plotter.XYs, len(zs))
	for i := range pts {
		pts[i].X = zs[i]
		pts[i].Y = scores[i]
	}

	p := gplot.New()
	p.Title.Text = "Template cross-correlation"
	p.X.Label.Text = "redshift z"
	p.Y.Label.Text = "correlation"

	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("plot: correlation: %w", err)
	}
	l.LineStyle.Color = plotutil.Color(0)
	p.Add(l)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("plot: save %s: %w", path, err)
	}

	return nil
}
