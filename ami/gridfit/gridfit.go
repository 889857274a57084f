package gridfit

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-astro/ami/binarymodel"
	"github.com/cwbudde/algo-astro/ami/oifits"
)

const (
	defaultSearchRadius   = 300.0
	defaultStep           = 10.0
	defaultFluxRatioMin   = 1e-4
	defaultFluxRatioMax   = 0.99
	defaultFluxRatioSteps = 24
	defaultSmearOrder     = 3
)

// Config holds grid-search parameters.
type Config struct {
	SearchRadius   float64 // half-width of the square search box [mas]
	Step           float64 // grid step [mas]
	FluxRatioMin   float64 // lower bound of the flux ratio scan
	FluxRatioMax   float64 // upper bound of the flux ratio scan
	FluxRatioSteps int     // samples per flux ratio scan pass
	SmearOrder     int     // bandwidth smearing sub-channels (<= 1 disables)
}

// Chi2Map is the goodness-of-fit grid over candidate companion
// positions, minimized over the flux ratio at each position.
type Chi2Map struct {
	X      []float64   // east offsets [mas]
	Y      []float64   // north offsets [mas]
	Values [][]float64 // Values[iy][ix]
}

// Result holds the best-fit binary parameters from the grid search.
type Result struct {
	DX, DY, F    float64 // best-fit offset [mas] and flux ratio
	EDX, EDY, EF float64 // curvature-based 1-sigma uncertainties
	Chi2         float64
	ReducedChi2  float64
	NDOF         int
	Map          Chi2Map
}

// Calculator performs binary-companion chi-squared grid searches on one
// observation.
type Calculator struct {
	obs *oifits.Observation
	cfg Config
}

// NewCalculator creates a grid-search calculator.
func NewCalculator(obs *oifits.Observation, cfg Config) *Calculator {
	return &Calculator{obs: obs, cfg: normalizeConfig(cfg)}
}

// Search is a one-shot grid search.
func Search(obs *oifits.Observation, cfg Config) (Result, error) {
	return NewCalculator(obs, cfg).Search()
}

// Search scans companion positions over the search box, minimizing the
// flux ratio at each grid node, and refines uncertainties at the
// global minimum from the local chi-squared curvature.
func (c *Calculator) Search() (Result, error) {
	if c.obs == nil || c.obs.NPoints() == 0 {
		return Result{}, ErrNoPoints
	}

	n := int(math.Floor(2*c.cfg.SearchRadius/c.cfg.Step)) + 1

	m := Chi2Map{
		X:      make([]float64, n),
		Y:      make([]float64, n),
		Values: make([][]float64, n),
	}
	for i := range n {
		m.X[i] = -c.cfg.SearchRadius + float64(i)*c.cfg.Step
		m.Y[i] = m.X[i]
	}

	best := Result{Chi2: math.Inf(1)}

	for iy := range n {
		m.Values[iy] = make([]float64, n)
		for ix := range n {
			dx, dy := m.X[ix], m.Y[iy]
			if dx == 0 && dy == 0 {
				// Zero separation is degenerate with the single-star
				// model; score it without a flux ratio scan.
				chi2 := c.chi2At(dx, dy, 0)
				m.Values[iy][ix] = chi2

				if chi2 < best.Chi2 {
					best.DX, best.DY, best.F = dx, dy, 0
					best.Chi2 = chi2
				}
				continue
			}

			f, chi2 := c.bestFlux(dx, dy)
			m.Values[iy][ix] = chi2

			if chi2 < best.Chi2 {
				best.DX, best.DY, best.F = dx, dy, f
				best.Chi2 = chi2
			}
		}
	}

	best.Map = m
	best.NDOF = c.obs.NPoints() - 3
	if best.NDOF > 0 {
		best.ReducedChi2 = best.Chi2 / float64(best.NDOF)
	}

	best.EDX = c.curvatureErr(best, 0, c.cfg.Step/4)
	best.EDY = c.curvatureErr(best, 1, c.cfg.Step/4)
	best.EF = c.curvatureErr(best, 2, math.Max(best.F*0.05, 1e-5))

	return best, nil
}

// Chi2 returns the chi-squared of a binary model against the
// observation, with bandwidth smearing of the given order. Closure
// phase residuals are wrapped into (-180, 180] before weighting.
func Chi2(obs *oifits.Observation, b binarymodel.Binary, smearOrder int) float64 {
	res := make([]float64, 0, obs.NPoints())

	for _, p := range obs.Vis2 {
		if p.Err <= 0 {
			continue
		}
		model := b.V2Smeared(p.U, p.V, p.Wave, p.Band, smearOrder)
		res = append(res, (model-p.Value)/p.Err)
	}

	for _, p := range obs.T3 {
		if p.Err <= 0 {
			continue
		}
		model := b.ClosurePhaseSmeared(p.U1, p.V1, p.U2, p.V2, p.Wave, p.Band, smearOrder)
		res = append(res, binarymodel.WrapPhaseDeg(model-p.Phase)/p.Err)
	}

	vecmath.MulBlockInPlace(res, res)

	sum := 0.0
	for _, r := range res {
		sum += r
	}

	return sum
}

func (c *Calculator) chi2At(dx, dy, f float64) float64 {
	return Chi2(c.obs, binarymodel.Binary{DX: dx, DY: dy, F: f}, c.cfg.SmearOrder)
}

// bestFlux minimizes chi2 over the flux ratio at a fixed position with
// a coarse log-spaced scan followed by a zoomed second pass.
func (c *Calculator) bestFlux(dx, dy float64) (f, chi2 float64) {
	lo := math.Log(c.cfg.FluxRatioMin)
	hi := math.Log(c.cfg.FluxRatioMax)
	steps := c.cfg.FluxRatioSteps

	bestLog, bestChi2 := c.scanFlux(dx, dy, lo, hi, steps)

	// Zoom into one coarse interval on each side of the minimum.
	width := (hi - lo) / float64(steps-1)
	zoomLo := math.Max(lo, bestLog-width)
	zoomHi := math.Min(hi, bestLog+width)
	bestLog, bestChi2 = c.scanFlux(dx, dy, zoomLo, zoomHi, steps)

	return math.Exp(bestLog), bestChi2
}

func (c *Calculator) scanFlux(dx, dy, logLo, logHi float64, steps int) (bestLog, bestChi2 float64) {
	bestChi2 = math.Inf(1)
	bestLog = logLo

	for i := range steps {
		lf := logLo + (logHi-logLo)*float64(i)/float64(steps-1)
		chi2 := c.chi2At(dx, dy, math.Exp(lf))
		if chi2 < bestChi2 {
			bestChi2 = chi2
			bestLog = lf
		}
	}

	return bestLog, bestChi2
}

// curvatureErr estimates the 1-sigma uncertainty of one parameter from
// the second difference of chi2 at the minimum (delta chi2 = 1).
func (c *Calculator) curvatureErr(r Result, param int, h float64) float64 {
	if h <= 0 {
		return 0
	}

	eval := func(offset float64) float64 {
		dx, dy, f := r.DX, r.DY, r.F
		switch param {
		case 0:
			dx += offset
		case 1:
			dy += offset
		default:
			f += offset
			if f <= 0 {
				f = 1e-12
			}
		}
		return c.chi2At(dx, dy, f)
	}

	curv := (eval(h) - 2*r.Chi2 + eval(-h)) / (h * h)
	if curv <= 0 {
		return 0
	}

	return math.Sqrt(2 / curv)
}

func normalizeConfig(cfg Config) Config {
	if cfg.SearchRadius <= 0 {
		cfg.SearchRadius = defaultSearchRadius
	}

	if cfg.Step <= 0 {
		cfg.Step = defaultStep
	}

	if cfg.FluxRatioMin <= 0 {
		cfg.FluxRatioMin = defaultFluxRatioMin
	}

	if cfg.FluxRatioMax <= cfg.FluxRatioMin {
		cfg.FluxRatioMax = defaultFluxRatioMax
	}

	if cfg.FluxRatioSteps < 3 {
		cfg.FluxRatioSteps = defaultFluxRatioSteps
	}

	if cfg.SmearOrder <= 0 {
		cfg.SmearOrder = defaultSmearOrder
	}

	return cfg
}
