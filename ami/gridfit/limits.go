package gridfit

import (
	"math"

	"github.com/cwbudde/algo-astro/ami/binarymodel"
	"github.com/cwbudde/algo-astro/ami/oifits"
)

const (
	defaultLimitNTheta = 12
	defaultLimitNSigma = 5.0
	limitFluxFloor     = 1e-6
	limitFluxCeil      = 0.5
)

// LimitConfig holds detection-limit parameters.
type LimitConfig struct {
	SepMin, SepMax float64 // separation range [mas]
	SepStep        float64 // annulus spacing [mas]
	NTheta         int     // azimuthal samples per annulus
	NSigma         float64 // detection threshold in sigma
	SmearOrder     int
}

// ContrastPoint is one point of a detection-limit contrast curve: the
// faintest companion excluded at the configured confidence, per
// separation.
type ContrastPoint struct {
	Sep       float64 // [mas]
	FluxRatio float64
	DMag      float64 // -2.5 log10(FluxRatio) [mag]
}

// DetectionLimits computes a conservative contrast curve: for each
// separation annulus it finds, at every azimuth, the flux ratio whose
// injected-companion chi2 exceeds the no-companion chi2 by NSigma^2,
// and keeps the worst azimuth.
func DetectionLimits(obs *oifits.Observation, cfg LimitConfig) ([]ContrastPoint, error) {
	if obs == nil || obs.NPoints() == 0 {
		return nil, ErrNoPoints
	}

	cfg = normalizeLimitConfig(cfg)

	chi2Base := Chi2(obs, binarymodel.Binary{}, cfg.SmearOrder)
	threshold := cfg.NSigma * cfg.NSigma

	var curve []ContrastPoint

	for sep := cfg.SepMin; sep <= cfg.SepMax+1e-9; sep += cfg.SepStep {
		worst := 0.0
		for i := range cfg.NTheta {
			theta := 2 * math.Pi * float64(i) / float64(cfg.NTheta)
			dx := sep * math.Sin(theta)
			dy := sep * math.Cos(theta)

			f := limitAt(obs, dx, dy, chi2Base, threshold, cfg.SmearOrder)
			if f > worst {
				worst = f
			}
		}

		curve = append(curve, ContrastPoint{
			Sep:       sep,
			FluxRatio: worst,
			DMag:      -2.5 * math.Log10(worst),
		})
	}

	return curve, nil
}

// limitAt bisects in log flux ratio for the delta-chi2 crossing at one
// position. Returns the ceiling when even the brightest trial companion
// stays below threshold.
func limitAt(obs *oifits.Observation, dx, dy, chi2Base, threshold float64, order int) float64 {
	excess := func(f float64) float64 {
		b := binarymodel.Binary{DX: dx, DY: dy, F: f}
		return Chi2(obs, b, order) - chi2Base - threshold
	}

	lo := math.Log(limitFluxFloor)
	hi := math.Log(limitFluxCeil)

	if excess(limitFluxCeil) < 0 {
		return limitFluxCeil
	}

	if excess(limitFluxFloor) > 0 {
		return limitFluxFloor
	}

	for range 48 {
		mid := (lo + hi) / 2
		if excess(math.Exp(mid)) > 0 {
			hi = mid
		} else {
			lo = mid
		}
	}

	return math.Exp((lo + hi) / 2)
}

func normalizeLimitConfig(cfg LimitConfig) LimitConfig {
	if cfg.SepMin <= 0 {
		cfg.SepMin = 50
	}

	if cfg.SepMax <= 0 {
		cfg.SepMax = 400
	}
	if cfg.SepMax < cfg.SepMin {
		cfg.SepMax = cfg.SepMin
	}

	if cfg.SepStep <= 0 {
		cfg.SepStep = 50
	}

	if cfg.NTheta < 1 {
		cfg.NTheta = defaultLimitNTheta
	}

	if cfg.NSigma <= 0 {
		cfg.NSigma = defaultLimitNSigma
	}

	if cfg.SmearOrder <= 0 {
		cfg.SmearOrder = defaultSmearOrder
	}

	return cfg
}
