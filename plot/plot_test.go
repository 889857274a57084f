package plot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cwbudde/algo-astro/ami/companion"
	"github.com/cwbudde/algo-astro/ami/gridfit"
	"github.com/cwbudde/algo-astro/ami/mcmc"
	"github.com/cwbudde/algo-astro/internal/testutil"
	"github.com/cwbudde/algo-astro/spectro/continuum"
	"github.com/cwbudde/algo-astro/spectro/spectrum"
)

func requireFile(t *testing.T, path string) {
	t.Helper()

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("output empty: %s", path)
	}
}

func TestSaveChi2Map(t *testing.T) {
	m := gridfit.Chi2Map{
		X:      []float64{-10, 0, 10},
		Y:      []float64{-10, 0, 10},
		Values: [][]float64{{9, 4, 9}, {4, 1, 4}, {9, 4, 9}},
	}

	path := filepath.Join(t.TempDir(), "chi2.png")
	if err := SaveChi2Map(m, gridfit.Result{DX: 0, DY: 0}, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFile(t, path)

	if err := SaveChi2Map(gridfit.Chi2Map{}, gridfit.Result{}, path); err == nil {
		t.Fatal("expected error for empty map")
	}
}

func TestSaveContrastCurve(t *testing.T) {
	points := []gridfit.ContrastPoint{
		{Sep: 50, FluxRatio: 0.1, DMag: 2.5},
		{Sep: 100, FluxRatio: 0.01, DMag: 5},
		{Sep: 200, FluxRatio: 0.005, DMag: 5.75},
	}

	path := filepath.Join(t.TempDir(), "limits.png")
	if err := SaveContrastCurve(points, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFile(t, path)

	if err := SaveContrastCurve(nil, path); err == nil {
		t.Fatal("expected error for empty curve")
	}
}

func TestSaveSpectrum(t *testing.T) {
	wave := testutil.LinearGrid(6000, 6500, 200)
	flux, errs := testutil.SyntheticSpectrum(wave, 10, 0,
		[]testutil.GaussianLine{{Center: 6300, Amplitude: 5, Sigma: 4}}, 0.05, 2)

	s, err := spectrum.New(wave, flux, errs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cont, err := continuum.Fit(s, continuum.Config{Degree: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "spectrum.png")
	if err := SaveSpectrum(s, cont, nil, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFile(t, path)
}

func TestSavePosterior(t *testing.T) {
	samples := []mcmc.Sample{
		{DX: 1, DY: 2}, {DX: 1.1, DY: 2.2}, {DX: 0.9, DY: 1.8},
	}

	path := filepath.Join(t.TempDir(), "posterior.png")
	if err := SavePosterior(samples, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFile(t, path)
}

func TestSaveCorrelation(t *testing.T) {
	zs := []float64{0, 0.01, 0.02, 0.03, 0.04}
	scores := []float64{0.1, 0.2, 0.5, 0.9, 0.3}

	path := filepath.Join(t.TempDir(), "xcorr.png")
	if err := SaveCorrelation(zs, scores, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFile(t, path)

	if err := SaveCorrelation(zs, scores[:3], path); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestCompanionPolarSVG(t *testing.T) {
	pol := companion.Polar{
		Sep: 280, PA: 292.5, DMag: 4.05,
		SepErr: 1.2, PAErr: 0.28,
	}

	svg := CompanionPolarSVG(pol)
	for _, want := range []string{"<svg", "</svg>", ">N<", ">E<", "Δm=4.05", "mas"} {
		if !strings.Contains(svg, want) {
			t.Fatalf("svg missing %q", want)
		}
	}

	path := filepath.Join(t.TempDir(), "companion.svg")
	if err := SaveCompanionChart(pol, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	requireFile(t, path)
}
