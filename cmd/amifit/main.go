// Command amifit fits a binary-companion model to aperture-masking
// interferometry data.
//
// Usage:
//
//	amifit [flags] -in observation.oifits
//
// It loads squared visibilities and closure phases from an OIFITS
// file, grid-searches the companion position and flux ratio, samples
// the posterior with MCMC, converts the result to separation /
// position angle / magnitude difference, and computes detection
// limits.
//
// Examples:
//
//	amifit -in target.oifits
//	amifit -in target.oifits -radius 200 -step 5 -plots out/
//	amifit -url https://example.org/ami.zip -cache data/ -in data/target.oifits
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/cwbudde/algo-astro/ami/binarymodel"
	"github.com/cwbudde/algo-astro/ami/companion"
	"github.com/cwbudde/algo-astro/ami/gridfit"
	"github.com/cwbudde/algo-astro/ami/mcmc"
	"github.com/cwbudde/algo-astro/ami/oifits"
	"github.com/cwbudde/algo-astro/internal/fetch"
	"github.com/cwbudde/algo-astro/plot"
)

func main() {
	in := flag.String("in", "", "input OIFITS file")
	url := flag.String("url", "", "optional dataset archive URL to fetch first")
	cache := flag.String("cache", "data", "extraction directory for -url")
	radius := flag.Float64("radius", 300, "half-width of the search box [mas]")
	step := flag.Float64("step", 10, "grid step [mas]")
	smear := flag.Int("smear", 3, "bandwidth smearing sub-channels (<= 1 disables)")
	steps := flag.Int("mcmc", 5000, "MCMC steps (0 disables sampling)")
	seed := flag.Int64("seed", 1, "MCMC random seed")
	sigma := flag.Float64("sigma", 1, "confidence multiplier for derived quantities")
	nsigma := flag.Float64("nsigma", 5, "detection limit significance")
	limits := flag.Bool("limits", true, "compute detection limits")
	plots := flag.String("plots", "", "directory for PNG/SVG output (empty disables)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: amifit [flags] -in observation.oifits\n\n")
		fmt.Fprintf(os.Stderr, "Fits a binary-companion model to aperture-masking data.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  amifit -in target.oifits\n")
		fmt.Fprintf(os.Stderr, "  amifit -in target.oifits -radius 200 -step 5 -plots out/\n")
	}
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	if *url != "" {
		if err := fetch.Archive(context.Background(), http.DefaultClient, *url, *cache); err != nil {
			fatalf("fetch dataset: %v", err)
		}
	}

	obs, err := oifits.Load(*in)
	if err != nil {
		fatalf("load observation: %v", err)
	}

	cfg := gridfit.Config{
		SearchRadius: *radius,
		Step:         *step,
		SmearOrder:   *smear,
	}

	best, err := gridfit.Search(obs, cfg)
	if err != nil {
		fatalf("grid search: %v", err)
	}

	fit := companion.Fit{
		X: best.DX, Y: best.DY, F: best.F,
		EX: best.EDX, EY: best.EDY, EF: best.EF,
	}

	var chain *mcmc.Result
	if *steps > 0 {
		res, err := mcmc.Run(obs, binarymodel.Binary{DX: best.DX, DY: best.DY, F: best.F}, mcmc.Config{
			Steps:      *steps,
			Seed:       *seed,
			StepDX:     math.Max(best.EDX, 1e-3),
			StepDY:     math.Max(best.EDY, 1e-3),
			StepF:      math.Max(best.EF, 1e-5),
			SmearOrder: *smear,
		})
		if err != nil {
			fatalf("mcmc: %v", err)
		}
		chain = &res

		// Posterior widths supersede the curvature estimates.
		fit.EX = chain.DX.Std
		fit.EY = chain.DY.Std
		fit.EF = chain.F.Std
	}

	pol, err := companion.Convert(fit, *sigma)
	if err != nil {
		fatalf("convert fit: %v", err)
	}

	var curve []gridfit.ContrastPoint
	if *limits {
		curve, err = gridfit.DetectionLimits(obs, gridfit.LimitConfig{
			NSigma:     *nsigma,
			SmearOrder: *smear,
		})
		if err != nil {
			fatalf("detection limits: %v", err)
		}
	}

	printReport(obs, best, chain, fit, pol, *sigma)

	if *plots != "" {
		if err := savePlots(*plots, best, chain, pol, curve); err != nil {
			fatalf("plots: %v", err)
		}
	}
}

func printReport(obs *oifits.Observation, best gridfit.Result, chain *mcmc.Result, fit companion.Fit, pol companion.Polar, sigma float64) {
	fmt.Printf("data: %d V2 points, %d closure phases, %d channels\n\n",
		len(obs.Vis2), len(obs.T3), len(obs.Channels))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Parameter\tValue\tUncertainty (%.0f sigma)\n", sigma)
	fmt.Fprintf(tw, "---------\t-----\t-----------\n")
	fmt.Fprintf(tw, "dRA [mas]\t%.2f\t%.2f\n", fit.X, sigma*fit.EX)
	fmt.Fprintf(tw, "dDec [mas]\t%.2f\t%.2f\n", fit.Y, sigma*fit.EY)
	fmt.Fprintf(tw, "flux ratio\t%.5f\t%.5f\n", fit.F, sigma*fit.EF)
	fmt.Fprintf(tw, "separation [mas]\t%.2f\t%.2f\n", pol.Sep, pol.SepErr)
	fmt.Fprintf(tw, "PA [deg]\t%.2f\t%.2f\n", pol.PA, pol.PAErr)
	if math.IsInf(pol.DMagHi, 1) {
		fmt.Fprintf(tw, "dmag\t%.3f\t-%.3f/unbounded\n", pol.DMag, pol.DMag-pol.DMagLo)
	} else {
		fmt.Fprintf(tw, "dmag\t%.3f\t-%.3f/+%.3f\n", pol.DMag, pol.DMag-pol.DMagLo, pol.DMagHi-pol.DMag)
	}
	fmt.Fprintf(tw, "chi2\t%.2f\t\n", best.Chi2)
	fmt.Fprintf(tw, "reduced chi2\t%.3f\t(%d dof)\n", best.ReducedChi2, best.NDOF)
	if chain != nil {
		fmt.Fprintf(tw, "MCMC acceptance\t%.2f\t(%d samples)\n", chain.Acceptance, len(chain.Samples))
	}
	tw.Flush()
}

func savePlots(dir string, best gridfit.Result, chain *mcmc.Result, pol companion.Polar, curve []gridfit.ContrastPoint) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := plot.SaveChi2Map(best.Map, best, filepath.Join(dir, "chi2map.png")); err != nil {
		return err
	}
	if err := plot.SaveCompanionChart(pol, filepath.Join(dir, "companion.svg")); err != nil {
		return err
	}
	if chain != nil {
		if err := plot.SavePosterior(chain.Samples, filepath.Join(dir, "posterior.png")); err != nil {
			return err
		}
	}
	if len(curve) > 0 {
		if err := plot.SaveContrastCurve(curve, filepath.Join(dir, "limits.png")); err != nil {
			return err
		}
	}

	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
