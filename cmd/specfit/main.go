// Command specfit measures emission lines in a 1-D spectrum and
// matches it against a template library.
//
// Usage:
//
//	specfit [flags] -in spectrum.fits
//
// It loads the spectrum (FITS image with optional weight map, or a
// plain-text table), fits and removes the continuum, detects and fits
// emission lines, and optionally cross-correlates against rest-frame
// templates to estimate the redshift.
//
// Examples:
//
//	specfit -in galaxy.fits
//	specfit -in galaxy.txt -threshold 4 -plots out/
//	specfit -in galaxy.fits -templates 'templates/*.txt' -zmax 0.5
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-astro/internal/fetch"
	"github.com/cwbudde/algo-astro/plot"
	"github.com/cwbudde/algo-astro/spectro/continuum"
	"github.com/cwbudde/algo-astro/spectro/lines"
	"github.com/cwbudde/algo-astro/spectro/spectrum"
	"github.com/cwbudde/algo-astro/spectro/template"
)

func main() {
	in := flag.String("in", "", "input spectrum (.fits or plain text)")
	url := flag.String("url", "", "optional dataset archive URL to fetch first")
	cache := flag.String("cache", "data", "extraction directory for -url")
	degree := flag.Int("degree", 3, "continuum polynomial degree")
	threshold := flag.Float64("threshold", 5, "line detection threshold [sigma]")
	width := flag.Float64("width", 15, "line fit window half-width [wavelength units]")
	templates := flag.String("templates", "", "glob of template spectra (empty disables matching)")
	zmax := flag.Float64("zmax", 1, "upper bound of the redshift scan")
	plots := flag.String("plots", "", "directory for PNG output (empty disables)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: specfit [flags] -in spectrum.fits\n\n")
		fmt.Fprintf(os.Stderr, "Measures emission lines and matches spectral templates.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  specfit -in galaxy.fits\n")
		fmt.Fprintf(os.Stderr, "  specfit -in galaxy.fits -templates 'templates/*.txt' -zmax 0.5\n")
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

	s, err := loadSpectrum(*in)
	if err != nil {
		fatalf("load spectrum: %v", err)
	}

	cont, err := continuum.Fit(s, continuum.Config{Degree: *degree})
	if err != nil {
		fatalf("continuum: %v", err)
	}

	measured, err := lines.Measure(s, cont, lines.Config{
		Threshold:    *threshold,
		FitHalfWidth: *width,
	})
	if err != nil {
		fatalf("line measurement: %v", err)
	}

	printLines(s, measured)

	var match *template.Result
	var lib *template.Library
	if *templates != "" {
		lib, err = template.LoadLibrary(*templates)
		if err != nil {
			fatalf("templates: %v", err)
		}

		match, err = template.MatchSpectrum(s, lib, template.Config{ZMax: *zmax})
		if err != nil {
			fatalf("template match: %v", err)
		}

		printMatches(match)
	}

	if *plots != "" {
		if err := savePlots(*plots, s, cont, measured, match, lib, *zmax); err != nil {
			fatalf("plots: %v", err)
		}
	}
}

func loadSpectrum(path string) (*spectrum.Spectrum, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".fits" || ext == ".fit" {
		return spectrum.LoadFITS(path)
	}
	return spectrum.LoadASCII(path)
}

func printLines(s *spectrum.Spectrum, measured []lines.Line) {
	median, noise := s.MedianNoise()
	fmt.Printf("data: %d samples, %.4g-%.4g, median flux %.4g, noise %.4g\n\n",
		s.Len(), s.Wave[0], s.Wave[s.Len()-1], median, noise)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Center\tFWHM\tFlux\tEW\tSNR\n")
	fmt.Fprintf(tw, "------\t----\t----\t--\t---\n")
	for _, l := range measured {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%.4g\t%.4g\t%.1f\n", l.Center, l.FWHM, l.Flux, l.EW, l.SNR)
	}
	tw.Flush()
}

func printMatches(match *template.Result) {
	fmt.Printf("\nbest match: %s at z=%.5f (score %.3f)\n\n",
		match.Best.Template, match.Best.Z, match.Best.Score)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Template\tz\tScore\n")
	fmt.Fprintf(tw, "--------\t-\t-----\n")
	for _, m := range match.Ranked {
		fmt.Fprintf(tw, "%s\t%.5f\t%.3f\n", m.Template, m.Z, m.Score)
	}
	tw.Flush()
}

func savePlots(dir string, s *spectrum.Spectrum, cont *continuum.Result, measured []lines.Line, match *template.Result, lib *template.Library, zmax float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := plot.SaveSpectrum(s, cont, measured, filepath.Join(dir, "spectrum.png")); err != nil {
		return err
	}

	if match != nil {
		for _, t := range lib.Templates {
			if t.Name != match.Best.Template {
				continue
			}
			zs, scores, err := template.Correlation(s, t, template.Config{ZMax: zmax})
			if err != nil {
				return err
			}
			if err := plot.SaveCorrelation(zs, scores, filepath.Join(dir, "xcorr.png")); err != nil {
				return err
			}
		}
	}

	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
