package spectrum

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadASCII reads a plain-text spectrum: one sample per line with
// whitespace-separated wavelength, flux, and optional error columns.
// Blank lines and '#' comments are skipped.
func LoadASCII(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spectrum: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadASCII(f)
	if err != nil {
		return nil, fmt.Errorf("spectrum: read %s: %w", path, err)
	}

	return s, nil
}

// ReadASCII parses a plain-text spectrum stream.
func ReadASCII(r io.Reader) (*Spectrum, error) {
	var wave, flux, errs []float64

	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, fmt.Errorf("spectrum: line %d: expected at least 2 columns, got %d", line, len(fields))
		}

		w, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("spectrum: line %d: bad wavelength %q: %w", line, fields[0], err)
		}

		fl, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("spectrum: line %d: bad flux %q: %w", line, fields[1], err)
		}

		e := 1.0
		if len(fields) >= 3 {
			e, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("spectrum: line %d: bad error %q: %w", line, fields[2], err)
			}
		}

		wave = append(wave, w)
		flux = append(flux, fl)
		errs = append(errs, e)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("spectrum: scan: %w", err)
	}

	return New(wave, flux, errs)
}
