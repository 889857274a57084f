package spectrum

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/astrogo/fitsio"
)

var errNoImage = errors.New("spectrum: primary HDU carries no 1-D image")

// LoadFITS reads a 1-D spectrum from a FITS file: the primary HDU holds
// the flux array with a linear wavelength WCS (CRVAL1/CDELT1/CRPIX1),
// and an optional image extension named WHT or WEIGHT holds the
// inverse-variance weight map.
func LoadFITS(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("spectrum: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadFITS(f)
	if err != nil {
		return nil, fmt.Errorf("spectrum: read %s: %w", path, err)
	}

	return s, nil
}

// ReadFITS parses a 1-D spectrum FITS stream.
func ReadFITS(r io.Reader) (*Spectrum, error) {
	fits, err := fitsio.Open(r)
	if err != nil {
		return nil, fmt.Errorf("spectrum: parse FITS: %w", err)
	}
	defer fits.Close()

	primary := fits.HDU(0)

	flux, err := imageData(primary)
	if err != nil {
		return nil, err
	}
	if len(flux) == 0 {
		return nil, errNoImage
	}

	hdr := primary.Header()
	crval := floatCard(hdr, "CRVAL1", 0)
	cdelt := floatCard(hdr, "CDELT1", 1)
	crpix := floatCard(hdr, "CRPIX1", 1)

	wave := make([]float64, len(flux))
	for i := range wave {
		// FITS pixel indices are 1-based.
		wave[i] = crval + (float64(i)+1-crpix)*cdelt
	}

	errs := make([]float64, len(flux))
	for i := range errs {
		errs[i] = 1
	}

	if weights := weightMap(fits); weights != nil {
		if len(weights) != len(flux) {
			return nil, fmt.Errorf("spectrum: weight map length %d does not match flux length %d",
				len(weights), len(flux))
		}
		for i, w := range weights {
			if w > 0 {
				errs[i] = 1 / math.Sqrt(w)
			} else {
				errs[i] = math.Inf(1)
			}
		}
	}

	return New(wave, flux, errs)
}

func weightMap(fits *fitsio.File) []float64 {
	for i := 1; i < len(fits.HDUs()); i++ {
		hdu := fits.HDU(i)

		card := hdu.Header().Get("EXTNAME")
		if card == nil {
			continue
		}
		name, _ := card.Value.(string)
		if name != "WHT" && name != "WEIGHT" {
			continue
		}

		data, err := imageData(hdu)
		if err != nil {
			continue
		}

		return data
	}

	return nil
}

// imageData reads an image HDU into float64 regardless of BITPIX.
func imageData(hdu fitsio.HDU) ([]float64, error) {
	img, ok := hdu.(fitsio.Image)
	if !ok {
		return nil, errNoImage
	}

	hdr := img.Header()
	if len(hdr.Axes()) == 0 {
		return nil, nil
	}

	// Image.Read fills a pre-allocated slice; it does not grow the
	// destination.
	n := 1
	for _, ax := range hdr.Axes() {
		if ax <= 0 {
			return nil, nil
		}
		n *= ax
	}

	switch hdr.Bitpix() {
	case -64:
		data := make([]float64, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("spectrum: read image: %w", err)
		}
		return data, nil
	case -32:
		data := make([]float32, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("spectrum: read image: %w", err)
		}
		return toFloat64(data), nil
	case 16:
		data := make([]int16, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("spectrum: read image: %w", err)
		}
		return toFloat64(data), nil
	case 32:
		data := make([]int32, n)
		if err := img.Read(&data); err != nil {
			return nil, fmt.Errorf("spectrum: read image: %w", err)
		}
		return toFloat64(data), nil
	default:
		return nil, fmt.Errorf("spectrum: unsupported BITPIX %d", hdr.Bitpix())
	}
}

func toFloat64[T float32 | int16 | int32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func floatCard(hdr *fitsio.Header, key string, def float64) float64 {
	card := hdr.Get(key)
	if card == nil {
		return def
	}

	switch v := card.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}
