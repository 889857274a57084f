package spectrum

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-astro/internal/testutil"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected error for empty spectrum")
	}

	if _, err := New([]float64{1, 2}, []float64{1}, nil); err == nil {
		t.Fatal("expected error for length mismatch")
	}

	if _, err := New([]float64{1, 2, 2}, []float64{1, 1, 1}, nil); err == nil {
		t.Fatal("expected error for non-ascending grid")
	}

	s, err := New([]float64{1, 2, 3}, []float64{4, 5, 6}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range s.Err {
		if e != 1 {
			t.Fatalf("default error at %d: got %v want 1", i, e)
		}
	}
}

func TestWindow(t *testing.T) {
	s, _ := New(
		[]float64{100, 200, 300, 400, 500},
		[]float64{1, 2, 3, 4, 5},
		nil,
	)

	w := s.Window(200, 400)
	if w.Len() != 3 {
		t.Fatalf("window length mismatch: got %d want 3", w.Len())
	}
	if w.Wave[0] != 200 || w.Wave[2] != 400 {
		t.Fatalf("window bounds mismatch: %v", w.Wave)
	}

	if empty := s.Window(600, 700); empty.Len() != 0 {
		t.Fatalf("expected empty window, got %d samples", empty.Len())
	}
}

func TestResample(t *testing.T) {
	s, _ := New(
		[]float64{100, 200, 300},
		[]float64{10, 20, 40},
		[]float64{1, 2, 4},
	)

	r := s.Resample([]float64{100, 150, 250, 300, 350})

	testutil.RequireNear(t, r.Flux[0], 10, 1e-12) // exact node
	testutil.RequireNear(t, r.Flux[1], 15, 1e-12) // midpoint
	testutil.RequireNear(t, r.Flux[2], 30, 1e-12)
	testutil.RequireNear(t, r.Flux[3], 40, 1e-12)
	testutil.RequireNear(t, r.Err[1], 1.5, 1e-12)

	if r.Flux[4] != 0 || !math.IsInf(r.Err[4], 1) {
		t.Fatalf("out-of-range sample not masked: flux %v err %v", r.Flux[4], r.Err[4])
	}
}

func TestMedianNoise(t *testing.T) {
	s, _ := New(
		[]float64{1, 2, 3, 4, 5},
		[]float64{10, 10, 10, 10, 110},
		nil,
	)

	median, noise := s.MedianNoise()
	testutil.RequireNear(t, median, 10, 1e-12)
	// Deviations: 0,0,0,0,100 -> MAD 0: the outlier does not inflate
	// the robust estimate.
	testutil.RequireNear(t, noise, 0, 1e-12)

	s2, _ := New(
		[]float64{1, 2, 3, 4},
		[]float64{1, 2, 3, 4},
		nil,
	)
	median2, noise2 := s2.MedianNoise()
	testutil.RequireNear(t, median2, 2.5, 1e-12)
	testutil.RequireNear(t, noise2, 1.4826, 1e-12)
}

func TestReadASCII(t *testing.T) {
	in := `# wavelength flux err
6000.0  1.5  0.1

6002.0  1.7  0.1
6004.0  1.6
`
	s, err := ReadASCII(strings.NewReader(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("sample count mismatch: got %d want 3", s.Len())
	}
	testutil.RequireSliceNearlyEqual(t, s.Wave, []float64{6000, 6002, 6004}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, s.Flux, []float64{1.5, 1.7, 1.6}, 1e-12)
	testutil.RequireSliceNearlyEqual(t, s.Err, []float64{0.1, 0.1, 1}, 1e-12)
}

func TestReadASCIIBadInput(t *testing.T) {
	if _, err := ReadASCII(strings.NewReader("6000.0\n")); err == nil {
		t.Fatal("expected error for missing flux column")
	}
	if _, err := ReadASCII(strings.NewReader("abc 1.0\n")); err == nil {
		t.Fatal("expected error for non-numeric wavelength")
	}
}

func TestReadFITS(t *testing.T) {
	flux := []float64{10, 11, 12, 13}
	weights := []float64{4, 1, 0.25, 0}

	var b testutil.FITSBuilder
	b.PrimaryImage1D(flux, func(b *testutil.FITSBuilder) {
		b.FloatCard("CRVAL1", 6000)
		b.FloatCard("CDELT1", 2)
		b.FloatCard("CRPIX1", 1)
	})
	b.ImageExt1D("WHT", weights)

	s, err := ReadFITS(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, s.Wave, []float64{6000, 6002, 6004, 6006}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, s.Flux, flux, 1e-12)

	// Weights convert to errors as 1/sqrt(w); zero weight masks the pixel.
	testutil.RequireNear(t, s.Err[0], 0.5, 1e-12)
	testutil.RequireNear(t, s.Err[1], 1, 1e-12)
	testutil.RequireNear(t, s.Err[2], 2, 1e-12)
	if !math.IsInf(s.Err[3], 1) {
		t.Fatalf("zero-weight pixel not masked: %v", s.Err[3])
	}
}

func TestReadFITSFloat32Image(t *testing.T) {
	var b testutil.FITSBuilder
	b.PrimaryImage1D32([]float32{1.5, 2.5, 3.5}, func(b *testutil.FITSBuilder) {
		b.FloatCard("CRVAL1", 4000)
		b.FloatCard("CDELT1", 1)
		b.FloatCard("CRPIX1", 1)
	})

	s, err := ReadFITS(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, s.Wave, []float64{4000, 4001, 4002}, 1e-9)
	testutil.RequireSliceNearlyEqual(t, s.Flux, []float64{1.5, 2.5, 3.5}, 1e-6)
}

func TestReadFITSNoWeights(t *testing.T) {
	var b testutil.FITSBuilder
	b.PrimaryImage1D([]float64{1, 2, 3}, func(b *testutil.FITSBuilder) {
		b.FloatCard("CRVAL1", 5000)
		b.FloatCard("CDELT1", 1)
		b.FloatCard("CRPIX1", 1)
	})

	s, err := ReadFITS(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range s.Err {
		if e != 1 {
			t.Fatalf("default error at %d: got %v want 1", i, e)
		}
	}
}
