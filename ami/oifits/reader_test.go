package oifits_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-astro/ami/oifits"
	"github.com/cwbudde/algo-astro/internal/testutil"
)

var testWaves = []float32{4.3e-6, 4.8e-6, 5.3e-6}

func wavelengthTable(b *testutil.FITSBuilder) {
	b.TableHeader("OI_WAVELENGTH", 8, len(testWaves), []testutil.TableColumn{
		{Name: "EFF_WAVE", Form: "1E"},
		{Name: "EFF_BAND", Form: "1E"},
	})
	for _, w := range testWaves {
		b.F32(w)
		b.F32(0.2e-6)
	}
	b.EndData()
}

var vis2Columns = []testutil.TableColumn{
	{Name: "UCOORD", Form: "1D"},
	{Name: "VCOORD", Form: "1D"},
	{Name: "VIS2DATA", Form: "3D"},
	{Name: "VIS2ERR", Form: "3D"},
	{Name: "FLAG", Form: "3L"},
}

func buildTestOIFITS() []byte {
	var b testutil.FITSBuilder
	b.Primary()
	wavelengthTable(&b)

	// OI_VIS2: two baselines, three channels, one flagged point.
	b.TableHeader("OI_VIS2", 8+8+24+24+3, 2, vis2Columns)
	b.F64(10.0)
	b.F64(5.0)
	for _, v := range []float64{0.9, 0.8, 0.7} {
		b.F64(v)
	}
	for range 3 {
		b.F64(0.01)
	}
	b.Flags(false, false, true)

	b.F64(-3.0)
	b.F64(7.5)
	for _, v := range []float64{1.0, 0.95, 0.9} {
		b.F64(v)
	}
	for range 3 {
		b.F64(0.02)
	}
	b.Flags(false, false, false)
	b.EndData()

	// OI_T3: one triangle, three channels, one flagged point.
	b.TableHeader("OI_T3", 32+24+24+3, 1, []testutil.TableColumn{
		{Name: "U1COORD", Form: "1D"},
		{Name: "V1COORD", Form: "1D"},
		{Name: "U2COORD", Form: "1D"},
		{Name: "V2COORD", Form: "1D"},
		{Name: "T3PHI", Form: "3D"},
		{Name: "T3PHIERR", Form: "3D"},
		{Name: "FLAG", Form: "3L"},
	})
	b.F64(10.0)
	b.F64(5.0)
	b.F64(-3.0)
	b.F64(7.5)
	for _, v := range []float64{1.5, -2.0, 0.5} {
		b.F64(v)
	}
	for range 3 {
		b.F64(0.3)
	}
	b.Flags(false, true, false)
	b.EndData()

	return b.Bytes()
}

func TestReadOIFITS(t *testing.T) {
	obs, err := oifits.Read(bytes.NewReader(buildTestOIFITS()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obs.Channels) != 3 {
		t.Fatalf("channel count mismatch: got %d want 3", len(obs.Channels))
	}
	for i, w := range testWaves {
		if math.Abs(obs.Channels[i].Wave-float64(w)) > 1e-18 {
			t.Fatalf("channel %d wavelength mismatch: got %v want %v", i, obs.Channels[i].Wave, w)
		}
	}

	// Row 1 has one flagged channel, row 2 none: 2 + 3 points.
	if len(obs.Vis2) != 5 {
		t.Fatalf("V2 point count mismatch: got %d want 5", len(obs.Vis2))
	}

	first := obs.Vis2[0]
	if first.U != 10.0 || first.V != 5.0 {
		t.Fatalf("baseline mismatch: got (%v, %v) want (10, 5)", first.U, first.V)
	}
	if math.Abs(first.Value-0.9) > 1e-12 || math.Abs(first.Err-0.01) > 1e-12 {
		t.Fatalf("V2 value mismatch: got %v +/- %v", first.Value, first.Err)
	}
	if math.Abs(first.Wave-float64(testWaves[0])) > 1e-18 {
		t.Fatalf("V2 wavelength mismatch: got %v", first.Wave)
	}

	// The flagged third channel of row 1 must be dropped.
	for _, p := range obs.Vis2 {
		if p.U == 10.0 && math.Abs(p.Value-0.7) < 1e-12 {
			t.Fatalf("flagged V2 point was not dropped: %+v", p)
		}
	}

	if len(obs.T3) != 2 {
		t.Fatalf("T3 point count mismatch: got %d want 2", len(obs.T3))
	}
	cp := obs.T3[0]
	if cp.U1 != 10.0 || cp.V1 != 5.0 || cp.U2 != -3.0 || cp.V2 != 7.5 {
		t.Fatalf("triangle mismatch: %+v", cp)
	}
	if math.Abs(cp.Phase-1.5) > 1e-12 {
		t.Fatalf("closure phase mismatch: got %v want 1.5", cp.Phase)
	}
	if math.Abs(obs.T3[1].Phase-0.5) > 1e-12 {
		t.Fatalf("flagged T3 channel not dropped: got %v want 0.5", obs.T3[1].Phase)
	}

	if obs.NPoints() != 7 {
		t.Fatalf("NPoints mismatch: got %d want 7", obs.NPoints())
	}
}

func TestReadTwoChannelFile(t *testing.T) {
	// Fixed repeat-count columns must decode per channel for any
	// channel count, not just the three-channel case above.
	var b testutil.FITSBuilder
	b.Primary()
	b.TableHeader("OI_WAVELENGTH", 8, 2, []testutil.TableColumn{
		{Name: "EFF_WAVE", Form: "1E"},
		{Name: "EFF_BAND", Form: "1E"},
	})
	b.F32(4.3e-6)
	b.F32(0.2e-6)
	b.F32(4.8e-6)
	b.F32(0.2e-6)
	b.EndData()

	b.TableHeader("OI_VIS2", 8+8+16+16+2, 1, []testutil.TableColumn{
		{Name: "UCOORD", Form: "1D"},
		{Name: "VCOORD", Form: "1D"},
		{Name: "VIS2DATA", Form: "2D"},
		{Name: "VIS2ERR", Form: "2D"},
		{Name: "FLAG", Form: "2L"},
	})
	b.F64(12.0)
	b.F64(-4.0)
	b.F64(0.9)
	b.F64(0.85)
	b.F64(0.01)
	b.F64(0.02)
	b.Flags(false, false)
	b.EndData()

	obs, err := oifits.Read(bytes.NewReader(b.Bytes()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obs.Vis2) != 2 {
		t.Fatalf("V2 point count mismatch: got %d want 2", len(obs.Vis2))
	}
	for i, want := range []float64{0.9, 0.85} {
		p := obs.Vis2[i]
		if p.U != 12.0 || p.V != -4.0 {
			t.Fatalf("baseline mismatch at %d: (%v, %v)", i, p.U, p.V)
		}
		if math.Abs(p.Value-want) > 1e-12 {
			t.Fatalf("V2 value mismatch at %d: got %v want %v", i, p.Value, want)
		}
	}
	if math.Abs(obs.Vis2[1].Err-0.02) > 1e-12 {
		t.Fatalf("V2 error mismatch: got %v want 0.02", obs.Vis2[1].Err)
	}
}

func TestReadMissingWavelength(t *testing.T) {
	var b testutil.FITSBuilder
	b.Primary()
	b.TableHeader("OI_VIS2", 8+8+24+24+3, 0, vis2Columns)
	b.EndData()

	_, err := oifits.Read(bytes.NewReader(b.Bytes()))
	if !errors.Is(err, oifits.ErrNoWavelength) {
		t.Fatalf("expected ErrNoWavelength, got %v", err)
	}
}

func TestReadNoDataTables(t *testing.T) {
	var b testutil.FITSBuilder
	b.Primary()
	wavelengthTable(&b)

	_, err := oifits.Read(bytes.NewReader(b.Bytes()))
	if !errors.Is(err, oifits.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestReadChannelMismatch(t *testing.T) {
	var b testutil.FITSBuilder
	b.Primary()
	wavelengthTable(&b)

	// Two-channel data rows against a three-channel wavelength table.
	b.TableHeader("OI_VIS2", 8+8+16+16+2, 1, []testutil.TableColumn{
		{Name: "UCOORD", Form: "1D"},
		{Name: "VCOORD", Form: "1D"},
		{Name: "VIS2DATA", Form: "2D"},
		{Name: "VIS2ERR", Form: "2D"},
		{Name: "FLAG", Form: "2L"},
	})
	b.F64(1.0)
	b.F64(2.0)
	b.F64(0.9)
	b.F64(0.8)
	b.F64(0.01)
	b.F64(0.01)
	b.Flags(false, false)
	b.EndData()

	_, err := oifits.Read(bytes.NewReader(b.Bytes()))
	if !errors.Is(err, oifits.ErrChannelMismatch) {
		t.Fatalf("expected ErrChannelMismatch, got %v", err)
	}
}
