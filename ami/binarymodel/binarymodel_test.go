package binarymodel

import (
	"math"
	"math/cmplx"
	"testing"
)

func TestVisNoCompanion(t *testing.T) {
	b := Binary{DX: 100, DY: -50, F: 0}
	for _, uv := range [][2]float64{{0, 0}, {1e6, 0}, {3e5, -7e5}} {
		v2 := b.V2(uv[0], uv[1])
		if math.Abs(v2-1) > 1e-12 {
			t.Fatalf("u=%v v=%v: V2 mismatch: got %v want 1", uv[0], uv[1], v2)
		}
		cp := b.ClosurePhase(uv[0], uv[1], 2*uv[0], -uv[1])
		if math.Abs(cp) > 1e-12 {
			t.Fatalf("u=%v v=%v: CP mismatch: got %v want 0", uv[0], uv[1], cp)
		}
	}
}

func TestVisZeroBaseline(t *testing.T) {
	b := Binary{DX: 42, DY: 17, F: 0.3}
	if v := b.Vis(0, 0); cmplx.Abs(v-1) > 1e-12 {
		t.Fatalf("zero-baseline visibility mismatch: got %v want 1", v)
	}
}

func TestV2AtNull(t *testing.T) {
	// Pick u so the companion phase is exactly pi: the visibility
	// reaches its minimum (1-f)/(1+f).
	f := 0.2
	dx := 100.0 // mas
	u := 0.5 / (dx * mas2rad)

	b := Binary{DX: dx, DY: 0, F: f}
	got := b.V2(u, 0)
	want := ((1 - f) / (1 + f)) * ((1 - f) / (1 + f))

	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("null V2 mismatch: got %.12f want %.12f", got, want)
	}
}

func TestV2Bounds(t *testing.T) {
	b := Binary{DX: -130, DY: 75, F: 0.15}
	lo := ((1 - b.F) / (1 + b.F)) * ((1 - b.F) / (1 + b.F))

	for i := 0; i < 200; i++ {
		u := float64(i-100) * 2e4
		v := float64(i) * 1.3e4
		v2 := b.V2(u, v)
		if v2 < lo-1e-12 || v2 > 1+1e-12 {
			t.Fatalf("V2 out of bounds at u=%v v=%v: %v not in [%v, 1]", u, v, v2, lo)
		}
	}
}

func TestClosurePhaseIsSumOfPhases(t *testing.T) {
	b := Binary{DX: 80, DY: -60, F: 0.1}
	u1, v1 := 4e5, -1e5
	u2, v2 := -2e5, 3e5

	want := cmplx.Phase(b.Vis(u1, v1)) + cmplx.Phase(b.Vis(u2, v2)) +
		cmplx.Phase(b.Vis(-(u1+u2), -(v1+v2)))
	want = WrapPhaseDeg(want * 180 / math.Pi)

	got := b.ClosurePhase(u1, v1, u2, v2)
	if math.Abs(WrapPhaseDeg(got-want)) > 1e-9 {
		t.Fatalf("closure phase mismatch: got %v want %v", got, want)
	}
}

func TestSmearedOrderOneMatchesMonochromatic(t *testing.T) {
	b := Binary{DX: -200, DY: 140, F: 0.05}
	uM, vM := 4.2, -1.7 // meters
	lambda := 4.8e-6

	want := b.V2(uM/lambda, vM/lambda)
	got := b.V2Smeared(uM, vM, lambda, 0.3e-6, 1)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("order-1 smearing mismatch: got %v want %v", got, want)
	}

	wantCP := b.ClosurePhase(uM/lambda, vM/lambda, 2*uM/lambda, vM/lambda)
	gotCP := b.ClosurePhaseSmeared(uM, vM, 2*uM, vM, lambda, 0.3e-6, 1)
	if math.Abs(WrapPhaseDeg(gotCP-wantCP)) > 1e-9 {
		t.Fatalf("order-1 smeared CP mismatch: got %v want %v", gotCP, wantCP)
	}
}

func TestSmearingFillsNull(t *testing.T) {
	// At a visibility null, averaging over a finite bandwidth moves the
	// sub-channel phases off pi and raises the observed V2.
	f := 0.3
	dx := 300.0
	lambda := 4.8e-6
	uM := 0.5 * lambda / (dx * mas2rad)

	b := Binary{DX: dx, DY: 0, F: f}
	mono := b.V2(uM/lambda, 0)
	smeared := b.V2Smeared(uM, 0, lambda, 0.5e-6, 11)

	if smeared <= mono {
		t.Fatalf("smearing did not lift the null: mono=%v smeared=%v", mono, smeared)
	}
}

func TestWrapPhaseDeg(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{540, 180},
		{361, 1},
	}
	for _, tc := range cases {
		if got := WrapPhaseDeg(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("wrap(%v): got %v want %v", tc.in, got, tc.want)
		}
	}
}
