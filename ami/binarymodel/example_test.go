package binarymodel_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-astro/ami/binarymodel"
)

func Example() {
	// Equal binary 100 mas east of the primary.
	b := binarymodel.Binary{DX: 100, DY: 0, F: 1}

	// Spatial frequency where the 100 mas fringe reaches its null.
	masToRad := math.Pi / 180 / 3600 / 1000
	uNull := 1 / (200 * masToRad)

	fmt.Printf("V2 at zero baseline: %.3f\n", b.V2(0, 0))
	fmt.Printf("V2 at the null:      %.3f\n", b.V2(uNull, 0))
	fmt.Printf("wrapped phase:       %.1f deg\n", binarymodel.WrapPhaseDeg(540))
	// Output:
	// V2 at zero baseline: 1.000
	// V2 at the null:      0.000
	// wrapped phase:       180.0 deg
}
