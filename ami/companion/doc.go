// Package companion converts Cartesian binary-star fit results into the
// polar quantities astronomers quote: separation, position angle east of
// north, and magnitude difference.
//
// Uncertainties on separation and position angle use first-order (linear)
// error propagation of the Cartesian 1-sigma uncertainties. The magnitude
// difference is nonlinear in the flux ratio, so its interval is evaluated
// directly at F +/- sigma*EF and is asymmetric.
//
// # Usage
//
//	polar, err := companion.Convert(companion.Fit{
//	    X: -258.7, Y: 107.3, F: 0.024,
//	    EX: 1.2, EY: 1.4, EF: 0.001,
//	}, 1)
//	fmt.Printf("sep = %.1f mas, PA = %.1f deg, dmag = %.2f\n",
//	    polar.Sep, math.Mod(polar.PA, 360), polar.DMag)
package companion
