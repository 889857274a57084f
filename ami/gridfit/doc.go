// Package gridfit fits a binary-companion model to interferometric
// observables by chi-squared grid search over candidate positions, with
// the flux ratio minimized at each grid node.
//
// The search returns the chi-squared map (for plotting), the global
// best-fit parameters with curvature-based 1-sigma uncertainties, and
// the reduced chi-squared. DetectionLimits derives a contrast curve
// from the same chi-squared statistic: the faintest companion excluded
// at a given confidence per separation annulus.
//
// # Usage
//
//	res, err := gridfit.Search(obs, gridfit.Config{
//	    SearchRadius: 400, Step: 20, SmearOrder: 3,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("companion at (%.0f, %.0f) mas, f = %.4f, chi2/ndof = %.2f\n",
//	    res.DX, res.DY, res.F, res.ReducedChi2)
package gridfit
