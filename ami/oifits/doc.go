// Package oifits loads calibrated interferometric observables from
// OIFITS files (the Optical Interferometry FITS exchange format).
//
// Only the extensions needed for model fitting are read: OI_WAVELENGTH
// for the spectral channels, OI_VIS2 for squared visibilities, and
// OI_T3 for closure phases. Measurements are flattened over baselines
// and channels into flat slices, with flagged points dropped, which is
// the shape the fitting packages consume.
//
// # Usage
//
//	obs, err := oifits.Load("target_calibrated.oifits")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d V2 points, %d closure phases\n", len(obs.Vis2), len(obs.T3))
package oifits
