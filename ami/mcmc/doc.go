// Package mcmc refines a binary-companion solution with a sequential
// Metropolis-Hastings chain, turning the chi-squared statistic of
// package gridfit into posterior intervals on offset and flux ratio.
//
// # Usage
//
//	res, err := mcmc.Run(obs, binarymodel.Binary{DX: best.DX, DY: best.DY, F: best.F},
//	    mcmc.Config{Steps: 10000, Seed: 42})
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("f = %.4f [%.4f, %.4f]\n", res.F.P50, res.F.P16, res.F.P84)
package mcmc
