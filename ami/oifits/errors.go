package oifits

import "errors"

var (
	// ErrNoWavelength is returned when a file carries data tables but
	// no OI_WAVELENGTH extension.
	ErrNoWavelength = errors.New("oifits: missing OI_WAVELENGTH extension")

	// ErrNoData is returned when a file carries neither OI_VIS2 nor
	// OI_T3 extensions.
	ErrNoData = errors.New("oifits: no OI_VIS2 or OI_T3 extensions")

	// ErrChannelMismatch is returned when a data row's channel count
	// disagrees with the wavelength table.
	ErrChannelMismatch = errors.New("oifits: channel count mismatch")
)
