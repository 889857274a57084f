package gridfit

import "errors"

// ErrNoPoints is returned when the observation carries no unflagged
// data points to fit against.
var ErrNoPoints = errors.New("gridfit: observation has no data points")
