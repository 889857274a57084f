package oifits

// Channel is one spectral channel of the instrument, from OI_WAVELENGTH.
type Channel struct {
	Wave float64 // effective wavelength [m]
	Band float64 // effective bandwidth [m]
}

// Vis2 is a single squared-visibility measurement on one baseline in
// one spectral channel.
type Vis2 struct {
	U, V       float64 // baseline coordinates [m]
	Wave, Band float64 // spectral channel [m]
	Value      float64
	Err        float64
}

// T3 is a single closure-phase measurement on one baseline triangle in
// one spectral channel. The third leg is -(U1+U2), -(V1+V2).
type T3 struct {
	U1, V1     float64 // first leg [m]
	U2, V2     float64 // second leg [m]
	Wave, Band float64 // spectral channel [m]
	Phase      float64 // closure phase [deg]
	Err        float64 // [deg]
}

// Observation holds the calibrated interferometric observables of one
// OIFITS file: squared visibilities and closure phases, flattened over
// baselines and spectral channels. Flagged points are dropped at load
// time.
type Observation struct {
	Channels []Channel
	Vis2     []Vis2
	T3       []T3
}

// NPoints returns the total number of unflagged data points.
func (o *Observation) NPoints() int {
	return len(o.Vis2) + len(o.T3)
}
