// Package homodyne provides sources of balanced homodyne measurement
// records.
package homodyne

// A Detector measures rotated quadratures of a single optical mode.
type Detector interface {
	// Next returns the results of the next n measurements:
	//  - thetas holds the local oscillator phase of each shot
	//  - xs holds the measured quadrature value, in units where the vacuum
	//    has variance 1/2
	Next(n int) (thetas, xs []float64, err error)
}
