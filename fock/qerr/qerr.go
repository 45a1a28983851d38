// Package qerr defines the error kinds shared by every package in this
// module. Callers should match them with errors.Is; returned errors usually
// wrap one of these with additional context.
package qerr

import "errors"

var (
	// ErrInvalidDimension is returned for a non-positive truncation, or when an
	// operator and a state disagree on their truncation.
	ErrInvalidDimension = errors.New("fock: invalid dimension")

	// ErrIndexOutOfRange is returned when a Fock level falls outside [0, dim).
	ErrIndexOutOfRange = errors.New("fock: index out of range")

	// ErrInvalidParameter is returned for physically meaningless arguments,
	// e.g. a negative mean photon number or a negative polar magnitude.
	ErrInvalidParameter = errors.New("fock: invalid parameter")

	// ErrNumericDivergence is returned when a computation stops producing
	// finite values.
	ErrNumericDivergence = errors.New("fock: numeric divergence")

	// ErrEnvelopeViolation is returned when the rejection envelope of the
	// adaptive sampler fails to bound the density at an evaluated point. Any
	// samples produced by such a run would be biased, so none are returned.
	ErrEnvelopeViolation = errors.New("fock: sampling envelope violation")
)
