package fock

import "github.com/alan-christopher/fock/fock/qerr"

// Error kinds returned by this module, re-exported for callers that only
// import package fock. See package qerr.
var (
	ErrInvalidDimension  = qerr.ErrInvalidDimension
	ErrIndexOutOfRange   = qerr.ErrIndexOutOfRange
	ErrInvalidParameter  = qerr.ErrInvalidParameter
	ErrNumericDivergence = qerr.ErrNumericDivergence
	ErrEnvelopeViolation = qerr.ErrEnvelopeViolation
)
