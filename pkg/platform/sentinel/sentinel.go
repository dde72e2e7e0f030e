package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Slot substrates and stores return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: no slot exists at the address
// - ErrAlreadyUsed: a create-once slot is already occupied
// - ErrConflict: a concurrent writer won an optimistic transaction
// - ErrInvalidState: stored bytes do not decode as the expected record family
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
