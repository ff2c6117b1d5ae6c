package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These represent factual states about stored records, not validation
// failures:
// - ErrNotFound: record does not exist in store
// - ErrConflict: uniqueness violation (e.g. duplicate business id)
// - ErrInvalidState: record in wrong state for requested operation
// - ErrUnavailable: store or cache temporarily unreachable
//
// For validation errors (bad input, violated rules), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
