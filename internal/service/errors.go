package service

import "errors"

// Recoverable domain errors. Everything here is reported to the immediate
// caller; none of it is process-fatal. Store and gateway transport failures
// that don't fit the taxonomy are returned as-is and mapped to a generic
// internal error at the API boundary.
var (
	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized: the actor lacks rights for the attempted operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition: the state precondition no longer holds, including
	// a lost conditional-update race.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrEligibilityDenied: the blocking or minimum-price rule rejected a claim.
	ErrEligibilityDenied = errors.New("eligibility denied")
	// ErrPaymentCaptureFailed: the gateway declined or errored after the task
	// was already durably completed. Non-fatal to task state.
	ErrPaymentCaptureFailed = errors.New("payment capture failed")
	// ErrValidation: malformed input (price range, missing message content).
	ErrValidation = errors.New("validation failed")
)
