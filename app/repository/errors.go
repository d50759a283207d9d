package repository

import "errors"

// Store-level settlement errors. These are part of the repository contract so
// that both the durable MySQL store and the in-process store report the same
// conditions.
var (
	// ErrNotFound means no row matched the identifier.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateSettlement means the (network, tx hash) pair is already
	// claimed by a different payment request.
	ErrDuplicateSettlement = errors.New("settlement hash already claimed by another request")

	// ErrInvalidTransition means the request is in a terminal state that
	// cannot move to PAID.
	ErrInvalidTransition = errors.New("invalid settlement state transition")

	// ErrLinkExpired means the request passed its expiry time before being
	// settled.
	ErrLinkExpired = errors.New("payment request expired")
)
