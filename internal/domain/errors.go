package domain

import "errors"

// Sentinel errors for the ledger core. Match with errors.Is; handlers map
// each one to a distinct HTTP status and user-facing message.
var (
	// ErrNotFound is returned when a referenced account, item or event
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyReversed is returned when a reversal already exists for
	// the (original event id, original event type) pair.
	ErrAlreadyReversed = errors.New("transaction already reversed")

	// ErrReversalWindowExpired is returned when a member tries to reverse
	// their own transaction after the self-service window has passed.
	ErrReversalWindowExpired = errors.New("self-service reversal window expired")

	// ErrForbidden is returned when the acting account may not reverse or
	// adjust the targeted transaction at all.
	ErrForbidden = errors.New("not allowed")

	// ErrInsufficientBalance is returned when a consumption would push a
	// non-credit account below zero.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientStock is returned when floor enforcement is on and a
	// decrement would push a stock counter below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrConflict is returned on a concurrent-write collision, e.g. a
	// top-up status transition raced by the webhook.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrAccountInactive is returned when the target account is
	// deactivated.
	ErrAccountInactive = errors.New("account is inactive")
)
