package service

import "errors"

// Sentinel errors for caller-visible failure classes. Handlers map these to
// HTTP status codes; anything else is an internal failure.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrBusinessNotFound    = errors.New("business not found")
	ErrNotPending          = errors.New("transaction not pending")
	ErrInvalidPlan         = errors.New("invalid planId")
	ErrNoSubscription      = errors.New("no active subscription found to cancel")
	ErrMalformedEvent      = errors.New("malformed event payload")
)
