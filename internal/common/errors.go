package common

import "errors"

var (
	// ErrValidation marks caller-supplied input that violates a precondition.
	ErrValidation = errors.New("validation error")

	// ErrStorage marks an unreadable, unwritable or malformed record store.
	ErrStorage = errors.New("storage error")

	// ErrGateway marks a failed or timed out completion call.
	ErrGateway = errors.New("gateway error")
)
