package model

import "errors"

var (
	// ErrInvalidReport is returned for malformed input
	ErrInvalidReport = errors.New("invalid report")
	// ErrNotFound is returned for an unknown report, escalation or outbreak id
	ErrNotFound = errors.New("not found")
	// ErrAlreadyResponded is returned when a second response arrives for an escalation
	ErrAlreadyResponded = errors.New("escalation already responded")
	// ErrGatewayUnavailable wraps notification transport failures
	ErrGatewayUnavailable = errors.New("notification gateway unavailable")
	// ErrInvariantViolation marks a state that should be unreachable,
	// such as two active outbreaks for one key
	ErrInvariantViolation = errors.New("internal invariant violation")
)
