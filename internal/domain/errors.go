package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrAlreadyTerminal rejects events arriving for a session that has
	// already reached a completed_* state. The first recorded outcome wins.
	ErrAlreadyTerminal = errors.New("session already terminal")

	// ErrInvalidTransition rejects events that are not legal for the
	// session's current state (e.g. bedsProvided before a menu choice).
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrCycleInProgress rejects a dispatch cycle while another one is
	// still running against the host directory.
	ErrCycleInProgress = errors.New("dispatch cycle already in progress")

	ErrNoPhone = errors.New("host has no phone number")
)
