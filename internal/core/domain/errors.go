package domain

import "errors"

// ErrorKind classifies why an attempt or a whole call failed.
type ErrorKind string

const (
	ErrKindNone      ErrorKind = ""
	ErrKindTimeout   ErrorKind = "timeout"
	ErrKindService   ErrorKind = "service_error"
	ErrKindExhausted ErrorKind = "all_levels_exhausted"
	ErrKindCancelled ErrorKind = "cancelled"
)

var (
	// ErrAllLevelsExhausted is surfaced when every planned level failed and
	// the emergency path produced nothing.
	ErrAllLevelsExhausted = errors.New("all fallback levels exhausted")

	// ErrNoEmergencyHandler marks categories that deliberately refuse
	// synthetic responses.
	ErrNoEmergencyHandler = errors.New("no emergency handler registered")
)
