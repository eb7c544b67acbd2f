package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors - invalid request inputs, never retried
	ErrConfiguration   = errors.New("invalid configuration")
	ErrUnknownScenario = fmt.Errorf("%w: unknown scenario", ErrConfiguration)
	ErrUnknownDiscount = fmt.Errorf("%w: unknown discount convention", ErrConfiguration)
	ErrOutOfHorizon    = fmt.Errorf("%w: year outside model horizon", ErrConfiguration)

	// Engine errors - the simulation itself failed
	ErrEngine         = errors.New("simulation engine failed")
	ErrNonFinite      = fmt.Errorf("%w: non-finite state", ErrEngine)
	ErrModelFinalized = errors.New("model already run; parameters are frozen")

	// Grid errors
	ErrInvalidGrid   = errors.New("invalid time grid")
	ErrInvalidYear   = errors.New("year cannot be resolved against the grid")
	ErrInterpolation = errors.New("interpolation failed")

	// Batch errors
	ErrBatchStopped     = errors.New("batch stopped before completion")
	ErrBatchFailureRate = errors.New("batch exceeded maximum failure rate")

	// Lookup errors
	ErrVariableNotFound = errors.New("model variable not found")
	ErrBatchNotFound    = errors.New("batch not found")
)

// Error constructors with context
func NewConfigurationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfiguration, field, reason)
}

func NewEngineError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEngine, stage, err)
}

func NewVariableNotFoundError(component, name string) error {
	return fmt.Errorf("%w: %s.%s", ErrVariableNotFound, component, name)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsEngineError(err error) bool {
	return errors.Is(err, ErrEngine)
}

func IsRecoverable(err error) bool {
	// Engine failures are recoverable inside a Monte Carlo batch; bad
	// configuration never is.
	return errors.Is(err, ErrEngine)
}
