package cli

import (
	"errors"

	"github.com/seedling-build/seedling/internal/engine"
	"github.com/seedling-build/seedling/internal/errkind"
)

// Exit codes by failure kind.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitPrecondition = 2
	ExitConflict     = 3
	ExitMissing      = 4
)

// ExitCode maps an error returned by Execute to a process exit code. A
// failed engine run exits with the engine's own code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var runErr *engine.RunError
	switch {
	case errors.Is(err, errkind.ErrPreconditionViolation):
		return ExitPrecondition
	case errors.Is(err, errkind.ErrConfigurationConflict):
		return ExitConflict
	case errors.Is(err, errkind.ErrMissingArtifact):
		return ExitMissing
	case errors.As(err, &runErr) && runErr.ExitCode > 0:
		return runErr.ExitCode
	}
	return ExitFailure
}
