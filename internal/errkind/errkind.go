// Package errkind defines the failure kinds the orchestrator raises. Each
// failure is an *Error whose Kind is one of the sentinels below, so callers
// branch with errors.Is and still get the path or name that caused it.
package errkind

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPreconditionViolation: the target is not in the state the operation
	// requires (project already exists, upgrade markers missing, ...).
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrConfigurationConflict: the project configuration contradicts the
	// requested operation.
	ErrConfigurationConflict = errors.New("configuration conflict")

	// ErrMissingArtifact: a named artifact (example, mixin, project file,
	// configuration section) does not exist.
	ErrMissingArtifact = errors.New("missing artifact")
)

// Error carries a failure kind plus the context needed to report it.
type Error struct {
	Kind error
	Op   string // operation, e.g. "new", "upgrade"
	Path string // filesystem path involved, if any
	Name string // artifact name involved, if any
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

// Precondition returns an ErrPreconditionViolation for path.
func Precondition(op, path, format string, args ...any) error {
	return &Error{Kind: ErrPreconditionViolation, Op: op, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns an ErrConfigurationConflict for path.
func Conflict(op, path, format string, args ...any) error {
	return &Error{Kind: ErrConfigurationConflict, Op: op, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Missing returns an ErrMissingArtifact for the named artifact.
func Missing(op, name, format string, args ...any) error {
	return &Error{Kind: ErrMissingArtifact, Op: op, Name: name, Msg: fmt.Sprintf(format, args...)}
}

// As extracts the *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}
