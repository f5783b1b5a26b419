// Package apperr defines the error kinds shared by the connection provider,
// the migration subsystem and the query executor.
//
// Callers match kinds with errors.Is; the underlying driver error stays
// reachable through Unwrap.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when the pool is used before it was created.
	ErrNotInitialized = errors.New("database pool not initialized")
	// ErrPoolClosed is returned when the pool is used after teardown.
	// It also matches ErrNotInitialized.
	ErrPoolClosed = &kindAlias{msg: "database pool closed", alias: ErrNotInitialized}
	// ErrPoolActive is returned when a second pool is requested while one is active.
	ErrPoolActive = errors.New("database pool already active")
	// ErrConnection covers an unreachable store or rejected credentials.
	ErrConnection = errors.New("connection error")
	// ErrConstraintViolation is returned for duplicate tracking rows.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrNotFound is returned when a rollback has nothing to act on.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument covers empty migration names and empty queries.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrExecution wraps malformed SQL and runtime statement failures.
	ErrExecution = errors.New("execution error")
)

type kindAlias struct {
	msg   string
	alias error
}

func (k *kindAlias) Error() string { return k.msg }

func (k *kindAlias) Is(target error) bool { return target == k.alias }

// Error carries an error kind, the operation that failed and the cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New builds an *Error of the given kind.
func New(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Connection wraps err as ErrConnection.
func Connection(op string, err error) error { return New(ErrConnection, op, err) }

// Execution wraps err as ErrExecution.
func Execution(op string, err error) error { return New(ErrExecution, op, err) }

// NotFound returns an ErrNotFound with a formatted operation description.
func NotFound(format string, args ...any) error {
	return New(ErrNotFound, fmt.Sprintf(format, args...), nil)
}

// InvalidArgument returns an ErrInvalidArgument with a formatted description.
func InvalidArgument(format string, args ...any) error {
	return New(ErrInvalidArgument, fmt.Sprintf(format, args...), nil)
}

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
