package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_IsMatchesKindAndCause(t *testing.T) {
	cause := errors.New("syntax error at or near \"CREAT\"")
	err := Execution("apply 2024_01_01_00_00_init.sql", cause)

	if !errors.Is(err, ErrExecution) {
		t.Fatalf("expected ErrExecution, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("unexpected ErrNotFound match")
	}
	if !strings.Contains(err.Error(), "apply 2024_01_01_00_00_init.sql") {
		t.Fatalf("operation missing from message: %q", err.Error())
	}
}

func TestError_WrappedByFmt(t *testing.T) {
	err := fmt.Errorf("rollback: %w", NotFound("no migrations to rollback"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound through fmt wrapping, got %v", err)
	}
	var ae *Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected *Error in chain")
	}
	if ae.Op != "no migrations to rollback" {
		t.Fatalf("unexpected op %q", ae.Op)
	}
}

func TestErrPoolClosed_MatchesNotInitialized(t *testing.T) {
	if !errors.Is(ErrPoolClosed, ErrNotInitialized) {
		t.Fatal("ErrPoolClosed should match ErrNotInitialized")
	}
	if errors.Is(ErrNotInitialized, ErrPoolClosed) {
		t.Fatal("ErrNotInitialized should not match ErrPoolClosed")
	}
	wrapped := New(ErrPoolClosed, "get pool", nil)
	if !errors.Is(wrapped, ErrNotInitialized) || !errors.Is(wrapped, ErrPoolClosed) {
		t.Fatalf("wrapped closed error should match both kinds: %v", wrapped)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"invalid argument", InvalidArgument("migration name is required"), 1},
		{"plain", errors.New("boom"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
