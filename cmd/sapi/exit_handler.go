package main

import (
	"fmt"
	"io"
	"os"

	"github.com/loykin/fsapi/internal/apperr"
	"github.com/loykin/fsapi/internal/common"
)

// ExitHandler provides a testable way to handle program termination
type ExitHandler interface {
	Exit(code int)
	Fail(err error)
}

// DefaultExitHandler prints the error to stderr and exits with the code
// mapped from the error kind.
type DefaultExitHandler struct {
	stderr io.Writer
	exit   func(int)
}

func NewDefaultExitHandler() *DefaultExitHandler {
	return &DefaultExitHandler{stderr: os.Stderr, exit: os.Exit}
}

func (h *DefaultExitHandler) Exit(code int) {
	h.exit(code)
}

func (h *DefaultExitHandler) Fail(err error) {
	common.GetLogger().WithComponent("sapi").Debug("command failed", "error", err)
	_, _ = fmt.Fprintf(h.stderr, "Error: %v\n", err)
	h.Exit(apperr.ExitCode(err))
}

// Global exit handler (can be replaced for testing)
var exitHandler ExitHandler = NewDefaultExitHandler()
