package migration

import (
	"fmt"
	"io"
	"time"
)

// Reporter narrates migration progress to a user. All methods are optional
// no-ops for a nil Reporter on the Migrator.
type Reporter interface {
	Start(name string, direction Direction)
	Done(name string, direction Direction, elapsed time.Duration)
	Skip(name string, reason string)
	Fail(name string, direction Direction, err error)
}

// Direction tells which section of a migration ran.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// WriterReporter prints progress lines the way the sapi CLI shows them.
type WriterReporter struct {
	W io.Writer
}

// Start prints the line announcing an apply or a rollback of name.
func (r WriterReporter) Start(name string, direction Direction) {
	if direction == Down {
		_, _ = fmt.Fprintf(r.W, "Rolling back: %s\n", name)
		return
	}
	_, _ = fmt.Fprintf(r.W, "  Migrating: %s\n", name)
}

// Done prints the elapsed time of a finished migration in milliseconds.
func (r WriterReporter) Done(_ string, direction Direction, elapsed time.Duration) {
	if direction == Down {
		_, _ = fmt.Fprintf(r.W, "   Rolled back successfully in %dms\n", elapsed.Milliseconds())
		return
	}
	_, _ = fmt.Fprintf(r.W, "     Completed in %dms\n", elapsed.Milliseconds())
}

// Skip prints why name was not applied.
func (r WriterReporter) Skip(name string, reason string) {
	_, _ = fmt.Fprintf(r.W, "  Skipping %s (%s)\n", name, reason)
}

// Fail prints the error that stopped the run.
func (r WriterReporter) Fail(_ string, direction Direction, err error) {
	if direction == Down {
		_, _ = fmt.Fprintf(r.W, "   Rollback failed: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(r.W, "     Failed: %v\n", err)
}

type nopReporter struct{}

func (nopReporter) Start(string, Direction) {}
func (nopReporter) Done(string, Direction, time.Duration) {}
func (nopReporter) Skip(string, string) {}
func (nopReporter) Fail(string, Direction, error) {}
