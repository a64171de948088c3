package printing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpoolerUnavailable means the spooler commands could not be run at
	// all. It is distinct from an empty printer list.
	ErrSpoolerUnavailable = errors.New("print spooler not available")

	// ErrPrinterNotFound means the requested printer is not among the
	// discovered ones.
	ErrPrinterNotFound = errors.New("printer not found")

	// ErrInvalidJob means the job itself is malformed.
	ErrInvalidJob = errors.New("invalid print job")
)

// CommandError is a spooler command that ran and failed. Stderr holds the
// diagnostic text the spooler printed.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s failed: %s", e.Command, msg)
}

func (e *CommandError) Unwrap() error { return e.Err }
