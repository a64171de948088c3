// Package printing discovers printers and submits rasterized layouts to the
// system print spooler.
package printing

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
)

// PrinterState is the coarse state reported by the spooler.
type PrinterState int

const (
	StateUnknown PrinterState = iota
	StateIdle
	StateProcessing
	StateStopped
)

func (s PrinterState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateProcessing:
		return "Processing"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Printer describes one spooler destination.
type Printer struct {
	Name        string
	Description string
	IsDefault   bool
	State       PrinterState
}

// Option is one -o name=value spooler option.
type Option struct {
	Name  string
	Value string
}

func (o Option) String() string {
	if o.Value == "" {
		return o.Name
	}
	return o.Name + "=" + o.Value
}

// Request is a file-level submission.
type Request struct {
	Printer string
	Copies  int
	Options []Option
	File    string
}

// Spooler is the system print service.
type Spooler interface {
	// Discover lists printers. Zero printers is a valid result;
	// ErrSpoolerUnavailable means the service itself is missing.
	Discover(ctx context.Context) ([]Printer, error)
	// Submit queues a file and returns the spooler's job id.
	Submit(ctx context.Context, req Request) (string, error)
}

// Runner runs an external command and captures its output. A command that
// ran and failed returns an error with an ExitCode method (*exec.ExitError
// has one); any other error means the command could not start.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec in the C locale so their output
// is parseable.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C", "LANG=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CUPS talks to a CUPS spooler through lpstat and lp.
type CUPS struct {
	Runner Runner
}

// NewCUPS returns a CUPS spooler using the real commands.
func NewCUPS() *CUPS {
	return &CUPS{Runner: ExecRunner{}}
}

func (c *CUPS) runner() Runner {
	if c.Runner == nil {
		return ExecRunner{}
	}
	return c.Runner
}

// startFailed reports whether err means the command never ran.
func startFailed(err error) bool {
	var exited interface{ ExitCode() int }
	return err != nil && !errors.As(err, &exited)
}

// Discover implements Spooler.
func (c *CUPS) Discover(ctx context.Context) ([]Printer, error) {
	slog.Debug("discovering printers via lpstat")
	if _, _, err := c.runner().Run(ctx, "lpstat", "-v"); startFailed(err) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Error("lpstat not available", "error", err)
		return nil, errors.Join(ErrSpoolerUnavailable, err)
	}

	stdout, stderr, err := c.runner().Run(ctx, "lpstat", "-p", "-d")
	if startFailed(err) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Join(ErrSpoolerUnavailable, err)
	}
	if err != nil {
		// lpstat exits non-zero when no destinations exist.
		slog.Warn("lpstat failed, assuming no printers", "stderr", string(bytes.TrimSpace(stderr)))
		return nil, nil
	}

	printers := parseStatus(string(stdout))
	slog.Info("found printers", "count", len(printers))
	return printers, nil
}

// Submit implements Spooler.
func (c *CUPS) Submit(ctx context.Context, req Request) (string, error) {
	args := []string{"-d", req.Printer, "-n", strconv.Itoa(req.Copies)}
	for _, o := range req.Options {
		args = append(args, "-o", o.String())
	}
	args = append(args, req.File)
	slog.Debug("running lp", "args", args)

	stdout, stderr, err := c.runner().Run(ctx, "lp", args...)
	if startFailed(err) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errors.Join(ErrSpoolerUnavailable, err)
	}
	if err != nil {
		slog.Error("print command failed", "stderr", string(bytes.TrimSpace(stderr)))
		return "", &CommandError{Command: "lp", Stderr: string(stderr), Err: err}
	}

	id, ok := parseJobID(string(stdout))
	if !ok {
		slog.Warn("no request id in lp output", "stdout", string(bytes.TrimSpace(stdout)))
		return "unknown", nil
	}
	return id, nil
}
