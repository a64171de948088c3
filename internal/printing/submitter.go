package printing

import (
	"context"
	"log/slog"
)

// Outcome is the single terminal result of an asynchronous submission.
type Outcome struct {
	Receipt *Receipt
	Err     error
}

// Submitter runs print jobs off the caller's goroutine.
type Submitter struct {
	Spooler Spooler
}

// NewSubmitter returns a Submitter for sp.
func NewSubmitter(sp Spooler) *Submitter {
	return &Submitter{Spooler: sp}
}

// Submit starts job in the background and returns a channel that receives
// exactly one Outcome and is then closed. The layout is snapshotted before
// Submit returns, so later edits by the caller do not affect the job.
func (s *Submitter) Submit(ctx context.Context, job Job) <-chan Outcome {
	if job.Layout != nil {
		job.Layout = job.Layout.Clone()
	}
	job.Options = append([]Option(nil), job.Options...)

	ch := make(chan Outcome, 1)
	go func() {
		defer close(ch)
		receipt, err := Print(ctx, s.Spooler, job)
		if err != nil {
			slog.Error("print failed", "printer", job.PrinterName, "error", err)
		}
		ch <- Outcome{Receipt: receipt, Err: err}
	}()
	return ch
}
