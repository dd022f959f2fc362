package poller

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/lightx"
)

// Outcome tags the terminal result of a polling run.
type Outcome string

const (
	// OutcomeSuccess: the job went active and produced an output URL.
	OutcomeSuccess Outcome = "success"
	// OutcomeRemoteFailure: the remote side reported the job failed.
	OutcomeRemoteFailure Outcome = "remote_failure"
	// OutcomeNoOutput: the job reported active but carried no output URL.
	// Treated as terminal, not retryable.
	OutcomeNoOutput Outcome = "no_output"
	// OutcomeTimeout: the attempt budget ran out without a terminal state.
	OutcomeTimeout Outcome = "timeout"
)

// Result is the tagged outcome of a polling run. OutputURL is set only for
// OutcomeSuccess. Attempts counts status calls actually made.
type Result struct {
	Outcome   Outcome
	OutputURL string
	Attempts  int
}

// StatusFunc checks a job once. It matches lightx.Client.CheckStatus.
type StatusFunc func(ctx context.Context, jobID string) (lightx.JobStatus, error)

// Poller drives a status check to a terminal result under a bounded attempt
// budget. Individual call failures are tolerated; they consume an attempt and
// the loop moves on.
type Poller struct {
	check       StatusFunc
	maxAttempts int
	interval    time.Duration
	sleep       func(time.Duration)
	logger      *zap.Logger
}

// New returns a Poller over the given status check.
func New(check StatusFunc, maxAttempts int, interval time.Duration, logger *zap.Logger) *Poller {
	return &Poller{
		check:       check,
		maxAttempts: maxAttempts,
		interval:    interval,
		sleep:       time.Sleep,
		logger:      logger,
	}
}

// Poll loops up to the attempt budget. Active-with-output returns success
// immediately; failed returns immediately; active-without-output is terminal
// too (a malformed success is not worth re-asking for). Anything else sleeps
// the interval and tries again. Exhaustion reports timeout, even when every
// single call errored.
func (p *Poller) Poll(ctx context.Context, jobID string) Result {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := p.check(ctx, jobID)
		if err != nil {
			p.logger.Warn("status check failed",
				zap.String("job_id", jobID),
				zap.Int("attempt", attempt),
				zap.Error(err))
		} else {
			switch status.Status {
			case lightx.JobActive:
				if status.Output != "" {
					return Result{Outcome: OutcomeSuccess, OutputURL: status.Output, Attempts: attempt}
				}
				return Result{Outcome: OutcomeNoOutput, Attempts: attempt}
			case lightx.JobFailed:
				return Result{Outcome: OutcomeRemoteFailure, Attempts: attempt}
			}
		}

		if attempt < p.maxAttempts {
			p.sleep(p.interval)
		}
	}
	return Result{Outcome: OutcomeTimeout, Attempts: p.maxAttempts}
}
