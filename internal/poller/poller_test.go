package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/snapit/avatar-orderflow/internal/lightx"
)

// scriptedCheck returns the scripted statuses in order, failing the test if
// called past the end of the script.
type scriptedCheck struct {
	t      *testing.T
	script []func() (lightx.JobStatus, error)
	calls  int
}

func (s *scriptedCheck) check(ctx context.Context, jobID string) (lightx.JobStatus, error) {
	if s.calls >= len(s.script) {
		s.t.Fatalf("unexpected status call #%d", s.calls+1)
	}
	step := s.script[s.calls]
	s.calls++
	return step()
}

func pending() (lightx.JobStatus, error) {
	return lightx.JobStatus{Status: lightx.JobPending}, nil
}

func activeWith(output string) func() (lightx.JobStatus, error) {
	return func() (lightx.JobStatus, error) {
		return lightx.JobStatus{Status: lightx.JobActive, Output: output}, nil
	}
}

func failed() (lightx.JobStatus, error) {
	return lightx.JobStatus{Status: lightx.JobFailed}, nil
}

func callError() (lightx.JobStatus, error) {
	return lightx.JobStatus{}, errors.New("connection reset")
}

func newTestPoller(check StatusFunc, maxAttempts int) (*Poller, *int) {
	p := New(check, maxAttempts, 3*time.Second, zap.NewNop())
	sleeps := 0
	p.sleep = func(time.Duration) { sleeps++ }
	return p, &sleeps
}

func TestPoll_SuccessStopsImmediately(t *testing.T) {
	sc := &scriptedCheck{t: t, script: []func() (lightx.JobStatus, error){
		pending, pending, activeWith("https://out/img.jpg"),
	}}
	p, _ := newTestPoller(sc.check, 5)

	res := p.Poll(context.Background(), "job-1")
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %s", res.Outcome)
	}
	if res.OutputURL != "https://out/img.jpg" {
		t.Fatalf("unexpected output url %q", res.OutputURL)
	}
	if res.Attempts != 3 || sc.calls != 3 {
		t.Fatalf("expected exactly 3 calls, got attempts=%d calls=%d", res.Attempts, sc.calls)
	}
}

func TestPoll_AllPendingTimesOut(t *testing.T) {
	script := make([]func() (lightx.JobStatus, error), 5)
	for i := range script {
		script[i] = pending
	}
	sc := &scriptedCheck{t: t, script: script}
	p, sleeps := newTestPoller(sc.check, 5)

	res := p.Poll(context.Background(), "job-2")
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("expected timeout, got %s", res.Outcome)
	}
	if sc.calls != 5 {
		t.Fatalf("expected 5 calls, got %d", sc.calls)
	}
	// no sleep after the final attempt
	if *sleeps != 4 {
		t.Fatalf("expected 4 sleeps, got %d", *sleeps)
	}
}

func TestPoll_ActiveWithoutOutputIsTerminal(t *testing.T) {
	sc := &scriptedCheck{t: t, script: []func() (lightx.JobStatus, error){
		activeWith(""),
	}}
	p, _ := newTestPoller(sc.check, 5)

	res := p.Poll(context.Background(), "job-3")
	if res.Outcome != OutcomeNoOutput {
		t.Fatalf("expected no_output, got %s", res.Outcome)
	}
	if res.Attempts != 1 || sc.calls != 1 {
		t.Fatalf("expected a single call, got %d", sc.calls)
	}
}

func TestPoll_RemoteFailureStopsImmediately(t *testing.T) {
	sc := &scriptedCheck{t: t, script: []func() (lightx.JobStatus, error){
		pending, failed,
	}}
	p, _ := newTestPoller(sc.check, 5)

	res := p.Poll(context.Background(), "job-4")
	if res.Outcome != OutcomeRemoteFailure {
		t.Fatalf("expected remote_failure, got %s", res.Outcome)
	}
	if sc.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", sc.calls)
	}
}

func TestPoll_CallErrorsConsumeAttemptsAndRecover(t *testing.T) {
	sc := &scriptedCheck{t: t, script: []func() (lightx.JobStatus, error){
		callError, callError, activeWith("https://out/ok.jpg"),
	}}
	p, _ := newTestPoller(sc.check, 5)

	res := p.Poll(context.Background(), "job-5")
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success after transient errors, got %s", res.Outcome)
	}
	if res.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", res.Attempts)
	}
}

func TestPoll_EveryCallFailingStillReportsTimeout(t *testing.T) {
	script := make([]func() (lightx.JobStatus, error), 4)
	for i := range script {
		script[i] = callError
	}
	sc := &scriptedCheck{t: t, script: script}
	p, _ := newTestPoller(sc.check, 4)

	res := p.Poll(context.Background(), "job-6")
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("expected timeout (not the call error), got %s", res.Outcome)
	}
	if sc.calls != 4 {
		t.Fatalf("expected the loop to run to completion, got %d calls", sc.calls)
	}
}
