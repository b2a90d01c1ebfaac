package agents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// StepStatus is the outcome of one pipeline step or cleanup action.
type StepStatus string

const (
	StepOK       StepStatus = "ok"
	StepSkipped  StepStatus = "skipped"
	StepNotFound StepStatus = "not_found"
	StepFailed   StepStatus = "failed"
)

// Step is one named upstream call in a provisioning pipeline.
// Compensate, when set, undoes a successful Run if a later fail-fast step fails.
type Step struct {
	Name       string
	Skip       bool
	FailOpen   bool
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Error  string     `json:"error,omitempty"`
}

// StepReport lists what a pipeline did, in order, followed by any compensations.
type StepReport struct {
	Steps         []StepResult `json:"steps"`
	Compensations []StepResult `json:"compensations,omitempty"`
}

// Warnings returns fail-open steps that did not succeed.
func (r StepReport) Warnings() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			out = append(out, s)
		}
	}
	return out
}

// StepError wraps the error of the fail-fast step that aborted a pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// Pipeline runs steps in order, each under its own timeout.
type Pipeline struct {
	steps   []Step
	timeout time.Duration
	log     *slog.Logger
}

func NewPipeline(timeout time.Duration, log *slog.Logger, steps ...Step) *Pipeline {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{steps: steps, timeout: timeout, log: log}
}

// Run executes the pipeline. A failing fail-fast step stops it and triggers the
// compensations of completed steps in reverse order; the step error is returned.
func (p *Pipeline) Run(ctx context.Context) (StepReport, error) {
	var report StepReport
	var done []Step

	for _, st := range p.steps {
		if st.Skip || st.Run == nil {
			report.Steps = append(report.Steps, StepResult{Name: st.Name, Status: StepSkipped})
			continue
		}

		err := p.runOne(ctx, st.Run)
		if err == nil {
			report.Steps = append(report.Steps, StepResult{Name: st.Name, Status: StepOK})
			done = append(done, st)
			continue
		}

		report.Steps = append(report.Steps, StepResult{Name: st.Name, Status: StepFailed, Error: err.Error()})
		if st.FailOpen {
			p.log.Warn("pipeline step failed, continuing", "step", st.Name, "err", err)
			continue
		}

		p.log.Error("pipeline step failed, compensating", "step", st.Name, "err", err)
		report.Compensations = p.compensate(context.WithoutCancel(ctx), done)
		return report, &StepError{Step: st.Name, Err: err}
	}
	return report, nil
}

func (p *Pipeline) compensate(ctx context.Context, done []Step) []StepResult {
	var out []StepResult
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.Compensate == nil {
			continue
		}
		name := "undo_" + st.Name
		if err := p.runOne(ctx, st.Compensate); err != nil {
			p.log.Warn("compensation failed", "step", name, "err", err)
			out = append(out, StepResult{Name: name, Status: StepFailed, Error: err.Error()})
			continue
		}
		out = append(out, StepResult{Name: name, Status: StepOK})
	}
	return out
}

func (p *Pipeline) runOne(ctx context.Context, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	err := fn(stepCtx)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w (step timed out after %s)", err, p.timeout)
	}
	return err
}
