package steppy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/santiagomed/mindful/logger"
)

var ErrNoLedger = errors.New("steppy: run requires a ledger")

// StepError is returned by Run when a step fails. Its message is the message of
// the underlying error. Step is the zero descriptor when the context was done
// before the next step started.
type StepError struct {
	Job  string
	Step StepDescriptor
	Err  error
}

func (e *StepError) Error() string {
	return e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type runConfig struct {
	listener Listener
	logger   logger.Logger
}

type Option func(*runConfig)

// WithListener replaces the default formatter, which writes to stdout.
func WithListener(l Listener) Option {
	return func(c *runConfig) {
		c.listener = l
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes the steps of job in order with params and returns the outputs of
// every value-producing step keyed by title.
//
// The first failing step stops the job: later steps are not run and the
// returned error is a *StepError wrapping the step's error. The outputs
// collected before the failure are returned alongside it. Caveats recorded by
// steps go to ledger and are kept regardless of the outcome.
func Run[C any](ctx context.Context, job *Job[C], params C, ledger *Ledger, opts ...Option) (Outputs, error) {
	if ledger == nil {
		return Outputs{}, ErrNoLedger
	}

	cfg := runConfig{logger: logger.NewNullLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.listener == nil {
		cfg.listener = NewDefaultFormatter(os.Stdout)
	}

	log := cfg.logger.WithField("job", job.name)
	rc := &RunContext[C]{
		Params:  params,
		Caveats: ledger,
		Logger:  log,
	}

	var out Outputs
	log.Info("Starting job execution")
	cfg.listener.OnJobStart(job.name)

	for i, step := range job.steps {
		d := step.Descriptor()

		if err := ctx.Err(); err != nil {
			log.Info(fmt.Sprintf("Job execution cancelled before step %d: %s", i, step.Title))
			cfg.listener.OnJobError(StepDescriptor{}, err)
			cfg.listener.OnJobEnd(job.name, JobFailed)
			return out, &StepError{Job: job.name, Err: err}
		}

		log.Info(fmt.Sprintf("Executing step %d: %s", i, step.Title))
		cfg.listener.OnStepStart(d)

		startTime := time.Now()
		v, err := step.run(ctx, rc, out)
		duration := time.Since(startTime)

		if err != nil {
			log.WithField("error", err.Error()).Error(fmt.Sprintf("Step %s failed after %v", step.Title, duration))
			cfg.listener.OnStepEnd(d, StepReport{Status: StepFailed, Duration: duration, Err: err})
			cfg.listener.OnJobError(d, err)
			cfg.listener.OnJobEnd(job.name, JobFailed)
			return out, &StepError{Job: job.name, Step: d, Err: err}
		}

		if !step.slot.IsVoid() {
			out = out.with(step.Title, v)
		}

		log.Info(fmt.Sprintf("Step %s completed in %v", step.Title, duration))
		cfg.listener.OnStepEnd(d, StepReport{Status: StepSucceeded, Duration: duration})
	}

	log.Info("Job execution completed")
	cfg.listener.OnJobEnd(job.name, JobCompleted)
	return out, nil
}
