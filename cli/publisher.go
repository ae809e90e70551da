package cli

import (
	"fmt"
	"io"

	"github.com/santiagomed/mindful/logger"
	"github.com/santiagomed/mindful/steppy"
)

// CliStepPublisher prints step progress to the terminal and mirrors every event
// to the log file.
type CliStepPublisher struct {
	*steppy.DefaultFormatter
	logger logger.Logger
}

func NewCliStepPublisher(w io.Writer, l logger.Logger) *CliStepPublisher {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &CliStepPublisher{
		DefaultFormatter: steppy.NewDefaultFormatter(w),
		logger:           l,
	}
}

func (p *CliStepPublisher) OnJobStart(job string) {
	p.logger.Debug(fmt.Sprintf("Job started: %s", job))
	p.DefaultFormatter.OnJobStart(job)
}

func (p *CliStepPublisher) OnStepStart(step steppy.StepDescriptor) {
	p.logger.Debug(fmt.Sprintf("Step started: %s", step.Title))
	p.DefaultFormatter.OnStepStart(step)
}

func (p *CliStepPublisher) OnStepEnd(step steppy.StepDescriptor, report steppy.StepReport) {
	p.logger.Debug(fmt.Sprintf("Step %s: %s in %s", report.Status, step.Title, report.Duration))
	p.DefaultFormatter.OnStepEnd(step, report)
}

func (p *CliStepPublisher) OnJobError(step steppy.StepDescriptor, err error) {
	if step.Title == "" {
		p.logger.Error(fmt.Sprintf("Job stopped: %v", err))
	} else {
		p.logger.Error(fmt.Sprintf("Error in step %s: %v", step.Title, err))
	}
	p.DefaultFormatter.OnJobError(step, err)
}

func (p *CliStepPublisher) OnJobEnd(job string, state steppy.JobState) {
	p.logger.Debug(fmt.Sprintf("Job %s: %s", job, state))
	p.DefaultFormatter.OnJobEnd(job, state)
}

// Pause ends the running step's line and calls fn, which may use the terminal.
func (p *CliStepPublisher) Pause(fn func()) {
	p.Interrupt()
	fn()
}

var _ steppy.Formatter = (*CliStepPublisher)(nil)
