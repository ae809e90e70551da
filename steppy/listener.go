package steppy

import "time"

// StepDescriptor identifies a step in progress events.
type StepDescriptor struct {
	Title string
	Group string
}

type StepStatus int

const (
	StepRunning StepStatus = iota
	StepSucceeded
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepRunning:
		return "running"
	case StepSucceeded:
		return "succeeded"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobState is the state of one job run: NotStarted -> Running -> Completed, or
// Running -> Failed. Failed is terminal.
type JobState int

const (
	JobNotStarted JobState = iota
	JobRunning
	JobCompleted
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobNotStarted:
		return "not started"
	case JobRunning:
		return "running"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepReport is delivered when a step settles.
type StepReport struct {
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// Listener receives progress events. Run calls it synchronously from the
// goroutine executing the job, before and after each step.
type Listener interface {
	OnJobStart(job string)
	OnStepStart(step StepDescriptor)
	OnStepEnd(step StepDescriptor, report StepReport)
	OnJobError(step StepDescriptor, err error)
	OnJobEnd(job string, state JobState)
}
