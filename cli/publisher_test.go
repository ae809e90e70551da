package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/santiagomed/mindful/logger"
	"github.com/santiagomed/mindful/steppy"
)

func TestCliStepPublisher_LogsEvents(t *testing.T) {
	var out, logs bytes.Buffer
	p := NewCliStepPublisher(&out, logger.New(&logs, zerolog.DebugLevel))
	step := steppy.StepDescriptor{Title: "creating ui project", Group: "vercel"}

	p.OnJobStart("setup-remote-env")
	p.OnStepStart(step)
	p.OnStepEnd(step, steppy.StepReport{Status: steppy.StepFailed, Duration: time.Second})
	p.OnJobError(step, errors.New("forbidden"))
	p.OnJobEnd("setup-remote-env", steppy.JobFailed)

	assert.Contains(t, out.String(), "creating ui project")
	assert.Contains(t, logs.String(), "Job started: setup-remote-env")
	assert.Contains(t, logs.String(), "Step failed: creating ui project in 1s")
	assert.Contains(t, logs.String(), "Error in step creating ui project: forbidden")
	assert.Contains(t, logs.String(), "Job setup-remote-env: failed")
}

func TestCliStepPublisher_LogsStoppedJob(t *testing.T) {
	var out, logs bytes.Buffer
	p := NewCliStepPublisher(&out, logger.New(&logs, zerolog.DebugLevel))

	p.OnJobError(steppy.StepDescriptor{}, errors.New("context canceled"))

	assert.Contains(t, logs.String(), "Job stopped: context canceled")
	assert.NotContains(t, logs.String(), "Error in step")
}

func TestCliStepPublisher_Pause(t *testing.T) {
	var out bytes.Buffer
	p := NewCliStepPublisher(&out, nil)

	called := false
	p.Pause(func() { called = true })

	assert.True(t, called)
	assert.Empty(t, out.String())
}
