package steppy

import (
	"errors"
	"fmt"
)

var ErrInvalidSchema = errors.New("invalid job schema")

// Job is an ordered list of steps sharing a parameter type C, checked against a
// declared output schema.
type Job[C any] struct {
	name   string
	schema []Slot
	steps  []Step[C]
}

// Define builds a job. The schema lists every step in execution order with the
// kind of output it produces; steps must match it one to one, so a step can only
// ever read outputs of steps declared before it.
func Define[C any](name string, schema []Slot, steps ...Step[C]) (*Job[C], error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: job %q has no steps", ErrInvalidSchema, name)
	}
	if len(schema) != len(steps) {
		return nil, fmt.Errorf("%w: job %q declares %d outputs but has %d steps", ErrInvalidSchema, name, len(schema), len(steps))
	}

	seen := make(map[string]bool, len(schema))
	for i, slot := range schema {
		if seen[slot.Title] {
			return nil, fmt.Errorf("%w: job %q declares %q twice", ErrInvalidSchema, name, slot.Title)
		}
		seen[slot.Title] = true

		step := steps[i]
		if step.run == nil {
			return nil, fmt.Errorf("%w: step %q in job %q has no body", ErrInvalidSchema, step.Title, name)
		}
		if step.Title != slot.Title {
			return nil, fmt.Errorf("%w: job %q expects step %q at position %d, got %q", ErrInvalidSchema, name, slot.Title, i, step.Title)
		}
		if step.slot.kind != slot.kind {
			return nil, fmt.Errorf("%w: job %q declares %s but step produces %s", ErrInvalidSchema, name, slot, step.slot)
		}
	}

	s := make([]Slot, len(schema))
	copy(s, schema)
	st := make([]Step[C], len(steps))
	copy(st, steps)

	return &Job[C]{name: name, schema: s, steps: st}, nil
}

// MustDefine is like Define but panics on an invalid schema. It is meant for
// package-level job declarations.
func MustDefine[C any](name string, schema []Slot, steps ...Step[C]) *Job[C] {
	j, err := Define(name, schema, steps...)
	if err != nil {
		panic(err)
	}
	return j
}

func (j *Job[C]) Name() string {
	return j.name
}

func (j *Job[C]) Len() int {
	return len(j.steps)
}

// Steps describes the job's steps in execution order.
func (j *Job[C]) Steps() []StepDescriptor {
	out := make([]StepDescriptor, len(j.steps))
	for i, s := range j.steps {
		out[i] = s.Descriptor()
	}
	return out
}

func (j *Job[C]) Schema() []Slot {
	out := make([]Slot, len(j.schema))
	copy(out, j.schema)
	return out
}
