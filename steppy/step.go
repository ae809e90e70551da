package steppy

import (
	"context"

	"github.com/santiagomed/mindful/logger"
)

// RunContext is shared by every step of one job run. Params are the job-level
// parameters and do not change during a run.
type RunContext[C any] struct {
	Params  C
	Caveats Caveats
	Logger  logger.Logger
}

// StepFunc produces a value for a step. out holds only the outputs of steps
// that completed before this one.
type StepFunc[C, T any] func(ctx context.Context, rc *RunContext[C], out Outputs) (T, error)

// EffectFunc is the body of a step that produces no output.
type EffectFunc[C any] func(ctx context.Context, rc *RunContext[C], out Outputs) error

// Step is a named unit of work within a job. Build one with Produce or Effect.
type Step[C any] struct {
	Title string
	// Group tags the external system a step talks to. It only affects display.
	Group string

	slot Slot
	run  func(ctx context.Context, rc *RunContext[C], out Outputs) (any, error)
}

// Produce declares a step whose result is stored under key's title.
func Produce[C, T any](group string, key Key[T], fn StepFunc[C, T]) Step[C] {
	return Step[C]{
		Title: key.title,
		Group: group,
		slot:  key.Slot(),
		run: func(ctx context.Context, rc *RunContext[C], out Outputs) (any, error) {
			v, err := fn(ctx, rc, out)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// Effect declares a step that produces no output.
func Effect[C any](group, title string, fn EffectFunc[C]) Step[C] {
	return Step[C]{
		Title: title,
		Group: group,
		slot:  Void(title),
		run: func(ctx context.Context, rc *RunContext[C], out Outputs) (any, error) {
			return nil, fn(ctx, rc, out)
		},
	}
}

func (s Step[C]) Descriptor() StepDescriptor {
	return StepDescriptor{Title: s.Title, Group: s.Group}
}

// Ensure runs the find-or-create pattern used by provisioning steps. When find
// reports an existing resource the caveat is recorded and the resource is
// returned as is; otherwise create is called.
func Ensure[T any](
	ctx context.Context,
	caveats Caveats,
	caveat Caveat,
	find func(ctx context.Context) (T, bool, error),
	create func(ctx context.Context) (T, error),
) (T, error) {
	existing, found, err := find(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if found {
		caveats.Add(caveat)
		return existing, nil
	}
	return create(ctx)
}
