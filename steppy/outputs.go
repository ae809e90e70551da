package steppy

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrOutputMissing = errors.New("step output not available")
	ErrOutputType    = errors.New("step output has unexpected type")
)

// Outputs is an immutable snapshot of the values produced by the steps that
// have completed so far, keyed by step title.
type Outputs struct {
	values map[string]any
	order  []string
}

// with returns a new snapshot holding every entry of o plus title. o itself is
// left untouched so earlier snapshots stay valid.
func (o Outputs) with(title string, v any) Outputs {
	values := make(map[string]any, len(o.values)+1)
	for k, val := range o.values {
		values[k] = val
	}
	values[title] = v

	order := make([]string, len(o.order), len(o.order)+1)
	copy(order, o.order)
	order = append(order, title)

	return Outputs{values: values, order: order}
}

func (o Outputs) Has(title string) bool {
	_, ok := o.values[title]
	return ok
}

func (o Outputs) Len() int {
	return len(o.order)
}

// Titles returns the titles of stored outputs in the order they were produced.
func (o Outputs) Titles() []string {
	out := make([]string, len(o.order))
	copy(out, o.order)
	return out
}

// Value returns the untyped value stored under title.
func (o Outputs) Value(title string) (any, bool) {
	v, ok := o.values[title]
	return v, ok
}

// Map returns a copy of the outputs as a plain map.
func (o Outputs) Map() map[string]any {
	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		out[k] = v
	}
	return out
}

// Key names the output of a value-producing step and carries its type.
type Key[T any] struct {
	title string
}

func NewKey[T any](title string) Key[T] {
	return Key[T]{title: title}
}

func (k Key[T]) Title() string {
	return k.title
}

// Slot returns the schema entry for this key.
func (k Key[T]) Slot() Slot {
	return Slot{Title: k.title, kind: typeOf[T]()}
}

// From reads the value stored for k. It fails with ErrOutputMissing when the
// step has not produced a value in this snapshot, which is always the case for
// the reading step itself and any step declared after it.
func (k Key[T]) From(o Outputs) (T, error) {
	var zero T
	v, ok := o.values[k.title]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrOutputMissing, k.title)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q holds %T", ErrOutputType, k.title, v)
	}
	return t, nil
}

// Slot is one entry of a job's output schema: a step title and the kind of value
// it produces. A nil kind means the step produces nothing.
type Slot struct {
	Title string
	kind  reflect.Type
}

// Void declares a step that produces no output.
func Void(title string) Slot {
	return Slot{Title: title}
}

func (s Slot) IsVoid() bool {
	return s.kind == nil
}

func (s Slot) String() string {
	if s.IsVoid() {
		return fmt.Sprintf("%q: void", s.Title)
	}
	return fmt.Sprintf("%q: %s", s.Title, s.kind)
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
