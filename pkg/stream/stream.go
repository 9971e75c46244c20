// Package stream provides the lazy, pull-driven record sequences that every
// pipeline operator consumes and produces.
package stream

import (
	"errors"
	"iter"
)

// Record is a single item flowing through a pipeline.
type Record map[string]any

// Step is a lazily evaluated sequence of records. Each call to Next may pull
// records from upstream steps; nothing is computed until a consumer asks.
type Step interface {
	// Next advances to the next record.
	// Returns false when the sequence is exhausted or has failed.
	Next() bool

	// Record returns the current record.
	// Only valid after Next() returns true.
	Record() Record

	// Err returns the error that terminated the sequence, if any.
	Err() error
}

// Func adapts a pull function into a Step. The function returns ok=false
// once the sequence is exhausted, or a non-nil error to fail it.
type Func func() (rec Record, ok bool, err error)

type funcStep struct {
	pull    Func
	current Record
	err     error
	done    bool
}

// FromFunc wraps pull in a Step.
func FromFunc(pull Func) Step {
	return &funcStep{pull: pull}
}

func (s *funcStep) Next() bool {
	if s.done {
		return false
	}
	rec, ok, err := s.pull()
	if err != nil {
		s.err = err
		s.done = true
		s.current = nil
		return false
	}
	if !ok {
		s.done = true
		s.current = nil
		return false
	}
	s.current = rec
	return true
}

func (s *funcStep) Record() Record { return s.current }

func (s *funcStep) Err() error { return s.err }

type root struct{}

func (root) Next() bool { return true }

func (root) Record() Record { return Record{} }

func (root) Err() error { return nil }

// Forever returns the synthetic root source: an infinite sequence of empty
// records, used as the default input of modules with no upstream wire.
func Forever() Step {
	return root{}
}

// IsRoot reports whether s is the synthetic root returned by Forever. Empty
// records from any other step are ordinary records.
func IsRoot(s Step) bool {
	_, ok := s.(root)
	return ok
}

// FromSlice returns a finite step over records.
func FromSlice(records []Record) Step {
	i := 0
	return FromFunc(func() (Record, bool, error) {
		if i >= len(records) {
			return nil, false, nil
		}
		rec := records[i]
		i++
		return rec, true, nil
	})
}

// Empty returns a step that is immediately exhausted.
func Empty() Step {
	return FromSlice(nil)
}

// Fail returns a step whose first pull reports err.
func Fail(err error) Step {
	if err == nil {
		err = errors.New("stream failed")
	}
	return FromFunc(func() (Record, bool, error) {
		return nil, false, err
	})
}

// Brancher is implemented by steps that hand an independent copy of
// themselves to each consumer, such as the output of a split.
type Brancher interface {
	Branch() Step
}

// Open returns the step a consumer should read from. Operators call it on
// every input they are given so that shared upstreams are not drained twice.
func Open(s Step) Step {
	if s == nil {
		return Empty()
	}
	if b, ok := s.(Brancher); ok {
		return b.Branch()
	}
	return s
}

// All exposes s as a range-over-func sequence. Iteration stops after the
// first error, which is yielded with a nil record.
func All(s Step) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		s = Open(s)
		for s.Next() {
			if !yield(s.Record(), nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Collect drains s. It stops at limit records when limit is positive, which
// is the only safe way to consume an infinite step.
func Collect(s Step, limit int) ([]Record, error) {
	var out []Record
	for rec, err := range All(s) {
		if err != nil {
			return out, err
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Defer postpones building a step until its first pull, so configuration
// that depends on wired inputs is resolved lazily and construction errors
// reach the consumer.
func Defer(build func() (Step, error)) Step {
	var inner Step
	return FromFunc(func() (Record, bool, error) {
		if inner == nil {
			s, err := build()
			if err != nil {
				return nil, false, err
			}
			inner = Open(s)
		}
		if !inner.Next() {
			return nil, false, inner.Err()
		}
		return inner.Record(), true, nil
	})
}
