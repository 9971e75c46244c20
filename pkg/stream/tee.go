package stream

import (
	"errors"
	"fmt"
)

// ErrBranchesExhausted is reported by a branch requested after every branch
// of a Tee has already been handed out.
var ErrBranchesExhausted = errors.New("all split branches are already in use")

var errUnopened = errors.New("split output must be read through stream.Open")

// Tee replicates one upstream step into a fixed number of independent
// branches. Every upstream record is pulled exactly once and buffered until
// all branches have consumed it.
type Tee struct {
	src       Step
	buf       []Record
	base      int
	positions []int
	issued    int
	done      bool
	err       error
}

// NewTee creates a Tee with n branches over src.
func NewTee(src Step, n int) *Tee {
	if n < 0 {
		n = 0
	}
	return &Tee{src: Open(src), positions: make([]int, n)}
}

// Branches returns the number of branches the Tee was created with.
func (t *Tee) Branches() int {
	return len(t.positions)
}

// Branch hands out the next unused branch.
func (t *Tee) Branch() Step {
	if t.issued >= len(t.positions) {
		return Fail(fmt.Errorf("%w (%d branches)", ErrBranchesExhausted, len(t.positions)))
	}
	idx := t.issued
	t.issued++
	return FromFunc(func() (Record, bool, error) {
		return t.pull(idx)
	})
}

// Next implements Step; a Tee is only readable through its branches.
func (t *Tee) Next() bool { return false }

// Record implements Step.
func (t *Tee) Record() Record { return nil }

// Err implements Step.
func (t *Tee) Err() error { return errUnopened }

func (t *Tee) pull(idx int) (Record, bool, error) {
	pos := t.positions[idx]
	offset := pos - t.base

	if offset >= len(t.buf) {
		if t.done {
			return nil, false, t.err
		}
		if !t.src.Next() {
			t.done = true
			t.err = t.src.Err()
			return nil, false, t.err
		}
		t.buf = append(t.buf, t.src.Record())
	}

	rec := t.buf[offset]
	t.positions[idx] = pos + 1
	t.compact()
	return rec, true, nil
}

// compact drops records that every branch has already read.
func (t *Tee) compact() {
	lowest := t.positions[0]
	for _, p := range t.positions[1:] {
		if p < lowest {
			lowest = p
		}
	}
	if drop := lowest - t.base; drop > 0 {
		t.buf = append(t.buf[:0:0], t.buf[drop:]...)
		t.base = lowest
	}
}
