// Package mock provides test doubles for the accrue interfaces.
package mock

import (
	"io"

	"github.com/fwojciec/accrue"
)

// Interface compliance check.
var _ accrue.Stream = (*Stream)(nil)

// Stream is a test double for accrue.Stream.
// Set the function fields for the methods you need. NextFn panics when nil
// to catch missing setup. CloseFn and StateFn are nil-safe (no-op and zero
// value) because test code commonly calls defer stream.Close() and these
// methods rarely need custom behavior.
type Stream struct {
	NextFn  func() (accrue.Event, error)
	StateFn func() accrue.StreamState
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (accrue.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() accrue.StreamState {
	if s.StateFn == nil {
		return accrue.StreamStateNew
	}
	return s.StateFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Step is one pull result of a replayed stream. Exactly one of Event and
// Err should be set.
type Step struct {
	Event accrue.Event
	Err   error
}

// Replay is a Stream that returns a fixed sequence of steps, then io.EOF.
// It tracks its state like a real stream: a returned EventMessageStop moves
// it to complete, and Close before that moves it to closed.
type Replay struct {
	Steps  []Step
	Closed bool // set by Close

	pos   int
	state accrue.StreamState
}

// Interface compliance check.
var _ accrue.Stream = (*Replay)(nil)

// Events returns a Replay yielding evts in order.
func Events(evts ...accrue.Event) *Replay {
	r := &Replay{}
	for _, e := range evts {
		r.Steps = append(r.Steps, Step{Event: e})
	}
	return r
}

// Steps returns a Replay yielding steps in order.
func Steps(steps ...Step) *Replay {
	return &Replay{Steps: steps}
}

// Next returns the next step, or io.EOF once all steps are consumed.
func (r *Replay) Next() (accrue.Event, error) {
	if r.state == accrue.StreamStateClosed {
		return nil, accrue.ErrStreamClosed
	}
	if r.pos >= len(r.Steps) {
		return nil, io.EOF
	}
	step := r.Steps[r.pos]
	r.pos++
	if step.Err != nil {
		return nil, step.Err
	}
	r.state = accrue.StreamStateStreaming
	if _, ok := step.Event.(accrue.EventMessageStop); ok {
		r.state = accrue.StreamStateComplete
	}
	return step.Event, nil
}

// State returns the replay's current state.
func (r *Replay) State() accrue.StreamState {
	return r.state
}

// Close marks the replay closed.
func (r *Replay) Close() error {
	r.Closed = true
	if r.state != accrue.StreamStateComplete {
		r.state = accrue.StreamStateClosed
	}
	return nil
}
