package audit

import (
	"context"
	"errors"
	"time"
)

// Outcomes recorded for relay actions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event is one audited relay action.
type Event struct {
	At        time.Time `json:"at"`
	RequestID string    `json:"requestId,omitempty"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, Event) error { return nil }

type multi []Recorder

// Multi fans an event out to every recorder and joins their errors.
func Multi(recorders ...Recorder) Recorder {
	switch len(recorders) {
	case 0:
		return Nop{}
	case 1:
		return recorders[0]
	}
	return multi(recorders)
}

func (m multi) Record(ctx context.Context, e Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
