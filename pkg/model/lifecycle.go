package model

import (
	"fmt"
	"time"
)

// transitions lists the legal successors of every non-terminal status.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusRejected},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
	StatusRejected:  {},
}

type InvalidTransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// CanTransition reports whether to is a legal successor of from, ignoring
// preconditions. Staying in the same status is always legal.
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid()
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Successors returns the statuses reachable from s in one step.
func Successors(s Status) []Status {
	return append([]Status(nil), transitions[s]...)
}

// Transition moves the reservation to the requested status. today is the
// calendar day the decision is made on; completion requires the stay's end
// date to have been reached, the check-out day included. On error the
// reservation is left untouched.
func (r *Reservation) Transition(to Status, today Date, now time.Time) error {
	if !to.Valid() {
		return &InvalidTransitionError{From: r.status, To: to, Reason: "unknown status"}
	}
	if r.status == to {
		return nil
	}
	if !CanTransition(r.status, to) {
		return &InvalidTransitionError{From: r.status, To: to}
	}
	if to == StatusCompleted && today.Before(r.EndDate) {
		return &InvalidTransitionError{From: r.status, To: to, Reason: fmt.Sprintf("stay ends on %s", r.EndDate)}
	}
	r.status = to
	r.UpdatedAt = now
	return nil
}

// ReactivatesInterval reports whether moving from -> to makes the interval occupy calendar space again.
func ReactivatesInterval(from, to Status) bool {
	return !from.IsActive() && to.IsActive()
}
