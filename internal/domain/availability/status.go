package availability

import "fmt"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed, StatusCompleted}

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusNoShow, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseStatus validates a stored or requested status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusNoShow, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown appointment status %q", s)
}

// Active reports whether an appointment in this status blocks its slot.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return len(transitions[s]) == 0 }

func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns the new status, or ErrInvalidStatusTransition when the
// move is not allowed.
func (s Status) Transition(to Status) (Status, error) {
	if !s.CanTransition(to) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, to)
	}
	return to, nil
}

func ActiveStatusStrings() []string {
	out := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		out[i] = string(s)
	}
	return out
}
