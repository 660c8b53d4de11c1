// Package lifecycle is the appointment state machine. Explicit transitions
// are driven by actions; passive ones by the clock.
package lifecycle

import (
	"fmt"
	"time"

	"nannyhub/internal/types"
)

type Status string

const (
	Draft      Status = "draft"
	Pending    Status = "pending"
	Confirmed  Status = "confirmed"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
	Cancelled  Status = "cancelled"
)

type Action string

const (
	ActionAssign   Action = "assign"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionUnassign Action = "unassign"
	ActionCancel   Action = "cancel"
)

var statuses = []Status{Draft, Pending, Confirmed, InProgress, Completed, Cancelled}

var labels = map[Status]string{
	Draft:      "Draft",
	Pending:    "Pending confirmation",
	Confirmed:  "Confirmed",
	InProgress: "In progress",
	Completed:  "Completed",
	Cancelled:  "Cancelled",
}

func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func Valid(s Status) bool {
	_, ok := labels[s]
	return ok
}

func Label(s Status) string {
	if label, ok := labels[s]; ok {
		return label
	}
	return string(s)
}

func IsTerminal(s Status) bool {
	return s == Completed || s == Cancelled
}

// NonTerminal lists the statuses the clock or an action can still move.
func NonTerminal() []Status {
	return []Status{Draft, Pending, Confirmed, InProgress}
}

func rank(s Status) int {
	switch s {
	case Draft:
		return 0
	case Pending:
		return 1
	case Confirmed:
		return 2
	case InProgress:
		return 3
	case Completed:
		return 4
	default:
		return -1
	}
}

// Forward reports whether moving from one status to another keeps the
// Draft < Pending < Confirmed < InProgress < Completed order, or jumps to
// Cancelled from a non-terminal status.
func Forward(from, to Status) bool {
	if from == to {
		return true
	}
	if IsTerminal(from) {
		return false
	}
	if to == Cancelled {
		return true
	}
	return rank(to) > rank(from)
}

// Apply returns the status an action leads to. hasNanny reports whether the
// appointment currently has a nanny assigned.
func Apply(from Status, action Action, hasNanny bool) (Status, error) {
	if IsTerminal(from) {
		return from, invalid(from, action)
	}

	switch action {
	case ActionAssign:
		if hasNanny {
			return from, types.ErrAlreadyAssigned
		}
		if from == Draft {
			return Pending, nil
		}
	case ActionAccept:
		if from == Pending && hasNanny {
			return Confirmed, nil
		}
	case ActionReject:
		if from == Pending && hasNanny {
			return Draft, nil
		}
	case ActionUnassign:
		if (from == Pending || from == Confirmed) && hasNanny {
			return Draft, nil
		}
	case ActionCancel:
		return Cancelled, nil
	}

	return from, invalid(from, action)
}

// Passive applies the time-based rules for the interval [start, end) at now.
// Pending appointments never start on their own.
func Passive(s Status, start, end, now time.Time) Status {
	switch s {
	case Confirmed:
		if !now.Before(end) {
			return Completed
		}
		if !now.Before(start) {
			return InProgress
		}
	case InProgress:
		if !now.Before(end) {
			return Completed
		}
	}
	return s
}

func invalid(from Status, action Action) error {
	return fmt.Errorf("%w: cannot %s a %s appointment", types.ErrInvalidTransition, action, from)
}
