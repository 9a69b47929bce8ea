package schedule

import (
	"errors"
	"fmt"
)

var (
	// ErrScheduleFailed is the cause of a Fatal outcome when the platform
	// reports the schedule as Failed or Stopped after creation.
	ErrScheduleFailed = errors.New("monitoring schedule failed")

	// ErrOperationInFlight is returned when a second lifecycle operation is
	// attempted on a schedule that already has one running in this process.
	ErrOperationInFlight = errors.New("operation already in flight")
)

// OutcomeKind distinguishes the three results of a lifecycle operation.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeNotFound
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not-found"
	case OutcomeFatal:
		return "fatal"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is the result of a schedule lifecycle operation.
type Outcome struct {
	Kind  OutcomeKind
	State State
	Cause error
}

// OK reports a successful operation ending in state.
func OK(state State) Outcome { return Outcome{Kind: OutcomeOK, State: state} }

// NotFound reports an absent schedule.
func NotFound() Outcome { return Outcome{Kind: OutcomeNotFound, State: StateNotFound} }

// Fatal reports an unrecoverable result.
func Fatal(state State, cause error) Outcome {
	return Outcome{Kind: OutcomeFatal, State: state, Cause: cause}
}

// Err returns the cause for Fatal outcomes and nil otherwise.
func (o Outcome) Err() error {
	if o.Kind == OutcomeFatal {
		return o.Cause
	}
	return nil
}

// EvaluateCreation classifies the terminal state of a creation wait.
// Failed is reported, never retried.
func EvaluateCreation(state State, failureReason string) Outcome {
	switch state {
	case StateScheduled, StateInService:
		return OK(state)
	case StateNotFound:
		return NotFound()
	case StateFailed, StateStopped:
		reason := failureReason
		if reason == "" {
			reason = "no failure reason reported"
		}
		return Fatal(state, fmt.Errorf("%w: state %s: %s", ErrScheduleFailed, state, reason))
	default:
		return Fatal(state, fmt.Errorf("unexpected state %s after creation", state))
	}
}

// EvaluateDeletion classifies the terminal state of a deletion wait.
// Any terminal state ends the deletion successfully; NotFound is the normal signal.
func EvaluateDeletion(state State) Outcome {
	return OK(state)
}
