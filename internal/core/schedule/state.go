// Package schedule contains the pure lifecycle logic for monitoring schedules.
// State transitions are driven by the remote platform; this package only
// classifies observed states and evaluates preconditions.
package schedule

import (
	"fmt"
	"time"

	"github.com/example/mqmon/internal/core/poll"
)

// State is the observed status of a monitoring schedule.
type State string

const (
	StatePending   State = "Pending"
	StateScheduled State = "Scheduled"
	StateFailed    State = "Failed"
	StateStopped   State = "Stopped"
	StateInService State = "InService"
	StateNotFound  State = "NotFound"
)

// AllStates lists every state the client can observe.
var AllStates = poll.NewSet(
	StatePending,
	StateScheduled,
	StateFailed,
	StateStopped,
	StateInService,
	StateNotFound,
)

// CreationTerminal ends a creation wait: anything but Pending.
var CreationTerminal = AllStates.Without(StatePending)

// PresentAfterDelete are the states a schedule may report while its
// deletion is still propagating.
var PresentAfterDelete = poll.NewSet(StatePending, StateFailed, StateScheduled, StateStopped)

// DeletionTerminal ends a deletion wait.
var DeletionTerminal = AllStates.Without(StatePending, StateFailed, StateScheduled, StateStopped)

// ParseState converts a platform status string into a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if !AllStates.Contains(st) {
		return "", fmt.Errorf("unknown schedule state %q", s)
	}
	return st, nil
}

// Name builds the schedule name used by setup: {prefix}-mq-sch-{YYYY-MM-DD-HHMM} in UTC.
func Name(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-mq-sch-%s", prefix, now.UTC().Format("2006-01-02-1504"))
}

// JobDefinitionName derives the model-quality job definition name from the schedule name.
func JobDefinitionName(scheduleName string) string {
	return scheduleName + "-def"
}

// HourlyCron is the recurrence used for model-quality schedules.
const HourlyCron = "cron(0 * ? * * *)"

// Problem types accepted by the model-quality monitor.
const (
	ProblemRegression     = "Regression"
	ProblemBinary         = "BinaryClassification"
	ProblemMulticlass     = "MulticlassClassification"
	DefaultProblemType    = ProblemRegression
	EndpointInferenceAttr = "0" // first column of the CSV response
)

// ValidProblemType reports whether p is a supported problem type.
func ValidProblemType(p string) bool {
	switch p {
	case ProblemRegression, ProblemBinary, ProblemMulticlass:
		return true
	}
	return false
}
