// Package endpoint classifies the observed status of an inference endpoint.
package endpoint

import (
	"errors"
	"fmt"

	"github.com/example/mqmon/internal/core/poll"
)

// State is the observed status of an inference endpoint.
type State string

const (
	StateCreating             State = "Creating"
	StateUpdating             State = "Updating"
	StateSystemUpdating       State = "SystemUpdating"
	StateRollingBack          State = "RollingBack"
	StateInService            State = "InService"
	StateOutOfService         State = "OutOfService"
	StateDeleting             State = "Deleting"
	StateFailed               State = "Failed"
	StateUpdateRollbackFailed State = "UpdateRollbackFailed"
	StateNotFound             State = "NotFound"
)

// ErrNotReady is returned when an endpoint settles in a state other than InService.
var ErrNotReady = errors.New("endpoint is not in service")

// ReadyTerminal ends a readiness wait.
var ReadyTerminal = poll.NewSet(
	StateInService,
	StateOutOfService,
	StateFailed,
	StateUpdateRollbackFailed,
	StateNotFound,
)

// Parse converts a platform status string into a State. Unknown values are
// kept verbatim so that a wait keeps polling rather than failing.
func Parse(s string) State {
	return State(s)
}

// EvaluateReadiness returns nil when the endpoint is serving.
func EvaluateReadiness(name string, state State, failureReason string) error {
	if state == StateInService {
		return nil
	}
	if failureReason != "" {
		return fmt.Errorf("%w: %s is %s: %s", ErrNotReady, name, state, failureReason)
	}
	return fmt.Errorf("%w: %s is %s", ErrNotReady, name, state)
}
