// Package baseline describes the model-quality baselining job that produces
// the constraints a monitoring schedule evaluates against.
package baseline

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/mqmon/internal/core/poll"
)

// State is the processing-job status reported by the platform.
type State string

const (
	StateInProgress State = "InProgress"
	StateCompleted  State = "Completed"
	StateFailed     State = "Failed"
	StateStopping   State = "Stopping"
	StateStopped    State = "Stopped"
	StateNotFound   State = "NotFound"
)

// Terminal holds the states a baselining wait stops on.
var Terminal = poll.NewSet(StateCompleted, StateFailed, StateStopped, StateNotFound)

// ErrBaselineFailed is returned when the job does not complete.
var ErrBaselineFailed = errors.New("baselining job did not complete")

// Output file names written by the model monitor container.
const (
	ConstraintsFile = "constraints.json"
	StatisticsFile  = "statistics.json"
	DatasetFile     = "baseline.csv"
)

// DefaultMaxRuntime bounds a single baselining run.
const DefaultMaxRuntime = 30 * time.Minute

// Dataset column names in the header of baseline.csv.
const (
	InferenceAttribute   = "prediction"
	GroundTruthAttribute = "label"
)

// JobName returns {prefix}-mq-baseline-{YYYY-MM-DD-HHMMSS} in UTC.
func JobName(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-mq-baseline-%s", prefix, now.UTC().Format("2006-01-02-150405"))
}

// Evaluate turns a terminal state into an error unless the job completed.
func Evaluate(name string, state State, failureReason string) error {
	switch state {
	case StateCompleted:
		return nil
	case StateNotFound:
		return fmt.Errorf("%w: %s disappeared", ErrBaselineFailed, name)
	}
	if failureReason != "" {
		return fmt.Errorf("%w: %s is %s: %s", ErrBaselineFailed, name, state, failureReason)
	}
	return fmt.Errorf("%w: %s is %s", ErrBaselineFailed, name, state)
}
