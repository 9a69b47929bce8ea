package schedule

import (
	"fmt"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Cause   error // sentinel to wrap, if any
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Cause != nil {
		return fmt.Errorf("%s: %w", r.Reason, r.Cause)
	}
	return fmt.Errorf("%s", r.Reason)
}

func inFlight(name string) GuardResult {
	return GuardResult{
		Allowed: false,
		Reason:  fmt.Sprintf("schedule %s", name),
		Cause:   ErrOperationInFlight,
	}
}

// CreateContext provides context for schedule creation guards.
type CreateContext struct {
	ScheduleName      string
	EndpointName      string
	CaptureEnabled    bool
	RoleARN           string
	ImageURI          string
	OperationInFlight bool
}

// DeleteContext provides context for schedule deletion guards.
type DeleteContext struct {
	ScheduleName      string
	OperationInFlight bool
}

// CanCreateSchedule evaluates whether a schedule can be created.
// Rules:
// - Endpoint must be known
// - Data capture must be enabled on the endpoint
// - A role and a monitor image must be configured
// - No other operation may be running on the same schedule
func CanCreateSchedule(ctx CreateContext) GuardResult {
	if ctx.EndpointName == "" {
		return GuardResult{Allowed: false, Reason: "endpoint name is required"}
	}
	if !ctx.CaptureEnabled {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("data capture is not enabled for endpoint %s", ctx.EndpointName)}
	}
	if ctx.RoleARN == "" {
		return GuardResult{Allowed: false, Reason: "execution role ARN is required (set AWS_ROLE)"}
	}
	if ctx.ImageURI == "" {
		return GuardResult{Allowed: false, Reason: "model monitor image URI is required (set MQMON_MONITOR_IMAGE_URI)"}
	}
	if ctx.OperationInFlight {
		return inFlight(ctx.ScheduleName)
	}
	return GuardResult{Allowed: true}
}

// CanDeleteSchedule evaluates whether a delete may be issued.
// Rules:
// - Schedule name must be given
// - At most one delete in flight per schedule name
func CanDeleteSchedule(ctx DeleteContext) GuardResult {
	if ctx.ScheduleName == "" {
		return GuardResult{Allowed: false, Reason: "schedule name is required"}
	}
	if ctx.OperationInFlight {
		return inFlight(ctx.ScheduleName)
	}
	return GuardResult{Allowed: true}
}
