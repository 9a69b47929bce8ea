// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting but delegate
// business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/example/mqmon/internal/core/schedule"
	"github.com/example/mqmon/internal/ports/primary"
)

// ScheduleAdapter translates CLI operations to ScheduleService calls.
type ScheduleAdapter struct {
	service primary.ScheduleService
	out     io.Writer
}

// NewScheduleAdapter creates a new ScheduleAdapter with the given service.
func NewScheduleAdapter(service primary.ScheduleService, out io.Writer) *ScheduleAdapter {
	return &ScheduleAdapter{
		service: service,
		out:     out,
	}
}

// Setup baselines the model and creates the hourly schedule.
func (a *ScheduleAdapter) Setup(ctx context.Context, req primary.SetupMonitorRequest) error {
	resp, err := a.service.SetupMonitor(ctx, req)
	if err != nil {
		return err
	}

	if resp.BaselineJobName != "" {
		fmt.Fprintf(a.out, "✓ Baseline job %s completed\n", resp.BaselineJobName)
	}
	fmt.Fprintf(a.out, "  Baseline data:    %s\n", resp.BaselineDataURI)
	fmt.Fprintf(a.out, "  Baseline results: %s\n", resp.BaselineResultsURI)
	fmt.Fprintf(a.out, "  Ground truth:     %s\n", resp.GroundTruthURI)

	return a.report(resp.ScheduleName, resp.Outcome, "created")
}

// Show prints the schedule status, or a notice when it does not exist.
func (a *ScheduleAdapter) Show(ctx context.Context, deployPath, name string) error {
	name, err := a.service.ResolveScheduleName(ctx, deployPath, name)
	if err != nil {
		return err
	}
	s, err := a.service.DescribeSchedule(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to describe schedule: %w", err)
	}

	if s.State == schedule.StateNotFound {
		fmt.Fprintf(a.out, "No information for schedule %s\n", name)
		return nil
	}

	fmt.Fprintf(a.out, "\nSchedule: %s\n", s.Name)
	fmt.Fprintf(a.out, "State:    %s\n", StateColor(string(s.State)))
	if s.FailureReason != "" {
		fmt.Fprintf(a.out, "Reason:   %s\n", s.FailureReason)
	}
	if s.EndpointName != "" {
		fmt.Fprintf(a.out, "Endpoint: %s\n", s.EndpointName)
	}
	if s.ARN != "" {
		fmt.Fprintf(a.out, "ARN:      %s\n", s.ARN)
	}
	if !s.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "Created:  %s\n", s.CreatedAt.Format(time.RFC3339))
	}
	if !s.ModifiedAt.IsZero() {
		fmt.Fprintf(a.out, "Modified: %s\n", s.ModifiedAt.Format(time.RFC3339))
	}
	if s.LastExecutionStatus != "" {
		fmt.Fprintf(a.out, "Last run: %s at %s\n", StateColor(s.LastExecutionStatus), s.LastExecutionTime.Format(time.RFC3339))
		if s.LastExecutionReport != "" {
			fmt.Fprintf(a.out, "          %s\n", s.LastExecutionReport)
		}
	} else {
		fmt.Fprintln(a.out, "Last run: none yet")
	}
	fmt.Fprintln(a.out)

	return nil
}

// Stop deletes the schedule and waits until it is gone.
func (a *ScheduleAdapter) Stop(ctx context.Context, deployPath, name string) error {
	name, err := a.service.ResolveScheduleName(ctx, deployPath, name)
	if err != nil {
		return err
	}
	outcome, err := a.service.DeleteSchedule(ctx, name)
	if err != nil {
		return err
	}
	return a.report(name, outcome, "deleted")
}

func (a *ScheduleAdapter) report(name string, outcome schedule.Outcome, verb string) error {
	switch outcome.Kind {
	case schedule.OutcomeOK:
		if verb == "created" {
			fmt.Fprintf(a.out, "✓ Schedule %s %s (%s)\n", name, verb, StateColor(string(outcome.State)))
		} else {
			fmt.Fprintf(a.out, "✓ Schedule %s %s\n", name, verb)
		}
		return nil
	case schedule.OutcomeNotFound:
		if verb == "deleted" {
			fmt.Fprintf(a.out, "Schedule %s not found, nothing to delete\n", name)
			return nil
		}
		return fmt.Errorf("schedule %s disappeared before it was scheduled", name)
	default:
		return fmt.Errorf("schedule %s: %w", name, outcome.Err())
	}
}

// StateColor renders a remote status word in a colour matching its meaning.
func StateColor(state string) string {
	switch state {
	case "Scheduled", "InService", "Completed":
		return color.New(color.FgGreen).Sprint(state)
	case "Pending", "Creating", "Updating", "SystemUpdating", "InProgress", "Stopping", "Deleting":
		return color.New(color.FgYellow).Sprint(state)
	case "Failed", "Stopped", "OutOfService", "RollingBack", "UpdateRollbackFailed", "CompletedWithViolations":
		return color.New(color.FgRed).Sprint(state)
	default:
		return state
	}
}
