package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestParseState(t *testing.T) {
	for st := range AllStates {
		got, err := ParseState(string(st))
		if err != nil {
			t.Fatalf("ParseState(%q) failed: %v", st, err)
		}
		if got != st {
			t.Errorf("ParseState(%q) = %q", st, got)
		}
	}

	if _, err := ParseState("Deleting"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestTerminalSets(t *testing.T) {
	if CreationTerminal.Contains(StatePending) {
		t.Error("Pending must not end a creation wait")
	}
	for _, st := range []State{StateScheduled, StateInService, StateFailed, StateStopped, StateNotFound} {
		if !CreationTerminal.Contains(st) {
			t.Errorf("%s should end a creation wait", st)
		}
	}

	for st := range PresentAfterDelete {
		if DeletionTerminal.Contains(st) {
			t.Errorf("%s must not end a deletion wait", st)
		}
	}
	if !DeletionTerminal.Contains(StateNotFound) {
		t.Error("NotFound must end a deletion wait")
	}
}

func TestName(t *testing.T) {
	now := time.Date(2021, 2, 12, 13, 45, 10, 0, time.FixedZone("CET", 3600))
	got := Name("sts", now)
	if got != "sts-mq-sch-2021-02-12-1245" {
		t.Errorf("Name() = %q", got)
	}
	if JobDefinitionName(got) != "sts-mq-sch-2021-02-12-1245-def" {
		t.Errorf("JobDefinitionName() = %q", JobDefinitionName(got))
	}
}

func TestEvaluateCreation(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		reason   string
		wantKind OutcomeKind
	}{
		{"scheduled is ok", StateScheduled, "", OutcomeOK},
		{"in service is ok", StateInService, "", OutcomeOK},
		{"not found", StateNotFound, "", OutcomeNotFound},
		{"failed is fatal", StateFailed, "role cannot be assumed", OutcomeFatal},
		{"stopped is fatal", StateStopped, "", OutcomeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := EvaluateCreation(tt.state, tt.reason)
			if out.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", out.Kind, tt.wantKind)
			}
			if tt.wantKind == OutcomeFatal {
				if !errors.Is(out.Err(), ErrScheduleFailed) {
					t.Errorf("Err() = %v, want ErrScheduleFailed", out.Err())
				}
			} else if out.Err() != nil {
				t.Errorf("Err() = %v, want nil", out.Err())
			}
		})
	}
}

func TestEvaluateDeletion(t *testing.T) {
	out := EvaluateDeletion(StateNotFound)
	if out.Kind != OutcomeOK || out.State != StateNotFound {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestOutcomeKindString(t *testing.T) {
	if OutcomeNotFound.String() != "not-found" {
		t.Errorf("String() = %q", OutcomeNotFound.String())
	}
}

func TestCanCreateSchedule(t *testing.T) {
	valid := CreateContext{
		ScheduleName:   "sts-mq-sch-2021-02-12-1300",
		EndpointName:   "sts-sklearn-202102121200",
		CaptureEnabled: true,
		RoleARN:        "arn:aws:iam::123456789012:role/sm",
		ImageURI:       "468650794304.dkr.ecr.eu-west-1.amazonaws.com/sagemaker-model-monitor-analyzer",
	}

	tests := []struct {
		name        string
		mutate      func(*CreateContext)
		wantAllowed bool
		wantReason  string
	}{
		{"valid", func(*CreateContext) {}, true, ""},
		{"missing endpoint", func(c *CreateContext) { c.EndpointName = "" }, false, "endpoint name is required"},
		{"capture disabled", func(c *CreateContext) { c.CaptureEnabled = false }, false, "data capture is not enabled for endpoint sts-sklearn-202102121200"},
		{"missing role", func(c *CreateContext) { c.RoleARN = "" }, false, "execution role ARN is required (set AWS_ROLE)"},
		{"in flight", func(c *CreateContext) { c.OperationInFlight = true }, false, "schedule sts-mq-sch-2021-02-12-1300: operation already in flight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := valid
			tt.mutate(&ctx)
			result := CanCreateSchedule(ctx)
			if result.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v", result.Allowed, tt.wantAllowed)
			}
			if !tt.wantAllowed && result.Error().Error() != tt.wantReason {
				t.Errorf("Error() = %q, want %q", result.Error(), tt.wantReason)
			}
		})
	}
}

func TestCanDeleteSchedule(t *testing.T) {
	if r := CanDeleteSchedule(DeleteContext{ScheduleName: "mq-mon-sch-sts"}); !r.Allowed {
		t.Errorf("expected allowed, got %q", r.Reason)
	}
	if r := CanDeleteSchedule(DeleteContext{}); r.Allowed || r.Error() == nil {
		t.Error("expected empty name to be rejected")
	}
	r := CanDeleteSchedule(DeleteContext{ScheduleName: "x", OperationInFlight: true})
	if r.Allowed {
		t.Error("expected in-flight delete to be rejected")
	}
	if !errors.Is(r.Error(), ErrOperationInFlight) {
		t.Errorf("expected ErrOperationInFlight, got %v", r.Error())
	}
}
