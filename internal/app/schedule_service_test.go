package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/core/poll"
	"github.com/example/mqmon/internal/core/schedule"
	"github.com/example/mqmon/internal/ports/primary"
)

const testSchedule = "sts-mq-sch-2021-02-12-1300"

func newTestScheduleService(m *mockMonitoringPlatform) (*ScheduleServiceImpl, *mockHandleRepository, *mockHandleLedger, *mockMetrics) {
	repo := newMockHandleRepository()
	ledger := &mockHandleLedger{}
	metrics := newMockMetrics()
	svc := NewScheduleService(m, nil, repo, ledger, metrics, testSettings(), testLogger())
	svc.now = func() time.Time { return time.Date(2021, 2, 12, 13, 0, 30, 0, time.UTC) }
	return svc, repo, ledger, metrics
}

func validCreateRequest() primary.CreateScheduleRequest {
	return primary.CreateScheduleRequest{
		ScheduleName:   testSchedule,
		EndpointName:   testEndpoint,
		CaptureEnabled: true,
		GroundTruthURI: "s3://bucket/sts/" + testEndpoint + "/ground_truth_data",
		ConstraintsURI: "s3://bucket/sts/" + testEndpoint + "/baselining/results/constraints.json",
		OutputURI:      "s3://bucket/sts/" + testEndpoint + "/baselining/results",
		ProblemType:    schedule.ProblemRegression,
	}
}

// ============================================================================
// DeleteSchedule Tests
// ============================================================================

func TestDeleteSchedule_AlreadyAbsentIsNoOp(t *testing.T) {
	m := newMockMonitoringPlatform(notFound)
	svc, _, _, _ := newTestScheduleService(m)

	outcome, err := svc.DeleteSchedule(context.Background(), testSchedule)

	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if outcome.Kind != schedule.OutcomeNotFound {
		t.Errorf("expected not-found outcome, got %s", outcome.Kind)
	}
	if len(m.deleted) != 0 {
		t.Errorf("expected no delete request, got %v", m.deleted)
	}
	if m.schedule.calls != 1 {
		t.Errorf("expected exactly one describe, got %d", m.schedule.calls)
	}
}

func TestDeleteSchedule_FromEveryPresentState(t *testing.T) {
	for state := range schedule.PresentAfterDelete {
		t.Run(string(state), func(t *testing.T) {
			m := newMockMonitoringPlatform(string(state), string(state), notFound)
			svc, _, _, _ := newTestScheduleService(m)

			outcome, err := svc.DeleteSchedule(context.Background(), testSchedule)

			if err != nil {
				t.Fatalf("expected success, got error: %v", err)
			}
			if outcome.Kind != schedule.OutcomeOK || outcome.State != schedule.StateNotFound {
				t.Errorf("expected ok/NotFound, got %s/%s", outcome.Kind, outcome.State)
			}
			if len(m.deleted) != 1 || m.deleted[0] != testSchedule {
				t.Errorf("expected one delete of %s, got %v", testSchedule, m.deleted)
			}
		})
	}
}

func TestDeleteSchedule_SwallowsNotFoundRightAfterDelete(t *testing.T) {
	// The first describe sees the schedule; the very next one, issued
	// straight after the delete request, already reports it gone.
	m := newMockMonitoringPlatform("Scheduled", notFound)
	svc, _, _, metrics := newTestScheduleService(m)

	outcome, err := svc.DeleteSchedule(context.Background(), testSchedule)

	if err != nil {
		t.Fatalf("expected not-found during poll to be swallowed, got %v", err)
	}
	if outcome.Err() != nil {
		t.Errorf("expected no outcome error, got %v", outcome.Err())
	}
	if metrics.ticks["schedule"] != 0 {
		t.Errorf("expected no poll ticks, got %d", metrics.ticks["schedule"])
	}
}

func TestDeleteSchedule_DescribeError(t *testing.T) {
	m := newMockMonitoringPlatform()
	m.describeErr = errors.New("access denied")
	svc, _, _, _ := newTestScheduleService(m)

	outcome, err := svc.DeleteSchedule(context.Background(), testSchedule)

	if err == nil {
		t.Fatal("expected error")
	}
	if outcome.Kind != schedule.OutcomeFatal {
		t.Errorf("expected fatal outcome, got %s", outcome.Kind)
	}
	if len(m.deleted) != 0 {
		t.Errorf("expected no delete request, got %v", m.deleted)
	}
}

func TestDeleteSchedule_EmptyName(t *testing.T) {
	svc, _, _, _ := newTestScheduleService(newMockMonitoringPlatform())

	if _, err := svc.DeleteSchedule(context.Background(), ""); err == nil {
		t.Error("expected error for empty schedule name")
	}
}

// ============================================================================
// CreateSchedule Tests
// ============================================================================

func TestCreateSchedule_WaitsOutPending(t *testing.T) {
	m := newMockMonitoringPlatform("Pending", "Pending", "Scheduled")
	svc, _, _, metrics := newTestScheduleService(m)

	outcome, err := svc.CreateSchedule(context.Background(), validCreateRequest())

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Kind != schedule.OutcomeOK || outcome.State != schedule.StateScheduled {
		t.Errorf("expected ok/Scheduled, got %s/%s", outcome.Kind, outcome.State)
	}
	if metrics.ticks["schedule"] != 2 {
		t.Errorf("expected 2 poll ticks, got %d", metrics.ticks["schedule"])
	}
	if len(m.created) != 1 {
		t.Fatalf("expected one create, got %d", len(m.created))
	}

	in := m.created[0]
	if in.JobDefinitionName != testSchedule+"-def" {
		t.Errorf("JobDefinitionName = %q", in.JobDefinitionName)
	}
	if in.CronExpression != schedule.HourlyCron {
		t.Errorf("CronExpression = %q, want hourly", in.CronExpression)
	}
	if in.InferenceAttribute != "0" {
		t.Errorf("InferenceAttribute = %q, want 0", in.InferenceAttribute)
	}
}

func TestCreateSchedule_FailedIsReportedNotRetried(t *testing.T) {
	m := newMockMonitoringPlatform("Pending", "Failed")
	m.failureReason = "constraints file not found"
	svc, _, _, _ := newTestScheduleService(m)

	outcome, err := svc.CreateSchedule(context.Background(), validCreateRequest())

	if err != nil {
		t.Fatalf("expected a fatal outcome, not an error: %v", err)
	}
	if outcome.Kind != schedule.OutcomeFatal {
		t.Fatalf("expected fatal outcome, got %s", outcome.Kind)
	}
	if !errors.Is(outcome.Err(), schedule.ErrScheduleFailed) {
		t.Errorf("expected ErrScheduleFailed, got %v", outcome.Err())
	}
	if len(m.created) != 1 {
		t.Errorf("expected exactly one create, got %d", len(m.created))
	}
}

func TestCreateSchedule_Guards(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*primary.CreateScheduleRequest, *Settings)
	}{
		{"capture disabled", func(r *primary.CreateScheduleRequest, _ *Settings) { r.CaptureEnabled = false }},
		{"no endpoint", func(r *primary.CreateScheduleRequest, _ *Settings) { r.EndpointName = "" }},
		{"no role", func(_ *primary.CreateScheduleRequest, s *Settings) { s.RoleARN = "" }},
		{"no image", func(_ *primary.CreateScheduleRequest, s *Settings) { s.MonitorImageURI = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockMonitoringPlatform("Scheduled")
			svc, _, _, _ := newTestScheduleService(m)
			req := validCreateRequest()
			tt.mutate(&req, &svc.settings)

			outcome, err := svc.CreateSchedule(context.Background(), req)

			if err == nil {
				t.Fatal("expected guard error")
			}
			if outcome.Kind != schedule.OutcomeFatal {
				t.Errorf("expected fatal outcome, got %s", outcome.Kind)
			}
			if len(m.created) != 0 {
				t.Error("expected no create request")
			}
		})
	}
}

func TestCreateSchedule_Timeout(t *testing.T) {
	m := newMockMonitoringPlatform("Pending")
	svc, _, _, _ := newTestScheduleService(m)
	svc.settings.PollTimeout = 20 * time.Millisecond

	outcome, err := svc.CreateSchedule(context.Background(), validCreateRequest())

	if !errors.Is(err, poll.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if outcome.Kind != schedule.OutcomeFatal || outcome.State != schedule.StatePending {
		t.Errorf("expected fatal/Pending, got %s/%s", outcome.Kind, outcome.State)
	}
}

func TestSetupMonitor_RecordsScheduleWhenWaitTimesOut(t *testing.T) {
	m := newMockMonitoringPlatform("Pending")
	svc, repo, ledger, _ := newTestScheduleService(m)
	svc.settings.PollTimeout = 20 * time.Millisecond
	repo.deploy[testDeployPath] = testDeploy()

	_, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{
		DeployOutputPath: testDeployPath,
		SkipBaseline:     true,
	})

	if !errors.Is(err, poll.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if len(m.created) != 1 {
		t.Fatalf("expected the schedule to be created remotely, got %d", len(m.created))
	}
	if repo.saves != 1 {
		t.Fatalf("expected the deploy output to be saved once, got %d saves", repo.saves)
	}
	saved := repo.deploy[testDeployPath]
	if saved.Monitor.ScheduleName != testSchedule {
		t.Errorf("saved schedule_name = %q, want %q", saved.Monitor.ScheduleName, testSchedule)
	}
	if saved.Monitor.JobDefinitionName != schedule.JobDefinitionName(testSchedule) {
		t.Errorf("saved job definition = %q", saved.Monitor.JobDefinitionName)
	}
	recorded := false
	for _, r := range ledger.records {
		if r.Role == string(handle.RoleSchedule) && r.Name == testSchedule {
			recorded = true
		}
	}
	if !recorded {
		t.Error("expected the schedule handle in the ledger")
	}
}

func TestSetupMonitor_CreateFailureSavesNothing(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	m.createErr = errors.New("access denied")
	svc, repo, _, _ := newTestScheduleService(m)
	repo.deploy[testDeployPath] = testDeploy()

	_, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{
		DeployOutputPath: testDeployPath,
		SkipBaseline:     true,
	})

	if err == nil {
		t.Fatal("expected create failure")
	}
	if repo.saves != 0 {
		t.Errorf("expected no save when the schedule was not created, got %d", repo.saves)
	}
}

func TestSetupMonitor_SaveFailureStopsBeforeWaiting(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	svc, repo, _, _ := newTestScheduleService(m)
	repo.deploy[testDeployPath] = testDeploy()
	repo.saveErr = errors.New("disk full")

	_, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{
		DeployOutputPath: testDeployPath,
		SkipBaseline:     true,
	})

	if err == nil || !errors.Is(err, repo.saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if m.schedule.calls != 0 {
		t.Errorf("expected no describe calls after a failed save, got %d", m.schedule.calls)
	}
}

func TestCreateSchedule_SecondOperationWhileInFlight(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	m.blockCreate = make(chan struct{})
	m.entered = make(chan struct{})
	svc, _, _, _ := newTestScheduleService(m)

	done := make(chan error, 1)
	go func() {
		_, err := svc.CreateSchedule(context.Background(), validCreateRequest())
		done <- err
	}()
	<-m.entered

	_, err := svc.DeleteSchedule(context.Background(), testSchedule)
	if !errors.Is(err, schedule.ErrOperationInFlight) {
		t.Errorf("expected ErrOperationInFlight for delete, got %v", err)
	}
	_, err = svc.CreateSchedule(context.Background(), validCreateRequest())
	if !errors.Is(err, schedule.ErrOperationInFlight) {
		t.Errorf("expected ErrOperationInFlight for create, got %v", err)
	}

	close(m.blockCreate)
	if err := <-done; err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if svc.isInFlight(testSchedule) {
		t.Error("expected in-flight marker to be released")
	}
}

// ============================================================================
// DescribeSchedule Tests
// ============================================================================

func TestDescribeSchedule(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	svc, _, _, _ := newTestScheduleService(m)

	s, err := svc.DescribeSchedule(context.Background(), testSchedule)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.State != schedule.StateScheduled {
		t.Errorf("State = %s, want Scheduled", s.State)
	}
}

func TestDescribeSchedule_NotFoundIsAState(t *testing.T) {
	svc, _, _, _ := newTestScheduleService(newMockMonitoringPlatform(notFound))

	s, err := svc.DescribeSchedule(context.Background(), testSchedule)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if s.State != schedule.StateNotFound {
		t.Errorf("State = %s, want NotFound", s.State)
	}
}

// ============================================================================
// SetupMonitor Tests
// ============================================================================

func TestSetupMonitor(t *testing.T) {
	m := newMockMonitoringPlatform("Pending", "Scheduled")
	m.baseline = script{statuses: []string{"InProgress", "Completed"}}
	svc, repo, ledger, _ := newTestScheduleService(m)
	repo.deploy[testDeployPath] = testDeploy()
	repo.train[testTrainPath] = testTrain()

	resp, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{
		DeployOutputPath: testDeployPath,
		TrainOutputPath:  testTrainPath,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root := "s3://bucket/sts/" + testEndpoint
	if resp.ScheduleName != testSchedule {
		t.Errorf("ScheduleName = %q, want %q", resp.ScheduleName, testSchedule)
	}
	if resp.GroundTruthURI != root+"/ground_truth_data" {
		t.Errorf("GroundTruthURI = %q", resp.GroundTruthURI)
	}
	if resp.Outcome.Kind != schedule.OutcomeOK {
		t.Errorf("expected ok outcome, got %s", resp.Outcome.Kind)
	}

	if len(m.baselineStart) != 1 {
		t.Fatalf("expected one baselining job, got %d", len(m.baselineStart))
	}
	if got := m.baselineStart[0].DatasetURI; got != "s3://bucket/sts/data/validate/baseline.csv" {
		t.Errorf("baseline dataset = %q", got)
	}
	if got := m.baselineStart[0].OutputURI; got != root+"/baselining/results" {
		t.Errorf("baseline output = %q", got)
	}

	if got := m.created[0].ConstraintsURI; got != root+"/baselining/results/constraints.json" {
		t.Errorf("constraints = %q", got)
	}

	saved := repo.deploy[testDeployPath]
	if saved.Monitor.ScheduleName != testSchedule {
		t.Errorf("saved schedule_name = %q", saved.Monitor.ScheduleName)
	}
	if saved.Monitor.GroundTruthURI != root+"/ground_truth_data" {
		t.Errorf("saved ground truth uri = %q", saved.Monitor.GroundTruthURI)
	}
	if saved.Monitor.Baseline == nil || saved.Monitor.Baseline.DataURI != root+"/baselining/data" {
		t.Errorf("saved baseline = %+v", saved.Monitor.Baseline)
	}
	if saved.Monitor.CaptureUploadPath != testCaptureURI {
		t.Error("expected existing monitor keys to be preserved")
	}

	roles := map[string]bool{}
	for _, r := range ledger.records {
		roles[r.Role] = true
	}
	if !roles[string(handle.RoleSchedule)] || !roles[string(handle.RoleEndpoint)] {
		t.Errorf("expected endpoint and schedule handles recorded, got %v", roles)
	}
}

func TestSetupMonitor_MonitoringNotEnabled(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	svc, repo, _, _ := newTestScheduleService(m)
	repo.deploy[testDeployPath] = &handle.DeployOutput{Endpoint: &handle.Endpoint{Name: testEndpoint}}

	_, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{DeployOutputPath: testDeployPath})

	if !errors.Is(err, handle.ErrConfigurationMissing) {
		t.Fatalf("expected ErrConfigurationMissing, got %v", err)
	}
	if len(m.created) != 0 || len(m.baselineStart) != 0 {
		t.Error("expected no remote calls")
	}
}

func TestSetupMonitor_BaselineFailureStopsSetup(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	m.baseline = script{statuses: []string{"InProgress", "Failed"}}
	svc, repo, _, _ := newTestScheduleService(m)
	repo.deploy[testDeployPath] = testDeploy()
	repo.train[testTrainPath] = testTrain()

	_, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{
		DeployOutputPath: testDeployPath,
		TrainOutputPath:  testTrainPath,
	})

	if err == nil {
		t.Fatal("expected baselining failure")
	}
	if len(m.created) != 0 {
		t.Error("expected no schedule to be created")
	}
}

func TestSetupMonitor_SkipBaseline(t *testing.T) {
	m := newMockMonitoringPlatform("Scheduled")
	svc, repo, _, _ := newTestScheduleService(m)
	repo.deploy[testDeployPath] = testDeploy()

	resp, err := svc.SetupMonitor(context.Background(), primary.SetupMonitorRequest{
		DeployOutputPath: testDeployPath,
		SkipBaseline:     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BaselineJobName != "" || len(m.baselineStart) != 0 {
		t.Error("expected no baselining job")
	}
}

func TestResolveScheduleName(t *testing.T) {
	svc, repo, _, _ := newTestScheduleService(newMockMonitoringPlatform())
	deploy := testDeploy()
	deploy.Monitor.ScheduleName = testSchedule
	repo.deploy[testDeployPath] = deploy

	name, err := svc.ResolveScheduleName(context.Background(), testDeployPath, "")
	if err != nil || name != testSchedule {
		t.Errorf("got %q, %v", name, err)
	}

	name, _ = svc.ResolveScheduleName(context.Background(), testDeployPath, "other")
	if name != "other" {
		t.Errorf("expected override, got %q", name)
	}

	repo.deploy[testDeployPath] = testDeploy()
	if _, err := svc.ResolveScheduleName(context.Background(), testDeployPath, ""); err == nil {
		t.Error("expected error when no schedule is recorded")
	}
}
