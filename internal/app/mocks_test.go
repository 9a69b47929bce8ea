package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/handle"
	"github.com/example/mqmon/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// notFound is the scripted status that makes a describe call fail with ErrNotFound.
const notFound = "NotFound"

// script replays a sequence of statuses, repeating the last one.
type script struct {
	mu       sync.Mutex
	statuses []string
	calls    int
}

func (s *script) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.statuses) == 0 {
		return notFound
	}
	i := s.calls - 1
	if i >= len(s.statuses) {
		i = len(s.statuses) - 1
	}
	return s.statuses[i]
}

// mockMonitoringPlatform implements secondary.MonitoringPlatform for testing.
type mockMonitoringPlatform struct {
	schedule      script
	failureReason string
	baseline      script

	createErr   error
	deleteErr   error
	describeErr error
	baselineErr error

	created       []*secondary.CreateScheduleInput
	deleted       []string
	baselineStart []*secondary.BaselineJobInput

	// blockCreate, when set, is closed by the test to let CreateMonitoringSchedule return.
	blockCreate chan struct{}
	entered     chan struct{}
}

func newMockMonitoringPlatform(scheduleStatuses ...string) *mockMonitoringPlatform {
	return &mockMonitoringPlatform{schedule: script{statuses: scheduleStatuses}}
}

func (m *mockMonitoringPlatform) CreateMonitoringSchedule(ctx context.Context, input *secondary.CreateScheduleInput) (string, error) {
	if m.entered != nil {
		close(m.entered)
	}
	if m.blockCreate != nil {
		<-m.blockCreate
	}
	if m.createErr != nil {
		return "", m.createErr
	}
	m.created = append(m.created, input)
	return "arn:aws:sagemaker:eu-west-1:123456789012:monitoring-schedule/" + input.ScheduleName, nil
}

func (m *mockMonitoringPlatform) DescribeMonitoringSchedule(ctx context.Context, name string) (*secondary.ScheduleDescription, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	status := m.schedule.next()
	if status == notFound {
		return nil, fmt.Errorf("describe %s: %w", name, secondary.ErrNotFound)
	}
	return &secondary.ScheduleDescription{Name: name, Status: status, FailureReason: m.failureReason}, nil
}

func (m *mockMonitoringPlatform) DeleteMonitoringSchedule(ctx context.Context, name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockMonitoringPlatform) StartBaselineJob(ctx context.Context, input *secondary.BaselineJobInput) error {
	if m.baselineErr != nil {
		return m.baselineErr
	}
	m.baselineStart = append(m.baselineStart, input)
	return nil
}

func (m *mockMonitoringPlatform) DescribeBaselineJob(ctx context.Context, name string) (*secondary.JobDescription, error) {
	status := m.baseline.next()
	if status == notFound {
		return nil, fmt.Errorf("describe %s: %w", name, secondary.ErrNotFound)
	}
	return &secondary.JobDescription{Name: name, Status: status}, nil
}

// mockEndpointPlatform implements secondary.EndpointPlatform for testing.
type mockEndpointPlatform struct {
	endpoint      script
	failureReason string
	models        []string
	absent        map[string]bool // resource names that report ErrNotFound on delete
	deleteErr     error

	deleted []string // "resource:name" in call order
}

func newMockEndpointPlatform(statuses ...string) *mockEndpointPlatform {
	return &mockEndpointPlatform{endpoint: script{statuses: statuses}, absent: map[string]bool{}}
}

func (m *mockEndpointPlatform) DescribeEndpoint(ctx context.Context, name string) (*secondary.EndpointDescription, error) {
	status := m.endpoint.next()
	if status == notFound {
		return nil, fmt.Errorf("describe %s: %w", name, secondary.ErrNotFound)
	}
	return &secondary.EndpointDescription{Name: name, Status: status, FailureReason: m.failureReason}, nil
}

func (m *mockEndpointPlatform) EndpointModels(ctx context.Context, configName string) ([]string, error) {
	return m.models, nil
}

func (m *mockEndpointPlatform) del(resource, name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if m.absent[name] {
		return fmt.Errorf("%s %s: %w", resource, name, secondary.ErrNotFound)
	}
	m.deleted = append(m.deleted, resource+":"+name)
	return nil
}

func (m *mockEndpointPlatform) DeleteEndpoint(ctx context.Context, name string) error {
	return m.del(ResourceEndpoint, name)
}

func (m *mockEndpointPlatform) DeleteEndpointConfig(ctx context.Context, name string) error {
	return m.del(ResourceEndpointConfig, name)
}

func (m *mockEndpointPlatform) DeleteModel(ctx context.Context, name string) error {
	return m.del(ResourceModel, name)
}

// mockObjectStore implements secondary.ObjectStore for testing.
type mockObjectStore struct {
	objects map[string][]byte
	types   map[string]string
	listErr error
	putErr  error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *mockObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockObjectStore) Read(ctx context.Context, uri string) ([]byte, error) {
	data, ok := m.objects[uri]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", uri, secondary.ErrNotFound)
	}
	return data, nil
}

func (m *mockObjectStore) Put(ctx context.Context, uri string, body []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[uri] = body
	m.types[uri] = contentType
	return nil
}

// mockHandleRepository implements secondary.HandleRepository for testing.
type mockHandleRepository struct {
	deploy  map[string]*handle.DeployOutput
	train   map[string]*handle.TrainOutput
	tests   map[string]*handle.TestOutput
	saveErr error
	saves   int
}

func newMockHandleRepository() *mockHandleRepository {
	return &mockHandleRepository{
		deploy: map[string]*handle.DeployOutput{},
		train:  map[string]*handle.TrainOutput{},
		tests:  map[string]*handle.TestOutput{},
	}
}

func (m *mockHandleRepository) LoadDeploy(ctx context.Context, path string) (*handle.DeployOutput, error) {
	d, ok := m.deploy[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, secondary.ErrNotFound)
	}
	return d, nil
}

func (m *mockHandleRepository) SaveDeploy(ctx context.Context, path string, doc *handle.DeployOutput) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.deploy[path] = doc
	return nil
}

func (m *mockHandleRepository) LoadTrain(ctx context.Context, path string) (*handle.TrainOutput, error) {
	t, ok := m.train[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, secondary.ErrNotFound)
	}
	return t, nil
}

func (m *mockHandleRepository) SaveTest(ctx context.Context, path string, doc *handle.TestOutput) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.tests[path] = doc
	return nil
}

// mockHandleLedger implements secondary.HandleLedger for testing.
type mockHandleLedger struct {
	records   []*secondary.HandleRecord
	recordErr error
}

func (m *mockHandleLedger) Record(ctx context.Context, r *secondary.HandleRecord) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	r.ID = int64(len(m.records) + 1)
	r.CreatedAt = time.Now()
	m.records = append(m.records, r)
	return nil
}

func (m *mockHandleLedger) List(ctx context.Context, filters secondary.HandleFilters) ([]*secondary.HandleRecord, error) {
	var out []*secondary.HandleRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if filters.Role != "" && r.Role != filters.Role {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// mockMetrics implements secondary.Metrics for testing.
type mockMetrics struct {
	mu             sync.Mutex
	ticks          map[string]int
	requests       int
	requestErrors  int
	captured       int
	decodeFailures int
	groundTruth    int
}

func newMockMetrics() *mockMetrics { return &mockMetrics{ticks: map[string]int{}} }

func (m *mockMetrics) PollTick(resource, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks[resource]++
}

func (m *mockMetrics) InferenceRequest(endpoint string, err error) {
	m.requests++
	if err != nil {
		m.requestErrors++
	}
}

func (m *mockMetrics) CaptureRecords(n int)            { m.captured += n }
func (m *mockMetrics) DecodeFailure()                  { m.decodeFailures++ }
func (m *mockMetrics) GroundTruthRecords(n int)        { m.groundTruth += n }
func (m *mockMetrics) Flush(ctx context.Context) error { return nil }

// mockInvoker implements secondary.InferenceInvoker for testing.
type mockInvoker struct {
	calls   []*secondary.InvokeRequest
	respond func(req *secondary.InvokeRequest) ([]byte, error)
}

func (m *mockInvoker) Invoke(ctx context.Context, req *secondary.InvokeRequest) ([]byte, error) {
	m.calls = append(m.calls, req)
	if m.respond != nil {
		return m.respond(req)
	}
	return []byte("1\n"), nil
}

// ============================================================================
// Fixtures
// ============================================================================

const (
	testDeployPath = "deploymodel_out.json"
	testTrainPath  = "trainmodel_out.json"
	testTestPath   = "testendpoint_out.json"
	testEndpoint   = "sts-sklearn-202102121200"
	testCaptureURI = "s3://bucket/sts/datacapture"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.Bucket = "bucket"
	s.RoleARN = "arn:aws:iam::123456789012:role/sm"
	s.MonitorImageURI = "468650794304.dkr.ecr.eu-west-1.amazonaws.com/sagemaker-model-monitor-analyzer"
	s.PollInterval = time.Millisecond
	s.PollTimeout = 5 * time.Second
	return s
}

func testLogger() zerolog.Logger { return zerolog.Nop() }

func testDeploy() *handle.DeployOutput {
	return &handle.DeployOutput{
		Endpoint: &handle.Endpoint{Name: testEndpoint},
		Monitor:  &handle.Monitor{CaptureUploadPath: testCaptureURI},
	}
}

func testTrain() *handle.TrainOutput {
	t := &handle.TrainOutput{}
	t.Train = &struct {
		Test string `json:"test"`
	}{Test: "s3://bucket/sts/data/test"}
	t.Baseline = &struct {
		Validate string `json:"validate"`
	}{Validate: "s3://bucket/sts/data/validate"}
	return t
}

// captureLine renders one capture envelope with CSV payloads.
func captureLine(id, input, output string) string {
	return fmt.Sprintf(`{"captureData":{"endpointInput":{"observedContentType":"text/csv","mode":"INPUT","data":%q,"encoding":"CSV"},`+
		`"endpointOutput":{"observedContentType":"text/csv; charset=utf-8","mode":"OUTPUT","data":%q,"encoding":"CSV"}},`+
		`"eventMetadata":{"eventId":"e-%s","inferenceId":%q,"inferenceTime":"2021-02-12T13:05:00Z"},"eventVersion":"0"}`,
		input, output, id, id)
}
