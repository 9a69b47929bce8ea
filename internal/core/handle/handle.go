// Package handle defines the JSON hand-off documents that carry resource
// identifiers between process invocations.
//
// Field names follow the documents written by earlier runs, including the
// "ground truth uri" key with spaces. Documents are not validated against a
// schema; a key missing at the point a step needs it is ErrConfigurationMissing.
package handle

import (
	"errors"
	"fmt"
)

// ErrConfigurationMissing marks a required hand-off key that is absent.
var ErrConfigurationMissing = errors.New("configuration missing")

// Conventional hand-off file names.
const (
	DefaultDeployOutput = "deploymodel_out.json"
	DefaultTrainOutput  = "trainmodel_out.json"
	DefaultTestOutput   = "testendpoint_out.json"
)

// Role names a logical resource kind.
type Role string

const (
	RoleEndpoint Role = "endpoint"
	RoleModel    Role = "model"
	RoleMonitor  Role = "monitor"
	RoleSchedule Role = "schedule"
)

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrConfigurationMissing, key)
}

// Endpoint identifies the deployed inference endpoint.
type Endpoint struct {
	Name       string `json:"name"`
	ConfigName string `json:"config_name,omitempty"`
}

// Baseline holds the baselining locations.
type Baseline struct {
	DataURI    string `json:"data_uri"`
	ResultsURI string `json:"results_uri"`
}

// Monitor holds everything about model-quality monitoring.
type Monitor struct {
	CaptureUploadPath string    `json:"s3_capture_upload_path,omitempty"`
	Baseline          *Baseline `json:"baseline,omitempty"`
	GroundTruthURI    string    `json:"ground truth uri,omitempty"`
	ScheduleName      string    `json:"schedule_name,omitempty"`
	JobDefinitionName string    `json:"job_definition_name,omitempty"`
}

// DeployOutput is the deploy hand-off document.
type DeployOutput struct {
	Endpoint  *Endpoint      `json:"endpoint,omitempty"`
	Monitor   *Monitor       `json:"monitor,omitempty"`
	ModelInfo map[string]any `json:"model_info,omitempty"`
}

// EndpointName returns the endpoint name or ErrConfigurationMissing.
func (d *DeployOutput) EndpointName() (string, error) {
	if d.Endpoint == nil || d.Endpoint.Name == "" {
		return "", missing("endpoint.name")
	}
	return d.Endpoint.Name, nil
}

// EndpointConfigName returns the endpoint config name, defaulting to the endpoint name.
func (d *DeployOutput) EndpointConfigName() string {
	if d.Endpoint == nil {
		return ""
	}
	if d.Endpoint.ConfigName != "" {
		return d.Endpoint.ConfigName
	}
	return d.Endpoint.Name
}

// CaptureUploadPath returns the data capture root or an error meaning
// monitoring was not enabled at deploy time.
func (d *DeployOutput) CaptureUploadPath() (string, error) {
	if d.Monitor == nil || d.Monitor.CaptureUploadPath == "" {
		return "", fmt.Errorf("monitoring not enabled: %w", missing("monitor.s3_capture_upload_path"))
	}
	return d.Monitor.CaptureUploadPath, nil
}

// GroundTruthURI returns the ground-truth root written by setup.
func (d *DeployOutput) GroundTruthURI() (string, error) {
	if d.Monitor == nil || d.Monitor.GroundTruthURI == "" {
		return "", missing("monitor.ground truth uri")
	}
	return d.Monitor.GroundTruthURI, nil
}

// ScheduleName returns the monitoring schedule name, if one was recorded.
func (d *DeployOutput) ScheduleName() (string, bool) {
	if d.Monitor == nil || d.Monitor.ScheduleName == "" {
		return "", false
	}
	return d.Monitor.ScheduleName, true
}

// ModelName returns model_info.name, if present.
func (d *DeployOutput) ModelName() (string, bool) {
	name, ok := d.ModelInfo["name"].(string)
	return name, ok && name != ""
}

// Entry is one (role, name, uri) triple of a deploy document.
type Entry struct {
	Role Role
	Name string
	URI  string
}

// Entries lists the resources a deploy document identifies.
func (d *DeployOutput) Entries() []Entry {
	var out []Entry
	if d.Endpoint != nil && d.Endpoint.Name != "" {
		out = append(out, Entry{Role: RoleEndpoint, Name: d.Endpoint.Name})
	}
	if name, ok := d.ModelName(); ok {
		out = append(out, Entry{Role: RoleModel, Name: name})
	}
	if d.Monitor != nil {
		if d.Monitor.CaptureUploadPath != "" || d.Monitor.GroundTruthURI != "" {
			out = append(out, Entry{Role: RoleMonitor, Name: d.Monitor.JobDefinitionName, URI: d.Monitor.GroundTruthURI})
		}
		if d.Monitor.ScheduleName != "" {
			out = append(out, Entry{Role: RoleSchedule, Name: d.Monitor.ScheduleName, URI: d.Monitor.CaptureUploadPath})
		}
	}
	return out
}

// TrainOutput is the training hand-off document.
type TrainOutput struct {
	Train *struct {
		Test string `json:"test"`
	} `json:"train,omitempty"`
	Baseline *struct {
		Validate string `json:"validate"`
	} `json:"baseline,omitempty"`
}

// TestDataURI returns the prefix holding test.csv.
func (t *TrainOutput) TestDataURI() (string, error) {
	if t.Train == nil || t.Train.Test == "" {
		return "", missing("train.test")
	}
	return t.Train.Test, nil
}

// BaselineDataURI returns the prefix holding baseline.csv.
func (t *TrainOutput) BaselineDataURI() (string, error) {
	if t.Baseline == nil || t.Baseline.Validate == "" {
		return "", missing("baseline.validate")
	}
	return t.Baseline.Validate, nil
}

// Inference is one request/response pair sent by the traffic generator.
type Inference struct {
	Input  []float64 `json:"input"`
	Result []string  `json:"result"`
}

// TestOutput is the traffic hand-off document: a list of single-key objects
// {request_id: inference}, in send order.
type TestOutput struct {
	Inferences []map[string]Inference `json:"inferences"`
}

// Add appends an inference keyed by id.
func (t *TestOutput) Add(id string, inf Inference) {
	t.Inferences = append(t.Inferences, map[string]Inference{id: inf})
}
