// Package capture parses the newline-delimited JSON capture files written by
// the inference service and filters them by hourly partition.
package capture

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrDecode marks a capture line or payload that cannot be decoded.
var ErrDecode = errors.New("capture decode failure")

// Payload is one side (input or output) of a captured request.
type Payload struct {
	ObservedContentType string `json:"observedContentType"`
	Mode                string `json:"mode"`
	Data                string `json:"data"`
	Encoding            string `json:"encoding"`
}

// Envelope is one line of a capture file.
type Envelope struct {
	CaptureData struct {
		EndpointInput  Payload `json:"endpointInput"`
		EndpointOutput Payload `json:"endpointOutput"`
	} `json:"captureData"`
	EventMetadata struct {
		EventID       string `json:"eventId"`
		InferenceID   string `json:"inferenceId"`
		InferenceTime string `json:"inferenceTime"`
	} `json:"eventMetadata"`
	EventVersion string `json:"eventVersion"`
}

// Prediction is the decoded model output for one request.
type Prediction []string

// Value returns the first output value, or "" if there is none.
func (p Prediction) Value() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

// Float returns the first output value as a float.
func (p Prediction) Float() (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(p.Value()), 64)
}

// Record is an inference re-materialized from a capture file.
type Record struct {
	RequestID string
	Input     []float64
	Predicted Prediction
}

var partitionPattern = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}/\d{2}$`)

// ValidPartition reports whether p has the YYYY/MM/DD/HH form.
func ValidPartition(p string) bool {
	return partitionPattern.MatchString(p)
}

// HourPartition formats t as the UTC YYYY/MM/DD/HH partition.
func HourPartition(t time.Time) string {
	return t.UTC().Format("2006/01/02/15")
}

// FilterPartition keeps the keys whose path contains the partition string.
// The match is a plain substring test; a key that repeats the partition text
// elsewhere in its path is kept too.
func FilterPartition(keys []string, partition string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.Contains(k, partition) {
			out = append(out, k)
		}
	}
	return out
}

// SplitLines splits file content on newlines and drops the empty segment
// produced by a final newline.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// ParseFile decodes every line of a capture file into an Envelope.
func ParseFile(content []byte) ([]Envelope, error) {
	lines := SplitLines(string(content))
	envs := make([]Envelope, 0, len(lines))
	for i, line := range lines {
		env, err := ParseLine(line)
		if err != nil {
			return envs, fmt.Errorf("line %d: %w", i+1, err)
		}
		envs = append(envs, env)
	}
	return envs, nil
}

// ParseLine decodes a single capture line.
func ParseLine(line string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return env, nil
}

// Decode extracts the request id and decodes the payloads of an envelope.
// The output is always decoded as CSV: the observed content type may carry a
// charset suffix and is not consulted.
func Decode(env Envelope) (Record, error) {
	id := env.EventMetadata.InferenceID
	if id == "" {
		return Record{}, fmt.Errorf("%w: missing eventMetadata.inferenceId", ErrDecode)
	}

	out, err := payloadText(env.CaptureData.EndpointOutput)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: output: %v", ErrDecode, id, err)
	}
	predicted, err := DecodeCSV(out)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: output: %v", ErrDecode, id, err)
	}

	rec := Record{RequestID: id, Predicted: predicted}

	if env.CaptureData.EndpointInput.Data != "" {
		in, err := payloadText(env.CaptureData.EndpointInput)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: input: %v", ErrDecode, id, err)
		}
		rec.Input, err = DecodeFloats(in)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %s: input: %v", ErrDecode, id, err)
		}
	}

	return rec, nil
}

func payloadText(p Payload) (string, error) {
	if strings.EqualFold(p.Encoding, "BASE64") {
		raw, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return p.Data, nil
}

// DecodeCSV flattens CSV text into its values.
func DecodeCSV(data string) (Prediction, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty payload")
	}
	var out Prediction
	for _, row := range rows {
		for _, v := range row {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out, nil
}

// DecodeFloats decodes CSV text into floats.
func DecodeFloats(data string) ([]float64, error) {
	vals, err := DecodeCSV(data)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// EncodeFloats renders a row as a single CSV line, the request body format
// expected by the inference service.
func EncodeFloats(row []float64) []byte {
	var buf bytes.Buffer
	for i, v := range row {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return buf.Bytes()
}
