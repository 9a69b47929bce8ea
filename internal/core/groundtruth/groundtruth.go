// Package groundtruth joins captured predictions with labels by request id
// and renders the label stream consumed by the model-quality monitor.
package groundtruth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/mqmon/internal/core/capture"
	"github.com/example/mqmon/internal/core/traffic"
)

// EncodingCSV is the only ground-truth encoding the monitor accepts.
const EncodingCSV = "CSV"

// EventVersion is the ground-truth record schema version.
const EventVersion = "0"

// Record is one ground-truth line.
type Record struct {
	GroundTruthData struct {
		Data     string `json:"data"`
		Encoding string `json:"encoding"`
	} `json:"groundTruthData"`
	EventMetadata struct {
		EventID string `json:"eventId"`
	} `json:"eventMetadata"`
	EventVersion string `json:"eventVersion"`
}

// NewRecord builds a CSV-encoded record for requestID.
func NewRecord(requestID, label string) Record {
	var r Record
	r.GroundTruthData.Data = label
	r.GroundTruthData.Encoding = EncodingCSV
	r.EventMetadata.EventID = requestID
	r.EventVersion = EventVersion
	return r
}

// RequestID returns the id the record is keyed by.
func (r Record) RequestID() string { return r.EventMetadata.EventID }

// Label returns the record's label.
func (r Record) Label() string { return r.GroundTruthData.Data }

// LabelSource is indexable by the 1-based row index recovered from a request id.
type LabelSource interface {
	Label(index int) (string, bool)
}

// Correlate produces one record per captured row, in the collection's
// insertion order. The row index is recovered by stripping prefix from the
// id; index 1 addresses the first label. Ids that recover an index already
// seen (sts_1 and sts_01) collapse into the first one.
func Correlate(prefix string, captured *capture.Predictions, labels LabelSource, policy Policy) ([]Record, error) {
	records := make([]Record, 0, captured.Len())
	seen := make(map[int]bool, captured.Len())
	for _, id := range captured.IDs() {
		index, err := traffic.IndexFromRequestID(prefix, id)
		if err != nil {
			return nil, err
		}
		if seen[index] {
			continue
		}
		seen[index] = true
		predicted, _ := captured.Get(id)

		label, err := policy.Label(index, predicted, labels)
		if err != nil {
			return nil, fmt.Errorf("failed to label %s: %w", id, err)
		}
		records = append(records, NewRecord(traffic.RequestID(prefix, index), label))
	}
	return records, nil
}

// EncodeJSONL renders records as newline-joined JSON objects.
func EncodeJSONL(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	for i, r := range records {
		if i > 0 {
			buf.WriteByte('\n')
		}
		line, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode record %s: %w", r.RequestID(), err)
		}
		buf.Write(line)
	}
	return buf.Bytes(), nil
}

// DecodeJSONL parses newline-joined records.
func DecodeJSONL(data []byte) ([]Record, error) {
	var out []Record
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// ObjectKey returns {groundTruthPrefix}/{hourPartition}/{suffix}.jsonl.
// The suffix keeps several batches for the same hour from overwriting each other.
func ObjectKey(groundTruthPrefix, hourPartition, suffix string) string {
	return fmt.Sprintf("%s/%s/%s.jsonl",
		strings.TrimRight(groundTruthPrefix, "/"),
		strings.Trim(hourPartition, "/"),
		suffix)
}
