// Package metrics implements the metrics port with Prometheus counters that
// are pushed to a Pushgateway when the command finishes.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/example/mqmon/internal/ports/secondary"
)

const namespace = "mqmon"

// Recorder implements secondary.Metrics.
type Recorder struct {
	registry *prometheus.Registry
	pusher   *push.Pusher

	pollTicks          *prometheus.CounterVec
	inferenceRequests  *prometheus.CounterVec
	captureRecords     prometheus.Counter
	decodeFailures     prometheus.Counter
	groundTruthRecords prometheus.Counter
}

// New creates a recorder. With an empty gatewayURL, Flush does nothing.
func New(gatewayURL, job, command string) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		pollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Status observations made while waiting on a remote resource.",
		}, []string{"resource", "state"}),
		inferenceRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_requests_total",
			Help:      "Inference requests sent, by endpoint and result.",
		}, []string{"endpoint", "result"}),
		captureRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_records_total",
			Help:      "Capture records decoded.",
		}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_decode_failures_total",
			Help:      "Capture records that could not be decoded.",
		}),
		groundTruthRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ground_truth_records_total",
			Help:      "Ground-truth records uploaded.",
		}),
	}
	r.registry.MustRegister(r.pollTicks, r.inferenceRequests, r.captureRecords, r.decodeFailures, r.groundTruthRecords)

	if gatewayURL != "" {
		r.pusher = push.New(gatewayURL, job).Gatherer(r.registry)
		if command != "" {
			r.pusher = r.pusher.Grouping("command", command)
		}
	}
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) PollTick(resource, state string) {
	r.pollTicks.WithLabelValues(resource, state).Inc()
}

func (r *Recorder) InferenceRequest(endpoint string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.inferenceRequests.WithLabelValues(endpoint, result).Inc()
}

func (r *Recorder) CaptureRecords(n int)     { r.captureRecords.Add(float64(n)) }
func (r *Recorder) DecodeFailure()           { r.decodeFailures.Inc() }
func (r *Recorder) GroundTruthRecords(n int) { r.groundTruthRecords.Add(float64(n)) }

// Flush pushes every counter to the gateway, replacing the previous push of
// the same job and command.
func (r *Recorder) Flush(ctx context.Context) error {
	if r.pusher == nil {
		return nil
	}
	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// Ensure Recorder implements the interface
var _ secondary.Metrics = (*Recorder)(nil)
