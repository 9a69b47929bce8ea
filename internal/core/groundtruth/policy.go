package groundtruth

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/example/mqmon/internal/core/capture"
)

// ErrLabelMissing is returned when a policy needs the true label of a row
// that the label source does not have.
var ErrLabelMissing = errors.New("no label for row")

// Policy decides the ground-truth label written for one captured prediction.
type Policy interface {
	Label(index int, predicted capture.Prediction, labels LabelSource) (string, error)
}

// RandomPolicy draws a label independently of the true label, producing
// deliberate quality violations for exercising the monitor.
type RandomPolicy struct {
	Rand *rand.Rand

	// PositiveRate is the probability of drawing Positive.
	PositiveRate float64
	Positive     string
	Negative     string
}

// NewRandomPolicy returns a policy drawing "1" with probability rate and "0" otherwise.
func NewRandomPolicy(r *rand.Rand, rate float64) *RandomPolicy {
	return &RandomPolicy{Rand: r, PositiveRate: rate, Positive: "1", Negative: "0"}
}

func (p *RandomPolicy) Label(int, capture.Prediction, LabelSource) (string, error) {
	if p.Rand.Float64() < p.PositiveRate {
		return p.Positive, nil
	}
	return p.Negative, nil
}

// ComparePolicy labels a row Match when the prediction equals the true label
// and Mismatch otherwise.
type ComparePolicy struct {
	Match    string
	Mismatch string
}

// NewComparePolicy returns a policy writing "1.0" on agreement and "0.0" otherwise.
func NewComparePolicy() *ComparePolicy {
	return &ComparePolicy{Match: "1.0", Mismatch: "0.0"}
}

func (p *ComparePolicy) Label(index int, predicted capture.Prediction, labels LabelSource) (string, error) {
	truth, ok := labels.Label(index)
	if !ok {
		return "", fmt.Errorf("%w %d", ErrLabelMissing, index)
	}
	if sameValue(predicted.Value(), truth) {
		return p.Match, nil
	}
	return p.Mismatch, nil
}

// TruthPolicy writes the held-out label itself.
type TruthPolicy struct{}

func (TruthPolicy) Label(index int, _ capture.Prediction, labels LabelSource) (string, error) {
	truth, ok := labels.Label(index)
	if !ok {
		return "", fmt.Errorf("%w %d", ErrLabelMissing, index)
	}
	return truth, nil
}

// Policy names accepted by ParsePolicy.
const (
	PolicyRandom  = "random"
	PolicyCompare = "compare"
	PolicyTruth   = "truth"
)

// DefaultPositiveRate is the random policy's chance of drawing a positive label.
const DefaultPositiveRate = 0.5

// ParsePolicy builds a policy from its name.
func ParsePolicy(name string, r *rand.Rand, positiveRate float64) (Policy, error) {
	switch strings.ToLower(name) {
	case PolicyRandom, "":
		return NewRandomPolicy(r, positiveRate), nil
	case PolicyCompare:
		return NewComparePolicy(), nil
	case PolicyTruth:
		return TruthPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown label policy %q (want %s, %s or %s)", name, PolicyRandom, PolicyCompare, PolicyTruth)
	}
}

// sameValue compares two labels numerically when both parse as numbers, so
// "1" and "1.0" agree.
func sameValue(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return true
	}
	fa, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return false
	}
	fb, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return false
	}
	return fa == fb
}
