// Package poll contains the blocking wait primitive used for every remote
// state transition the monitor lifecycle depends on: schedule creation,
// schedule deletion and endpoint readiness.
//
// The engine is read-only. It calls a fetch function until the observed
// state is terminal, sleeping a fixed interval between calls. A "not found"
// answer from the fetch function is never an error here; it is surfaced as
// the caller-supplied NotFound state, which always ends the wait.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultInterval is the sleep between two fetches when Options.Interval is unset.
const DefaultInterval = 3 * time.Second

// ErrTimeout is returned when the deadline expires before a terminal state is observed.
var ErrTimeout = errors.New("timed out waiting for terminal state")

// Set is a set of states.
type Set[S comparable] map[S]struct{}

// NewSet builds a Set from the given states.
func NewSet[S comparable](states ...S) Set[S] {
	s := make(Set[S], len(states))
	for _, st := range states {
		s[st] = struct{}{}
	}
	return s
}

// Contains reports whether state is a member of the set.
func (s Set[S]) Contains(state S) bool {
	_, ok := s[state]
	return ok
}

// Without returns a copy of the set with the given states removed.
func (s Set[S]) Without(states ...S) Set[S] {
	out := make(Set[S], len(s))
	for st := range s {
		out[st] = struct{}{}
	}
	for _, st := range states {
		delete(out, st)
	}
	return out
}

// Fetcher returns the current state of a remote resource.
type Fetcher[S comparable] func(ctx context.Context) (S, error)

// Tick describes one non-terminal observation.
type Tick[S comparable] struct {
	Attempt int
	State   S
	Elapsed time.Duration
}

// Options tunes a wait.
type Options[S comparable] struct {
	// Interval between fetches. Defaults to DefaultInterval.
	Interval time.Duration

	// Timeout bounds the whole wait. Zero means no deadline of its own;
	// the parent context still applies.
	Timeout time.Duration

	// NotFound is the state reported when IsNotFound matches a fetch error.
	NotFound S

	// IsNotFound classifies fetch errors meaning the resource is absent.
	IsNotFound func(error) bool

	// IsTransient classifies fetch errors worth retrying with backoff
	// (throttling, eventual-consistency lag). Nil disables retries.
	IsTransient func(error) bool

	// MaxTransientRetries caps backoff retries for a single fetch.
	MaxTransientRetries uint

	// OnTick is invoked for every non-terminal observation.
	OnTick func(Tick[S])

	// OnRetry is invoked before a transient error is retried.
	OnRetry func(err error, wait time.Duration)
}

// WaitUntil calls fetch until it returns a state contained in terminal and
// returns that state. The returned state is always the first terminal state
// observed, or opts.NotFound when the resource disappeared. On timeout or
// cancellation it returns the last observed state together with an error.
func WaitUntil[S comparable](ctx context.Context, fetch Fetcher[S], terminal Set[S], opts Options[S]) (S, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	var last S
	for attempt := 1; ; attempt++ {
		state, err := fetchOnce(ctx, fetch, interval, opts)
		if err != nil {
			if opts.IsNotFound != nil && opts.IsNotFound(err) {
				return opts.NotFound, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return last, deadlineError(ctxErr, last, time.Since(start))
			}
			return last, fmt.Errorf("failed to fetch state: %w", err)
		}

		if terminal.Contains(state) {
			return state, nil
		}
		last = state

		if opts.OnTick != nil {
			opts.OnTick(Tick[S]{Attempt: attempt, State: state, Elapsed: time.Since(start)})
		}

		if err := sleep(ctx, interval); err != nil {
			return last, deadlineError(err, last, time.Since(start))
		}
	}
}

func fetchOnce[S comparable](ctx context.Context, fetch Fetcher[S], interval time.Duration, opts Options[S]) (S, error) {
	if opts.IsTransient == nil {
		return fetch(ctx)
	}

	op := func() (S, error) {
		state, err := fetch(ctx)
		if err != nil && !opts.IsTransient(err) {
			return state, backoff.Permanent(err)
		}
		return state, err
	}

	b := backoff.NewExponentialBackOff()
	if interval < b.InitialInterval {
		b.InitialInterval = interval
	}
	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(opts.MaxTransientRetries + 1),
	}
	if opts.OnRetry != nil {
		retryOpts = append(retryOpts, backoff.WithNotify(opts.OnRetry))
	}
	return backoff.Retry(ctx, op, retryOpts...)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func deadlineError[S comparable](err error, last S, elapsed time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s (last state %v)", ErrTimeout, elapsed.Round(time.Second), last)
	}
	return err
}
