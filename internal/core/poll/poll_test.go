package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errGone     = errors.New("gone")
	errThrottle = errors.New("throttled")
)

// sequence returns a fetcher that yields states in order and repeats the last one.
func sequence(states ...string) (Fetcher[string], *int) {
	calls := 0
	return func(ctx context.Context) (string, error) {
		i := calls
		calls++
		if i >= len(states) {
			i = len(states) - 1
		}
		return states[i], nil
	}, &calls
}

func fastOptions() Options[string] {
	return Options[string]{
		Interval:   time.Millisecond,
		NotFound:   "NotFound",
		IsNotFound: func(err error) bool { return errors.Is(err, errGone) },
	}
}

func TestWaitUntil_ReturnsFirstTerminalState(t *testing.T) {
	fetch, calls := sequence("Pending", "Pending", "Scheduled", "Failed")

	var ticks []Tick[string]
	opts := fastOptions()
	opts.OnTick = func(tk Tick[string]) { ticks = append(ticks, tk) }

	state, err := WaitUntil(context.Background(), fetch, NewSet("Scheduled", "Failed"), opts)

	require.NoError(t, err)
	assert.Equal(t, "Scheduled", state)
	assert.Equal(t, 3, *calls)
	require.Len(t, ticks, 2)
	assert.Equal(t, 1, ticks[0].Attempt)
	assert.Equal(t, "Pending", ticks[1].State)
}

func TestWaitUntil_TerminalOnFirstFetchDoesNotTick(t *testing.T) {
	fetch, calls := sequence("InService")
	ticked := false
	opts := fastOptions()
	opts.OnTick = func(Tick[string]) { ticked = true }

	state, err := WaitUntil(context.Background(), fetch, NewSet("InService"), opts)

	require.NoError(t, err)
	assert.Equal(t, "InService", state)
	assert.Equal(t, 1, *calls)
	assert.False(t, ticked)
}

func TestWaitUntil_NeverReturnsNonTerminalState(t *testing.T) {
	tests := []struct {
		name     string
		states   []string
		terminal Set[string]
		want     string
	}{
		{"single pending then scheduled", []string{"Pending", "Scheduled"}, NewSet("Scheduled"), "Scheduled"},
		{"stopped is terminal", []string{"Pending", "Stopped"}, NewSet("Scheduled", "Stopped"), "Stopped"},
		{"skips other non-terminal states", []string{"Pending", "Updating", "Pending", "Failed"}, NewSet("Failed"), "Failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetch, _ := sequence(tt.states...)
			state, err := WaitUntil(context.Background(), fetch, tt.terminal, fastOptions())
			require.NoError(t, err)
			assert.True(t, tt.terminal.Contains(state))
			assert.Equal(t, tt.want, state)
		})
	}
}

func TestWaitUntil_NotFoundIsSurfacedAsState(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "Pending", nil
		}
		return "", errGone
	}

	state, err := WaitUntil(context.Background(), fetch, NewSet("Scheduled"), fastOptions())

	require.NoError(t, err)
	assert.Equal(t, "NotFound", state)
	assert.Equal(t, 3, calls)
}

func TestWaitUntil_FatalFetchErrorPropagates(t *testing.T) {
	boom := errors.New("access denied")
	fetch := func(ctx context.Context) (string, error) { return "", boom }

	_, err := WaitUntil(context.Background(), fetch, NewSet("Scheduled"), fastOptions())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestWaitUntil_TimeoutIsDistinguishable(t *testing.T) {
	fetch, _ := sequence("Pending")
	opts := fastOptions()
	opts.Timeout = 20 * time.Millisecond

	state, err := WaitUntil(context.Background(), fetch, NewSet("Scheduled"), opts)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "Pending", state)
}

func TestWaitUntil_CancelledContext(t *testing.T) {
	fetch, _ := sequence("Pending")
	ctx, cancel := context.WithCancel(context.Background())
	opts := fastOptions()
	opts.Interval = time.Hour
	opts.OnTick = func(Tick[string]) { cancel() }

	_, err := WaitUntil(ctx, fetch, NewSet("Scheduled"), opts)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestWaitUntil_RetriesTransientErrors(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errThrottle
		}
		return "Scheduled", nil
	}

	retries := 0
	opts := fastOptions()
	opts.IsTransient = func(err error) bool { return errors.Is(err, errThrottle) }
	opts.MaxTransientRetries = 5
	opts.OnRetry = func(error, time.Duration) { retries++ }

	state, err := WaitUntil(context.Background(), fetch, NewSet("Scheduled"), opts)

	require.NoError(t, err)
	assert.Equal(t, "Scheduled", state)
	assert.Equal(t, 2, retries)
}

func TestWaitUntil_NotFoundIsNotRetried(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "", errGone
	}
	opts := fastOptions()
	opts.IsTransient = func(err error) bool { return errors.Is(err, errThrottle) }
	opts.MaxTransientRetries = 5

	state, err := WaitUntil(context.Background(), fetch, NewSet("Scheduled"), opts)

	require.NoError(t, err)
	assert.Equal(t, "NotFound", state)
	assert.Equal(t, 1, calls)
}

func TestSet_Without(t *testing.T) {
	all := NewSet("a", "b", "c")
	rest := all.Without("b")

	assert.True(t, rest.Contains("a"))
	assert.False(t, rest.Contains("b"))
	assert.True(t, all.Contains("b"), "original set must be unchanged")
}
