package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/mqmon/internal/core/poll"
	"github.com/example/mqmon/internal/ports/secondary"
)

// Settings carries the configuration values the services need.
type Settings struct {
	JobPrefix         string
	InferenceIDPrefix string
	Bucket            string
	RoleARN           string
	MonitorImageURI   string
	InstanceType      string

	PollInterval        time.Duration
	PollTimeout         time.Duration
	MaxTransientRetries uint
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		JobPrefix:           "sts",
		InferenceIDPrefix:   "sts_",
		InstanceType:        "ml.m5.xlarge",
		PollInterval:        poll.DefaultInterval,
		PollTimeout:         30 * time.Minute,
		MaxTransientRetries: 5,
	}
}

func isNotFound(err error) bool  { return errors.Is(err, secondary.ErrNotFound) }
func isTransient(err error) bool { return errors.Is(err, secondary.ErrTransient) }

// pollOptions builds wait options that log every non-terminal poll and
// count it in metrics.
func pollOptions[S comparable](settings Settings, log zerolog.Logger, metrics secondary.Metrics, resource, name string, notFound S) poll.Options[S] {
	return poll.Options[S]{
		Interval:            settings.PollInterval,
		Timeout:             settings.PollTimeout,
		NotFound:            notFound,
		IsNotFound:          isNotFound,
		IsTransient:         isTransient,
		MaxTransientRetries: settings.MaxTransientRetries,
		OnTick: func(t poll.Tick[S]) {
			state := fmt.Sprint(t.State)
			metrics.PollTick(resource, state)
			log.Info().
				Str("resource", resource).
				Str("name", name).
				Str("state", state).
				Int("attempt", t.Attempt).
				Dur("elapsed", t.Elapsed).
				Msgf("waiting for %s", name)
		},
		OnRetry: func(err error, wait time.Duration) {
			log.Warn().Err(err).Str("resource", resource).Dur("backoff", wait).Msg("transient error, retrying")
		},
	}
}

// bucketFor returns the configured bucket or resolves the account default.
func bucketFor(ctx context.Context, settings Settings, resolver secondary.BucketResolver) (string, error) {
	if settings.Bucket != "" {
		return settings.Bucket, nil
	}
	if resolver == nil {
		return "", errors.New("no bucket configured (set MQMON_BUCKET)")
	}
	bucket, err := resolver.DefaultBucket(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve default bucket: %w", err)
	}
	return bucket, nil
}
