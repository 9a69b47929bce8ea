// Package config loads the mqmon configuration from defaults, an optional
// YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/mqmon/internal/logger"
)

// Object store backends.
const (
	StoreS3    = "s3"
	StoreMinIO = "minio"
)

// LedgerOff disables the handle ledger.
const LedgerOff = "off"

// Config is the full process configuration.
type Config struct {
	AWS               AWSConfig     `yaml:"aws"`
	JobPrefix         string        `yaml:"base_job_prefix"`
	InferenceIDPrefix string        `yaml:"inference_id_prefix"`
	Bucket            string        `yaml:"bucket"` // empty: sagemaker-{region}-{account}
	MonitorImageURI   string        `yaml:"monitor_image_uri"`
	InstanceType      string        `yaml:"instance_type"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollTimeout       time.Duration `yaml:"poll_timeout"`     // 0 waits forever
	PollMaxRetries    uint          `yaml:"poll_max_retries"` // transient errors retried per fetch
	Store             StoreConfig   `yaml:"store"`
	LedgerPath        string        `yaml:"ledger"` // empty: ~/.mqmon/mqmon.db
	PushgatewayURL    string        `yaml:"pushgateway"`
	Log               logger.Config `yaml:"log"`
}

// AWSConfig selects the account, region and execution role.
type AWSConfig struct {
	Region          string `yaml:"region"`
	Profile         string `yaml:"profile"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	RoleARN         string `yaml:"role_arn"`
}

// StoreConfig selects the object store.
type StoreConfig struct {
	Backend string      `yaml:"backend"`
	MinIO   MinIOConfig `yaml:"minio"`
}

// MinIOConfig holds the MinIO connection settings.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{
			Region:  "eu-west-1",
			Profile: "default",
		},
		JobPrefix:         "sts",
		InferenceIDPrefix: "sts_",
		InstanceType:      "ml.m5.xlarge",
		PollInterval:      3 * time.Second,
		PollTimeout:       30 * time.Minute,
		PollMaxRetries:    5,
		Store:             StoreConfig{Backend: StoreS3},
		Log:               logger.Config{Level: "info", Output: "stderr"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the process environment.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"AWS_DEFAULT_REGION":      &c.AWS.Region,
		"AWS_PROFILE":             &c.AWS.Profile,
		"AWS_ACCESS_KEY_ID":       &c.AWS.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY":   &c.AWS.SecretAccessKey,
		"AWS_ROLE":                &c.AWS.RoleARN,
		"BASE_JOB_PREFIX":         &c.JobPrefix,
		"INFERENCE_ID_PREFIX":     &c.InferenceIDPrefix,
		"MQMON_BUCKET":            &c.Bucket,
		"MQMON_MONITOR_IMAGE_URI": &c.MonitorImageURI,
		"MQMON_INSTANCE_TYPE":     &c.InstanceType,
		"MQMON_STORE":             &c.Store.Backend,
		"MQMON_MINIO_ENDPOINT":    &c.Store.MinIO.Endpoint,
		"MQMON_MINIO_ACCESS_KEY":  &c.Store.MinIO.AccessKey,
		"MQMON_MINIO_SECRET_KEY":  &c.Store.MinIO.SecretKey,
		"MQMON_LEDGER":            &c.LedgerPath,
		"MQMON_PUSHGATEWAY":       &c.PushgatewayURL,
		"MQMON_LOG_LEVEL":         &c.Log.Level,
		"MQMON_LOG_OUTPUT":        &c.Log.Output,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"MQMON_POLL_INTERVAL": &c.PollInterval,
		"MQMON_POLL_TIMEOUT":  &c.PollTimeout,
	}
	for key, dst := range durations {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("MQMON_POLL_MAX_RETRIES"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid MQMON_POLL_MAX_RETRIES: %w", err)
		}
		c.PollMaxRetries = uint(n)
	}

	bools := map[string]*bool{
		"MQMON_MINIO_USE_SSL": &c.Store.MinIO.UseSSL,
		"MQMON_DEBUG":         &c.Log.Debug,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Store.Backend) {
	case StoreS3, StoreMinIO:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q: want %s or %s", c.Store.Backend, StoreS3, StoreMinIO))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %s", c.PollInterval))
	}
	if c.PollTimeout < 0 {
		errs = append(errs, fmt.Errorf("poll timeout must not be negative, got %s", c.PollTimeout))
	}
	if c.AWS.Region == "" {
		errs = append(errs, errors.New("aws region is required"))
	}
	if c.JobPrefix == "" {
		errs = append(errs, errors.New("base job prefix is required"))
	}
	switch c.Log.Output {
	case "", "stderr", "stdout", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log output %q", c.Log.Output))
	}

	return errors.Join(errs...)
}

// LedgerEnabled reports whether the handle ledger should be opened.
func (c *Config) LedgerEnabled() bool {
	return !strings.EqualFold(c.LedgerPath, LedgerOff)
}
