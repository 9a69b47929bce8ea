// Package awsclient builds the shared AWS configuration and translates
// platform errors into the secondary port sentinels.
package awsclient

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Options selects the region and credentials. Static keys win over the
// profile; with neither, the SDK default chain applies.
type Options struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

// Load resolves an aws.Config from opts.
func Load(ctx context.Context, opts Options) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{
		config.WithRegion(opts.Region),
	}
	switch {
	case opts.AccessKeyID != "" && opts.SecretAccessKey != "":
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	case opts.Profile != "" && opts.Profile != "default":
		loaders = append(loaders, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

// STSAPI is the subset of the STS client used to find the caller account.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// BucketResolver implements secondary.BucketResolver using the platform's
// default bucket naming, sagemaker-{region}-{account}.
type BucketResolver struct {
	client STSAPI
	region string
}

// NewBucketResolver creates a resolver from an AWS config.
func NewBucketResolver(cfg aws.Config) *BucketResolver {
	return NewBucketResolverWithClient(sts.NewFromConfig(cfg), cfg.Region)
}

// NewBucketResolverWithClient creates a resolver over an existing client.
func NewBucketResolverWithClient(client STSAPI, region string) *BucketResolver {
	return &BucketResolver{client: client, region: region}
}

// DefaultBucket returns the default bucket name for the caller's account.
func (r *BucketResolver) DefaultBucket(ctx context.Context) (string, error) {
	out, err := r.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", Translate("get caller identity", "", err)
	}
	account := aws.ToString(out.Account)
	if account == "" {
		return "", fmt.Errorf("caller identity has no account")
	}
	return fmt.Sprintf("sagemaker-%s-%s", r.region, account), nil
}
