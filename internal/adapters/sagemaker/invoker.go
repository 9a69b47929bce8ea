package sagemaker

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/example/mqmon/internal/adapters/awsclient"
	"github.com/example/mqmon/internal/ports/secondary"
)

// RuntimeAPI is the subset of the runtime client used to invoke endpoints.
type RuntimeAPI interface {
	InvokeEndpoint(ctx context.Context, params *sagemakerruntime.InvokeEndpointInput, optFns ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// Invoker implements secondary.InferenceInvoker.
type Invoker struct {
	client RuntimeAPI
}

// NewInvoker creates an invoker from an AWS config.
func NewInvoker(cfg aws.Config) *Invoker {
	return NewInvokerWithClient(sagemakerruntime.NewFromConfig(cfg))
}

// NewInvokerWithClient creates an invoker over an existing client.
func NewInvokerWithClient(client RuntimeAPI) *Invoker {
	return &Invoker{client: client}
}

// Invoke sends one request tagged with its inference id and returns the raw body.
func (i *Invoker) Invoke(ctx context.Context, req *secondary.InvokeRequest) ([]byte, error) {
	in := &sagemakerruntime.InvokeEndpointInput{
		EndpointName: aws.String(req.EndpointName),
		Body:         req.Body,
		ContentType:  aws.String(req.ContentType),
	}
	if req.Accept != "" {
		in.Accept = aws.String(req.Accept)
	}
	if req.InferenceID != "" {
		in.InferenceId = aws.String(req.InferenceID)
	}

	out, err := i.client.InvokeEndpoint(ctx, in)
	if err != nil {
		return nil, awsclient.Translate("invoke endpoint", req.EndpointName, err)
	}
	return out.Body, nil
}

// Ensure Invoker implements the interface
var _ secondary.InferenceInvoker = (*Invoker)(nil)
