package sagemaker

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	sm "github.com/aws/aws-sdk-go-v2/service/sagemaker"

	"github.com/example/mqmon/internal/adapters/awsclient"
	"github.com/example/mqmon/internal/ports/secondary"
)

// DescribeEndpoint returns the endpoint status and its capture settings.
func (p *Platform) DescribeEndpoint(ctx context.Context, name string) (*secondary.EndpointDescription, error) {
	out, err := p.client.DescribeEndpoint(ctx, &sm.DescribeEndpointInput{EndpointName: aws.String(name)})
	if err != nil {
		return nil, awsclient.Translate("describe endpoint", name, err)
	}

	d := &secondary.EndpointDescription{
		Name:          aws.ToString(out.EndpointName),
		ARN:           aws.ToString(out.EndpointArn),
		ConfigName:    aws.ToString(out.EndpointConfigName),
		Status:        string(out.EndpointStatus),
		FailureReason: aws.ToString(out.FailureReason),
	}
	if c := out.DataCaptureConfig; c != nil {
		d.CaptureOn = aws.ToBool(c.EnableCapture)
		d.CaptureURI = aws.ToString(c.DestinationS3Uri)
	}
	return d, nil
}

// EndpointModels returns the models behind every production variant.
func (p *Platform) EndpointModels(ctx context.Context, configName string) ([]string, error) {
	out, err := p.client.DescribeEndpointConfig(ctx, &sm.DescribeEndpointConfigInput{
		EndpointConfigName: aws.String(configName),
	})
	if err != nil {
		return nil, awsclient.Translate("describe endpoint config", configName, err)
	}

	var models []string
	seen := map[string]bool{}
	for _, v := range out.ProductionVariants {
		name := aws.ToString(v.ModelName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		models = append(models, name)
	}
	return models, nil
}

// DeleteEndpoint deletes the endpoint.
func (p *Platform) DeleteEndpoint(ctx context.Context, name string) error {
	_, err := p.client.DeleteEndpoint(ctx, &sm.DeleteEndpointInput{EndpointName: aws.String(name)})
	return awsclient.Translate("delete endpoint", name, err)
}

// DeleteEndpointConfig deletes the endpoint configuration.
func (p *Platform) DeleteEndpointConfig(ctx context.Context, name string) error {
	_, err := p.client.DeleteEndpointConfig(ctx, &sm.DeleteEndpointConfigInput{EndpointConfigName: aws.String(name)})
	return awsclient.Translate("delete endpoint config", name, err)
}

// DeleteModel deletes the model.
func (p *Platform) DeleteModel(ctx context.Context, name string) error {
	_, err := p.client.DeleteModel(ctx, &sm.DeleteModelInput{ModelName: aws.String(name)})
	return awsclient.Translate("delete model", name, err)
}

// Ensure Platform implements the interface
var _ secondary.EndpointPlatform = (*Platform)(nil)
