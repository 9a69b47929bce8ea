// Package sagemaker implements the monitoring, endpoint and inference ports
// over the SageMaker control plane and runtime.
package sagemaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sm "github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/example/mqmon/internal/adapters/awsclient"
	"github.com/example/mqmon/internal/ports/secondary"
)

// Container paths used by the model monitor analyzer image.
const (
	baselineInputPath   = "/opt/ml/processing/input/baseline_dataset_input"
	groundTruthPath     = "/opt/ml/processing/groundtruth"
	endpointInputPath   = "/opt/ml/processing/input_data"
	outputPath          = "/opt/ml/processing/output"
	defaultVolumeSizeGB = 30
)

// API is the subset of the SageMaker control plane client used here.
type API interface {
	CreateModelQualityJobDefinition(ctx context.Context, params *sm.CreateModelQualityJobDefinitionInput, optFns ...func(*sm.Options)) (*sm.CreateModelQualityJobDefinitionOutput, error)
	DeleteModelQualityJobDefinition(ctx context.Context, params *sm.DeleteModelQualityJobDefinitionInput, optFns ...func(*sm.Options)) (*sm.DeleteModelQualityJobDefinitionOutput, error)
	CreateMonitoringSchedule(ctx context.Context, params *sm.CreateMonitoringScheduleInput, optFns ...func(*sm.Options)) (*sm.CreateMonitoringScheduleOutput, error)
	DescribeMonitoringSchedule(ctx context.Context, params *sm.DescribeMonitoringScheduleInput, optFns ...func(*sm.Options)) (*sm.DescribeMonitoringScheduleOutput, error)
	DeleteMonitoringSchedule(ctx context.Context, params *sm.DeleteMonitoringScheduleInput, optFns ...func(*sm.Options)) (*sm.DeleteMonitoringScheduleOutput, error)
	CreateProcessingJob(ctx context.Context, params *sm.CreateProcessingJobInput, optFns ...func(*sm.Options)) (*sm.CreateProcessingJobOutput, error)
	DescribeProcessingJob(ctx context.Context, params *sm.DescribeProcessingJobInput, optFns ...func(*sm.Options)) (*sm.DescribeProcessingJobOutput, error)
	DescribeEndpoint(ctx context.Context, params *sm.DescribeEndpointInput, optFns ...func(*sm.Options)) (*sm.DescribeEndpointOutput, error)
	DescribeEndpointConfig(ctx context.Context, params *sm.DescribeEndpointConfigInput, optFns ...func(*sm.Options)) (*sm.DescribeEndpointConfigOutput, error)
	DeleteEndpoint(ctx context.Context, params *sm.DeleteEndpointInput, optFns ...func(*sm.Options)) (*sm.DeleteEndpointOutput, error)
	DeleteEndpointConfig(ctx context.Context, params *sm.DeleteEndpointConfigInput, optFns ...func(*sm.Options)) (*sm.DeleteEndpointConfigOutput, error)
	DeleteModel(ctx context.Context, params *sm.DeleteModelInput, optFns ...func(*sm.Options)) (*sm.DeleteModelOutput, error)
}

// Platform implements secondary.MonitoringPlatform and secondary.EndpointPlatform.
type Platform struct {
	client API
}

// NewPlatform creates a platform adapter from an AWS config.
func NewPlatform(cfg aws.Config) *Platform {
	return NewPlatformWithClient(sm.NewFromConfig(cfg))
}

// NewPlatformWithClient creates a platform adapter over an existing client.
func NewPlatformWithClient(client API) *Platform {
	return &Platform{client: client}
}

// CreateMonitoringSchedule creates the model-quality job definition, then the
// schedule that runs it. The job definition is removed again if the schedule
// cannot be created.
func (p *Platform) CreateMonitoringSchedule(ctx context.Context, in *secondary.CreateScheduleInput) (string, error) {
	if _, err := p.client.CreateModelQualityJobDefinition(ctx, jobDefinitionInput(in)); err != nil {
		return "", awsclient.Translate("create job definition", in.JobDefinitionName, err)
	}

	out, err := p.client.CreateMonitoringSchedule(ctx, &sm.CreateMonitoringScheduleInput{
		MonitoringScheduleName: aws.String(in.ScheduleName),
		MonitoringScheduleConfig: &types.MonitoringScheduleConfig{
			MonitoringJobDefinitionName: aws.String(in.JobDefinitionName),
			MonitoringType:              types.MonitoringTypeModelQuality,
			ScheduleConfig: &types.ScheduleConfig{
				ScheduleExpression: aws.String(in.CronExpression),
			},
		},
	})
	if err != nil {
		err = awsclient.Translate("create monitoring schedule", in.ScheduleName, err)
		_, rbErr := p.client.DeleteModelQualityJobDefinition(ctx, &sm.DeleteModelQualityJobDefinitionInput{
			JobDefinitionName: aws.String(in.JobDefinitionName),
		})
		if rbErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove job definition %s: %w", in.JobDefinitionName, rbErr))
		}
		return "", err
	}
	return aws.ToString(out.MonitoringScheduleArn), nil
}

func jobDefinitionInput(in *secondary.CreateScheduleInput) *sm.CreateModelQualityJobDefinitionInput {
	def := &sm.CreateModelQualityJobDefinitionInput{
		JobDefinitionName: aws.String(in.JobDefinitionName),
		RoleArn:           aws.String(in.RoleARN),
		JobResources: &types.MonitoringResources{
			ClusterConfig: &types.MonitoringClusterConfig{
				InstanceCount:  aws.Int32(1),
				InstanceType:   types.ProcessingInstanceType(in.InstanceType),
				VolumeSizeInGB: aws.Int32(defaultVolumeSizeGB),
			},
		},
		ModelQualityAppSpecification: &types.ModelQualityAppSpecification{
			ImageUri:    aws.String(in.ImageURI),
			ProblemType: types.MonitoringProblemType(in.ProblemType),
		},
		ModelQualityJobInput: &types.ModelQualityJobInput{
			EndpointInput: &types.EndpointInput{
				EndpointName:       aws.String(in.EndpointName),
				LocalPath:          aws.String(endpointInputPath),
				InferenceAttribute: aws.String(in.InferenceAttribute),
			},
			GroundTruthS3Input: &types.MonitoringGroundTruthS3Input{
				S3Uri: aws.String(in.GroundTruthURI),
			},
		},
		ModelQualityJobOutputConfig: &types.MonitoringOutputConfig{
			MonitoringOutputs: []types.MonitoringOutput{{
				S3Output: &types.MonitoringS3Output{
					LocalPath:    aws.String(outputPath),
					S3Uri:        aws.String(in.OutputURI),
					S3UploadMode: types.ProcessingS3UploadModeEndOfJob,
				},
			}},
		},
	}
	if in.MaxRuntime > 0 {
		def.StoppingCondition = &types.MonitoringStoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(in.MaxRuntime / time.Second)),
		}
	}
	if in.ConstraintsURI != "" {
		def.ModelQualityBaselineConfig = &types.ModelQualityBaselineConfig{
			ConstraintsResource: &types.MonitoringConstraintsResource{S3Uri: aws.String(in.ConstraintsURI)},
		}
	}
	return def
}

// DescribeMonitoringSchedule returns the schedule status and last execution.
func (p *Platform) DescribeMonitoringSchedule(ctx context.Context, name string) (*secondary.ScheduleDescription, error) {
	out, err := p.client.DescribeMonitoringSchedule(ctx, &sm.DescribeMonitoringScheduleInput{
		MonitoringScheduleName: aws.String(name),
	})
	if err != nil {
		return nil, awsclient.Translate("describe monitoring schedule", name, err)
	}

	d := &secondary.ScheduleDescription{
		Name:          aws.ToString(out.MonitoringScheduleName),
		ARN:           aws.ToString(out.MonitoringScheduleArn),
		Status:        string(out.MonitoringScheduleStatus),
		FailureReason: aws.ToString(out.FailureReason),
		EndpointName:  aws.ToString(out.EndpointName),
		CreatedAt:     aws.ToTime(out.CreationTime),
		ModifiedAt:    aws.ToTime(out.LastModifiedTime),
	}
	if last := out.LastMonitoringExecutionSummary; last != nil {
		d.LastExecutionStatus = string(last.MonitoringExecutionStatus)
		d.LastExecutionTime = aws.ToTime(last.ScheduledTime)
		d.LastExecutionReport = aws.ToString(last.ProcessingJobArn)
		if reason := aws.ToString(last.FailureReason); reason != "" {
			d.LastExecutionReport = reason
		}
	}
	return d, nil
}

// DeleteMonitoringSchedule issues the delete request.
func (p *Platform) DeleteMonitoringSchedule(ctx context.Context, name string) error {
	_, err := p.client.DeleteMonitoringSchedule(ctx, &sm.DeleteMonitoringScheduleInput{
		MonitoringScheduleName: aws.String(name),
	})
	return awsclient.Translate("delete monitoring schedule", name, err)
}

// StartBaselineJob starts the analyzer image as a processing job that
// suggests model-quality constraints from a labelled dataset.
func (p *Platform) StartBaselineJob(ctx context.Context, in *secondary.BaselineJobInput) error {
	_, err := p.client.CreateProcessingJob(ctx, baselineJobInput(in))
	return awsclient.Translate("start baseline job", in.JobName, err)
}

func baselineJobInput(in *secondary.BaselineJobInput) *sm.CreateProcessingJobInput {
	job := &sm.CreateProcessingJobInput{
		ProcessingJobName: aws.String(in.JobName),
		RoleArn:           aws.String(in.RoleARN),
		AppSpecification:  &types.AppSpecification{ImageUri: aws.String(in.ImageURI)},
		ProcessingResources: &types.ProcessingResources{
			ClusterConfig: &types.ProcessingClusterConfig{
				InstanceCount:  aws.Int32(1),
				InstanceType:   types.ProcessingInstanceType(in.InstanceType),
				VolumeSizeInGB: aws.Int32(defaultVolumeSizeGB),
			},
		},
		ProcessingInputs: []types.ProcessingInput{{
			InputName: aws.String("baseline_dataset_input"),
			S3Input: &types.ProcessingS3Input{
				S3Uri:       aws.String(in.DatasetURI),
				LocalPath:   aws.String(baselineInputPath),
				S3DataType:  types.ProcessingS3DataTypeS3Prefix,
				S3InputMode: types.ProcessingS3InputModeFile,
			},
		}},
		ProcessingOutputConfig: &types.ProcessingOutputConfig{
			Outputs: []types.ProcessingOutput{{
				OutputName: aws.String("monitoring_output"),
				S3Output: &types.ProcessingS3Output{
					S3Uri:        aws.String(in.OutputURI),
					LocalPath:    aws.String(outputPath),
					S3UploadMode: types.ProcessingS3UploadModeEndOfJob,
				},
			}},
		},
		Environment: map[string]string{
			"analysis_type":              "MODEL_QUALITY",
			"dataset_format":             `{"csv": {"header": true, "output_columns_position": "START"}}`,
			"dataset_source":             baselineInputPath,
			"output_path":                outputPath,
			"problem_type":               in.ProblemType,
			"inference_attribute":        in.InferenceAttribute,
			"ground_truth_attribute":     in.GroundTruthAttribute,
			"publish_cloudwatch_metrics": "Disabled",
		},
	}
	if in.MaxRuntime > 0 {
		job.StoppingCondition = &types.ProcessingStoppingCondition{
			MaxRuntimeInSeconds: aws.Int32(int32(in.MaxRuntime / time.Second)),
		}
	}
	return job
}

// DescribeBaselineJob returns the processing job status.
func (p *Platform) DescribeBaselineJob(ctx context.Context, name string) (*secondary.JobDescription, error) {
	out, err := p.client.DescribeProcessingJob(ctx, &sm.DescribeProcessingJobInput{
		ProcessingJobName: aws.String(name),
	})
	if err != nil {
		return nil, awsclient.Translate("describe baseline job", name, err)
	}

	d := &secondary.JobDescription{
		Name:          aws.ToString(out.ProcessingJobName),
		Status:        string(out.ProcessingJobStatus),
		FailureReason: aws.ToString(out.FailureReason),
	}
	if d.FailureReason == "" {
		d.FailureReason = aws.ToString(out.ExitMessage)
	}
	if cfg := out.ProcessingOutputConfig; cfg != nil && len(cfg.Outputs) > 0 && cfg.Outputs[0].S3Output != nil {
		d.OutputURI = aws.ToString(cfg.Outputs[0].S3Output.S3Uri)
	}
	return d, nil
}

// Ensure Platform implements the interface
var _ secondary.MonitoringPlatform = (*Platform)(nil)
