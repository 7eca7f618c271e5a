package clients

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spacesedan/postsentiment/config"
)

// AWS bundles the SDK configuration with the optional endpoint override used
// for local stacks.
type AWS struct {
	Config   aws.Config
	Endpoint string
}

func LoadAWS(ctx context.Context, cfg config.ArchiveConfig) (*AWS, error) {
	slog.Info("[AWSClient] Initializing AWS Config...", slog.String("region", cfg.Region))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("[AWSClient] Failed to load AWS config: %w", err)
	}

	slog.Info("[AWSClient] AWS Config Initialized")
	return &AWS{Config: awsCfg, Endpoint: cfg.Endpoint}, nil
}

func (a *AWS) DynamoDB() *dynamodb.Client {
	return dynamodb.NewFromConfig(a.Config, func(o *dynamodb.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
		}
	})
}

func (a *AWS) S3() *s3.Client {
	return s3.NewFromConfig(a.Config, func(o *s3.Options) {
		if a.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.Endpoint)
			o.UsePathStyle = true
		}
	})
}
