// Package awsconfig builds the shared AWS SDK configuration for the service's clients.
package awsconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go"

	"github.com/yongikim/photolio-lambda-functions/internal/config"
)

// Load returns an aws.Config for the configured region. When an endpoint override
// is set (LocalStack) static credentials are used.
// Each SDK call is attempted once: the SDK retryer is limited to a single attempt.
func Load(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	httpClient := awshttp.NewBuildableClient().WithTimeout(cfg.AWSHTTPTimeout())

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.AWSRegion),
		awscfg.WithHTTPClient(httpClient),
		awscfg.WithRetryMaxAttempts(1),
	}
	if cfg.AWSEndpointURL != "" {
		opts = append(opts,
			awscfg.WithBaseEndpoint(cfg.AWSEndpointURL),
			awscfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("localstack", "localstack", "")),
		)
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// ErrorCode returns the AWS API error code carried by err, or "" for non-API errors.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
