package config

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the object storage client used for post images.
type S3Config struct {
	Client        *s3.Client
	Bucket        string
	PublicBaseURL string
}

// NewS3Config creates a new S3 configuration. S3_ENDPOINT_URL switches the
// client to path-style addressing for S3-compatible stores such as MinIO.
func NewS3Config(ctx context.Context) (*S3Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(getEnv("AWS_REGION", "us-east-1")),
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			key,
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	endpoint := os.Getenv("S3_ENDPOINT_URL")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	bucket := os.Getenv("S3_BUCKET_NAME")
	publicBaseURL := os.Getenv("S3_PUBLIC_BASE_URL")
	if publicBaseURL == "" {
		publicBaseURL = defaultPublicBaseURL(endpoint, bucket, cfg.Region)
	}

	return &S3Config{
		Client:        client,
		Bucket:        bucket,
		PublicBaseURL: publicBaseURL,
	}, nil
}

func defaultPublicBaseURL(endpoint, bucket, region string) string {
	if endpoint != "" {
		return endpoint + "/" + bucket
	}
	return "https://" + bucket + ".s3." + region + ".amazonaws.com"
}
