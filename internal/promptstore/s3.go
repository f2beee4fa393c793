package promptstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of S3 the source needs.
type S3Client interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// S3ClientConfig configures NewS3Client.
type S3ClientConfig struct {
	Region  string
	Profile string
	// Endpoint targets an S3-compatible service such as MinIO. Path-style
	// addressing is used when it is set.
	Endpoint string
}

// NewS3Client loads the default AWS credential chain and creates a client.
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// AWSS3Client implements S3Client using AWS SDK v2.
type AWSS3Client struct {
	s3Client *s3.Client
}

// NewAWSS3Client wraps an SDK client.
func NewAWSS3Client(s3Client *s3.Client) *AWSS3Client {
	return &AWSS3Client{s3Client: s3Client}
}

// GetObject downloads bucket/key. A missing key is ErrNotFound.
func (c *AWSS3Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	result, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s from bucket %s: %w", key, bucket, err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// S3Source reads overrides from bucket under prefix.
type S3Source struct {
	bucket string
	prefix string
	client S3Client
}

// NewS3Source creates an S3Source.
func NewS3Source(bucket, prefix string, client S3Client) *S3Source {
	return &S3Source{bucket: bucket, prefix: prefix, client: client}
}

// Read downloads the override for name.
func (p *S3Source) Read(ctx context.Context, name string) ([]byte, error) {
	return p.client.GetObject(ctx, p.bucket, p.key(name))
}

// Location returns the s3:// URI for name.
func (p *S3Source) Location(name string) string {
	return "s3://" + p.bucket + "/" + p.key(name)
}

func (p *S3Source) key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}
