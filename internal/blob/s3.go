// Package blob signs read URLs for menu images kept in an S3-compatible bucket.
package blob

import (
	"context"
	"fmt"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Config holds construction parameters for the S3 presigner.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; set for MinIO or other S3-compatible stores
	PathStyle       bool
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string
	Expiry          time.Duration
}

// S3Presigner produces time-limited GET URLs for object keys.
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Presigner builds a presigner. No network call is made until a URL is signed,
// and signing itself is local.
func NewS3Presigner(ctx context.Context, cfg Config) (*S3Presigner, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  expiry,
	}, nil
}

// PresignGet returns a signed GET URL for key.
func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	out, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) { po.Expires = p.expiry })
	if err != nil {
		return "", err
	}
	return out.URL, nil
}
