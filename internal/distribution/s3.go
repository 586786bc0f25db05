package distribution

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader mirrors the document library into an S3 bucket.
type S3Uploader struct {
	Client *s3.Client
	Bucket string
}

// NewS3Uploader returns a disabled uploader when bucket is empty.
func NewS3Uploader(ctx context.Context, bucket, region string) (*S3Uploader, error) {
	if bucket == "" {
		return &S3Uploader{}, nil
	}
	if region == "" {
		region = "ap-southeast-1"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return &S3Uploader{Client: s3.NewFromConfig(cfg), Bucket: bucket}, nil
}

// Enabled reports whether a bucket is configured.
func (u *S3Uploader) Enabled() bool { return u != nil && u.Client != nil && u.Bucket != "" }

// Upload puts body at key in the bucket, replacing any previous object.
func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	if !u.Enabled() {
		return fmt.Errorf("s3 uploader not configured")
	}
	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return err
}
