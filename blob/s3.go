package blob

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Mirror copies finished artifacts to secondary storage.
type Mirror interface {
	Mirror(ctx context.Context, path string) error
}

// NopMirror is used when no bucket is configured.
type NopMirror struct{}

func (NopMirror) Mirror(ctx context.Context, path string) error { return nil }

// S3Mirror uploads artifacts to an S3 bucket under their file name.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewMirror returns an S3Mirror when bucket is set and a NopMirror otherwise.
func NewMirror(ctx context.Context, bucket, region string) (Mirror, error) {
	if bucket == "" {
		return NopMirror{}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("could not load AWS config: %w", err)
	}
	return NewS3Mirror(cfg, bucket, "artifacts/"), nil
}

func NewS3Mirror(cfg aws.Config, bucket, prefix string, optFns ...func(*s3.Options)) *S3Mirror {
	return &S3Mirror{
		client: s3.NewFromConfig(cfg, optFns...),
		bucket: bucket,
		prefix: prefix,
	}
}

func (m *S3Mirror) Mirror(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.prefix + name),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("S3 upload failed: %w", err)
	}
	return nil
}
