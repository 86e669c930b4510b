package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client a bucket needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Bucket stores objects in an S3 bucket.
type S3Bucket struct {
	client     S3API
	name       string
	publicBase string
}

// NewS3Client loads credentials from the environment.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// NewS3Bucket creates a bucket. When publicBase is empty, public URLs use the
// virtual-hosted S3 endpoint of region.
func NewS3Bucket(client S3API, name, region, publicBase string) *S3Bucket {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", name, region)
	} else {
		publicBase = strings.TrimRight(publicBase, "/") + "/" + name
	}
	return &S3Bucket{client: client, name: name, publicBase: publicBase}
}

func (b *S3Bucket) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:       aws.String(b.name),
		Key:          aws.String(key),
		Body:         body,
		CacheControl: aws.String("max-age=3600"),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := b.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("storage.S3Bucket put %s/%s: %w", b.name, key, err)
	}
	return key, nil
}

func (b *S3Bucket) PublicURL(path string) string {
	return b.publicBase + "/" + url.PathEscape(path)
}
