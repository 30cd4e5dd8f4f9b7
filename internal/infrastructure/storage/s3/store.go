// Package s3 stores profile avatars in an S3 bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store implements ports.AvatarStore.
type Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewClient creates an S3 client. When endpoint is set (LocalStack) it
// enables path-style addressing.
func NewClient(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// NewStore builds a store for bucket. Public URLs are built from
// publicBaseURL when set, else from the endpoint in path style, else from the
// regional virtual-hosted AWS URL.
func NewStore(client *s3.Client, bucket, region, endpoint, publicBaseURL string) *Store {
	return &Store{client: client, bucket: bucket, baseURL: publicBase(bucket, region, endpoint, publicBaseURL)}
}

func publicBase(bucket, region, endpoint, publicBaseURL string) string {
	switch {
	case publicBaseURL != "":
		return strings.TrimRight(publicBaseURL, "/")
	case endpoint != "":
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
}

// Upload streams r to key and returns its public URL.
func (s *Store) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return s.PublicURL(key), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete object: %w", err)
	}
	return nil
}

// PublicURL is the retrieval URL of key.
func (s *Store) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + strings.Join(parts, "/")
}
