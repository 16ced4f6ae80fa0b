package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Uploader stores an object under key.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error)
}

// S3Client archives objects in a single bucket below a key prefix.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Client creates a new S3 client from the default AWS config chain.
func NewS3Client(ctx context.Context, bucket, prefix string) (*S3Client, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	cli := s3.NewFromConfig(cfg)
	return &S3Client{
		client:   cli,
		uploader: manager.NewUploader(cli),
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
	}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucket }

// Key joins the configured prefix and name.
func (s *S3Client) Key(name string) string { return JoinKey(s.prefix, name) }

// Upload streams body to prefix/key through the transfer manager and
// returns the object location.
func (s *S3Client) Upload(ctx context.Context, key string, body io.Reader, contentType string, metadata map[string]string) (string, error) {
	full := s.Key(key)
	in := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(full),
		Body:     body,
		Metadata: metadata,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	out, err := s.uploader.Upload(ctx, in)
	if err != nil {
		log.Error().Err(err).Str("key", full).Msg("s3 upload failed")
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("bucket", s.bucket).Str("key", full).Msg("uploaded object to S3")
	return out.Location, nil
}

// HeadBucket checks that the bucket exists and is reachable.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucket, err)
	}
	return nil
}

// JoinKey joins S3 key segments with single slashes.
func JoinKey(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			clean = append(clean, p)
		}
	}
	return path.Join(clean...)
}
