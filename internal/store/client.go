package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ErrKeyNotFound is returned by PresignDownloadURL when the object does not
// exist in the bucket.
var ErrKeyNotFound = errors.New("object key not found")

const (
	presignExpiry   = time.Hour
	probeAttempts   = 5
	defaultProbeGap = 5 * time.Second
)

// Client wraps an S3-compatible object store (MinIO in the stock deployment).
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	bucket   string
	endpoint string
	logger   zerolog.Logger

	probeGap time.Duration
}

type Options struct {
	EndpointURL string
	AccessKey   string
	SecretKey   string
	Bucket      string
	UseSSL      bool
}

func New(opts Options, logger zerolog.Logger) *Client {
	endpoint := normalizeEndpoint(opts.EndpointURL, opts.UseSSL)

	s3Client := s3.New(s3.Options{
		Region: "us-east-1",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
		BaseEndpoint: aws.String(endpoint),
		UsePathStyle: true,
	})

	return &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		bucket:   opts.Bucket,
		endpoint: endpoint,
		logger:   logger,
		probeGap: defaultProbeGap,
	}
}

// MinIO endpoints are usually given without a scheme in container setups.
func normalizeEndpoint(raw string, useSSL bool) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	if useSSL {
		return "https://" + raw
	}
	return "http://" + raw
}

// Configured reports whether endpoint and bucket were provided.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != "" && c.bucket != ""
}

// Probe verifies the store is reachable and the bucket exists, creating the
// bucket when missing. The whole check is retried a fixed number of times
// with a constant delay so the service survives the store coming up late.
func (c *Client) Probe(ctx context.Context) error {
	if !c.Configured() {
		return fmt.Errorf("object store endpoint or bucket is not configured")
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := c.ensureBucket(ctx)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", probeAttempts).
				Msg("object store probe failed")
		}
		return err
	}

	constant := backoff.WithMaxRetries(backoff.NewConstantBackOff(c.probeGap), probeAttempts-1)
	if err := backoff.Retry(operation, backoff.WithContext(constant, ctx)); err != nil {
		return fmt.Errorf("object store unavailable after %d attempts: %w", probeAttempts, err)
	}
	return nil
}

func (c *Client) ensureBucket(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("head bucket %q: %w", c.bucket, err)
	}

	if _, err := c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(c.bucket)}); err != nil {
		return fmt.Errorf("create bucket %q: %w", c.bucket, err)
	}
	c.logger.Info().Str("bucket", c.bucket).Msg("created object store bucket")
	return nil
}

// Upload streams a file into the bucket under key.
func (c *Client) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if !c.Configured() {
		return fmt.Errorf("object store is not configured")
	}
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload object %q: %w", key, err)
	}
	return nil
}

// PresignDownloadURL mints a temporary download URL for key, valid for one
// hour. Missing objects surface as ErrKeyNotFound.
func (c *Client) PresignDownloadURL(ctx context.Context, key string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("object store is not configured")
	}

	_, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return "", fmt.Errorf("head object %q: %w", key, err)
	}

	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = presignExpiry
	})
	if err != nil {
		return "", fmt.Errorf("presign object %q: %w", key, err)
	}
	return req.URL, nil
}

// ErrorCode extracts the S3 error code ("NoSuchBucket", "AccessDenied", ...)
// from an error chain, or "" when there is none.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
