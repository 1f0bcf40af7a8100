package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/resilience"
)

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source fetches stored resumes from an S3-compatible bucket such as R2.
type S3Source struct {
	client   objectGetter
	bucket   string
	maxBytes int64
	retry    resilience.RetryConfig
	breaker  *resilience.CircuitBreaker
	logger   *slog.Logger
}

// NewS3Source loads AWS configuration, using static credentials when the
// config carries them and the default chain otherwise.
func NewS3Source(ctx context.Context, cfg config.StorageConfig, maxBytes int64) (*S3Source, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Source(client, cfg.Bucket, maxBytes), nil
}

func newS3Source(client objectGetter, bucket string, maxBytes int64) *S3Source {
	return &S3Source{
		client:   client,
		bucket:   bucket,
		maxBytes: maxBytes,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		breaker: resilience.NewCircuitBreaker("s3-"+bucket, resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		}),
		logger: slog.Default().With("component", "s3-source", "bucket", bucket),
	}
}

// Fetch downloads the object at key. Missing objects and objects over the
// size limit fail without retrying.
func (s *S3Source) Fetch(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := resilience.Retry(ctx, "s3 get "+key, s.retry, func() error {
		return s.breaker.Execute(func() error {
			var err error
			data, err = s.get(ctx, key)
			return err
		})
	})
	if err != nil {
		s.logger.Warn("fetch failed", "key", key, "error", err)
		return nil, err
	}
	s.logger.Debug("object fetched", "key", key, "bytes", len(data))
	return data, nil
}

func (s *S3Source) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, resilience.Permanent(fmt.Errorf("%w: object %q not found", apperrors.ErrInvalidInput, key))
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	var body io.Reader = out.Body
	if s.maxBytes > 0 {
		body = io.LimitReader(out.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, resilience.Permanent(fmt.Errorf("%w: object %q exceeds %d bytes", apperrors.ErrDocumentTooLarge, key, s.maxBytes))
	}
	return data, nil
}
