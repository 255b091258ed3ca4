package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"airbnb-pipeline/utils"
)

// S3Config holds configuration for S3 access.
type S3Config struct {
	// Region is the AWS region for the bucket.
	Region string
	// Endpoint is an optional custom endpoint (MinIO, LocalStack).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
}

// S3Source reads objects addressed as s3://bucket/key. The AWS client is
// created on first use so runs that never touch S3 need no credentials.
type S3Source struct {
	cfg   S3Config
	retry *utils.RetryConfig

	once    sync.Once
	client  *s3.Client
	initErr error
}

func NewS3Source(cfg S3Config, retry *utils.RetryConfig) *S3Source {
	return &S3Source{cfg: cfg, retry: retry}
}

// NewS3SourceWithClient uses a pre-configured client.
func NewS3SourceWithClient(client *s3.Client, retry *utils.RetryConfig) *S3Source {
	s := &S3Source{client: client, retry: retry}
	s.once.Do(func() {})
	return s
}

func (s *S3Source) init(ctx context.Context) error {
	s.once.Do(func() {
		var opts []func(*config.LoadOptions) error
		if s.cfg.Region != "" {
			opts = append(opts, config.WithRegion(s.cfg.Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			s.initErr = fmt.Errorf("s3: load AWS config: %w", err)
			return
		}

		var s3Opts []func(*s3.Options)
		if s.cfg.Endpoint != "" {
			s3Opts = append(s3Opts, func(o *s3.Options) {
				o.BaseEndpoint = aws.String(s.cfg.Endpoint)
			})
		}
		if s.cfg.UsePathStyle {
			s3Opts = append(s3Opts, func(o *s3.Options) {
				o.UsePathStyle = true
			})
		}
		s.client = s3.NewFromConfig(awsCfg, s3Opts...)
	})
	return s.initErr
}

func (s *S3Source) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	bucket, key, err := ParseS3URI(ref)
	if err != nil {
		return nil, err
	}
	if err := s.init(ctx); err != nil {
		return nil, err
	}

	var body io.ReadCloser
	err = s.retry.Do(ctx, "s3-get "+ref, func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var nsk *types.NoSuchKey
			if errors.As(err, &nsk) {
				return fmt.Errorf("%w: %w: %s", utils.ErrPermanent, ErrObjectNotFound, ref)
			}
			return err
		}
		body = out.Body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("s3: %w", err)
	}
	return body, nil
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(ref string) (bucket, key string, err error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: not an s3 uri: %q", ErrUnsupportedSource, ref)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("%w: s3 uri needs bucket and key: %q", ErrUnsupportedSource, ref)
	}
	return u.Host, key, nil
}
