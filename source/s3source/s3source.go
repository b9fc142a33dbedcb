// Package s3source reads templates from an Amazon S3 bucket.
package s3source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/scaffold-io/scaffold/source"
)

// Client is the subset of the S3 API the source uses. *s3.Client
// implements it.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Source serves templates stored as objects under a key prefix.
type Source struct {
	client Client
	bucket string
	prefix string
}

var _ source.Source = (*Source)(nil)

// New returns a Source reading from bucket with client. Template paths are
// appended to prefix to form object keys.
func New(client Client, bucket, prefix string) *Source {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Source{client: client, bucket: bucket, prefix: prefix}
}

// NewFromConfig returns a Source using a client built from the default
// AWS configuration chain: environment, shared config files and instance
// roles.
func NewFromConfig(ctx context.Context, bucket, prefix string) (*Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *Source) key(path string) (string, error) {
	clean, err := source.Clean(path)
	if err != nil {
		return "", err
	}
	return s.prefix + clean, nil
}

func (s *Source) IsReadable(ctx context.Context, path string) bool {
	_, err := s.head(ctx, path)
	return err == nil
}

func (s *Source) LastModified(ctx context.Context, path string) (time.Time, error) {
	out, err := s.head(ctx, path)
	if err != nil {
		return time.Time{}, err
	}
	if out.LastModified == nil {
		return time.Time{}, nil
	}
	return *out.LastModified, nil
}

func (s *Source) head(ctx context.Context, path string) (*s3.HeadObjectOutput, error) {
	key, err := s.key(path)
	if err != nil {
		return nil, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrap(path, err)
	}
	return out, nil
}

func (s *Source) Contents(ctx context.Context, path string) (string, error) {
	key, err := s.key(path)
	if err != nil {
		return "", err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", s.wrap(path, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("reading s3://%s/%s: %w", s.bucket, key, err)
	}
	return string(data), nil
}

func (s *Source) PutContents(ctx context.Context, path, contents string) error {
	key, err := s.key(path)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(contents),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("writing s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// wrap maps the S3 "not found" errors to source.ErrNotFound.
func (s *Source) wrap(path string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if stderrors.As(err, &noSuchKey) || stderrors.As(err, &notFound) {
		return fmt.Errorf("s3://%s/%s%s: %w", s.bucket, s.prefix, path, source.ErrNotFound)
	}
	return fmt.Errorf("s3://%s/%s%s: %w", s.bucket, s.prefix, path, err)
}
