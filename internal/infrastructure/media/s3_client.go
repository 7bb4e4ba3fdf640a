package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/streamhive/account-service/internal/config"
	"github.com/streamhive/account-service/internal/domain/service"
)

// S3MediaStorage implements service.MediaStorage against any S3-compatible
// object store. Uploaded objects are publicly addressable under BaseURL.
type S3MediaStorage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3MediaStorage creates a media storage client for the configured
// endpoint and bucket.
func NewS3MediaStorage(ctx context.Context, cfg config.MediaConfig) (*S3MediaStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load media storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3MediaStorage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Upload stores the image under a random key scoped by kind
// ("avatar" or "cover") and returns its public URL.
func (s *S3MediaStorage) Upload(ctx context.Context, kind string, body io.Reader, size int64, contentType string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", kind, uuid.New().String(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", kind, err)
	}

	return fmt.Sprintf("%s/%s", s.baseURL, key), nil
}

func extensionFor(contentType string) string {
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

var _ service.MediaStorage = (*S3MediaStorage)(nil)
