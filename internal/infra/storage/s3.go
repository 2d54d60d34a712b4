package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/port"
	"github.com/UsmanFarooq46/e-commerce-backend/internal/infra/config"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3AvatarStore uploads profile images to an S3 compatible bucket.
type S3AvatarStore struct {
	client   objectPutter
	bucket   string
	baseURL  string
	maxBytes int64
	logger   *zap.Logger
}

// NewS3AvatarStore builds the client from static credentials when provided,
// otherwise from the default AWS credential chain.
func NewS3AvatarStore(ctx context.Context, cfg config.StorageSettings, logger *zap.Logger) (*S3AvatarStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" && cfg.Endpoint != "" {
		baseURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3AvatarStore{
		client:   client,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: cfg.MaxUploadBytes,
		logger:   logger,
	}, nil
}

// Store validates the upload and writes it under avatars/<account>/.
func (s *S3AvatarStore) Store(ctx context.Context, accountID string, upload domain.ImageUpload) (string, error) {
	img, err := ValidateImage(upload, s.maxBytes)
	if err != nil {
		return "", err
	}

	key := objectKey(accountID, img.Extension)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(upload.Data),
		ContentType:   aws.String(img.MIME),
		ContentLength: aws.Int64(int64(len(upload.Data))),
	})
	if err != nil {
		return "", domain.NewStorageError("upload profile image", err)
	}

	s.logger.Debug("profile image stored", zap.String("bucket", s.bucket), zap.String("key", key))
	return s.baseURL + "/" + key, nil
}

func objectKey(accountID, ext string) string {
	return fmt.Sprintf("avatars/%s/%s%s", accountID, uuid.NewString(), ext)
}

var _ port.AvatarStorage = (*S3AvatarStore)(nil)
