package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/apigen"
	"go.uber.org/zap"
)

// objectUploader is the part of manager.Uploader the sink uses.
type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3ManifestSink struct {
	uploader objectUploader
	bucket   string
	prefix   string
	logger   *zap.Logger
}

// NewS3ManifestSink builds an S3 uploader from cfg. Static credentials are
// used when an access key is configured, the default chain otherwise.
func NewS3ManifestSink(ctx context.Context, cfg apigen.S3Config, logger *zap.Logger) (apigen.ManifestSink, error) {
	if err := ValidateS3Credentials(cfg); err != nil {
		return nil, err
	}
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3ManifestSink(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3ManifestSink(uploader objectUploader, bucket, prefix string, logger *zap.Logger) *s3ManifestSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &s3ManifestSink{uploader: uploader, bucket: bucket, prefix: prefix, logger: logger}
}

func (s *s3ManifestSink) Put(ctx context.Context, key string, data []byte) (string, error) {
	objectKey := path.Join(s.prefix, key)
	uri := "s3://" + s.bucket + "/" + objectKey

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		exportErr := apigen.NewExportError(uri, fmt.Errorf("s3 upload: %w", err))
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			exportErr.WithDetail("awsErrorCode", apiErr.ErrorCode())
		}
		return "", exportErr
	}

	s.logger.Info("manifest uploaded", zap.String("uri", uri), zap.Int("bytes", len(data)))
	return uri, nil
}
