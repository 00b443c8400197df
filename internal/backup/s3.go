// Package backup copies the data document off-site after each successful write.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"exchangedesk/internal/config"
	"exchangedesk/internal/model"
	"exchangedesk/internal/store"
)

const uploadTimeout = 30 * time.Second

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// S3Uploader writes objects to a single S3 or S3-compatible bucket.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// Ensure S3Uploader implements Uploader
var _ Uploader = (*S3Uploader)(nil)

// NewS3Uploader builds a client from cfg. Static credentials are used when an
// access key is configured, otherwise the default AWS credential chain.
func NewS3Uploader(ctx context.Context, cfg config.BackupConfig) (*S3Uploader, error) {
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
			o.UsePathStyle = true
		}
	})
	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte) error {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	return nil
}

// Snapshotter uploads every persisted document in the background.
// Failed uploads are logged and never affect the write that triggered them.
type Snapshotter struct {
	uploader Uploader
	prefix   string
	logger   *zap.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewSnapshotter creates a snapshotter writing keys under prefix.
func NewSnapshotter(uploader Uploader, prefix string, logger *zap.Logger) *Snapshotter {
	return &Snapshotter{
		uploader: uploader,
		prefix:   prefix,
		logger:   logger,
		now:      time.Now,
	}
}

// Key returns the object key for a snapshot taken at t.
func (s *Snapshotter) Key(t time.Time) string {
	prefix := s.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + "data-" + t.UTC().Format("20060102T150405.000000000Z") + ".json"
}

// Hook returns the store callback that schedules an upload of data.
func (s *Snapshotter) Hook() store.SnapshotHook {
	return func(_ context.Context, data []byte) {
		key := s.Key(s.now())
		body, err := redact(data)
		if err != nil {
			s.logger.Error("snapshot skipped", zap.String("key", key), zap.Error(err))
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
			defer cancel()

			if err := s.uploader.Upload(ctx, key, body); err != nil {
				s.logger.Warn("snapshot upload failed", zap.String("key", key), zap.Error(err))
				return
			}
			s.logger.Debug("snapshot uploaded", zap.String("key", key), zap.Int("bytes", len(body)))
		}()
	}
}

// redact strips bearer tokens and per-user TOTP secrets from a persisted
// document. A restored snapshot therefore has no live sessions.
func redact(data []byte) ([]byte, error) {
	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	doc.Sessions = []model.Session{}
	for i := range doc.Users {
		doc.Users[i].MFASecret = ""
	}
	return json.MarshalIndent(&doc, "", "  ")
}

// Wait blocks until in-flight uploads finish.
func (s *Snapshotter) Wait() {
	s.wg.Wait()
}
