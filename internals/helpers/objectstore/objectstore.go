// Package objectstore wraps the S3-compatible bucket (Backblaze B2) that owns
// all uploaded attachment bytes. Records only ever hold object keys.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"sspl_backend/internals/configs"
)

// Store is what the pipeline and admin controllers depend on; *S3Store is the
// production implementation.
type Store interface {
	Upload(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type S3Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	defaultTTL time.Duration
}

func NewS3Store(cfg *configs.AppConfig) (*S3Store, error) {
	if cfg.S3Endpoint == "" {
		return nil, fmt.Errorf("missing B2_S3_ENDPOINT")
	}
	if cfg.S3KeyID == "" || cfg.S3AppKey == "" {
		return nil, fmt.Errorf("missing B2 credentials (B2_KEY_ID/B2_APPLICATION_KEY)")
	}
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("missing B2_BUCKET")
	}

	client := s3.New(s3.Options{
		Region:       cfg.S3Region,
		BaseEndpoint: aws.String(cfg.S3Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.S3KeyID, cfg.S3AppKey, ""),
		UsePathStyle: true,
	})

	return &S3Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.S3Bucket,
		defaultTTL: cfg.SignedURLTTL,
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("upload requires a key")
	}
	if len(body) == 0 {
		return "", fmt.Errorf("upload requires a body")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = ttl })
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return req.URL, nil
}

/* =======================================================================
   Key utils
======================================================================= */

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9.\-_]+`)

// SanitizeFilename keeps the charset the OCR provider and object keys accept.
func SanitizeFilename(filename string) string {
	safe := unsafeFilenameChars.ReplaceAllString(strings.ToLower(filename), "_")
	if safe == "" || strings.Trim(safe, "_") == "" {
		return "upload"
	}
	return safe
}

// BuildStorageKey namespaces an object by purpose ("photos", "payments",
// "failed/photos", ...) with a collision-resistant timestamp+uuid prefix.
func BuildStorageKey(folder, filename string) string {
	return fmt.Sprintf("%s/%d-%s-%s",
		strings.Trim(folder, "/"),
		time.Now().UnixMilli(),
		uuid.New().String(),
		SanitizeFilename(filename),
	)
}

// KeyLooksSafe rejects traversal-looking keys before presigning.
func KeyLooksSafe(key string) bool {
	if key == "" {
		return false
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.HasPrefix(key, `\`) {
		return false
	}
	return true
}
