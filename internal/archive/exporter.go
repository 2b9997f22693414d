// Package archive provides cold-storage export of history snapshots to
// S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/onnwee/airtime/internal/history"
)

// Object keys are laid out as archive/{channelID}/{unix-ms}.cbor so that a
// channel's snapshots list chronologically.
const keyPrefix = "archive/"

// ContentType is the MIME type written for archived blobs.
const ContentType = "application/cbor"

// Exporter writes history snapshots to an S3-compatible bucket.
type Exporter struct {
	client     *s3.Client
	bucketName string
	timeNow    func() time.Time // For testability
}

// Config holds configuration for the exporter.
type Config struct {
	BucketName      string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
}

// NewExporter creates a new exporter with the given configuration.
func NewExporter(cfg Config) (*Exporter, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if cfg.AccessKeyID == "" {
		return nil, errors.New("access key ID is required")
	}
	if cfg.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}

	// Path-style addressing keeps this compatible with R2 and MinIO.
	client := s3.New(s3.Options{
		Region: "auto",
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		BaseEndpoint: aws.String(cfg.Endpoint),
		UsePathStyle: true,
	})

	return &Exporter{
		client:     client,
		bucketName: cfg.BucketName,
		timeNow:    time.Now,
	}, nil
}

// ObjectKey returns the key a snapshot taken now would be written under.
func (e *Exporter) ObjectKey(channelID string) string {
	return objectKey(channelID, e.timeNow().UnixMilli())
}

func objectKey(channelID string, ts int64) string {
	return fmt.Sprintf("%s%s/%d.cbor", keyPrefix, channelID, ts)
}

// Export encodes the history and writes it to the bucket.
func (e *Exporter) Export(ctx context.Context, channelID string, h history.History) error {
	blob, err := history.Encode(h)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	key := objectKey(channelID, e.timeNow().UnixMilli())
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(blob),
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
