// Package archive stores raw inbound email payloads in S3 before
// processing, keyed by processing-log id under a date prefix. Archival is
// best effort: the pipeline logs failures and continues.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/publisher-inbox/internal/config"
)

// objectStore is the slice of the S3 client the archiver uses.
type objectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Archiver writes raw inbound payloads to S3.
type Archiver struct {
	client objectStore
	bucket string
	prefix string

	now func() time.Time
}

// New builds an S3-backed archiver from configuration.
func New(ctx context.Context, cfg config.ArchiveConfig) (*Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "inbound"
	}
	return &Archiver{client: s3.NewFromConfig(awsCfg), bucket: cfg.Bucket, prefix: prefix, now: time.Now}, nil
}

// Archive stores one raw payload under <prefix>/yyyy/mm/dd/<logID>.json.
func (a *Archiver) Archive(ctx context.Context, logID string, payload []byte) error {
	key := a.key(logID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive %s: %w", key, err)
	}
	return nil
}

// Fetch retrieves an archived payload for reprocessing or audit.
func (a *Archiver) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

func (a *Archiver) key(logID string) string {
	return fmt.Sprintf("%s/%s/%s.json", a.prefix, a.now().UTC().Format("2006/01/02"), logID)
}
