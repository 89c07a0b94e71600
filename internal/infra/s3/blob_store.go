package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// BlobStore implements store.BlobStore on a single S3 bucket. Payload bytes
// and assembled folder archives are both addressed by path.
type BlobStore struct {
	bucket string
	svc    s3iface.S3API
}

// Config holds what the adapter needs to reach the bucket.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// NewBlobStore creates an S3-backed blob store.
func NewBlobStore(cfg Config) (*BlobStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("creating aws session: %w", err)
	}

	return &BlobStore{bucket: cfg.Bucket, svc: s3.New(sess)}, nil
}

// NewBlobStoreWithClient wires an existing client, used by tests.
func NewBlobStoreWithClient(svc s3iface.S3API, bucket string) *BlobStore {
	return &BlobStore{bucket: bucket, svc: svc}
}

func (b *BlobStore) Put(ctx context.Context, path string, data []byte) error {
	_, err := b.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", path, err)
	}
	return nil
}

func (b *BlobStore) Get(ctx context.Context, path string) ([]byte, error) {
	out, err := b.svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", path, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3 body %s: %w", path, err)
	}
	return data, nil
}

func (b *BlobStore) Delete(ctx context.Context, path string) error {
	_, err := b.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", path, err)
	}
	return nil
}
