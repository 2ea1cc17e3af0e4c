package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStoreCredentials configures an S3-compatible endpoint for result
// export. This is a [FULL] addition with no equivalent in the original
// pipeline: large batch runs can ship their output ZIP straight to a
// bucket instead of only the local filesystem. Field names and the
// endpoint-parsing behavior mirror libaf/s3's Credentials/NewMinioClient,
// whose generated Credentials type (from an oapi-codegen directive) isn't
// part of this module, so it's defined directly here.
type ObjectStoreCredentials struct {
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	SessionToken    string
	UseSsl          bool
}

// ObjectStore uploads batch-run exports to an S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore builds an ObjectStore from explicit credentials and a
// target bucket.
func NewObjectStore(creds ObjectStoreCredentials, bucket string) (*ObjectStore, error) {
	client, err := newMinioClient(creds)
	if err != nil {
		return nil, err
	}
	return &ObjectStore{client: client, bucket: bucket}, nil
}

func newMinioClient(creds ObjectStoreCredentials) (*minio.Client, error) {
	if creds.Endpoint == "" {
		return nil, errors.New("endpoint is required")
	}
	if creds.AccessKeyId == "" {
		return nil, errors.New("access key ID is required")
	}
	if creds.SecretAccessKey == "" {
		return nil, errors.New("secret access key is required")
	}

	endpoint, secure := parseEndpoint(creds.Endpoint, creds.UseSsl)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, creds.SessionToken),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client for endpoint %s: %w", endpoint, err)
	}
	return client, nil
}

// parseEndpoint extracts the host from an endpoint that may be a full URL
// or just a hostname, inferring SSL from the scheme when present.
func parseEndpoint(endpoint string, useSsl bool) (string, bool) {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		parsed, err := url.Parse(endpoint)
		if err == nil && parsed.Host != "" {
			return parsed.Host, parsed.Scheme == "https"
		}
	}
	return endpoint, useSsl
}

// UploadExport uploads a local export file (the ZIP built by
// internal/ingest's writer, or a single CSV) to objectKey in the
// configured bucket.
func (o *ObjectStore) UploadExport(ctx context.Context, localPath, objectKey, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening export %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat export %s: %w", localPath, err)
	}

	_, err = o.client.PutObject(ctx, o.bucket, objectKey, f, info.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("uploading %s to bucket %s: %w", objectKey, o.bucket, err)
	}
	return nil
}
