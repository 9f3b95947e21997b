// Package gcsuploader publishes rendered reports to Google Cloud Storage.
package gcsuploader

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const uploadTimeout = 2 * time.Minute

// Uploader writes report artifacts to a bucket.
type Uploader interface {
	Upload(ctx context.Context, uri, contentType string, data []byte) error
}

// GCSUploader is the Uploader backed by a storage client.
// It assumes Application Default Credentials are configured.
type GCSUploader struct {
	client *storage.Client
}

var _ Uploader = (*GCSUploader)(nil)

// New creates an uploader with its own storage client.
func New(ctx context.Context) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("New: create storage client: %w", err)
	}
	return &GCSUploader{client: client}, nil
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	return u.client.Close()
}

// Upload stores data at uri (gs://bucket/object).
func (u *GCSUploader) Upload(ctx context.Context, uri, contentType string, data []byte) error {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := bytes.NewReader(data).WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("Upload: write %s: %w", uri, err)
	}
	// Close finalizes the object.
	if err := w.Close(); err != nil {
		return fmt.Errorf("Upload: finalize %s: %w", uri, err)
	}
	return nil
}

// ParseURI splits gs://bucket/path/to/object into bucket and object name.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" || strings.HasSuffix(parts[1], "/") {
		return "", "", fmt.Errorf("ParseURI: invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// ObjectURI builds the default location of a report in bucket, e.g.
// gs://bucket/reports/outstanding-2024.csv.
func ObjectURI(bucket, name, ext string) string {
	return fmt.Sprintf("gs://%s/reports/%s.%s", bucket, name, ext)
}
