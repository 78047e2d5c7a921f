package storage

import (
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*gcs.Client, error) {
	if credsPath == "" {
		return gcs.NewClient(ctx)
	}
	return gcs.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// AvatarStore uploads user avatars into a single bucket.
type AvatarStore struct {
	client *gcs.Client
	bucket string
}

func NewAvatarStore(client *gcs.Client, bucket string) *AvatarStore {
	return &AvatarStore{client: client, bucket: bucket}
}

// Upload streams r into bucket/objectPath and returns the object's public URL.
func (s *AvatarStore) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // avatars are small; single request upload
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize %s: %w", objectPath, err)
	}
	return PublicURL(s.bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
