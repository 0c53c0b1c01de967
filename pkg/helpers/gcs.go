package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// NewGCSClient uses the service account file at credsPath, or application
// default credentials when it is empty.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// ObjectWriter opens a writer for bucket/objectPath. The storage client
// satisfies it through GCSWriter; tests supply their own.
type ObjectWriter func(ctx context.Context, bucket, objectPath, contentType string) io.WriteCloser

// GCSWriter adapts a storage client into an ObjectWriter.
func GCSWriter(client *storage.Client) ObjectWriter {
	return func(ctx context.Context, bucket, objectPath, contentType string) io.WriteCloser {
		wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
		wc.ContentType = contentType
		wc.ChunkSize = 0 // avatars are small; upload in one request
		return wc
	}
}

// AvatarUploader stores profile images under avatars/<user id>/.
type AvatarUploader struct {
	Bucket string
	Open   ObjectWriter
}

func NewAvatarUploader(client *storage.Client, bucket string) *AvatarUploader {
	return &AvatarUploader{Bucket: bucket, Open: GCSWriter(client)}
}

var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

var ErrAvatarType = errors.New("avatar must be a png, jpeg, gif or webp image")

func (u *AvatarUploader) Upload(ctx context.Context, userID int64, filename, contentType string, r io.Reader) (string, error) {
	if !allowedAvatarTypes[strings.ToLower(contentType)] {
		return "", ErrAvatarType
	}
	if u.Open == nil || u.Bucket == "" {
		return "", errors.New("gcs not configured")
	}
	objectPath := AvatarObjectPath(userID, filename)
	wc := u.Open(ctx, u.Bucket, objectPath, contentType)
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(u.Bucket, objectPath), nil
}

// AvatarObjectPath builds avatars/<id>/<random><ext>.
func AvatarObjectPath(userID int64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join("avatars", strconv.FormatInt(userID, 10), uuid.NewString()+ext)
}

// PublicURL is the object URL for a publicly readable bucket.
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}
