package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"blogapi/internal/config"
)

// MaxImageSize is the largest accepted post image.
const MaxImageSize = 20 << 20

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// ImageUpload is an image received from a client, not yet stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.ReadSeeker
}

// ImageStore is the object storage holding post images.
type ImageStore interface {
	// Upload stores body under key and returns the public URL.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// ValidateImage checks size, the declared content type and the sniffed
// content, then rewinds Body. It returns the detected MIME type.
func ValidateImage(img *ImageUpload) (string, error) {
	if img.Size > MaxImageSize {
		return "", fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageSize)
	}

	declared := strings.ToLower(strings.TrimSpace(img.ContentType))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if _, ok := allowedImageTypes[declared]; !ok {
		return "", fmt.Errorf("%w: only JPEG and PNG are allowed", ErrInvalidImage)
	}

	detected, err := mimetype.DetectReader(img.Body)
	if err != nil {
		return "", fmt.Errorf("sniff image: %w", err)
	}
	if _, err := img.Body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind image: %w", err)
	}
	if _, ok := allowedImageTypes[detected.String()]; !ok {
		return "", fmt.Errorf("%w: content is %s", ErrInvalidImage, detected.String())
	}
	return detected.String(), nil
}

func imageExtension(contentType string) string {
	return allowedImageTypes[contentType]
}

// S3ImageStore stores images in an S3 bucket.
type S3ImageStore struct {
	client        *s3.Client
	uploader      *manager.Uploader
	bucket        string
	publicBaseURL string
}

func NewS3ImageStore(cfg *config.S3Config) *S3ImageStore {
	return &S3ImageStore{
		client:        cfg.Client,
		uploader:      manager.NewUploader(cfg.Client),
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}
}

func (s *S3ImageStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s to S3: %w", key, err)
	}
	return publicURL(s.publicBaseURL, key), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete S3 object %s: %w", key, err)
	}
	return nil
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
