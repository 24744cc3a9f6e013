package services

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, make([]byte, 64)...)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		upload   ImageUpload
		wantType string
		wantErr  bool
	}{
		{
			name:     "png",
			upload:   ImageUpload{ContentType: "image/png", Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)},
			wantType: "image/png",
		},
		{
			name:     "jpeg declared as image/jpg",
			upload:   ImageUpload{ContentType: "image/jpg", Size: int64(len(jpegBytes)), Body: bytes.NewReader(jpegBytes)},
			wantType: "image/jpeg",
		},
		{
			name:    "gif declared",
			upload:  ImageUpload{ContentType: "image/gif", Size: 10, Body: bytes.NewReader([]byte("GIF89a...."))},
			wantErr: true,
		},
		{
			name:    "png declared but text content",
			upload:  ImageUpload{ContentType: "image/png", Size: 5, Body: bytes.NewReader([]byte("hello"))},
			wantErr: true,
		},
		{
			name:    "too large",
			upload:  ImageUpload{ContentType: "image/png", Size: MaxImageSize + 1, Body: bytes.NewReader(pngBytes)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateImage(&tt.upload)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidImage) {
					t.Fatalf("expected ErrInvalidImage got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateImage: %v", err)
			}
			if got != tt.wantType {
				t.Fatalf("expected %s got %s", tt.wantType, got)
			}
			pos, _ := tt.upload.Body.Seek(0, io.SeekCurrent)
			if pos != 0 {
				t.Fatalf("body not rewound, at offset %d", pos)
			}
		})
	}
}

func TestImageExtension(t *testing.T) {
	if imageExtension("image/jpeg") != ".jpg" || imageExtension("image/png") != ".png" {
		t.Fatalf("unexpected extensions")
	}
}

func TestPublicURL(t *testing.T) {
	got := publicURL("https://bucket.s3.us-east-1.amazonaws.com/", "posts/a.png")
	if got != "https://bucket.s3.us-east-1.amazonaws.com/posts/a.png" {
		t.Fatalf("unexpected url %s", got)
	}
}
