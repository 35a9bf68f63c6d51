package gemini

import (
	"context"
	"errors"
	"testing"

	"brandify/internal/transform"
)

type memStore map[string][]byte

func (s memStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, ok := s[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestStagingUploaderHandsStorageKeyThrough(t *testing.T) {
	uploader := NewStagingUploader(memStore{"uploads/s1/shoe.png": []byte("x")})
	result, err := uploader.Upload(context.Background(), transform.SourceAsset{StorageKey: "uploads/s1/shoe.png"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !result.Success || len(result.AssetIDs) != 1 || result.AssetIDs[0] != "uploads/s1/shoe.png" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestStagingUploaderMissingAsset(t *testing.T) {
	uploader := NewStagingUploader(memStore{})
	result, err := uploader.Upload(context.Background(), transform.SourceAsset{StorageKey: "gone.png"})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("expected unsuccessful result with message, got %+v", result)
	}
}

func TestMIMEForKey(t *testing.T) {
	cases := map[string]string{
		"uploads/s1/a.PNG":  "image/png",
		"uploads/s1/b.jpeg": "image/jpeg",
		"uploads/s1/c.jpg":  "image/jpeg",
		"uploads/s1/d.webp": "image/webp",
		"uploads/s1/e.gif":  "image/gif",
		"uploads/s1/f.bin":  "application/octet-stream",
	}
	for key, want := range cases {
		if got := mimeForKey(key); got != want {
			t.Fatalf("mimeForKey(%q) = %q, want %q", key, got, want)
		}
	}
}
