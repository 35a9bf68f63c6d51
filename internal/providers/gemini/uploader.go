package gemini

import (
	"context"

	"brandify/internal/transform"
)

// StagingUploader is the upload collaborator for the direct-Gemini
// backend: the image never leaves the service, so "uploading" just
// verifies the staged bytes are readable and hands the storage key on
// as the asset identifier.
type StagingUploader struct {
	store Store
}

func NewStagingUploader(store Store) *StagingUploader {
	return &StagingUploader{store: store}
}

func (u *StagingUploader) Upload(ctx context.Context, src transform.SourceAsset) (transform.UploadResult, error) {
	if _, err := u.store.Read(ctx, src.StorageKey); err != nil {
		return transform.UploadResult{Success: false, Error: "the selected image is no longer available"}, nil
	}
	return transform.UploadResult{Success: true, AssetIDs: []string{src.StorageKey}}, nil
}

var _ transform.Uploader = (*StagingUploader)(nil)
