// Package storage adapts an S3-compatible object store for profile-image
// assets. The store returns a stable identifier (the object key) plus a URL;
// the caller keeps both on the local user record.
package storage

import (
	"context"
	"io"
)

// UploadResult is the remote store's confirmation: the asset identifier to
// persist locally and the URL it is served from.
type UploadResult struct {
	ID  string
	URL string
}

// ImageStore is the external collaborator holding binary profile assets.
//
// Upload creates a new object under folder/targetID. Replace overwrites the
// object behind an identifier returned by a previous Upload, keeping the
// identifier stable so no orphan is left behind. Delete removes the object.
// None of the operations is transactional with local persistence.
type ImageStore interface {
	Upload(ctx context.Context, file io.Reader, folder, targetID string) (*UploadResult, error)
	Replace(ctx context.Context, file io.Reader, existingID string) (*UploadResult, error)
	Delete(ctx context.Context, id string) error
}
