// Package mediastore talks to the hosted image provider. It ships bytes out
// and URLs back; pixel data is never inspected or altered here.
package mediastore

import (
	"context"
	"errors"
)

var ErrUploadFailed = errors.New("media upload failed")

// Uploader is the provider surface the catalog depends on.
type Uploader interface {
	// Upload stores raw image bytes under the given logical folder and
	// returns the canonical asset location plus provider-reported pixel
	// dimensions. No retries; a provider fault is the caller's problem.
	Upload(ctx context.Context, data []byte, folder string) (*UploadResult, error)

	// Delete removes the remote asset. Best-effort: an already-gone asset
	// is not an error.
	Delete(ctx context.Context, publicID string) error
}

type UploadResult struct {
	URL          string
	ThumbnailURL string
	PublicID     string
	Width        int
	Height       int
}
