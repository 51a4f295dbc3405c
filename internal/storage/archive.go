package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/promptshare/promptshare/backend/go-services/internal/versions"
)

// ObjectStore is what the archive needs from an object store; MinIOStorage satisfies it.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// VersionArchive writes every version snapshot as JSON under
// versions/<documentId>/<versionNumber>.json.
type VersionArchive struct {
	store ObjectStore
}

func NewVersionArchive(store ObjectStore) *VersionArchive {
	return &VersionArchive{store: store}
}

// ObjectKey is the archive location of a version.
func ObjectKey(v *versions.Version) string {
	return fmt.Sprintf("versions/%s/%d.json", v.DocumentID, v.VersionNumber)
}

func (a *VersionArchive) ArchiveVersion(ctx context.Context, v *versions.Version) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.store.UploadFile(ctx, ObjectKey(v), bytes.NewReader(b), int64(len(b)), "application/json")
}

func (a *VersionArchive) VersionURL(ctx context.Context, v *versions.Version, expires time.Duration) (string, error) {
	return a.store.GetPresignedURL(ctx, ObjectKey(v), expires)
}
