package ports

import (
	"context"
	"io"
)

// ArchiveStorage объектное хранилище для снимков заявок (S3, MinIO).
type ArchiveStorage interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, contentType string) (string, error)
}
