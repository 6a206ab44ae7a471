package repository

import "context"

// UploadRepository publishes report files to remote storage.
type UploadRepository interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
