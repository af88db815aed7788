// Package storage keeps the original uploaded files of case documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when no object exists at a storage path
var ErrFileNotFound = errors.New("file not found")

// Object identifies one uploaded document file
type Object struct {
	CaseID      uuid.UUID
	DocumentID  uuid.UUID
	FileName    string
	ContentType string
}

// Storage stores document originals
type Storage interface {
	// Upload stores a file and returns the storage path
	Upload(ctx context.Context, obj Object, data io.Reader) (string, error)
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, storagePath string) error
}

// StorageType represents the storage backend type
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// StorageConfig holds configuration for storage
type StorageConfig struct {
	Type         StorageType
	LocalPath    string
	S3Bucket     string
	S3Region     string
	S3Prefix     string
	AWSAccessKey string
	AWSSecretKey string
}

// NewStorage creates the backend selected by cfg.Type
func NewStorage(ctx context.Context, cfg StorageConfig) (Storage, error) {
	switch cfg.Type {
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case StorageTypeS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("s3 bucket is required for s3 storage")
		}
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

var unsafeNameChars = strings.NewReplacer(" ", "_", "/", "_", "\\", "_", "..", "_")

// objectPath groups files by case so a case's originals share a prefix
func objectPath(obj Object) string {
	ext := path.Ext(obj.FileName)
	base := unsafeNameChars.Replace(strings.TrimSuffix(obj.FileName, ext))
	return fmt.Sprintf("cases/%s/%s_%s%s", obj.CaseID, obj.DocumentID, base, ext)
}
