// Package blob stores uploaded document bytes.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/docagent/server/internal/config"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("blob not found")

// Store is the durable home of uploaded files, addressed by generated keys.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete is idempotent: a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by cfg.Driver. localDir is used by the local driver.
func New(ctx context.Context, cfg config.StorageConfig, localDir string, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Driver {
	case config.StorageLocal:
		return NewLocalStore(localDir)
	case config.StorageS3:
		return NewS3Store(cfg.S3), nil
	case config.StorageMinio:
		return NewMinioStore(ctx, cfg.Minio, logger)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}

func objectName(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}
