// Package storage provides object storage implementations for downloaded media.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/storesync/backend/internal/domain/integration"
	infraconfig "github.com/storesync/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// maxNameAttempts bounds the suffix search of uniqueName
const maxNameAttempts = 1000

// ErrNameExhausted is returned when no free suffixed name was found
var ErrNameExhausted = errors.New("storage: no free object name")

// uniqueName returns name when it is free, otherwise the first free
// "{base}-{n}{ext}" candidate.
func uniqueName(ctx context.Context, name string, exists func(context.Context, string) (bool, error)) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("object name is required")
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for n := 1; n <= maxNameAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	return "", fmt.Errorf("%w: %s", ErrNameExhausted, name)
}

// New creates the object storage selected by cfg.Driver
func New(ctx context.Context, cfg infraconfig.StorageConfig, logger *zap.Logger) (integration.ObjectStorage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalObjectStorage(cfg.LocalPath)
	case "s3":
		s, err := NewS3ObjectStorage(&cfg.S3, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
