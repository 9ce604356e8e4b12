package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billbookhq/billbook/internal/application/port"
)

// LocalPhotoStorage implements port.PhotoStorage on the local filesystem.
// Stored photos are addressable under baseURL, which the serving layer
// maps onto baseDir.
type LocalPhotoStorage struct {
	baseDir string
	baseURL string
	logger  *zap.Logger
}

// NewLocalPhotoStorage creates a new local photo store
func NewLocalPhotoStorage(baseDir, baseURL string, logger *zap.Logger) port.PhotoStorage {
	return &LocalPhotoStorage{
		baseDir: baseDir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}
}

// Store writes the photo bytes under a generated name and returns the
// URL callers can persist on the bill.
func (s *LocalPhotoStorage) Store(ctx context.Context, content []byte, contentType string) (string, error) {
	if len(content) == 0 {
		return "", fmt.Errorf("empty photo content")
	}

	name := uuid.NewString() + extensionFor(contentType)
	fullPath := filepath.Join(s.baseDir, name)

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create photo directory", zap.String("dir", s.baseDir), zap.Error(err))
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write photo", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write photo: %w", err)
	}

	s.logger.Debug("Photo stored",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return s.baseURL + "/" + name, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "application/pdf":
		return ".pdf"
	default:
		return ".jpg"
	}
}

// Verify interface compliance
var _ port.PhotoStorage = (*LocalPhotoStorage)(nil)
