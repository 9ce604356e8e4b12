package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalPhotoStorage_Store(t *testing.T) {
	tempDir := t.TempDir()
	logger := zap.NewNop()
	store := NewLocalPhotoStorage(tempDir, "/photos/", logger)

	t.Run("stores photo and returns url", func(t *testing.T) {
		content := []byte("jpeg bytes")

		url, err := store.Store(context.Background(), content, "image/jpeg")

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/photos/"), "url %q should be under the base url", url)
		assert.True(t, strings.HasSuffix(url, ".jpg"))

		name := strings.TrimPrefix(url, "/photos/")
		saved, err := os.ReadFile(filepath.Join(tempDir, name))
		require.NoError(t, err)
		assert.Equal(t, content, saved)
	})

	t.Run("extension follows content type", func(t *testing.T) {
		tests := []struct {
			contentType string
			ext         string
		}{
			{"image/png", ".png"},
			{"image/gif", ".gif"},
			{"image/webp", ".webp"},
			{"application/pdf", ".pdf"},
			{"application/octet-stream", ".jpg"},
		}

		for _, tt := range tests {
			url, err := store.Store(context.Background(), []byte("content"), tt.contentType)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(url, tt.ext),
				"content type %s should yield %s, got %s", tt.contentType, tt.ext, url)
		}
	})

	t.Run("rejects empty content", func(t *testing.T) {
		_, err := store.Store(context.Background(), nil, "image/jpeg")
		require.Error(t, err)
	})

	t.Run("creates the base directory on demand", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "not", "yet", "created")
		s := NewLocalPhotoStorage(nested, "/photos", logger)

		_, err := s.Store(context.Background(), []byte("content"), "image/png")

		require.NoError(t, err)
		assert.DirExists(t, nested)
	})
}
