package imagegen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMimeTypeForExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", mimeTypeForExtension(".jpg"))
	assert.Equal(t, "image/jpeg", mimeTypeForExtension(".JPEG"))
	assert.Equal(t, "image/png", mimeTypeForExtension(".png"))
	assert.Equal(t, "image/webp", mimeTypeForExtension(".webp"))
	assert.Equal(t, "", mimeTypeForExtension(".bmp"))
}

func TestExtensionForMIMEType(t *testing.T) {
	assert.Equal(t, ".jpg", extensionForMIMEType("image/jpeg"))
	assert.Equal(t, ".webp", extensionForMIMEType("image/webp"))
	assert.Equal(t, ".png", extensionForMIMEType("image/png"))
	assert.Equal(t, ".png", extensionForMIMEType("application/octet-stream"))
}

func TestSaveImage(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "image.png")
		saved, err := saveImage([]byte("fake"), "image/png", path)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(saved, filepath.Join("out", "image.png")))

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "fake", string(content))
	})

	t.Run("extension filled in", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "image")
		saved, err := saveImage([]byte("fake"), "image/jpeg", path)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(saved, "image.jpg"))
	})

	t.Run("temp file fallback", func(t *testing.T) {
		saved, err := saveImage([]byte("fake"), "image/webp", "")
		require.NoError(t, err)
		defer os.Remove(saved)
		assert.True(t, strings.HasSuffix(saved, ".webp"))
	})
}

func TestImagePart(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := imagePart(filepath.Join(t.TempDir(), "missing.png"))
		assert.Error(t, err)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "input.png")
		require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

		part, err := imagePart(path)
		require.NoError(t, err)
		require.NotNil(t, part.InlineData)
		assert.Equal(t, "image/png", part.InlineData.MIMEType)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(nil))
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("invalid argument")))
	assert.True(t, isRetryableError(errors.New("503 Service Unavailable")))
	assert.True(t, isRetryableError(errors.New("rate limit exceeded")))
}

func TestNewGeneratorRequiresProject(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("CLOUDSDK_CORE_PROJECT", "")

	_, err := NewGenerator(context.Background(), "")
	assert.ErrorContains(t, err, "GOOGLE_CLOUD_PROJECT")
}
