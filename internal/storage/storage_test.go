package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "/media/")
	require.NoError(t, err)

	url, err := s.Put(ctx, "products/1/a.jpg", strings.NewReader("jpeg bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/media/products/1/a.jpg", url)

	ok, err := s.Exists(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(body))

	require.NoError(t, s.Delete(ctx, "products/1/a.jpg"))
	require.NoError(t, s.Delete(ctx, "products/1/a.jpg"), "delete is idempotent")

	ok, err = s.Exists(ctx, "products/1/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, "products/1/a.jpg")
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, codeNotFound, serr.ErrorCode())
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir(), "/media")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "/abs/path", "a//b", "a/../../b", `a\b`} {
		t.Run(key, func(t *testing.T) {
			_, err := s.Put(ctx, key, strings.NewReader("x"), "text/plain")
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	t.Run("none disables storage", func(t *testing.T) {
		s, err := NewStorage(ctx, Config{Provider: "none"})
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewStorage(ctx, Config{Provider: "ftp"})
		assert.Error(t, err)
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		_, err := NewStorage(ctx, Config{Provider: "s3"})
		assert.ErrorIs(t, err, ErrBucketRequired)
	})

	t.Run("r2 requires account", func(t *testing.T) {
		_, err := NewStorage(ctx, Config{Provider: "r2", Bucket: "media"})
		assert.ErrorIs(t, err, ErrR2AccountIDRequired)
	})

	t.Run("partial credentials", func(t *testing.T) {
		_, err := NewStorage(ctx, Config{Provider: "s3", Bucket: "media", AccessKey: "id"})
		assert.ErrorIs(t, err, ErrCredentialsRequired)
	})

	t.Run("s3 public url", func(t *testing.T) {
		s, err := NewStorage(ctx, Config{Provider: "s3", Bucket: "media", Region: "eu-west-3", AccessKey: "id", SecretKey: "secret"})
		require.NoError(t, err)
		assert.Equal(t, "https://media.s3.eu-west-3.amazonaws.com/products/1/a.jpg", s.URL("products/1/a.jpg"))
	})

	t.Run("local default", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewStorage(ctx, Config{LocalPath: dir})
		require.NoError(t, err)
		assert.Equal(t, "/media/x.png", s.URL("x.png"))
	})
}
