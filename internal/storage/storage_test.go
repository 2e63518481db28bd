package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	for _, bad := range []string{"", "/etc/passwd", "../x", "a/../../x", "..", `a\b`} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
	k, err := cleanKey("bills/./b1/file.pdf")
	require.NoError(t, err)
	assert.Equal(t, "bills/b1/file.pdf", k)
}

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "bills/b1/123", "application/pdf", strings.NewReader("%PDF"), 4))
	obj, err := s.Get(ctx, "bills/b1/123")
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	assert.Equal(t, "%PDF", string(body))
	assert.Equal(t, "application/pdf", obj.ContentType)
	assert.Equal(t, int64(4), obj.Size)

	require.NoError(t, s.Delete(ctx, "bills/b1/123"))
	_, err = s.Get(ctx, "bills/b1/123")
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "bills/b1/123"), ErrObjectNotFound)
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(Config{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	s, err = New(Config{Driver: "s3", S3Bucket: "b", S3Region: "us-east-1", S3Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, s)

	_, err = New(Config{Driver: "s3"})
	assert.Error(t, err)
	_, err = New(Config{Driver: "ftp"})
	assert.Error(t, err)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("S3_REGION", "")
	cfg := ConfigFromEnv()
	assert.Equal(t, "local", cfg.Driver)
	assert.Equal(t, "us-east-1", cfg.S3Region)
}

func TestS3StoreGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/attachments/bills/b1/1":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "3")
			_, _ = w.Write([]byte("png"))
		default:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
		}
	}))
	defer srv.Close()

	s, err := NewS3Store(Config{S3Bucket: "attachments", S3Region: "us-east-1", S3Endpoint: srv.URL, S3KeyID: "k", S3Secret: "s"})
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := s.Get(ctx, "bills/b1/1")
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	assert.Equal(t, "png", string(body))
	assert.Equal(t, "image/png", obj.ContentType)

	_, err = s.Get(ctx, "bills/b1/missing")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = s.Get(ctx, "../escape")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
