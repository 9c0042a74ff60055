package utils

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	ctx2, id := EnsureRequestID(ctx)
	assert.Len(t, id, 36)
	assert.Equal(t, id, RequestIDFromContext(ctx2))

	ctx3, same := EnsureRequestID(WithRequestID(ctx, "fixed"))
	assert.Equal(t, "fixed", same)
	assert.Equal(t, "fixed", RequestIDFromContext(ctx3))
}

func TestWithRequestLogsID(t *testing.T) {
	log := NewDiscardLogger()
	assert.NotContains(t, WithRequest(log, context.Background()).Data, "request_id")

	entry := WithRequest(log, WithRequestID(context.Background(), "abc"))
	assert.Equal(t, "abc", entry.Data["request_id"])
}

func newFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocalStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store := &LocalStore{Root: root, BaseURL: "http://localhost:5200/"}
	require.NoError(t, store.EnsureDir())

	fh := newFileHeader(t, "img.png", []byte("png-bytes"))

	url, err := store.Save(context.Background(), fh, "battlepass/1/winter/a.png")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5200/uploads/battlepass/1/winter/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "battlepass", "1", "winter", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	_, err = store.Save(context.Background(), fh, "../escape.png")
	assert.Error(t, err)
}
