package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartImageBody(t *testing.T, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadImage_StoresFile(t *testing.T) {
	h := NewUploadHandler(t.TempDir())

	body, contentType := multipartImageBody(t, "avatar.png", 128)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/uploads/")

	entries, err := os.ReadDir(h.UploadDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".png", filepath.Ext(entries[0].Name()))
}

func TestUploadImage_RejectsUnknownExtension(t *testing.T) {
	h := NewUploadHandler(t.TempDir())

	body, contentType := multipartImageBody(t, "payload.gif", 128)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadImage_RejectsOversizedFile(t *testing.T) {
	h := NewUploadHandler(t.TempDir())

	body, contentType := multipartImageBody(t, "huge.png", maxUploadSize+1)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	entries, err := os.ReadDir(h.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadImage_RejectsMissingFile(t *testing.T) {
	h := NewUploadHandler(t.TempDir())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.UploadImage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
