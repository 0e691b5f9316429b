package blob

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Smallest payload mimetype recognizes as a PNG.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	store, err := NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUploadAcceptsImage(t *testing.T) {
	req := require.New(t)
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "cat.png", pngHeader))

	req.Equal(http.StatusOK, rec.Code)

	var body map[string]string
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.True(strings.HasPrefix(body["fileUrl"], "http://localhost:8080/uploads/"))
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "notes.txt", []byte("just some text")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRequiresFile(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
