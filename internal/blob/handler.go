package blob

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

// 5MB limit, same as the web client enforces.
const maxUploadBytes = 5 << 20

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Handler struct {
	store Store
	log   *slog.Logger
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Upload accepts one multipart file and responds with its public URL. The
// declared content type is ignored; the bytes are sniffed instead.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+4096)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		http.Error(w, "could not read file", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadBytes {
		http.Error(w, "file too large", http.StatusBadRequest)
		return
	}

	mtype := mimetype.Detect(data)
	if !allowedTypes[mtype.String()] {
		http.Error(w, "invalid file type", http.StatusBadRequest)
		return
	}

	url, err := h.store.Put(r.Context(), header.Filename, bytes.NewReader(data))
	if err != nil {
		h.log.Error("upload failed", "file", header.Filename, "err", err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"fileUrl": url})
}
