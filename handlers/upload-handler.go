package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/milbratheduardo/task-manager/logging"

	"github.com/google/uuid"
)

const maxUploadSize = 5 << 20 // 5MB

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

type UploadHandler struct {
	UploadDir string
}

func NewUploadHandler(uploadDir string) *UploadHandler {
	return &UploadHandler{UploadDir: uploadDir}
}

// UploadImage stores a multipart image under the upload directory and
// returns the URL it will be served from.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondMessage(w, http.StatusBadRequest, "No file uploaded or file too large")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		respondMessage(w, http.StatusBadRequest, "Only .jpg, .jpeg and .png files are allowed")
		return
	}

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		respondError(w, fmt.Errorf("failed to create upload directory: %v", err))
		return
	}

	filename := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.UploadDir, filename))
	if err != nil {
		respondError(w, fmt.Errorf("failed to store file: %v", err))
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		respondError(w, fmt.Errorf("failed to store file: %v", err))
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	imageURL := fmt.Sprintf("%s://%s/uploads/%s", scheme, r.Host, filename)

	logging.Logger.Infof("Event ID: IMAGE_UPLOADED, Description: Stored uploaded image %s", filename)
	respondJSON(w, http.StatusOK, map[string]string{"imageUrl": imageURL})
}
