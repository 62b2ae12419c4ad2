package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/trickspot/backend/internal/api/middleware"
	"github.com/trickspot/backend/internal/storage"
)

// maxUploadBytes caps a single clip upload at 100MB.
const maxUploadBytes = 100 << 20

type UploadHandler struct {
	storage storage.VideoStorage
}

func NewUploadHandler(videoStorage storage.VideoStorage) *UploadHandler {
	return &UploadHandler{storage: videoStorage}
}

type UploadResponse struct {
	URL string `json:"url"`
}

func (h *UploadHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if h.storage == nil {
		http.Error(w, "Uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("video")
	if err != nil {
		http.Error(w, "A 'video' file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	key := fmt.Sprintf("videos/%s/%s%s", userID, uuid.New().String(), filepath.Ext(header.Filename))

	url, err := h.storage.Upload(r.Context(), key, contentType, file)
	if err != nil {
		log.Printf("ERROR [UploadHandler] upload failed: %v", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(UploadResponse{URL: url})
}
