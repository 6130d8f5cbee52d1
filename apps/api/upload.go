package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mahaj/guestline/pkg/blob"
	"github.com/mahaj/guestline/pkg/model"
)

const maxUploadBytes = 32 << 20 // 32 MB

type UploadResponse struct {
	URL         string            `json:"url"`
	ContentType model.ContentType `json:"content_type"`
}

// UploadHandler proxies a media file to the blob store and returns its
// durable URL plus the content type derived from the file's MIME type.
// Unsupported types are rejected here, before any blob round-trip.
func UploadHandler(uploader *blob.Uploader, log *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType, ok := mediaType(header.Header.Get("Content-Type"))
		if !ok {
			http.Error(w, "unsupported file type", http.StatusBadRequest)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "failed to read file", http.StatusBadRequest)
			return
		}

		url, err := uploader.Upload(r.Context(), header.Filename, data)
		if err != nil {
			log.Warnw("blob upload failed", "file", header.Filename, "err", err)
			http.Error(w, "upload failed", http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UploadResponse{URL: url, ContentType: contentType})
	}
}

// mediaType maps a MIME type onto the message content type by its major
// part, the way the upload widget historically did ("image/png" → image).
func mediaType(mime string) (model.ContentType, bool) {
	major := mime
	if i := strings.Index(mime, "/"); i >= 0 {
		major = mime[:i]
	}
	switch major {
	case "image":
		return model.ContentImage, true
	case "audio":
		return model.ContentAudio, true
	case "video":
		return model.ContentVideo, true
	default:
		return "", false
	}
}
