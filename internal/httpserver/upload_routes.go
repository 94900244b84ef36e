package httpserver

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"driftchat/internal/config"
)

// allowedUploadTypes maps accepted MIME types to the message type a client
// should attach them as. Audio types cover voice messages recorded in the
// browser.
var allowedUploadTypes = map[string]string{
	"image/jpeg":         "image",
	"image/png":          "image",
	"image/gif":          "image",
	"image/webp":         "image",
	"application/pdf":    "file",
	"application/msword": "file",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "file",
	"audio/webm": "voice",
	"audio/ogg":  "voice",
	"audio/mpeg": "voice",
}

// UploadRoutes returns a sub-router mounted at /api/uploads.
// - POST /          -> stores a multipart "file" field, enforcing size and type limits
// - GET /{filename} -> serves a previously stored file
func UploadRoutes(cfg *config.Config) chi.Router {
	r := chi.NewRouter()

	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadSize)
		if err := r.ParseMultipartForm(cfg.MaxUploadSize); err != nil {
			http.Error(w, fmt.Sprintf("file too large (max %d MB)", cfg.MaxUploadSize>>20), http.StatusRequestEntityTooLarge)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		// Sniff the real content type instead of trusting the header.
		head := make([]byte, 512)
		n, _ := io.ReadFull(file, head)
		contentType := http.DetectContentType(head[:n])
		if i := strings.Index(contentType, ";"); i >= 0 {
			contentType = contentType[:i]
		}
		messageType, ok := allowedUploadTypes[contentType]
		if !ok {
			// DetectContentType sees office documents as zip or octet-stream;
			// fall back to the declared type for those.
			declared := header.Header.Get("Content-Type")
			if contentType == "application/zip" || contentType == "application/octet-stream" {
				messageType, ok = allowedUploadTypes[declared]
			}
		}
		if !ok {
			http.Error(w, fmt.Sprintf("unsupported file type %q", contentType), http.StatusUnsupportedMediaType)
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			http.Error(w, "could not read file", http.StatusInternalServerError)
			return
		}

		ext := filepath.Ext(header.Filename)
		filename := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + uuid.NewString()[:8] + ext
		destPath := filepath.Join(cfg.UploadDir, filename)

		out, err := os.Create(destPath)
		if err != nil {
			http.Error(w, "could not create file", http.StatusInternalServerError)
			return
		}
		defer out.Close()

		if _, err := io.Copy(out, file); err != nil {
			http.Error(w, "could not save file", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"file_path":    "/api/uploads/" + filename,
			"filename":     filename,
			"content_type": contentType,
			"message_type": messageType,
		})
	})

	r.Get("/{filename}", func(w http.ResponseWriter, r *http.Request) {
		filename := chi.URLParam(r, "filename")
		if filename == "" {
			http.Error(w, "missing filename", http.StatusBadRequest)
			return
		}
		// Prevent path traversal by rejecting anything with separators.
		if filepath.Base(filename) != filename {
			http.Error(w, "invalid filename", http.StatusBadRequest)
			return
		}
		http.ServeFile(w, r, filepath.Join(cfg.UploadDir, filename))
	})

	return r
}
