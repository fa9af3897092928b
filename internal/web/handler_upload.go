package web

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/movequote/internal/service"
)

const defaultMaxUploadMB = 32

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing rules (and
// therefore the stdlib) have no WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readUpload reads one multipart file and checks its image format. The
// returned status is non-zero when the upload should be rejected.
func (s *Server) readUpload(fh *multipart.FileHeader) (service.Upload, int, string) {
	file, err := fh.Open()
	if err != nil {
		return service.Upload{}, http.StatusBadRequest, "failed to open file"
	}
	defer closeWithLog(file, "upload file", s.logger)

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("read upload failed", "filename", fh.Filename, "error", err)
		return service.Upload{}, http.StatusInternalServerError, "failed to read file"
	}

	mimeType, ok := allowedImageMIME(data)
	if !ok {
		return service.Upload{}, http.StatusBadRequest, "unsupported image format"
	}
	return service.Upload{Data: data, MimeType: mimeType}, 0, ""
}

// parseImages parses the multipart form and returns the files sent in the
// "image" field. It writes the error response itself and returns nil when
// the request is unusable.
func (s *Server) parseImages(w http.ResponseWriter, r *http.Request) []*multipart.FileHeader {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return nil
	}
	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		http.Error(w, "image file required", http.StatusBadRequest)
		return nil
	}
	return files
}

func (s *Server) handleUploadRoomPhotos(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	files := s.parseImages(w, r)
	if files == nil {
		return
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		u, status, msg := s.readUpload(fh)
		if status != 0 {
			http.Error(w, msg, status)
			return
		}
		uploads = append(uploads, u)
	}

	refs, err := s.service.UploadRoomPhotos(r.Context(), roomID, uploads)
	if err != nil {
		s.writeServiceError(w, err, "failed to upload room photos", "room_id", roomID)
		return
	}
	writeJSON(w, http.StatusAccepted, refs, s.logger)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	photoID := chi.URLParam(r, "photoID")

	reader, mimeType, err := s.service.GetPhoto(r.Context(), roomID, photoID)
	if err != nil {
		s.writeServiceError(w, err, "failed to get photo", "room_id", roomID, "photo_id", photoID)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "room_id", roomID, "photo_id", photoID, "error", err)
	}
}

func (s *Server) handleDeleteRoomPhoto(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	photoID := chi.URLParam(r, "photoID")

	if err := s.service.DeleteRoomPhoto(r.Context(), roomID, photoID); err != nil {
		s.writeServiceError(w, err, "failed to delete room photo", "room_id", roomID, "photo_id", photoID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetItemPhoto(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	itemID := chi.URLParam(r, "itemID")

	files := s.parseImages(w, r)
	if files == nil {
		return
	}
	u, status, msg := s.readUpload(files[0])
	if status != 0 {
		http.Error(w, msg, status)
		return
	}

	ref, err := s.service.SetItemPhoto(r.Context(), roomID, itemID, u)
	if err != nil {
		s.writeServiceError(w, err, "failed to set item photo", "room_id", roomID, "item_id", itemID)
		return
	}
	writeJSON(w, http.StatusAccepted, ref, s.logger)
}

func (s *Server) handleDeleteItemPhoto(w http.ResponseWriter, r *http.Request) {
	roomID, err := parseRoomID(r)
	if err != nil {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}
	itemID := chi.URLParam(r, "itemID")

	if err := s.service.DeleteItemPhoto(r.Context(), roomID, itemID); err != nil {
		s.writeServiceError(w, err, "failed to delete item photo", "room_id", roomID, "item_id", itemID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
