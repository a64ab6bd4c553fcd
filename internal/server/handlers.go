package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/costkeep/costkeep/internal/extraction"
	"github.com/costkeep/costkeep/internal/receipt"
)

// maxUploadSize bounds receipt photo uploads; phone photos run large
const maxUploadSize = int64(50 << 20) // 50MB

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes a plain error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// scanErrorBody is the diagnostic payload for a failed scan: the error kind
// from the extraction taxonomy, a message, and the offending input when one
// exists (cleaned model text, unparseable date string)
type scanErrorBody struct {
	Kind   string `json:"kind"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// classifyScanError maps the typed extraction errors to a status code and
// diagnostic body. Nothing is retried here; the client decides what to do.
func classifyScanError(err error) (int, scanErrorBody) {
	var uploadErr *extraction.UploadError
	if errors.As(err, &uploadErr) {
		if errors.Is(err, receipt.ErrUnauthenticated) {
			return http.StatusUnauthorized, scanErrorBody{Kind: "upload_failed", Error: err.Error()}
		}
		return http.StatusBadGateway, scanErrorBody{Kind: "upload_failed", Error: err.Error()}
	}

	var modelErr *extraction.ModelError
	if errors.As(err, &modelErr) {
		return http.StatusBadGateway, scanErrorBody{Kind: "model_invocation_failed", Error: err.Error()}
	}

	var malformedErr *extraction.MalformedResponseError
	if errors.As(err, &malformedErr) {
		return http.StatusUnprocessableEntity, scanErrorBody{
			Kind:   "malformed_response",
			Error:  err.Error(),
			Detail: malformedErr.CleanedText,
		}
	}

	var dateErr *extraction.InvalidDateError
	if errors.As(err, &dateErr) {
		return http.StatusUnprocessableEntity, scanErrorBody{
			Kind:   "invalid_date_format",
			Error:  err.Error(),
			Detail: dateErr.Value,
		}
	}

	return http.StatusInternalServerError, scanErrorBody{Kind: "internal", Error: err.Error()}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleScanReceipt accepts a multipart photo upload and runs the pipeline
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			msg = "File is too large. Maximum size is 50MB."
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "File is too large. Maximum size is 50MB."})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error reading file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	rec, err := s.service.ScanReceipt(r.Context(), s.userID(r), data, contentType)
	if err != nil {
		code, body := classifyScanError(err)
		writeJSON(w, code, body)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// contentTypeFromExt guesses a MIME type for browsers that omit one
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleListReceipts returns the user's receipts, optionally limited to a
// date range (from/to query params, YYYY-MM-DD)
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	from := time.Time{}
	to := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			corsError(w, "Invalid 'from' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			corsError(w, "Invalid 'to' date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		// inclusive through the end of the day
		to = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}

	receipts, err := s.service.ListReceipts(s.userID(r), from, to)
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receipts)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}
	rec, err := s.service.GetReceipt(s.userID(r), id)
	if err != nil {
		corsError(w, "Receipt not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleGetReceiptImage returns the stored photograph for a receipt
func (s *Server) handleGetReceiptImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}
	data, err := s.service.GetReceiptImage(s.userID(r), id)
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt and its image
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteReceipt(s.userID(r), id); err != nil {
		corsError(w, "Error deleting receipt", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}
