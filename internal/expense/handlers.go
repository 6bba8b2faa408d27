package expense

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Deividgaston/gastos-app/internal/capture"
	"github.com/Deividgaston/gastos-app/internal/extraction"
)

// maxUploadSize caps multipart uploads; high-resolution phone photos of
// receipts routinely hit tens of megabytes.
const maxUploadSize = int64(50 << 20) // 50MB

// corsError writes an error response with CORS headers set.
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSONError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleScan accepts a multipart receipt upload and runs it through the
// full pipeline. Every terminal failure maps to one user-visible message.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			msg = "File is too large. Maximum size is 50MB."
		}
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeJSONError(w, "No file was selected. Please choose an image to scan.", http.StatusBadRequest)
		return
	}
	defer f.Close()

	cap, err := capture.FromUpload(f, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, capture.ErrNoImage) {
			writeJSONError(w, "The selected file is empty.", http.StatusBadRequest)
			return
		}
		writeJSONError(w, "Could not read the uploaded file.", http.StatusBadRequest)
		return
	}

	result, err := s.service.ScanCapture(r.Context(), cap)
	if err != nil {
		s.writeScanError(w, err)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeScanError maps pipeline failures to HTTP responses.
func (s *Server) writeScanError(w http.ResponseWriter, err error) {
	var extractionErr *extraction.ExtractionError
	switch {
	case errors.Is(err, ErrScanInProgress):
		writeJSONError(w, "A scan is already in progress. Try again when it finishes.", http.StatusConflict)
	case errors.Is(err, capture.ErrNoImage):
		writeJSONError(w, "No image was provided.", http.StatusBadRequest)
	case errors.Is(err, ErrNoOwner):
		writeJSONError(w, "No owner is configured; the entry was not saved.", http.StatusUnauthorized)
	case errors.As(err, &extractionErr):
		writeJSONError(w, "Could not extract data from the receipt: "+extractionErr.Reason(), http.StatusUnprocessableEntity)
	default:
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleListEntries returns all entries, newest first.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries()
	if err != nil {
		slog.Error("Error listing entries", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetEntry returns a single entry.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Entry ID required", http.StatusBadRequest)
		return
	}

	entry, err := s.service.GetEntry(id)
	if err != nil {
		corsError(w, "Entry not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetEntryPhoto serves the evidence image for an entry.
func (s *Server) handleGetEntryPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Entry ID required", http.StatusBadRequest)
		return
	}

	data, contentType, err := s.service.GetEntryPhoto(id)
	if err != nil {
		corsError(w, "Photo not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteEntry removes an entry and its photo.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Entry ID required", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteEntry(id); err != nil {
		slog.Error("Error deleting entry", "id", id, "error", err)
		corsError(w, "Entry not found", http.StatusNotFound)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}
