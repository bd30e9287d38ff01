package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/ingest"
	"github.com/sells-group/claims-cli/internal/model"
)

const (
	mb = 1 << 20
	// multipartMemory is how much of a request is buffered in memory before
	// parts spill to disk.
	multipartMemory = 32 * mb
)

var typeDescriptions = map[model.DocumentType]string{
	model.DocumentTypeBill:             "Hospital bill",
	model.DocumentTypeDischargeSummary: "Discharge summary",
	model.DocumentTypeIDCard:           "Insurance ID",
	model.DocumentTypePharmacyBill:     "Pharmacy receipt",
	model.DocumentTypeClaimForm:        "Claim form",
}

type supportedType struct {
	Type        model.DocumentType `json:"type"`
	Description string             `json:"description"`
	Required    bool               `json:"required"`
}

type claimResponse struct {
	*model.ClaimResult
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	Timestamp             string  `json:"timestamp"`
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "claims API is running",
		"status":  "healthy",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": s.now().Unix(),
	})
}

func (s *Server) handleSupportedDocuments(w http.ResponseWriter, _ *http.Request) {
	types := make([]supportedType, 0, len(model.DocumentTypes))
	for _, t := range model.DocumentTypes {
		types = append(types, supportedType{
			Type:        t,
			Description: typeDescriptions[t],
			Required:    t.Required(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"supported_types": types})
}

func (s *Server) handleProcessClaim(w http.ResponseWriter, r *http.Request) {
	start := s.now()
	up := s.cfg.Upload
	maxFile := int64(up.MaxFileMB) * mb

	r.Body = http.MaxBytesReader(w, r.Body, int64(up.MaxFiles)*maxFile+mb)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Expected a multipart form with one or more files")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	files := r.MultipartForm.File["files"]
	if msg := checkUploads(files, up.MaxFiles, maxFile, up.MaxFileMB, up.AllowImages); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	docs := make([]model.RawDocument, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			zap.L().Error("server: read upload", zap.String("file", fh.Filename), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		docs = append(docs, s.ingester.Ingest(r.Context(), fh.Filename, data))
	}

	result, err := s.processor.Process(r.Context(), docs)
	if err != nil {
		zap.L().Error("server: process claim", zap.Int("files", len(files)), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	end := s.now()
	writeJSON(w, http.StatusOK, claimResponse{
		ClaimResult:           result,
		ProcessingTimeSeconds: math.Round(end.Sub(start).Seconds()*100) / 100,
		Timestamp:             end.UTC().Format(time.RFC3339),
	})
}

// checkUploads returns a client-facing message for the first upload rule
// broken, or "" when every file is acceptable.
func checkUploads(files []*multipart.FileHeader, maxFiles int, maxBytes int64, maxMB int, allowImages bool) string {
	switch {
	case len(files) == 0:
		return "No files provided"
	case len(files) > maxFiles:
		return fmt.Sprintf("Maximum %d files allowed", maxFiles)
	}
	for _, fh := range files {
		if !ingest.AllowedExtension(fh.Filename, allowImages) {
			return fmt.Sprintf("Unsupported file type: %s. Allowed: %s", fh.Filename, allowedList(allowImages))
		}
		if fh.Size > maxBytes {
			return fmt.Sprintf("File %s exceeds the %d MB limit", fh.Filename, maxMB)
		}
	}
	return ""
}

func allowedList(allowImages bool) string {
	exts := append([]string{}, ingest.PDFExtensions...)
	if allowImages {
		exts = append(exts, ingest.ImageExtensions...)
	}
	return strings.Join(exts, ", ")
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return io.ReadAll(f)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
