package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
	"sales-reconciliation-service/pkg/errors"
	"sales-reconciliation-service/pkg/logger"
)

// Multipart field names of the three exports
const (
	FieldPOS         = "pos-file"
	FieldPlatformA   = "platform-a-file"
	FieldPlatformB   = "platform-b-file"
	FieldGranularity = "granularity"
)

var uploadFields = map[models.SourceID]string{
	models.SourcePOS:       FieldPOS,
	models.SourcePlatformA: FieldPlatformA,
	models.SourcePlatformB: FieldPlatformB,
}

type errorBody struct {
	Category   errors.ErrorCategory `json:"category,omitempty"`
	Code       string               `json:"code"`
	Message    string               `json:"message"`
	Suggestion string               `json:"suggestion,omitempty"`
	Context    errors.Context       `json:"context,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := s.logger.WithField("request_id", middleware.GetReqID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			s.metrics.ObserveReport(string(errors.CategoryInput), time.Since(start))
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: errorBody{
				Category: errors.CategoryInput,
				Code:     "upload_too_large",
				Message:  "upload exceeds the maximum request size",
				Context:  errors.Context{"max_upload_bytes": s.config.MaxUploadBytes},
			}})
			return
		}
		s.fail(w, log, start, errors.New(errors.CategoryInput, errors.CodeMissingSource,
			"request is not a multipart upload").
			WithSuggestion("send the exports as multipart/form-data fields pos-file, platform-a-file and platform-b-file"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	generator := s.generator
	if value := strings.TrimSpace(r.FormValue(FieldGranularity)); value != "" {
		var err error
		generator, err = s.generator.WithGranularity(models.Granularity(strings.ToLower(value)))
		if err != nil {
			s.fail(w, log, start, err)
			return
		}
	}

	inputs, err := readUploads(r)
	if err != nil {
		s.fail(w, log, start, err)
		return
	}

	report, err := generator.Generate(r.Context(), inputs)
	if err != nil {
		s.fail(w, log, start, err)
		return
	}

	s.metrics.ObserveReport(string(report.Summary.Status), time.Since(start))
	log.WithFields(logger.Fields{
		"report_id": report.ID,
		"status":    report.Summary.Status,
	}).Info("Report served")

	writeJSON(w, http.StatusOK, report)
}

// sourceForField maps an upload field such as "platform-a-file" to its
// source. The bare source id ("platform_a") is accepted as well.
func sourceForField(field string) (models.SourceID, error) {
	return models.ParseSourceID(strings.TrimSuffix(field, "-file"))
}

// readUploads collects the three export files. Each file is buffered so the
// decoders can run concurrently after the request body is consumed. A file
// field that names no source rejects the request.
func readUploads(r *http.Request) (map[models.SourceID]parsers.SourceInput, error) {
	uploaded := make(map[models.SourceID]*multipart.FileHeader, len(uploadFields))
	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			id, err := sourceForField(field)
			if err != nil {
				return nil, errors.New(errors.CategoryInput, errors.CodeUnexpectedUpload, "upload field names no known source").
					WithContext("field", field).
					WithSuggestion("send the exports as pos-file, platform-a-file and platform-b-file")
			}
			if len(headers) > 0 {
				uploaded[id] = headers[0]
			}
		}
	}

	inputs := make(map[models.SourceID]parsers.SourceInput, len(uploadFields))
	for _, id := range models.AllSources() {
		header, ok := uploaded[id]
		if !ok {
			return nil, errors.MissingSourceError(id.String()).WithContext("field", uploadFields[id])
		}

		if !parsers.IsSupportedFile(header.Filename) {
			return nil, errors.UnreadableSourceError(id.String(), header.Filename, nil).
				WithSuggestion("only .csv and .xlsx exports are accepted")
		}

		file, err := header.Open()
		if err != nil {
			return nil, errors.UnreadableSourceError(id.String(), header.Filename, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, errors.UnreadableSourceError(id.String(), header.Filename, err)
		}

		inputs[id] = parsers.BytesInput(header.Filename, data)
	}
	return inputs, nil
}

func (s *Server) fail(w http.ResponseWriter, log logger.Logger, start time.Time, err error) {
	reconcilerErr := errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "report generation failed")
	status := statusFor(reconcilerErr.Category)

	s.metrics.ObserveReport(string(reconcilerErr.Category), time.Since(start))

	entry := log.WithError(err).WithFields(logger.Fields{
		"category": reconcilerErr.Category,
		"code":     reconcilerErr.Code,
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Report generation failed")
	} else {
		entry.Warn("Report request rejected")
	}

	writeJSON(w, status, errorResponse{Error: errorBody{
		Category:   reconcilerErr.Category,
		Code:       string(reconcilerErr.Code),
		Message:    reconcilerErr.Message,
		Suggestion: reconcilerErr.Suggestion,
		Context:    reconcilerErr.Context,
	}})
}

// statusFor maps an error category to an HTTP status
func statusFor(category errors.ErrorCategory) int {
	switch category {
	case errors.CategoryInput, errors.CategoryFile, errors.CategoryConfiguration:
		return http.StatusBadRequest
	case errors.CategoryParse:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
