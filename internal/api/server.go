package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/fmuoria/cv-auditor/internal/agent"
	"github.com/fmuoria/cv-auditor/internal/export"
	"github.com/fmuoria/cv-auditor/internal/ingestion"
	"github.com/fmuoria/cv-auditor/internal/logger"
	"github.com/fmuoria/cv-auditor/internal/models"
	"github.com/fmuoria/cv-auditor/internal/store"
)

const (
	// RequestIDHeader carries the per-request ID
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 10 << 20
)

// Version is reported by GET /
var Version = "dev"

// Service is the part of the agent the API needs
type Service interface {
	Categories() []models.Category
	Preview(text string) (models.AuditVerdict, models.QualityReport)
	Submit(ctx context.Context, doc models.Document) (models.SubmissionResult, error)
	Records(ctx context.Context, latestOnly bool) ([]models.Record, error)
	StudentRecord(ctx context.Context, id string) (models.StudentReport, error)
}

// Server handles HTTP requests
type Server struct {
	service   Service
	delimiter string
	logger    *zap.Logger
}

// NewServer creates a new API server. delimiter must match the one used to build Audit_Details.
func NewServer(service Service, delimiter string, l *zap.Logger) *Server {
	return &Server{
		service:   service,
		delimiter: delimiter,
		logger:    logger.OrNop(l),
	}
}

// auditRequest is the body of POST /audit
type auditRequest struct {
	Text string `json:"text"`
}

// submissionRequest is the body of POST /submissions
type submissionRequest struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Text string `json:"text"`
}

// previewResponse is returned by POST /audit
type previewResponse struct {
	Verdict models.AuditVerdict  `json:"verdict"`
	Quality models.QualityReport `json:"quality"`
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/audit", s.handleAudit).Methods(http.MethodPost)
	r.HandleFunc("/submissions", s.handleSubmit).Methods(http.MethodPost)
	r.HandleFunc("/records", s.handleRecords).Methods(http.MethodGet)
	r.HandleFunc("/records/{id}", s.handleStudent).Methods(http.MethodGet)
	r.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return s.loggingMiddleware(r)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "CV Content Auditor",
		"version": Version,
		"endpoints": map[string]string{
			"GET /categories":   "Active section keyword table",
			"POST /audit":       "Audit text without recording it",
			"POST /submissions": "Audit and record a student's CV text",
			"GET /records":      "All records (?latest=true for current status per student)",
			"GET /records/{id}": "Current status and history of one student",
			"GET /export":       "Excel report (?latest=true for current status per student)",
			"GET /health":       "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Categories())
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, quality := s.service.Preview(req.Text)
	s.respondJSON(w, http.StatusOK, previewResponse{Verdict: verdict, Quality: quality})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submissionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Submit(r.Context(), models.Document{Name: req.Name, ID: req.ID, Text: req.Text})
	if err != nil {
		var validationErr *ingestion.ValidationError
		switch {
		case errors.As(err, &validationErr):
			s.respondError(w, http.StatusBadRequest, validationErr.Error())
		case errors.Is(err, agent.ErrNoExtractableText):
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("submission failed", zap.String(logger.FieldStudentID, req.ID), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, "failed to record submission")
		}
		return
	}

	s.respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	latest, err := latestParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.service.Records(r.Context(), latest)
	if err != nil {
		s.logger.Error("failed to read records", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to read records")
		return
	}

	s.respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleStudent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	report, err := s.service.StudentRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, fmt.Sprintf("no submission for student %s", id))
			return
		}
		s.logger.Error("failed to read student record", zap.String(logger.FieldStudentID, id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to read records")
		return
	}

	s.respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	latest, err := latestParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.service.Records(r.Context(), latest)
	if err != nil {
		s.logger.Error("failed to read records", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to read records")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, records, s.delimiter); err != nil {
		s.logger.Error("failed to build report", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}

	filename := fmt.Sprintf("cv_audit_%s.xlsx", time.Now().Format("20060102_1504"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func latestParam(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("latest")
	if v == "" {
		return false, nil
	}
	latest, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("latest must be true or false")
	}
	return latest, nil
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware tags each request with an ID and logs it
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Info("request",
			zap.String(logger.FieldRequestID, requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote", r.RemoteAddr),
		)
	})
}
