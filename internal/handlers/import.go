// internal/handlers/import.go
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/workers"
)

// ImportHandler accepts supplier invoice uploads and queues them for the
// invoice worker. Processing is asynchronous; the caller polls the job id.
type ImportHandler struct {
	asynqClient *asynq.Client
	db          ports.Database
	logger      *slog.Logger
	maxFileSize int64
	uploadDir   string
}

// NewImportHandler creates a new import handler
func NewImportHandler(asynqClient *asynq.Client, db ports.Database, logger *slog.Logger, maxFileSize int64, uploadDir string) *ImportHandler {
	return &ImportHandler{
		asynqClient: asynqClient,
		db:          db,
		logger:      logger.With(slog.String("handler", "import")),
		maxFileSize: maxFileSize,
		uploadDir:   uploadDir,
	}
}

// ImportInvoice handles POST /api/v1/import/invoice
func (h *ImportHandler) ImportInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	if header.Header.Get("Content-Type") != "application/pdf" {
		respondError(w, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	supplierRUT := r.FormValue("supplier_rut")
	if supplierRUT != "" && !domain.ValidateRUT(supplierRUT) {
		respondError(w, http.StatusBadRequest, "supplier_rut check digit is invalid")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		h.logger.ErrorContext(ctx, "failed to create upload directory",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to prepare upload")
		return
	}

	tempFile := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), header.Filename))
	dst, err := os.Create(tempFile)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create temp file",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to save file",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to save upload")
		return
	}

	jobID := uuid.New().String()
	payload := workers.InvoiceJobPayload{
		JobID:       jobID,
		FilePath:    tempFile,
		SupplierRUT: domain.FormatRUT(supplierRUT),
		DocNumber:   r.FormValue("doc_number"),
	}

	b, err := json.Marshal(payload)
	if err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to marshal invoice payload",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	if err := h.createJobRecord(ctx, jobID, workers.TypeInvoiceImport, b); err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to create job record",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to create import job")
		return
	}

	info, err := h.asynqClient.Enqueue(asynq.NewTask(workers.TypeInvoiceImport, b),
		asynq.Queue("default"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour))
	if err != nil {
		os.Remove(tempFile)
		h.logger.ErrorContext(ctx, "failed to enqueue task",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to queue import job")
		return
	}

	h.logger.InfoContext(ctx, "invoice import queued",
		slog.String("job_id", jobID),
		slog.String("task_id", info.ID),
		slog.String("filename", header.Filename))

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":  jobID,
		"status":  "queued",
		"message": "Invoice import has been queued for processing",
	})
}

// ImportStatus handles GET /api/v1/import/status/{jobId}
func (h *ImportHandler) ImportStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := r.PathValue("jobId")

	if _, err := uuid.Parse(jobID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid job id")
		return
	}

	status, err := h.getJobStatus(ctx, jobID)
	if err != nil {
		if err == pgx.ErrNoRows {
			respondError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.logger.ErrorContext(ctx, "failed to get job status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to get job status")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (h *ImportHandler) createJobRecord(ctx context.Context, jobID string, jobType string, payload json.RawMessage) error {
	query := `
		INSERT INTO async_jobs (id, job_type, status, payload)
		VALUES ($1, $2, 'queued', $3)`

	_, err := h.db.Exec(ctx, query, jobID, jobType, payload)
	return err
}

type jobStatus struct {
	JobID       string          `json:"job_id"`
	JobType     string          `json:"job_type"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

func (h *ImportHandler) getJobStatus(ctx context.Context, jobID string) (*jobStatus, error) {
	query := `
		SELECT id, job_type, status, result, error, created_at, updated_at, completed_at
		FROM async_jobs
		WHERE id = $1`

	var s jobStatus
	err := h.db.QueryRow(ctx, query, jobID).Scan(
		&s.JobID, &s.JobType, &s.Status, &s.Result, &s.Error,
		&s.CreatedAt, &s.UpdatedAt, &s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
