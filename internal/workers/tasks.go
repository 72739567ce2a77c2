// internal/workers/tasks.go
package workers

import (
	"context"
	"encoding/json"

	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

const (
	TypeInvoiceImport    = "invoice:import"
	TypeExportArchive    = "export:archive"
	TypeRefreshAnalytics = "analytics:refresh"
	TypeCleanupOldJobs   = "cleanup:old_jobs"
	TypeCleanupTempFiles = "cleanup:temp_files"
)

// InvoiceJobPayload represents the payload for supplier invoice import jobs
type InvoiceJobPayload struct {
	JobID       string `json:"job_id"`
	FilePath    string `json:"file_path"`
	SupplierRUT string `json:"supplier_rut,omitempty"`
	DocNumber   string `json:"doc_number,omitempty"`
}

// InvoiceJobResult represents the result of an invoice import
type InvoiceJobResult struct {
	LinesParsed    int      `json:"lines_parsed"`
	ItemsCreated   int      `json:"items_created"`
	ItemsRestocked int      `json:"items_restocked"`
	Errors         []string `json:"errors,omitempty"`
	ProcessingTime string   `json:"processing_time"`
}

// ExportArchivePayload represents the payload for monthly archive jobs
type ExportArchivePayload struct {
	JobID string `json:"job_id"`
	Month string `json:"month"` // formatted as 2006-01
}

// markJobProcessing flags the tracked job as picked up by a worker.
func markJobProcessing(ctx context.Context, db ports.Database, jobID string) error {
	query := `
		UPDATE async_jobs
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1`

	_, err := db.Exec(ctx, query, jobID)
	return err
}

// markJobFailed records the terminal failure of a tracked job.
func markJobFailed(ctx context.Context, db ports.Database, jobID string, errMsg string) error {
	query := `
		UPDATE async_jobs
		SET status = 'failed', error = $2, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	_, err := db.Exec(ctx, query, jobID, errMsg)
	return err
}

// markJobDone records the result payload of a finished job.
func markJobDone(ctx context.Context, db ports.Database, jobID string, status string, result json.RawMessage) error {
	query := `
		UPDATE async_jobs
		SET status = $2, result = $3, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	_, err := db.Exec(ctx, query, jobID, status, result)
	return err
}
