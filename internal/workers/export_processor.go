// internal/workers/export_processor.go
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/fungusmycelium/gestion-be/internal/adapters/storage"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

const archiveContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportProcessor builds the monthly closing workbook and archives it in
// object storage. The workbook carries one sheet per document kind plus
// the net, IVA and total columns the accountant reconciles against.
type ExportProcessor struct {
	documents ports.DocumentRepository
	store     storage.ExportStore
	logger    *slog.Logger
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(documents ports.DocumentRepository, store storage.ExportStore, logger *slog.Logger) *ExportProcessor {
	return &ExportProcessor{
		documents: documents,
		store:     store,
		logger:    logger.With(slog.String("processor", "export")),
	}
}

// GenerateMonthlyArchive handles an export:archive task.
func (p *ExportProcessor) GenerateMonthlyArchive(ctx context.Context, t *asynq.Task) error {
	var payload ExportArchivePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if p.store == nil {
		p.logger.WarnContext(ctx, "object storage not configured, skipping archive",
			slog.String("month", payload.Month))
		return nil
	}

	monthStart, err := time.ParseInLocation("2006-01", payload.Month, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid month %q: %w", payload.Month, err)
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	p.logger.InfoContext(ctx, "generating monthly archive",
		slog.String("job_id", payload.JobID),
		slog.String("month", payload.Month))

	file := xlsx.NewFile()
	for _, kind := range []domain.DocumentKind{domain.KindSale, domain.KindPurchase} {
		docs, err := p.loadMonth(ctx, kind, monthStart, monthEnd)
		if err != nil {
			return err
		}
		if err := addDocumentsSheet(file, kind, docs); err != nil {
			return err
		}
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	filename := fmt.Sprintf("cierre_%s.xlsx", payload.Month)
	key := storage.ExportKey("mensual", monthStart, filename)
	location, err := p.store.Upload(ctx, key, bytes.NewReader(buffer.Bytes()), archiveContentType)
	if err != nil {
		return fmt.Errorf("failed to upload monthly archive: %w", err)
	}

	p.logger.InfoContext(ctx, "monthly archive stored",
		slog.String("month", payload.Month),
		slog.String("location", location))

	return nil
}

func (p *ExportProcessor) loadMonth(ctx context.Context, kind domain.DocumentKind, from, to time.Time) ([]*domain.Document, error) {
	docs, _, err := p.documents.List(ctx, ports.DocumentFilter{
		Kind:     kind,
		DateFrom: &from,
		DateTo:   &to,
		Page:     1,
		PageSize: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s documents: %w", kind, err)
	}
	return docs, nil
}

func addDocumentsSheet(file *xlsx.File, kind domain.DocumentKind, docs []*domain.Document) error {
	sheetName := "Ventas"
	if kind == domain.KindPurchase {
		sheetName = "Compras"
	}
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Orden", "Fecha", "RUT", "Contraparte", "Documento", "Número",
		"Pago", "Neto", "IVA", "Total",
	}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
	}

	totalNet := decimal.Zero
	totalTax := decimal.Zero
	totalGross := decimal.Zero

	for _, doc := range docs {
		bd := doc.Breakdown()
		totalNet = totalNet.Add(bd.Net)
		totalTax = totalTax.Add(bd.Tax)
		totalGross = totalGross.Add(doc.Total)

		row := sheet.AddRow()
		for _, value := range []string{
			doc.OrderNumber,
			doc.Date.UTC().Format("2006-01-02"),
			doc.CounterpartyRUT,
			doc.Counterparty,
			string(doc.DocType),
			doc.DocNumber,
			string(doc.PaymentMethod),
			bd.Net.String(),
			bd.Tax.String(),
			doc.Total.String(),
		} {
			row.AddCell().Value = value
		}
	}

	totalsRow := sheet.AddRow()
	for _, value := range []string{
		"TOTAL", "", "", "", "", "", "",
		totalNet.String(),
		totalTax.String(),
		totalGross.String(),
	} {
		cell := totalsRow.AddCell()
		cell.Value = value
		cell.GetStyle().Font.Bold = true
	}

	for i := range headers {
		sheet.SetColWidth(i, i, 15)
	}

	return nil
}
