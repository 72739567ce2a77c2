// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/fungusmycelium/gestion-be/internal/adapters/storage"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler generates Excel exports of documents and the catalog.
// Generated files are streamed to the client and archived to object
// storage in the background.
type ExportHandler struct {
	documents ports.DocumentRepository
	inventory ports.InventoryRepository
	store     storage.ExportStore
	logger    *slog.Logger
}

// NewExportHandler creates a new export handler. store may be nil, in
// which case exports are not archived.
func NewExportHandler(
	documents ports.DocumentRepository,
	inventory ports.InventoryRepository,
	store storage.ExportStore,
	logger *slog.Logger,
) *ExportHandler {
	return &ExportHandler{
		documents: documents,
		inventory: inventory,
		store:     store,
		logger:    logger.With(slog.String("handler", "export")),
	}
}

// ExportSales handles GET /api/v1/export/sales.xlsx. A kind=purchase
// query switches the export to purchases.
func (h *ExportHandler) ExportSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind := domain.KindSale
	if r.URL.Query().Get("kind") == string(domain.KindPurchase) {
		kind = domain.KindPurchase
	}

	docs, _, err := h.documents.List(ctx, ports.DocumentFilter{
		Kind: kind, Page: 1, PageSize: 10000,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load documents for export",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	data, err := h.generateDocumentsFile(docs, kind)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("%ss_%s.xlsx", kind, time.Now().Format("20060102_150405"))
	h.streamAndArchive(ctx, w, string(kind), filename, data)

	h.logger.InfoContext(ctx, "document export completed",
		slog.String("kind", string(kind)),
		slog.Int("rows", len(docs)),
		slog.String("filename", filename))
}

// ExportInventory handles GET /api/v1/export/inventory.xlsx.
func (h *ExportHandler) ExportInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, _, err := h.inventory.List(ctx, ports.ListParams{Page: 1, PageSize: 10000})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load inventory for export",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to retrieve data")
		return
	}

	data, err := h.generateInventoryFile(items)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102_150405"))
	h.streamAndArchive(ctx, w, "inventory", filename, data)

	h.logger.InfoContext(ctx, "inventory export completed",
		slog.Int("rows", len(items)),
		slog.String("filename", filename))
}

func (h *ExportHandler) streamAndArchive(ctx context.Context, w http.ResponseWriter, kind, filename string, data []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(data); err != nil {
		h.logger.ErrorContext(ctx, "failed to write export response",
			slog.String("error", err.Error()))
		return
	}

	if h.store == nil {
		return
	}

	// Archive a copy without blocking the response.
	go func() {
		archiveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		key := storage.ExportKey(kind, time.Now().UTC(), filename)
		if _, err := h.store.Upload(archiveCtx, key, bytes.NewReader(data), xlsxContentType); err != nil {
			h.logger.WarnContext(archiveCtx, "failed to archive export",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
	}()
}

func (h *ExportHandler) generateDocumentsFile(docs []*domain.Document, kind domain.DocumentKind) ([]byte, error) {
	file := xlsx.NewFile()

	sheetName := "Ventas"
	if kind == domain.KindPurchase {
		sheetName = "Compras"
	}
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
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

	for _, doc := range docs {
		bd := doc.Breakdown()
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

	for i := range headers {
		sheet.SetColWidth(i, i, 15)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}

func (h *ExportHandler) generateInventoryFile(items []*domain.InventoryItem) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Inventario")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Producto", "Categoría", "Stock", "Costo Neto", "Precio Venta",
		"Utilidad Unitaria", "Valor Stock",
	}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
	}

	for _, item := range items {
		row := sheet.AddRow()
		for _, value := range []string{
			item.Name,
			string(item.Category),
			strconv.Itoa(item.Stock),
			item.UnitCost.String(),
			item.SellPrice.String(),
			item.UnitProfit().String(),
			item.StockValue().String(),
		} {
			row.AddCell().Value = value
		}
	}

	for i := range headers {
		sheet.SetColWidth(i, i, 18)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}

	return buffer.Bytes(), nil
}
