// internal/workers/invoice_processor.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// InvoiceProcessor imports supplier invoice PDFs into the catalog. Each
// parsed line restocks an existing item or creates a new one priced with
// the default margin over its net cost.
type InvoiceProcessor struct {
	inventory ports.InventoryRepository
	db        ports.Database
	logger    *slog.Logger
}

// NewInvoiceProcessor creates a new invoice processor
func NewInvoiceProcessor(inventory ports.InventoryRepository, db ports.Database, logger *slog.Logger) *InvoiceProcessor {
	return &InvoiceProcessor{
		inventory: inventory,
		db:        db,
		logger:    logger.With(slog.String("processor", "invoice")),
	}
}

// ProcessInvoice handles an invoice:import task.
func (p *InvoiceProcessor) ProcessInvoice(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	var payload InvoiceJobPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	p.logger.InfoContext(ctx, "processing supplier invoice",
		slog.String("job_id", payload.JobID),
		slog.String("file_path", payload.FilePath))

	_ = markJobProcessing(ctx, p.db, payload.JobID)

	lines, err := p.extractInvoiceLines(ctx, payload.FilePath)
	if err != nil {
		errMsg := fmt.Sprintf("failed to extract invoice lines: %v", err)
		_ = markJobFailed(ctx, p.db, payload.JobID, errMsg)
		return fmt.Errorf("%s", errMsg)
	}

	result := InvoiceJobResult{LinesParsed: len(lines)}
	for _, line := range lines {
		created, err := p.intakeLine(ctx, line)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", line.description, err))
			continue
		}
		if created {
			result.ItemsCreated++
		} else {
			result.ItemsRestocked++
		}
	}

	status := "completed"
	if len(result.Errors) > 0 {
		status = "completed_with_errors"
	}
	result.ProcessingTime = time.Since(start).String()

	resultJSON, _ := json.Marshal(result)
	_ = markJobDone(ctx, p.db, payload.JobID, status, resultJSON)

	// Clean up temporary file
	if strings.HasPrefix(payload.FilePath, os.TempDir()) {
		_ = os.Remove(payload.FilePath)
	}

	p.logger.InfoContext(ctx, "invoice processing completed",
		slog.String("job_id", payload.JobID),
		slog.Int("lines_parsed", result.LinesParsed),
		slog.Int("items_created", result.ItemsCreated),
		slog.Int("items_restocked", result.ItemsRestocked))

	return nil
}

type invoiceLine struct {
	description string
	quantity    int
	unitCost    decimal.Decimal
}

func (p *InvoiceProcessor) extractInvoiceLines(ctx context.Context, filePath string) ([]invoiceLine, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var textLines []string
	totalPages := r.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to extract text from page",
				slog.Int("page", pageNum),
				slog.String("error", err.Error()))
			continue
		}

		textLines = append(textLines, strings.Split(text, "\n")...)
	}

	lines := parseInvoiceLines(textLines)

	p.logger.InfoContext(ctx, "extracted lines from invoice",
		slog.String("file_path", filePath),
		slog.Int("count", len(lines)))

	return lines, nil
}

var (
	invoiceHeaderRe = regexp.MustCompile(`(?i)(CANT(?:IDAD)?\s+.*(DETALLE|DESCRIPCI)|DESCRIPCI[ÓO]N.*(PRECIO|VALOR|TOTAL))`)
	invoiceFooterRe = regexp.MustCompile(`(?i)^\s*((MONTO\s+)?NETO|SUBTOTAL|I\.?V\.?A|TOTAL|FORMA\s+DE\s+PAGO)`)

	// Chilean peso amounts use dots for thousands and no decimals on
	// printed facturas; an optional comma fraction still parses.
	clpAmountRe  = regexp.MustCompile(`(?:\$\s*\d{1,3}(?:\.\d{3})*|\d{1,3}(?:\.\d{3})+)(?:,\d+)?`)
	leadingQtyRe = regexp.MustCompile(`^(\d{1,4})\s+`)
)

// parseInvoiceLines scans the plain text of a factura for its item table.
// A line belongs to the table when it carries at least one peso amount;
// lines without one are buffered as wrapped descriptions.
func parseInvoiceLines(lines []string) []invoiceLine {
	startIdx := 0
	for i, line := range lines {
		if invoiceHeaderRe.MatchString(line) {
			startIdx = i + 1
			break
		}
	}

	var parsed []invoiceLine
	var descBuffer []string

	for i := startIdx; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if invoiceFooterRe.MatchString(line) {
			break
		}

		amounts := clpAmountRe.FindAllString(line, -1)
		if len(amounts) == 0 {
			descBuffer = append(descBuffer, line)
			continue
		}

		rest := clpAmountRe.ReplaceAllString(line, "")

		quantity := 1
		if m := leadingQtyRe.FindStringSubmatch(rest); m != nil {
			if q, err := parseInt(m[1]); err == nil && q > 0 {
				quantity = q
			}
			rest = leadingQtyRe.ReplaceAllString(rest, "")
		}

		description := cleanDescription(strings.Join(append(descBuffer, rest), " "))
		descBuffer = descBuffer[:0]
		if description == "" {
			continue
		}

		// With several amounts on the line the first is the unit price
		// and the last the extended total; with one amount it is the
		// total for the stated quantity.
		unitCost := parseCLP(amounts[0])
		if len(amounts) == 1 && quantity > 1 {
			unitCost = parseCLP(amounts[0]).
				Div(decimal.NewFromInt(int64(quantity))).
				Round(2)
		}
		if !unitCost.IsPositive() {
			continue
		}

		parsed = append(parsed, invoiceLine{
			description: description,
			quantity:    quantity,
			unitCost:    unitCost,
		})
	}

	return parsed
}

func cleanDescription(desc string) string {
	// Product codes printed before the description
	desc = regexp.MustCompile(`^[A-Z0-9]{6,}\s+`).ReplaceAllString(desc, "")
	desc = regexp.MustCompile(`\s+`).ReplaceAllString(desc, " ")
	desc = regexp.MustCompile(`-{3,}`).ReplaceAllString(desc, "")
	return strings.TrimSpace(desc)
}

// parseCLP converts a printed peso amount to a decimal. Dots are
// thousands separators; a comma, when present, starts the fraction.
func parseCLP(val string) decimal.Decimal {
	cleaned := strings.ReplaceAll(val, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.TrimSpace(cleaned)

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// intakeLine applies one invoice line to the catalog the same way a
// confirmed purchase does: existing items gain stock and take the new
// net cost, unknown items are created priced at the default margin.
func (p *InvoiceProcessor) intakeLine(ctx context.Context, line invoiceLine) (created bool, err error) {
	existing, err := p.inventory.FindByName(ctx, line.description)
	if err != nil {
		return false, err
	}

	if existing != nil {
		existing.UnitCost = line.unitCost
		if err := p.inventory.Update(ctx, existing); err != nil {
			return false, err
		}
		if err := p.inventory.AdjustStock(ctx, existing.ID, line.quantity); err != nil {
			return false, err
		}
		return false, nil
	}

	item := &domain.InventoryItem{
		Name:      line.description,
		Stock:     line.quantity,
		UnitCost:  line.unitCost,
		SellPrice: domain.GrossUp(line.unitCost),
		Category:  categorizeItem(line.description),
	}
	item.PrepareForStorage()

	if err := p.inventory.Save(ctx, item); err != nil {
		return false, err
	}
	return true, nil
}

func categorizeItem(description string) domain.ItemCategory {
	descLower := strings.ToLower(description)

	switch {
	case strings.Contains(descLower, "sustrato") || strings.Contains(descLower, "grano"):
		return domain.CategorySubstrate
	case strings.Contains(descLower, "cultivo") || strings.Contains(descLower, "cepa") ||
		strings.Contains(descLower, "micelio"):
		return domain.CategoryCultures
	case strings.Contains(descLower, "kit"):
		return domain.CategoryKits
	case strings.Contains(descLower, "autoclave") || strings.Contains(descLower, "flujo laminar") ||
		strings.Contains(descLower, "balanza"):
		return domain.CategoryEquipment
	case strings.Contains(descLower, "bolsa") || strings.Contains(descLower, "guante") ||
		strings.Contains(descLower, "alcohol") || strings.Contains(descLower, "frasco"):
		return domain.CategorySupplies
	}
	return domain.CategoryOther
}
