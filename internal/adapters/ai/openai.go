// internal/adapters/ai/openai.go
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// OpenAIProjection implements ports.ProjectionService against the OpenAI
// chat completion API. Callers treat every error as advisory and fall
// back to a deterministic projection, so this adapter never retries.
type OpenAIProjection struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *slog.Logger
}

// Config holds the OpenAI client configuration.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// NewOpenAIProjection creates a projection backend. Returns nil when no
// API key is configured; a nil ProjectionService is a valid wiring that
// keeps the deterministic fallback as the only source.
func NewOpenAIProjection(cfg *Config, logger *slog.Logger) *OpenAIProjection {
	if cfg.APIKey == "" {
		return nil
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIProjection{
		client:      openai.NewClient(cfg.APIKey),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.With(slog.String("component", "openai_projection")),
	}
}

var _ ports.ProjectionService = (*OpenAIProjection)(nil)

// projectionResponse is the JSON shape the model is asked to return for
// projections.
type projectionResponse struct {
	Points []struct {
		Label     string          `json:"label"`
		Projected decimal.Decimal `json:"projected"`
	} `json:"points"`
}

// ProjectSales asks the model for a monthly sales projection and parses
// the JSON rows out of its reply.
func (p *OpenAIProjection) ProjectSales(ctx context.Context, history []ports.SalesPoint, months int) ([]ports.ProjectionPoint, error) {
	historyJSON, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sales history: %w", err)
	}

	prompt := fmt.Sprintf(`Eres un analista financiero para un pequeño negocio chileno.

Historial de ventas mensuales (montos brutos en pesos chilenos, IVA incluido):
%s

Proyecta las ventas de los próximos %d meses. Considera tendencia y estacionalidad si el historial lo permite.

Responde SOLO con JSON en el siguiente formato, sin texto adicional:
{
  "points": [
    {"label": "MES+1", "projected": 120000}
  ]
}

Usa etiquetas "MES+1", "MES+2", etc. para los meses futuros y montos enteros en pesos.`, string(historyJSON), months)

	content, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed projectionResponse
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		p.logger.WarnContext(ctx, "failed to parse projection response",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to parse projection response: %w", err)
	}

	if len(parsed.Points) == 0 {
		return nil, fmt.Errorf("projection response contained no points")
	}

	points := make([]ports.ProjectionPoint, 0, len(parsed.Points))
	for _, row := range parsed.Points {
		points = append(points, ports.ProjectionPoint{
			Label:     row.Label,
			Projected: row.Projected,
		})
	}

	p.logger.InfoContext(ctx, "sales projection generated",
		slog.Int("history_months", len(history)),
		slog.Int("projected_months", len(points)))

	return points, nil
}

// AnalyzeBusiness asks the model for a free-form strategy narrative over
// the business snapshot.
func (p *OpenAIProjection) AnalyzeBusiness(ctx context.Context, snapshot ports.BusinessSnapshot) (string, error) {
	snapshotJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal business snapshot: %w", err)
	}

	prompt := fmt.Sprintf(`Eres un asesor de negocios para una pequeña empresa chilena.

Estado actual del negocio (ventas y compras mensuales en pesos brutos con IVA, más inventario con costos netos):
%s

Escribe un análisis breve en español con:
1. Resumen de la situación de ventas y compras.
2. Productos con stock bajo que conviene reponer.
3. Dos o tres recomendaciones concretas.

Responde en texto plano, sin formato markdown.`, string(snapshotJSON))

	content, err := p.complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	analysis := strings.TrimSpace(content)
	if analysis == "" {
		return "", fmt.Errorf("analysis response was empty")
	}

	p.logger.InfoContext(ctx, "business analysis generated",
		slog.Int("length", len(analysis)))

	return analysis, nil
}

// complete sends a single-message chat completion and returns the raw
// reply content.
func (p *OpenAIProjection) complete(ctx context.Context, prompt string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// stripCodeFence unwraps replies the model returns inside markdown code
// blocks.
func stripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
