// internal/workers/analytics_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	redis_adapter "github.com/fungusmycelium/gestion-be/internal/adapters/redis_adapter"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// AnalyticsProcessor handles analytics refresh tasks
type AnalyticsProcessor struct {
	db     ports.Database
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewAnalyticsProcessor creates a new analytics processor
func NewAnalyticsProcessor(db ports.Database, cache ports.CacheRepository, logger *slog.Logger) *AnalyticsProcessor {
	return &AnalyticsProcessor{
		db:     db,
		cache:  cache,
		logger: logger.With(slog.String("processor", "analytics")),
	}
}

// RefreshAnalytics rebuilds the monthly totals view and drops the cached
// dashboard, projection and analysis payloads so the next read recomputes
// them against fresh data.
func (p *AnalyticsProcessor) RefreshAnalytics(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "refreshing analytics")

	query := `REFRESH MATERIALIZED VIEW CONCURRENTLY monthly_document_totals_mat`
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to refresh materialized view: %w", err)
	}

	for _, prefix := range []redis_adapter.CacheKeyPrefix{
		redis_adapter.PrefixDashboard,
		redis_adapter.PrefixProjection,
		redis_adapter.PrefixAnalysis,
	} {
		pattern := fmt.Sprintf("%s:*", prefix)
		if err := p.cache.DeletePattern(ctx, pattern); err != nil {
			p.logger.WarnContext(ctx, "failed to drop cached analytics",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "analytics refreshed successfully")
	return nil
}
