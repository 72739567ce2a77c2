// cmd/seeder/main.go
//
// Seeds a development database with a demo catalog, a handful of
// counterparties and a few months of finalized documents so the
// dashboard, projections and exports have data to work with.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/adapters/db"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/internal/pkg/config"
	"github.com/fungusmycelium/gestion-be/internal/pkg/logger"
)

type seedItem struct {
	name     string
	stock    int
	cost     int64
	category domain.ItemCategory
}

var catalog = []seedItem{
	{"Sustrato estéril 5kg", 40, 4500, domain.CategorySubstrate},
	{"Grano de centeno colonizado 1kg", 25, 6000, domain.CategorySubstrate},
	{"Cultivo líquido ostra 10ml", 30, 8000, domain.CategoryCultures},
	{"Cultivo líquido melena de león 10ml", 18, 9500, domain.CategoryCultures},
	{"Kit de cultivo ostra", 15, 12000, domain.CategoryKits},
	{"Kit de inoculación completo", 10, 18000, domain.CategoryKits},
	{"Bolsas unicorn T4 x50", 60, 250, domain.CategorySupplies},
	{"Frascos de vidrio 1L", 45, 2500, domain.CategorySupplies},
	{"Alcohol 70% 1L", 35, 3000, domain.CategorySupplies},
	{"Autoclave 18L", 3, 89990, domain.CategoryEquipment},
}

type seedParty struct {
	rut       string
	isCompany bool
	first     string
	last      string
	business  string
	commune   string
}

var parties = []seedParty{
	{"76.192.083-9", true, "", "", "Insumos del Sur SpA", "Temuco"},
	{"77.261.280-K", true, "", "", "Microbiología Austral Ltda", "Valdivia"},
	{"12.345.678-5", false, "Carolina", "Fuentes", "", "Ñuñoa"},
	{"9.876.543-3", false, "Andrés", "Soto", "", "Maipú"},
	{"15.937.264-2", false, "Javiera", "Morales", "", "Providencia"},
}

func main() {
	var (
		months  = flag.Int("months", 6, "months of document history to generate")
		perWeek = flag.Int("per-week", 3, "approximate sales per week")
		seed    = flag.Int64("seed", 2025, "random seed for reproducible data")
	)
	flag.Parse()

	slogger := logger.SetupLogger("info", "text")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.NewDatabase(ctx, &db.Config{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.Name,
		SSLMode:        cfg.Database.SSLMode,
		MaxConnections: 5,
		MinConnections: 1,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: cfg.GetDatabaseURL(),
		SourcePath:  cfg.Database.MigrationPath,
	}, slogger, 3); err != nil {
		slogger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))
	inventoryRepo := db.NewInventoryRepository(database, slogger)
	counterpartyRepo := db.NewCounterpartyRepository(database, slogger)
	finalizer := db.NewDocumentFinalizer(database, slogger)

	items, err := seedCatalog(ctx, inventoryRepo)
	if err != nil {
		slogger.Error("failed to seed catalog", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("catalog seeded", slog.Int("items", len(items)))

	seeded := seedParties()
	for i := range seeded {
		if err := counterpartyRepo.Upsert(ctx, &seeded[i]); err != nil {
			slogger.Error("failed to seed counterparty",
				slog.String("rut", seeded[i].RUT),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	slogger.Info("counterparties seeded", slog.Int("count", len(seeded)))

	docs, err := seedDocuments(ctx, database, finalizer, slogger, rng, items, seeded, *months, *perWeek)
	if err != nil {
		slogger.Error("failed to seed documents", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slogger.Info("documents seeded", slog.Int("count", docs))
}

func seedCatalog(ctx context.Context, repo ports.InventoryRepository) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0, len(catalog))
	for _, s := range catalog {
		existing, err := repo.FindByName(ctx, s.name)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			items = append(items, *existing)
			continue
		}

		cost := decimal.NewFromInt(s.cost)
		item := domain.InventoryItem{
			Name:      s.name,
			Stock:     s.stock,
			UnitCost:  cost,
			SellPrice: domain.GrossUp(cost),
			Category:  s.category,
		}
		item.PrepareForStorage()
		if err := repo.Save(ctx, &item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func seedParties() []domain.Counterparty {
	out := make([]domain.Counterparty, 0, len(parties))
	for i, p := range parties {
		cp := domain.Counterparty{
			RUT:          p.rut,
			IsCompany:    p.isCompany,
			FirstName:    p.first,
			LastName:     p.last,
			BusinessName: p.business,
			Email:        fmt.Sprintf("contacto%d@ejemplo.cl", i+1),
			Phone:        fmt.Sprintf("+5699%07d", 1000000+i),
			Address:      fmt.Sprintf("Calle Demo %d", 100+i),
			Commune:      p.commune,
			Region:       "Metropolitana",
		}
		cp.PrepareForStorage()
		out = append(out, cp)
	}
	return out
}

func seedDocuments(
	ctx context.Context,
	database *db.Database,
	finalizer ports.DocumentFinalizer,
	slogger *slog.Logger,
	rng *rand.Rand,
	items []domain.InventoryItem,
	cps []domain.Counterparty,
	months, perWeek int,
) (int, error) {
	count := 0
	now := time.Now().UTC()
	start := now.AddDate(0, -months, 0)

	for day := start; day.Before(now); day = day.AddDate(0, 0, 7) {
		for n := 0; n < perWeek; n++ {
			cp := cps[2+rng.Intn(len(cps)-2)] // persons buy, companies supply

			wizard := services.NewOrderEntry(domain.KindSale, finalizer, slogger)
			wizard.SetParty(cp)

			lines := 1 + rng.Intn(3)
			for l := 0; l < lines; l++ {
				item := items[rng.Intn(len(items))]
				wizard.SetItems(append(wizard.Items(), domain.LineItem{
					Name:      item.Name,
					Quantity:  1 + rng.Intn(2),
					UnitPrice: item.SellPrice,
				}))
			}

			if err := wizard.Next(); err != nil {
				return count, fmt.Errorf("party gate: %w", err)
			}
			if err := wizard.Next(); err != nil {
				return count, fmt.Errorf("item gate: %w", err)
			}

			doc, err := wizard.Confirm(ctx)
			if err != nil {
				// Stock may have run out for the picked item; skip and
				// keep seeding.
				slogger.Warn("skipping unsellable demo document", slog.String("error", err.Error()))
				continue
			}

			// Spread the history over the period; finalize stamps now.
			backdate := day.Add(time.Duration(rng.Intn(5*24)) * time.Hour)
			if _, err := database.Exec(ctx,
				`UPDATE documents SET date = $2, created_at = $2 WHERE id = $1`,
				doc.ID, backdate); err != nil {
				return count, fmt.Errorf("backdate document: %w", err)
			}
			count++
		}
	}

	return count, nil
}
