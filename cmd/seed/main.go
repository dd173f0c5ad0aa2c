// Command seed loads a YAML fixture of shops, catalog and floor plans into
// the database and prints an admin token for the seeded data.
package main

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/database"
	"github.com/tableside-pos/api/internal/logger"
	"github.com/tableside-pos/api/internal/service"
)

//go:embed default.yaml
var defaultFixture []byte

func main() {
	file := flag.String("file", "", "fixture YAML (default: built-in demo data)")
	schema := flag.Bool("schema", false, "apply the database schema before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, closer, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: "text"}, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	var src io.Reader = bytes.NewReader(defaultFixture)
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			log.WithError(err).Fatal("open fixture")
		}
		defer f.Close()
		src = f
	}
	fixture, err := ParseFixture(src)
	if err != nil {
		log.WithError(err).Fatal("invalid fixture")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("unable to connect to database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.WithError(err).Fatal("unable to ping database")
	}

	if *schema {
		if _, err := pool.Exec(ctx, database.Schema); err != nil {
			log.WithError(err).Fatal("apply schema")
		}
		log.Info("schema applied")
	}

	owner := uuid.New()
	shopIDs, err := seed(ctx, pool, fixture, owner, log)
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, owner, true, shopIDs...)
	if err != nil {
		log.WithError(err).Fatal("sign token")
	}
	log.WithField("shops", len(shopIDs)).Info("seed completed")
	fmt.Println(token)
}

// seed writes the fixture in one transaction. Shops that already exist by
// name are skipped along with their catalog and tables.
func seed(ctx context.Context, pool *pgxpool.Pool, f *Fixture, owner uuid.UUID, log logrus.FieldLogger) ([]uuid.UUID, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)
	var ids []uuid.UUID
	for _, s := range f.Shops {
		shopLog := log.WithField("shop", s.Name)

		var existing uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM shops WHERE name = $1 LIMIT 1`, s.Name).Scan(&existing)
		if err == nil {
			shopLog.WithField("shop_id", existing).Info("shop already exists, skipping")
			ids = append(ids, existing)
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check shop %s: %w", s.Name, err)
		}

		shop, err := q.CreateShop(ctx, database.CreateShopParams{
			Name:              s.Name,
			BusinessMode:      database.BusinessMode(s.BusinessMode),
			OwnerID:           owner,
			Timezone:          s.Timezone,
			CleanAfterPayment: *s.CleanAfterPayment,
		})
		if err != nil {
			return nil, fmt.Errorf("insert shop %s: %w", s.Name, err)
		}
		ids = append(ids, shop.ID)

		products := 0
		for _, c := range s.Categories {
			cat, err := q.CreateCategory(ctx, database.CreateCategoryParams{ShopID: shop.ID, Name: c.Name, Color: c.Color})
			if err != nil {
				return nil, fmt.Errorf("insert category %s: %w", c.Name, err)
			}
			for _, p := range c.Products {
				if _, err := q.CreateProduct(ctx, database.CreateProductParams{
					ShopID:          shop.ID,
					CategoryID:      cat.ID,
					Name:            p.Name,
					Price:           service.DecimalToNumeric(p.Price),
					Stock:           p.Stock,
					RequiresKitchen: p.RequiresKitchen,
				}); err != nil {
					return nil, fmt.Errorf("insert product %s: %w", p.Name, err)
				}
				products++
			}
		}
		for _, t := range s.Tables {
			if _, err := q.CreateTable(ctx, database.CreateTableParams{
				ShopID:   shop.ID,
				Number:   t.Number,
				Capacity: t.Capacity,
				Section:  t.Section,
			}); err != nil {
				return nil, fmt.Errorf("insert table %d: %w", t.Number, err)
			}
		}

		shopLog.WithFields(logrus.Fields{
			"shop_id":    shop.ID,
			"categories": len(s.Categories),
			"products":   products,
			"tables":     len(s.Tables),
		}).Info("created shop")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return ids, nil
}
