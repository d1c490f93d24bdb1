package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/db"
	"github.com/yungbote/vici-backend/internal/data/leaderboard"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/extract"
	"github.com/yungbote/vici-backend/internal/platform/gemini"
	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/platform/sendgrid"
	"github.com/yungbote/vici-backend/internal/platform/storage"
)

type Clients struct {
	Postgres     *db.PostgresService
	Storage      storage.Storage
	Extractor    extract.Extractor
	AI           gemini.Client
	Mail         sendgrid.Client
	Leaderboard  leaderboard.Board
	Metrics      *observability.Metrics
	otelShutdown func(context.Context) error
}

func (c *Clients) DB() *gorm.DB { return c.Postgres.DB() }

// wireClients fails only on Postgres. Optional providers degrade: the vault
// reports storage or generation failures and email is skipped.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{
		Metrics:      observability.NewMetrics(cfg.MetricsNS),
		otelShutdown: observability.InitOTel(ctx, log, cfg.Otel),
	}

	// Postgres
	pg, err := db.NewPostgresService(log, cfg.Database)
	if err != nil {
		c.Close(ctx)
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		_ = pg.Close()
		c.Close(ctx)
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	c.Postgres = pg

	// Object storage
	c.Storage, _ = resolveStorage(ctx, log, cfg.Storage)

	c.Extractor = extract.New(cfg.Vault.ExtractTimeout)

	// Gemini
	ai, err := gemini.New(log, cfg.Gemini)
	if err != nil {
		log.Warn("AI generation disabled", "error", err)
		ai = gemini.Unavailable(err)
	}
	c.AI = ai

	// SendGrid
	if mail, err := sendgrid.New(log, cfg.SendGrid); err != nil {
		log.Warn("Email delivery disabled", "error", err)
	} else {
		c.Mail = mail
	}

	// Redis
	board, err := leaderboard.New(log, cfg.Leaderboard)
	if err != nil {
		log.Warn("Leaderboard cache unavailable, serving from Postgres", "error", err)
		board = leaderboard.Disabled()
	}
	c.Leaderboard = board

	return c, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Leaderboard != nil {
		_ = c.Leaderboard.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
	if c.otelShutdown != nil {
		_ = c.otelShutdown(ctx)
	}
}
