// Package app assembles the runtime graph shared by the server and the
// management commands.
package app

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/cache"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/events"
	"github.com/technofatty/technofatty/internal/newsletter"
	"github.com/technofatty/technofatty/internal/notify"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/service"
	"github.com/technofatty/technofatty/internal/socialimage"
	"github.com/technofatty/technofatty/pkg/logger"
)

// App holds every long-lived dependency.
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	DB        *database.DB
	Cache     cache.Store
	Publisher events.Publisher
	Images    *socialimage.Generator
	Repos     *repository.Repositories
	Services  *service.Services
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (*config.Config, zerolog.Logger, error) {
	log := logger.New()
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, log, err
	}
	return cfg, log, nil
}

// OpenDB connects to PostgreSQL without building the rest of the graph.
func OpenDB(cfg *config.Config, log zerolog.Logger) (*database.DB, error) {
	return database.New(&cfg.Database, log)
}

// New connects to every backing service and builds the service layer.
// Migrations are the caller's responsibility.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	db, err := OpenDB(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a.DB = db
	a.Repos = repository.New(db)

	if cfg.Cache.RedisURL != "" {
		store, err := cache.NewRedisStore(ctx, cfg.Cache.RedisURL, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Cache = store
	} else {
		log.Warn().Msg("REDIS_URL not set, using in-process cache")
		a.Cache = cache.NewMemoryStore()
	}

	mailer, err := notify.NewMailer(cfg.Email, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configure email: %w", err)
	}

	provider, err := newsletter.NewProvider(cfg.Newsletter, a.Repos.Lead)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configure newsletter: %w", err)
	}

	a.Publisher, err = events.New(cfg.Events, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	store, err := socialimage.NewStore(ctx, cfg.Social)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("configure social images: %w", err)
	}
	a.Images = socialimage.NewGenerator(store, log)

	a.Services = service.NewServices(a.Repos, service.Dependencies{
		DB:        db,
		Cache:     a.Cache,
		Notifier:  notify.NewContactNotifier(mailer, cfg.Email.From, cfg.Contact.Recipient),
		Mailer:    mailer,
		Provider:  provider,
		Publisher: a.Publisher,
		Images:    a.Images,
	}, cfg, log)

	return a, nil
}

// Close releases connections in reverse order of creation.
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.Log.Error().Err(err).Msg("Failed to close cache")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Error().Err(err).Msg("Failed to close database")
		}
	}
}
