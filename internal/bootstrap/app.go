package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blog-analyzer-backend/internal/analyses"
	"blog-analyzer-backend/internal/blog"
	"blog-analyzer-backend/internal/cache"
	"blog-analyzer-backend/internal/provider"
	"blog-analyzer-backend/internal/provider/httpapi"
	"blog-analyzer-backend/internal/provider/openai"
	"blog-analyzer-backend/internal/shared/config"
	"blog-analyzer-backend/internal/shared/server"
	"blog-analyzer-backend/internal/shared/server/middleware"
	"blog-analyzer-backend/internal/shared/storage/db"
	"blog-analyzer-backend/internal/shared/telemetry"
)

const (
	sessionSweepInterval = time.Minute
	cachePurgeInterval   = 15 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Cache           cache.Store
	Provider        provider.Provider
	Sessions        *analyses.Registry
	AnalysisHandler *analyses.Handler
	Limiter         *middleware.RateLimiter
}

// Build prepares every dependency and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var store cache.Store
	if sqlDB != nil {
		store = cache.NewPGStore(sqlDB)
	} else {
		store = cache.NewMemoryStore(nil)
	}

	p, err := BuildProvider(cfg, store)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	sessions := analyses.NewRegistry(p, cfg.SessionIdleTTL, nil)
	handler := analyses.NewHandler(sessions)
	limiter := middleware.NewRateLimiter(nil)

	app := &App{
		Config:          cfg,
		DB:              sqlDB,
		Cache:           store,
		Provider:        p,
		Sessions:        sessions,
		AnalysisHandler: handler,
		Limiter:         limiter,
	}
	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		AnalysisHandler: handler,
		Limiter:         limiter,
	})
	return app, nil
}

// BuildProvider assembles the configured analysis provider with its timeout
// and cache layers.
func BuildProvider(cfg config.Config, store cache.Store) (provider.Provider, error) {
	var base provider.Provider
	switch cfg.AnalysisProvider {
	case config.ProviderHTTP:
		client, err := httpapi.NewClient(cfg.AnalyzeAPIURL, nil)
		if err != nil {
			return nil, err
		}
		base = provider.WithRetry(client, 0)
	case config.ProviderOpenAI:
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, blog.NewFetcher(nil))
		if err != nil {
			return nil, err
		}
		base = provider.WithRetry(client, 0)
	case config.ProviderMock, "":
		return provider.WithTimeout(provider.NewMock(cfg.MockDelay), cfg.AnalysisTimeout), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.AnalysisProvider)
	}
	return provider.Cached(provider.WithTimeout(base, cfg.AnalysisTimeout), store, cfg.CacheTTL), nil
}

// Run starts background maintenance until ctx is done.
func (a *App) Run(ctx context.Context) {
	go a.Sessions.Run(ctx, sessionSweepInterval)
	go a.pruneLimiter(ctx)
	go a.purgeCache(ctx)
}

// Close releases sessions and the database pool.
func (a *App) Close() {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func (a *App) pruneLimiter(ctx context.Context) {
	if a.Limiter == nil {
		return
	}
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.Limiter.Prune(limiterIdleTTL)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) purgeCache(ctx context.Context) {
	if a.Cache == nil {
		return
	}
	ticker := time.NewTicker(cachePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := a.Cache.Purge(ctx)
			if err != nil {
				telemetry.Warn("cache.purge_failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				telemetry.Info("cache.purged", map[string]any{"count": n})
			}
		case <-ctx.Done():
			return
		}
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory report cache")
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory report cache: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory report cache: %v", err)
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
