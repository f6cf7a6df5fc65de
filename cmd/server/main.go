// Package main - точка входа HTTP API приложения GearGrade.
//
// GearGrade ведёт транскрипт студента: семестры, курсы, оценки по
// 10-балльной шкале, CGPA с усечением и what-if планировщик. Один
// процесс обслуживает весь цикл редактирования: мутация -> пересчёт
// агрегатов -> autosave снапшота -> ответ клиенту.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: шкала оценок, движок GPA, хранилище транскрипта, планировщик
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: Redis снапшоты, Postgres архив, advisory клиент
// - Interface: REST API
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geargrade/geargrade-backend/config"

	// Application layer
	"github.com/geargrade/geargrade-backend/internal/application/command"
	"github.com/geargrade/geargrade-backend/internal/application/eventhandler"
	"github.com/geargrade/geargrade-backend/internal/application/query"

	// Domain layer
	"github.com/geargrade/geargrade-backend/internal/domain/planner"
	"github.com/geargrade/geargrade-backend/internal/domain/shared"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"

	// Infrastructure layer
	"github.com/geargrade/geargrade-backend/internal/infrastructure/external/advisor"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/messaging"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/persistence/postgres"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/geargrade/geargrade-backend/internal/interface/http"
	"github.com/geargrade/geargrade-backend/internal/interface/http/handlers"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting GearGrade API",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИНИЦИАЛИЗАЦИЯ REDIS (снапшоты и rate limiting)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var snapshots transcript.SnapshotRepository
	var rateLimiter httpserver.RateLimiter

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			// Без Redis пропадают только снапшоты и общий rate limit;
			// редактор продолжает работать в памяти.
			log.Warn("failed to connect to Redis, snapshots disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			snapshots = redis.NewSnapshotStore(redisCache, log)
			if cfg.HTTP.RateLimitPerMinute > 0 {
				rateLimiter = redis.NewRateLimiter(redisCache, cfg.HTTP.RateLimitPerMinute, time.Minute, log)
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ИНИЦИАЛИЗАЦИЯ POSTGRES (архив агрегатов и API-ключи)
	// ─────────────────────────────────────────────────────────────────────────
	var archiveRepo transcript.ArchiveRepository
	var keyVerifier handlers.KeyVerifier
	var dbConn *postgres.Connection

	if !cfg.Database.Disabled && cfg.Database.URL != "" {
		log.Info("connecting to database...")
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			dbConn.Close()
		}()

		if err := dbConn.Ping(ctx); err != nil {
			return fmt.Errorf("database ping failed: %w", err)
		}

		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		archiveRepo = postgres.NewTranscriptArchiveRepository(dbConn)
		if cfg.HTTP.AuthEnabled {
			keyVerifier = postgres.NewAPIKeyRepository(dbConn)
		}
		log.Info("database connection established")
	} else {
		log.Info("database disabled, history endpoint serves empty results")
		archiveRepo = noopArchive{}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ ДОМЕННОГО СЛОЯ
	// ─────────────────────────────────────────────────────────────────────────
	store := transcript.NewStore(transcript.Params{})
	plan := planner.NewPlanner(planner.Params{Base: store, Policy: store.Policy()})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// Синхронный режим: autosave завершается до того, как HTTP-ответ
	// уйдёт клиенту.
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if snapshots != nil {
		autosave := eventhandler.NewOnTranscriptChangedHandler(store, snapshots, log, eventhandler.AutosaveConfig{
			Enabled:     cfg.Features.IsEnabled(config.FeatureAutosave),
			SaveTimeout: 5 * time.Second,
		})
		if err := autosave.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register autosave handler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ГИДРАТАЦИЯ ТРАНСКРИПТА
	// ─────────────────────────────────────────────────────────────────────────
	if snapshots != nil {
		restore := command.NewRestoreTranscriptHandler(store, snapshots, eventBus, log)
		result, err := restore.Handle(ctx)
		if err != nil {
			return fmt.Errorf("failed to restore transcript: %w", err)
		}
		log.Info("transcript hydrated",
			"restored", result.Restored,
			"semesters", result.SemesterCount,
		)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ADVISORY КЛИЕНТА
	// ─────────────────────────────────────────────────────────────────────────
	var advisorClient query.AdvisorClient
	var advisorHTTP *advisor.Client

	if cfg.Features.IsEnabled(config.FeatureAdvisory) && cfg.Advisor.BaseURL != "" {
		advisorCfg := advisor.DefaultClientConfig(cfg.Advisor.BaseURL)
		advisorCfg.APIKey = cfg.Advisor.APIKey
		advisorCfg.Timeout = cfg.Advisor.RequestTimeout
		advisorCfg.Logger = log
		advisorHTTP = advisor.NewClient(advisorCfg)
		advisorClient = advisorHTTP
	} else {
		log.Info("advisory suggestions disabled")
		advisorClient = disabledAdvisor{}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	editTranscript := command.NewEditTranscriptHandler(store, eventBus, log)
	overview := query.NewGetOverviewHandler(store, store.Scale(), store.Policy())
	suggest := query.NewSuggestFocusHandler(store, store.Scale(), advisorClient, log)

	// Планировщик и история включаются фич-флагами: сервер без них просто
	// не регистрирует соответствующие маршруты.
	var (
		editPlanner *command.EditPlannerHandler
		projection  *query.GetProjectionHandler
		history     *query.GetHistoryHandler
	)
	if cfg.Features.IsEnabled(config.FeaturePlanner) {
		editPlanner = command.NewEditPlannerHandler(plan, eventBus, log)
		projection = query.NewGetProjectionHandler(plan, store, overview)
	} else {
		log.Info("what-if planner disabled")
	}
	if cfg.Features.IsEnabled(config.FeatureHistory) {
		history = query.NewGetHistoryHandler(archiveRepo)
	} else {
		log.Info("CGPA history disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	if dbConn != nil {
		health.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	}
	if redisCache != nil {
		health.AddCheck("cache", handlers.NewCacheCheck(redisCache))
	}
	if advisorHTTP != nil {
		health.AddCheck("advisor", handlers.NewAdvisorCheck(advisorHTTP))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.MaxHeaderBytes = cfg.HTTP.MaxHeaderBytes
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	httpConfig.EnableProjection = cfg.Features.IsEnabled(config.FeaturePlannerProjection)

	httpDeps := httpserver.Dependencies{
		EditTranscript: editTranscript,
		EditPlanner:    editPlanner,
		GetOverview:    overview,
		GetProjection:  projection,
		GetHistory:     history,
		SuggestFocus:   suggest,
		Logger:         log,
		HealthChecker:  health,
		KeyVerifier:    keyVerifier,
		RateLimiter:    rateLimiter,
	}

	server := httpserver.NewServer(httpConfig, httpDeps)

	errCh := server.StartAsync()
	log.Info("GearGrade API is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
			return err
		}
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", "error", err)
		return err
	}

	// Финальный снапшот: состояние на момент остановки переживает рестарт
	// даже если последняя мутация не успела сохраниться.
	if snapshots != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := snapshots.Save(saveCtx, store.Semesters()); err != nil {
			log.Warn("final snapshot failed", "error", err)
		}
	}

	log.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Observability.LogLevel),
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// ══════════════════════════════════════════════════════════════════════════════

// noopArchive serves the history endpoint when Postgres is not configured.
type noopArchive struct{}

func (noopArchive) Append(ctx context.Context, record transcript.ArchiveRecord) error {
	return nil
}

func (noopArchive) History(ctx context.Context, since time.Time, limit int) ([]transcript.ArchiveRecord, error) {
	return nil, nil
}

// disabledAdvisor rejects suggestion requests when the advisory feature
// is off or no service URL is configured.
type disabledAdvisor struct{}

func (disabledAdvisor) Suggest(ctx context.Context, scores map[string]float64) (string, error) {
	return "", shared.ErrAdvisorFailed
}
