// Package main - точка входа фоновых процессов (Worker) GearGrade.
//
// Worker отвечает за периодические задачи:
// - Архивация агрегатов транскрипта (CGPA, кредиты) в Postgres
//
// Перед каждой архивацией Worker перечитывает снапшот из Redis, чтобы
// записывать актуальное состояние, а не состояние на момент старта.
// Distributed lock в Redis гарантирует одну запись на запуск даже при
// нескольких экземплярах.
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
	"github.com/geargrade/geargrade-backend/internal/application/command"
	"github.com/geargrade/geargrade-backend/internal/domain/transcript"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/messaging"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/persistence/postgres"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/persistence/redis"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/scheduler"
	"github.com/geargrade/geargrade-backend/internal/infrastructure/scheduler/jobs"
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

	log := setupLogger(cfg)
	log.Info("starting GearGrade Worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
	)

	if !cfg.Scheduler.Enabled {
		return fmt.Errorf("scheduler is disabled, nothing to run")
	}
	if !cfg.Features.IsEnabled(config.FeatureArchive) {
		return fmt.Errorf("transcript archiving is disabled, nothing to run")
	}
	if cfg.Database.Disabled || cfg.Database.URL == "" {
		return fmt.Errorf("worker requires the database for the archive")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
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

	log.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	archiveRepo := postgres.NewTranscriptArchiveRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ИНИЦИАЛИЗАЦИЯ REDIS
	// Снапшот транскрипта живёт в Redis; без него Worker архивировал бы
	// пустое состояние.
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Disabled {
		return fmt.Errorf("worker requires Redis for transcript snapshots")
	}

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

	redisCache, err := redis.NewCache(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisCache.Close()
	log.Info("Redis connection established")

	snapshots := redis.NewSnapshotStore(redisCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ДОМЕННЫЙ СЛОЙ И EVENT BUS
	// Асинхронный режим: фоновые обработчики не задерживают цикл джобы.
	// ─────────────────────────────────────────────────────────────────────────
	store := transcript.NewStore(transcript.Params{})

	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	busCfg.AsyncMode = true
	eventBus := messaging.NewInMemoryEventBus(busCfg)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	restore := command.NewRestoreTranscriptHandler(store, snapshots, eventBus, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 5. РЕГИСТРАЦИЯ ДЖОБ
	// ─────────────────────────────────────────────────────────────────────────
	archiveJob := jobs.NewArchiveTranscriptJob(jobs.ArchiveTranscriptJobConfig{
		Source:  store,
		Archive: archiveRepo,
		Locker:  redisCache,
		Events:  eventBus,
		Logger:  log,
		LockTTL: cfg.Scheduler.ArchiveLockTTL,
	})

	schedCfg := scheduler.DefaultSchedulerConfig()
	schedCfg.Logger = log
	schedCfg.EnableMetrics = true
	sched := scheduler.NewScheduler(schedCfg)

	schedule, err := buildArchiveSchedule(cfg)
	if err != nil {
		return fmt.Errorf("invalid archive schedule: %w", err)
	}

	job := &hydrateAndArchiveJob{
		restore: restore,
		archive: archiveJob,
		timeout: cfg.Scheduler.JobTimeout,
	}

	if err := sched.Register(job, schedule); err != nil {
		return fmt.Errorf("failed to register archive job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	log.Info("GearGrade Worker is running",
		"job", job.Name(),
		"schedule", schedule.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop", "error", err)
	}

	log.Info("shutdown completed successfully")
	return nil
}

// buildArchiveSchedule prefers the cron expression, falling back to the
// fixed interval when the expression is empty.
func buildArchiveSchedule(cfg *config.Config) (scheduler.Schedule, error) {
	if cfg.Scheduler.ArchiveCron != "" {
		return scheduler.ParseCronExpression(cfg.Scheduler.ArchiveCron)
	}
	return scheduler.NewIntervalSchedule(cfg.Scheduler.ArchiveInterval), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированное логирование.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
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

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTERS
// ══════════════════════════════════════════════════════════════════════════════

// hydrateAndArchiveJob reloads the snapshot before every archive run so
// the record reflects the editor's latest saved state.
type hydrateAndArchiveJob struct {
	restore *command.RestoreTranscriptHandler
	archive *jobs.ArchiveTranscriptJob
	timeout time.Duration
}

func (j *hydrateAndArchiveJob) Name() string {
	return j.archive.Name()
}

func (j *hydrateAndArchiveJob) Description() string {
	return "reload the transcript snapshot and archive its aggregates"
}

func (j *hydrateAndArchiveJob) Run(ctx context.Context) error {
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	if _, err := j.restore.Handle(ctx); err != nil {
		return fmt.Errorf("hydrate transcript: %w", err)
	}
	return j.archive.Run(ctx)
}
