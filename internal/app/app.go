package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/semmidev/pusher/internal/adapter/notifier"
	"github.com/semmidev/pusher/internal/adapter/source"
	"github.com/semmidev/pusher/internal/adapter/storage"
	"github.com/semmidev/pusher/internal/config"
	"github.com/semmidev/pusher/internal/domain"
	"github.com/semmidev/pusher/internal/infrastructure/logger"
	"github.com/semmidev/pusher/internal/infrastructure/reportlog"
	"github.com/semmidev/pusher/internal/infrastructure/scheduler"
	"github.com/semmidev/pusher/internal/usecase"
	"github.com/semmidev/pusher/internal/util/clock"
)

type App struct {
	config   *config.Config
	logger   *logger.Logger
	storage  domain.Storage
	pusher   domain.PushExecutor
	notifier domain.Notifier
}

func New(cfg *config.Config) (*App, error) {
	log, err := logger.New(cfg.App)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	fs := afero.NewOsFs()
	stor := storage.New(cfg.Storage)

	pusher := usecase.NewPush(
		source.NewLocal(fs, cfg.Push.LocalDirectory),
		stor,
		reportlog.New(fs, cfg.Push.LogFile, clock.System()),
		log,
		clock.System(),
		usecase.PushSettings{
			KeyPrefix:   cfg.Storage.KeyPrefix,
			AccountID:   cfg.Storage.AccountID,
			SortEntries: cfg.Push.SortEntries,
		},
	)

	a := &App{
		config:  cfg,
		logger:  log,
		storage: stor,
		pusher:  pusher,
	}

	if tg := cfg.Notify.Telegram; tg.Enabled {
		n, err := notifier.NewTelegram(tg, cfg.Storage.AccountID)
		if err != nil {
			// A broken notifier must not block the push itself.
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			a.notifier = n
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	log.Infof("Starting %s (%s bucket: %s)", cfg.App.Name, stor.Name(), cfg.Storage.Bucket)
	return a, nil
}

// Run performs a single push, or with a schedule configured keeps pushing
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.config.Push.Schedule == "" {
		return a.runOnce(ctx)
	}

	sched := scheduler.New(ctx, a.logger.Cron())
	if err := sched.AddJob(a.config.Push.Schedule, func(ctx context.Context) error {
		a.logger.Infof("=== Triggered scheduled push ===")
		if err := a.runOnce(ctx); err != nil {
			a.logger.Errorf("Scheduled push failed: %v", err)
			return err
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to schedule push: %w", err)
	}

	sched.Start()
	a.logger.Infof("Scheduler started: %s", a.config.Push.Schedule)

	<-ctx.Done()
	sched.Stop()
	return nil
}

func (a *App) runOnce(ctx context.Context) error {
	summary, err := a.pusher.Execute(ctx)

	if a.notifier != nil && summary != nil {
		if nErr := a.notifier.Notify(ctx, summary); nErr != nil {
			a.logger.Warnf("Failed to send notification: %v", nErr)
		}
	}

	return err
}

func (a *App) Shutdown() {
	if err := a.storage.Close(); err != nil {
		a.logger.Warnf("Failed to close storage client: %v", err)
	}
	a.logger.Close()
}
