package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/semmidev/pusher/internal/domain"
	"github.com/semmidev/pusher/internal/util/clock"
)

// Source is the local directory backups are collected from.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Open(name string) (io.ReadSeekCloser, int64, error)
	Delete(name string) error
	BasePath() string
}

// Reporter appends operator-facing records to the report log.
type Reporter interface {
	Write(subject, message string) error
}

// Logger is the console progress sink; *zap.SugaredLogger satisfies it.
type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// PushSettings shapes the remote keys and the order files are pushed in.
type PushSettings struct {
	KeyPrefix   string
	AccountID   string
	SortEntries bool
}

// Push moves every file of a Source into a Storage, one at a time.
type Push struct {
	source   Source
	storage  domain.Storage
	reporter Reporter
	logger   Logger
	clock    clock.Clock
	settings PushSettings
}

var _ domain.PushExecutor = (*Push)(nil)

// NewPush wires a push run. A nil clk falls back to the system clock.
func NewPush(
	source Source,
	storage domain.Storage,
	reporter Reporter,
	logger Logger,
	clk clock.Clock,
	settings PushSettings,
) *Push {
	if clk == nil {
		clk = clock.System()
	}
	return &Push{
		source:   source,
		storage:  storage,
		reporter: reporter,
		logger:   logger,
		clock:    clk,
		settings: settings,
	}
}

// Execute pushes every eligible file in the source directory, deleting each
// local copy once its upload succeeded. The first failing file ends the run;
// files after it are left for the next invocation.
func (uc *Push) Execute(ctx context.Context) (*domain.RunSummary, error) {
	summary := &domain.RunSummary{StartedAt: uc.clock.Now()}
	err := uc.execute(ctx, summary)
	summary.FinishedAt = uc.clock.Now()
	summary.Err = err
	return summary, err
}

func (uc *Push) execute(ctx context.Context, summary *domain.RunSummary) error {
	target := uc.storage.Name()
	dir := uc.source.BasePath()

	switch err := uc.storage.Connect(ctx); {
	case err == nil:
		uc.logger.Infof("Connected to %s", target)
	case errors.Is(err, domain.ErrBucketCheckDenied):
		uc.logger.Warnf("Connected to %s without checking the bucket: %v", target, err)
	default:
		summary.State = domain.StateConnectFailed
		uc.logger.Errorf("Failed to connect to %s: %v", target, err)
		uc.report(fmt.Sprintf("ERROR: Failed to connect to %s:", target), err.Error())
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}

	uc.logger.Infof("Locating backups to transmit at: '%s'", dir)
	names, err := uc.source.List(ctx)
	if err != nil {
		summary.State = domain.StateListFailed
		uc.logger.Errorf("Failed to read backup directory %s: %v", dir, err)
		uc.report(fmt.Sprintf("ERROR: Reading backup directory '%s':", dir), err.Error())
		return fmt.Errorf("%w: %w", domain.ErrListing, err)
	}

	if uc.settings.SortEntries {
		sort.Strings(names)
	}

	if len(names) == 0 {
		summary.State = domain.StateNothingToDo
		subject := fmt.Sprintf("ERROR: No backups to push. Check the directory config: '%s'", dir)
		uc.logger.Warnf("No backups to push in %s", dir)
		uc.report(subject, "")
		return nil
	}

	for _, name := range names {
		transfer := domain.NewTransfer(uc.settings.KeyPrefix, uc.settings.AccountID, name)

		if err := uc.pushOne(ctx, transfer, summary); err != nil {
			summary.State = domain.StateHalted
			summary.Failed = name
			return err
		}
	}

	summary.State = domain.StateDone
	uc.logger.Infof("Done. Pushed %d file(s)", len(summary.Pushed))
	return nil
}

func (uc *Push) pushOne(ctx context.Context, t domain.Transfer, summary *domain.RunSummary) error {
	target := uc.storage.Name()
	uc.logger.Infof("PUSHING: '%s' -> %s", t.Filename, t.RemoteKey)

	body, size, err := uc.source.Open(t.Filename)
	if err != nil {
		uc.logger.Errorf("Creating uploader for '%s' to %s: %v", t.Filename, target, err)
		uc.report(fmt.Sprintf("ERROR: Creating uploader for '%s' to %s:", t.Filename, target), err.Error())
		return fmt.Errorf("%w: %s: %w", domain.ErrRequestBuild, t.Filename, err)
	}

	err = uc.storage.Upload(ctx, t.RemoteKey, body, size)
	_ = body.Close()

	if err != nil {
		uc.abort(ctx, t, err, summary)
		uc.logger.Errorf("Pushing to %s: '%s': %v", target, t.Filename, err)
		uc.report(fmt.Sprintf("ERROR: Pushing to %s: '%s'", target, t.Filename), err.Error())
		return fmt.Errorf("%w: %s: %w", domain.ErrUpload, t.Filename, err)
	}

	uc.logger.Infof("SUCCESS: '%s' (%d bytes)", t.Filename, size)
	uc.report(fmt.Sprintf("SUCCESS: Pushed to %s: '%s'", target, t.Filename), "")
	summary.Pushed = append(summary.Pushed, t.Filename)

	if err := uc.source.Delete(t.Filename); err != nil {
		// The object is safe remotely; the next run uploads it again.
		summary.Leftover = append(summary.Leftover, t.Filename)
		uc.logger.Warnf("Failed to remove local copy of '%s': %v", t.Filename, err)
		uc.report(fmt.Sprintf("ERROR: Removing local copy of '%s':", t.Filename), err.Error())
	}

	return nil
}

func (uc *Push) abort(ctx context.Context, t domain.Transfer, uploadErr error, summary *domain.RunSummary) {
	var partial *domain.PartialUploadError
	if !errors.As(uploadErr, &partial) {
		return
	}

	summary.AbortAttempts++
	if err := uc.storage.Abort(ctx, partial.Key, partial.UploadID); err != nil {
		uc.logger.Warnf("Failed to abort upload %s of '%s': %v", partial.UploadID, t.Filename, err)
		return
	}
	uc.logger.Infof("Aborted partial upload %s of '%s'", partial.UploadID, t.Filename)
}

func (uc *Push) report(subject, message string) {
	if err := uc.reporter.Write(subject, message); err != nil {
		uc.logger.Errorf("Failed to write report log: %v", err)
	}
}
