// Package reportlog writes the operator-facing push log: an append-only,
// plain-text file with one timestamped record per event.
package reportlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/semmidev/pusher/internal/util/clock"
)

// TimestampLayout renders UTC as e.g. "2026-10-18 03:00:00+00:00".
const TimestampLayout = "2006-01-02 15:04:05-07:00"

// placeholder is written when the log is created so that the file is never
// empty, matching logs produced by earlier deployments.
const placeholder = "0"

type ReportLog struct {
	fs    afero.Fs
	path  string
	clock clock.Clock
}

func New(fs afero.Fs, path string, clk clock.Clock) *ReportLog {
	if clk == nil {
		clk = clock.System()
	}
	return &ReportLog{fs: fs, path: path, clock: clk}
}

func (r *ReportLog) Path() string {
	return r.path
}

// Write appends "\n[<timestamp>] <subject>" and, when message is non-empty,
// "\n<message>". The file is opened and closed on every call.
func (r *ReportLog) Write(subject, message string) error {
	if err := r.ensureExists(); err != nil {
		return err
	}

	record := fmt.Sprintf("\n[%s] %s", r.clock.Now().UTC().Format(TimestampLayout), subject)
	if message != "" {
		record += "\n" + message
	}

	f, err := r.fs.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report log: %w", err)
	}

	if _, err := f.WriteString(record); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append report log: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close report log: %w", err)
	}

	return nil
}

func (r *ReportLog) ensureExists() error {
	exists, err := afero.Exists(r.fs, r.path)
	if err != nil {
		return fmt.Errorf("failed to stat report log: %w", err)
	}
	if exists {
		return nil
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report log directory: %w", err)
		}
	}

	if err := afero.WriteFile(r.fs, r.path, []byte(placeholder), 0644); err != nil {
		return fmt.Errorf("failed to create report log: %w", err)
	}

	return nil
}
