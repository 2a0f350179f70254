package domain

import (
	"context"
	"time"
)

type RunState string

const (
	StateDone          RunState = "done"
	StateNothingToDo   RunState = "nothing_to_do"
	StateConnectFailed RunState = "connect_failed"
	StateListFailed    RunState = "list_failed"
	StateHalted        RunState = "halted"
)

// RunSummary describes the outcome of one pass over the backup directory.
type RunSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	State      RunState
	Pushed     []string
	// Failed is the file the run halted on, if any.
	Failed        string
	Err           error
	AbortAttempts int
	// Leftover lists files whose upload succeeded but whose local copy
	// could not be removed.
	Leftover []string
}

func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *RunSummary) Failure() bool {
	switch s.State {
	case StateConnectFailed, StateListFailed, StateHalted:
		return true
	}
	return false
}

// PushExecutor runs a single pass of the pusher.
type PushExecutor interface {
	Execute(ctx context.Context) (*RunSummary, error)
}

// Notifier is told about every finished run.
type Notifier interface {
	Notify(ctx context.Context, summary *RunSummary) error
}
