package project

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const defaultAutosaveInterval = 2 * time.Second

// Autosaver periodically flushes the open project to the database. It polls
// the session's dirty flag instead of hooking commits, so saving never
// contends with an in-flight gesture.
type Autosaver struct {
	service  *Service
	logger   *slog.Logger
	interval time.Duration
	running  atomic.Bool
}

func NewAutosaver(service *Service, logger *slog.Logger) *Autosaver {
	return &Autosaver{
		service:  service,
		logger:   logger,
		interval: defaultAutosaveInterval,
	}
}

// SetInterval adjusts the poll cadence before Run.
func (a *Autosaver) SetInterval(d time.Duration) {
	if d > 0 {
		a.interval = d
	}
}

func (a *Autosaver) IsRunning() bool {
	return a.running.Load()
}

// Run blocks until ctx is cancelled, then takes one last save so a clean
// shutdown never loses edits.
func (a *Autosaver) Run(ctx context.Context) {
	if a.running.Swap(true) {
		return
	}
	defer a.running.Store(false)

	a.logger.Info("autosaver started", "interval", a.interval)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.finalFlush()
			a.logger.Info("autosaver stopped")
			return
		case <-ticker.C:
			if err := a.service.Flush(ctx); err != nil {
				a.logger.Error("autosave failed", "error", err)
			}
		}
	}
}

func (a *Autosaver) finalFlush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.service.Flush(ctx); err != nil {
		a.logger.Error("final autosave failed", "error", err)
	}
}
