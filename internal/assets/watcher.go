package assets

import (
	"context"
	"log/slog"
)

// Watcher notices changes to media files referenced by the timeline so the
// cache can be invalidated when a source file is re-exported in place.
type Watcher interface {
	Watch(ctx context.Context, dir string) error
	Stop() error
	OnChange(callback func(path string, event EventType))
}

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
)

type StubWatcher struct {
	logger   *slog.Logger
	callback func(path string, event EventType)
}

func NewStubWatcher(logger *slog.Logger) *StubWatcher {
	return &StubWatcher{logger: logger}
}

func (w *StubWatcher) Watch(ctx context.Context, dir string) error {
	w.logger.Info("asset watcher stub: watch requested (v0 does not implement real watching)", "dir", dir)
	return nil
}

func (w *StubWatcher) Stop() error {
	w.logger.Info("asset watcher stub: stop requested")
	return nil
}

func (w *StubWatcher) OnChange(callback func(path string, event EventType)) {
	w.callback = callback
}
