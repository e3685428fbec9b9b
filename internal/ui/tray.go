package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/getlantern/systray"

	"github.com/cutroom/cutroom-agent/internal/assets"
	"github.com/cutroom/cutroom-agent/internal/playback"
	"github.com/cutroom/cutroom-agent/internal/project"
)

// Tray is the desktop menu for a headed agent: transport control, prefetch
// control and quit. Everything it shows mirrors session state; edits still
// happen through the HTTP API.
type Tray struct {
	session    *playback.Session
	projects   *project.Service
	prefetcher *assets.Prefetcher
	logger     *slog.Logger

	statusItem   *systray.MenuItem
	projectItem  *systray.MenuItem
	playItem     *systray.MenuItem
	prefetchItem *systray.MenuItem

	mu   sync.Mutex
	done chan struct{}
	stop sync.Once

	onQuit func()
}

type TrayConfig struct {
	Session    *playback.Session
	Projects   *project.Service
	Prefetcher *assets.Prefetcher
	Logger     *slog.Logger
	OnQuit     func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		session:    cfg.Session,
		projects:   cfg.Projects,
		prefetcher: cfg.Prefetcher,
		logger:     cfg.Logger,
		done:       make(chan struct{}),
		onQuit:     cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutroom")
	systray.SetTooltip("Cutroom Agent")

	t.statusItem = systray.AddMenuItem("Status: Paused", "Current playback state")
	t.statusItem.Disable()

	t.projectItem = systray.AddMenuItem("Project: (none)", "Open project")
	t.projectItem.Disable()

	systray.AddSeparator()

	t.playItem = systray.AddMenuItem("Play", "Toggle playback")
	t.prefetchItem = systray.AddMenuItem("Pause prefetch", "Pause asset prefetching")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutroom Agent")

	go func() {
		for {
			select {
			case <-t.playItem.ClickedCh:
				t.togglePlayback()
			case <-t.prefetchItem.ClickedCh:
				t.togglePrefetch()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	go t.refreshLoop()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.stop.Do(func() { close(t.done) })
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.projects == nil {
		return
	}

	st := t.session.Status()
	if st.State == playback.StatePlaying {
		t.statusItem.SetTitle(fmt.Sprintf("Status: Playing %.1fs", st.Position))
		t.playItem.SetTitle("Pause")
	} else {
		t.statusItem.SetTitle("Status: Paused")
		t.playItem.SetTitle("Play")
	}

	if _, name, ok := t.projects.Active(); ok {
		t.projectItem.SetTitle("Project: " + name)
	} else {
		t.projectItem.SetTitle("Project: (none)")
	}
}

func (t *Tray) togglePlayback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return
	}

	t.session.TogglePlayback()
	if t.session.Status().State == playback.StatePlaying {
		t.playItem.SetTitle("Pause")
	} else {
		t.playItem.SetTitle("Play")
	}
}

func (t *Tray) togglePrefetch() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.prefetcher == nil {
		return
	}

	if t.prefetcher.IsPaused() {
		t.prefetcher.Resume()
		t.prefetchItem.SetTitle("Pause prefetch")
	} else {
		t.prefetcher.Pause()
		t.prefetchItem.SetTitle("Resume prefetch")
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}
