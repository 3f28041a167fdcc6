// Package ui renders the system tray presence: a status line, library count,
// and pause/resume control for background processing.
package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cutroom/cutroom-agent/internal/reconcile"
	"github.com/getlantern/systray"
)

type Tray struct {
	reconciler *reconcile.Reconciler
	logger     *slog.Logger

	statusItem *systray.MenuItem
	mediaItem  *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu sync.Mutex

	onOpenEditor func() error
	onQuit       func()
}

type TrayConfig struct {
	Reconciler   *reconcile.Reconciler
	Logger       *slog.Logger
	OnOpenEditor func() error
	OnQuit       func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		reconciler:   cfg.Reconciler,
		logger:       cfg.Logger,
		onOpenEditor: cfg.OnOpenEditor,
		onQuit:       cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Cutroom")
	systray.SetTooltip("Cutroom Agent")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current agent status")
	t.statusItem.Disable()

	t.mediaItem = systray.AddMenuItem("Media: 0", "Items in the library")
	t.mediaItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Processing", "Pause background processing")

	openItem := systray.AddMenuItem("Open Editor...", "Open the editor in a browser")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutroom Agent")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-openItem.ClickedCh:
				t.handleOpenEditor()
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

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reconciler == nil {
		return
	}

	if t.reconciler.Paused() {
		t.reconciler.Resume()
		t.pauseItem.SetTitle("Pause Processing")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.reconciler.Pause()
		t.pauseItem.SetTitle("Resume Processing")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) handleOpenEditor() {
	if t.onOpenEditor != nil {
		if err := t.onOpenEditor(); err != nil {
			t.logger.Error("failed to open editor", "error", err)
		}
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.reconciler != nil && t.reconciler.Paused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateMediaCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mediaItem.SetTitle(fmt.Sprintf("Media: %d", count))
}

func (t *Tray) Quit() {
	systray.Quit()
}
