// Package tray provides the system tray menu for posturewatch.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu: it shows the current posture and toggles
// monitoring.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	posture     string
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle  *systray.MenuItem
	menuPosture *systray.MenuItem
}

// New creates a new Tray with monitoring enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
		posture: "checking",
	}
}

// OnToggle sets the callback called when monitoring is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback called when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run
// on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the tray event loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Posture")
	systray.SetTooltip("posturewatch")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume posture monitoring")
	systray.AddSeparator()
	t.menuPosture = systray.AddMenuItem(postureTitle(t.posture), "Current posture")
	t.menuPosture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit posturewatch")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetPosture updates the posture shown in the menu and the tray title.
func (t *Tray) SetPosture(posture string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if posture == t.posture {
		return
	}
	t.posture = posture
	if t.menuPosture != nil {
		t.menuPosture.SetTitle(postureTitle(posture))
		systray.SetTitle(trayTitle(posture))
	}
}

// Posture returns the last posture passed to SetPosture.
func (t *Tray) Posture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.posture
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Monitoring"
	}
	return "○ Paused"
}

func postureTitle(posture string) string {
	if posture == "" {
		posture = "none"
	}
	return fmt.Sprintf("Posture: %s", posture)
}

func trayTitle(posture string) string {
	switch posture {
	case "good":
		return "Posture ✓"
	case "bad":
		return "Posture ✗"
	default:
		return "Posture"
	}
}
