// Package tray provides the system tray interface for the mudra hand mouse.
package tray

import (
	"log"
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the desktop toggle. Control starts disabled; the checkbox state
// follows what the toggle callback actually achieved.
type Tray struct {
	onToggle    func(enable bool) error
	onDashboard func()
	onQuit      func()
	mu          sync.RWMutex

	menuControl *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback invoked when the control checkbox is clicked.
// A non-nil error leaves the checkbox unchanged.
func (t *Tray) OnToggle(fn func(enable bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback invoked when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra Hand Mouse")

	t.menuControl = systray.AddMenuItemCheckbox("Enable control", "Move the cursor with your hand", false)
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuControl.ClickedCh:
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

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
}

// handleToggle handles a click on the control checkbox.
func (t *Tray) handleToggle() {
	enable := !t.menuControl.Checked()

	t.mu.RLock()
	callback := t.onToggle
	t.mu.RUnlock()

	if callback != nil {
		if err := callback(enable); err != nil {
			log.Printf("Hand control toggle failed: %v", err)
			return
		}
	}

	if enable {
		t.menuControl.Check()
	} else {
		t.menuControl.Uncheck()
	}
}

// handleDashboard handles the dashboard menu item click.
func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// ControlChecked reports the checkbox state.
func (t *Tray) ControlChecked() bool {
	if t.menuControl == nil {
		return false
	}
	return t.menuControl.Checked()
}
