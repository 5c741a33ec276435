package wizard

import (
	"sync"
	"time"

	"github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"
)

// DefaultSaveDelay is the idle time before a touched draft is flushed.
const DefaultSaveDelay = 2 * time.Second

// SaveFunc receives the draft to persist. Saves are fire-and-forget; the
// store itself degrades on failure.
type SaveFunc func(domain.WizardDraft)

// Autosaver debounces draft saves: every Touch resets the idle timer, and the
// draft is saved once the timer fires. OnSaved, when set, is notified after a
// save lands so the UI can show a transient confirmation.
type Autosaver struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending *domain.WizardDraft
	save    SaveFunc
	OnSaved func()
}

// NewAutosaver builds an autosaver with the default idle delay.
func NewAutosaver(save SaveFunc) *Autosaver {
	return &Autosaver{delay: DefaultSaveDelay, save: save}
}

// NewAutosaverDelay builds an autosaver with a custom idle delay.
func NewAutosaverDelay(save SaveFunc, delay time.Duration) *Autosaver {
	return &Autosaver{delay: delay, save: save}
}

// Touch records the latest draft and (re)starts the idle timer.
func (a *Autosaver) Touch(d domain.WizardDraft) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = &d
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *Autosaver) fire() {
	a.mu.Lock()
	d := a.pending
	a.pending = nil
	a.timer = nil
	a.mu.Unlock()
	if d == nil {
		return
	}
	if a.save != nil {
		a.save(*d)
	}
	if a.OnSaved != nil {
		a.OnSaved()
	}
}

// Flush saves any pending draft immediately.
func (a *Autosaver) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.fire()
}

// Stop cancels any pending save without flushing.
func (a *Autosaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}
