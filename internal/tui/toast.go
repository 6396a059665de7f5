package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/taskdeck/internal/store"
)

// Toaster is a store.Reporter that shows errors in a running program. Until
// a program is attached, messages go to the fallback reporter.
type Toaster struct {
	fallback store.Reporter

	mu sync.Mutex
	p  *tea.Program
}

// NewToaster returns a Toaster that reports to fallback while detached.
func NewToaster(fallback store.Reporter) *Toaster {
	return &Toaster{fallback: fallback}
}

// Attach routes messages to p. Passing nil detaches.
func (t *Toaster) Attach(p *tea.Program) {
	t.mu.Lock()
	t.p = p
	t.mu.Unlock()
}

// ShowError implements store.Reporter.
func (t *Toaster) ShowError(message string) {
	t.mu.Lock()
	p := t.p
	t.mu.Unlock()
	if p == nil {
		if t.fallback != nil {
			t.fallback.ShowError(message)
		}
		return
	}
	p.Send(ToastMsg{Text: message})
}
