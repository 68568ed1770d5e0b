// Package clipboard writes text to the system clipboard. Writes are best
// effort: callers report a failure and carry on.
package clipboard

import (
	"errors"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard unavailable on this system")

// Writer is the clipboard capability.
type Writer interface {
	Write(text string) error
}

// System writes through the platform clipboard (pbcopy, xclip, xsel,
// wl-copy or the Windows API).
type System struct{}

// Write copies text to the system clipboard.
func (System) Write(text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// Memory is an in-process clipboard for tests and headless use.
type Memory struct {
	mu   sync.Mutex
	text string
	Err  error
}

// Write stores text, or returns Err when set.
func (m *Memory) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.text = text
	return nil
}

// Text returns the last written text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}
