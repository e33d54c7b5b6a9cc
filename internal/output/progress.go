package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// Meter displays an animated status line for long-running operations.
// Example: |  Scanning /data (3,812 dirs, 48,213 files, 12 GiB)
type Meter struct {
	message string
	poll    func() string
	running bool
	chars   []string
	mu      sync.Mutex
	writer  io.Writer
	ticker  *time.Ticker
	done    chan struct{}
	lastLen int
}

// NewMeter creates a new meter with a message. If poll is non-nil its result
// is appended to the message in parentheses on every redraw, which is how
// the scan meter surfaces live engine counters.
//
// If stdout is not a TTY, the animation goroutine is skipped and the
// message is printed once so that log output is not cluttered.
func NewMeter(message string, poll func() string) *Meter {
	return &Meter{
		message: message,
		poll:    poll,
		running: false,
		chars:   []string{"|", "/", "-", "\\"},
		writer:  os.Stdout,
		done:    make(chan struct{}),
	}
}

// SetWriter sets the output writer (useful for testing).
func (m *Meter) SetWriter(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writer = w
}

// Start begins the meter animation.
// On a non-TTY writer the animation goroutine is not started; the message
// is printed once instead so that non-interactive output stays clean.
func (m *Meter) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	m.running = true

	if !writerIsTTY(m.writer) {
		// Non-TTY: print message once and return; no goroutine needed.
		fmt.Fprintf(m.writer, "%s...\n", m.message)
		return
	}

	m.ticker = time.NewTicker(100 * time.Millisecond)

	go func() {
		idx := 0
		for {
			select {
			case <-m.ticker.C:
				m.mu.Lock()
				if !m.running {
					m.mu.Unlock()
					return
				}
				line := m.line()
				pad := ""
				if shortfall := m.lastLen - len(line); shortfall > 0 {
					pad = strings.Repeat(" ", shortfall)
				}
				fmt.Fprintf(m.writer, "\r%s  %s%s", m.chars[idx], line, pad)
				m.lastLen = len(line)
				idx = (idx + 1) % len(m.chars)
				m.mu.Unlock()

			case <-m.done:
				return
			}
		}
	}()
}

// line returns the current status line. Must be called with lock held.
func (m *Meter) line() string {
	if m.poll == nil {
		return m.message
	}
	return fmt.Sprintf("%s (%s)", m.message, m.poll())
}

// Stop stops the meter animation and clears the line.
func (m *Meter) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	m.running = false
	if m.ticker != nil {
		m.ticker.Stop()
	}
	close(m.done)

	// Clear the line only on a TTY; on non-TTY the \r does not overwrite.
	if writerIsTTY(m.writer) {
		width := m.lastLen
		if w := len(m.message); w > width {
			width = w
		}
		fmt.Fprintf(m.writer, "\r%s\r", strings.Repeat(" ", width+4))
	}
}

// StopWithMessage stops the meter and displays a final message.
func (m *Meter) StopWithMessage(message string) {
	m.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintln(m.writer, message)
}
