// Package notify delivers user-facing success and error messages.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Notification struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Terminal writes one styled line per notification.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#50fa7b"}).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "196", Dark: "160"}).Bold(true)
)

func (t *Terminal) Success(msg string) { t.write(successStyle.Render("✓"), msg) }
func (t *Terminal) Error(msg string)   { t.write(errorStyle.Render("✗"), msg) }

func (t *Terminal) write(mark, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(t.w, "%s %s\n", mark, msg)
}

// Recorder keeps notifications in order; the TUI drains it for its flash line.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Success(msg string) { r.add(KindSuccess, msg) }
func (r *Recorder) Error(msg string)   { r.add(KindError, msg) }

func (r *Recorder) add(k Kind, msg string) {
	r.mu.Lock()
	r.all = append(r.all, Notification{Kind: k, Message: msg})
	r.mu.Unlock()
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Drain returns and clears the recorded notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.all
	r.all = nil
	return out
}

// Count returns how many notifications of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.all {
		if x.Kind == k {
			n++
		}
	}
	return n
}

// Multi fans out to every notifier.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}
