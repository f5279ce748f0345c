// Package notify decouples user-facing notices from their rendering. The
// dashboard surfaces these as toast banners; the service records them so the
// frontend can poll and display them, and logs them for operators.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier receives user-visible error notices. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Error(message string)
}

// Func adapts a plain function to the Notifier interface.
type Func func(message string)

func (f Func) Error(message string) { f(message) }

// Nop discards all notices.
var Nop Notifier = Func(func(string) {})

// LogNotifier writes notices to the service log at warn level.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Error(message string) {
	n.logger.Warn("user notice", "message", message)
}

// Recorder keeps a bounded list of recent notices so the dashboard can fetch
// and render them as toasts. It is also handy in tests.
type Recorder struct {
	mu       sync.Mutex
	messages []string
	limit    int
}

// NewRecorder creates a Recorder keeping at most limit notices (0 means
// unbounded).
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	if r.limit > 0 && len(r.messages) > r.limit {
		r.messages = r.messages[len(r.messages)-r.limit:]
	}
}

// Messages returns a copy of the recorded notices, oldest first.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}

// Drain returns the recorded notices and clears the buffer.
func (r *Recorder) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.messages
	r.messages = nil
	return out
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Error(message string) {
	for _, n := range m {
		n.Error(message)
	}
}
