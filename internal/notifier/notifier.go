package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/ibeckermayer/postdeck/internal/locales"
)

// Level is the severity of a notice
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a short message for the operator
type Notice struct {
	Level Level
	Text  string
}

// Sender defines the interface for delivering notices
type Sender interface {
	Send(n Notice) error
}

// Notifier translates message IDs and hands the notices to a sender
type Notifier struct {
	sender Sender
	tr     *locales.Translator
}

// New creates a new notifier with the given sender
func New(sender Sender, tr *locales.Translator) *Notifier {
	return &Notifier{sender: sender, tr: tr}
}

// Notify sends msgID at level. Delivery errors are returned to the caller.
func (n *Notifier) Notify(level Level, msgID string, data locales.Data) error {
	return n.sender.Send(Notice{Level: level, Text: n.tr.T(msgID, data)})
}

// NotifyPlural sends the plural form of msgID for count.
func (n *Notifier) NotifyPlural(level Level, msgID string, count int, data locales.Data) error {
	return n.sender.Send(Notice{Level: level, Text: n.tr.Plural(msgID, count, data)})
}

// Console prints notices to a terminal
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	styles map[Level]lipgloss.Style
}

// NewConsole creates a console sender writing to w.
func NewConsole(w io.Writer) *Console {
	base := lipgloss.NewStyle().Bold(true)
	return &Console{
		w: w,
		styles: map[Level]lipgloss.Style{
			LevelInfo:    base.Foreground(lipgloss.Color("#2196F3")),
			LevelSuccess: base.Foreground(lipgloss.Color("#8BC34A")),
			LevelError:   base.Foreground(lipgloss.Color("#e53935")),
		},
	}
}

var icons = map[Level]string{
	LevelInfo:    "i",
	LevelSuccess: "✓",
	LevelError:   "✗",
}

// Send writes one line per notice
func (c *Console) Send(n Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	style, ok := c.styles[n.Level]
	if !ok {
		style = c.styles[LevelInfo]
	}
	_, err := fmt.Fprintf(c.w, "%s %s\n", style.Render(icons[n.Level]), n.Text)
	return err
}

// Recorder keeps every notice in memory
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Send(n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Last returns the most recent notice.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}
