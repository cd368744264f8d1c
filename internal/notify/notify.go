// Package notify shows desktop notifications for finished cycles.
package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier posts desktop notifications when enabled.
type Notifier struct {
	enabled bool
	title   string
	send    func(title, message string) error
}

// New returns a Notifier; a disabled one does nothing.
func New(enabled bool, title string) *Notifier {
	beeep.AppName = title
	return &Notifier{
		enabled: enabled,
		title:   title,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Notify shows message. Failures are logged only.
func (n *Notifier) Notify(message string) {
	if n == nil || !n.enabled {
		return
	}
	if err := n.send(n.title, message); err != nil {
		slog.Debug("notification failed", "component", "notify", "err", err)
	}
}
