// Package notify is the fire-and-forget user notification surface. It is
// used for failure reporting only; nothing waits on a notification.
package notify

import (
	"context"

	"github.com/dmitrijs2005/picdrop/internal/logging"
)

// Notifier shows a user-visible message with a title and body.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// LogNotifier routes notifications to the structured log. The terminal is
// the UI here, so a warn-level line is the visible surface.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, title, message string) {
	if n.log == nil {
		return
	}
	n.log.Warn(ctx, "notification", "title", title, "message", message)
}
