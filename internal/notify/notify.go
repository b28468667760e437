package notify

import (
	"log/slog"

	"github.com/gen2brain/beeep"
)

// Notifier delivers a best-effort user-facing alert. Implementations never
// return an error; a missed notification must never fail a backup run.
type Notifier interface {
	Notify(title, message string)
}

// Desktop sends alerts through the platform notification service.
type Desktop struct {
	logger *slog.Logger
}

// NewDesktop creates a desktop notifier that logs delivery failures.
func NewDesktop(logger *slog.Logger) *Desktop {
	return &Desktop{logger: logger}
}

// Notify shows a desktop notification. The underlying service may deliver it
// asynchronously; failures are logged and swallowed.
func (d *Desktop) Notify(title, message string) {
	if err := beeep.Notify(title, message, ""); err != nil {
		d.logger.Error("failed to send notification", "title", title, "error", err)
	}
}

// Noop discards all notifications. Used for dry runs.
type Noop struct{}

func (Noop) Notify(string, string) {}
