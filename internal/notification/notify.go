package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
)

type Notifier interface {
	Notify(message string, v ...any)
}

// New returns a desktop notifier when enabled and a no-op otherwise.
func New(enabled bool, logger zerolog.Logger) Notifier {
	if !enabled {
		return NullNotifier{}
	}
	return BeepDecorator{Title: "zzz", logger: logger}
}

type BeepDecorator struct {
	Title  string
	logger zerolog.Logger
}

func (b BeepDecorator) Notify(message string, v ...any) {
	if err := beeep.Notify(b.Title, fmt.Sprintf(message, v...), ""); err != nil {
		b.logger.Debug().Err(err).Msg("desktop notification failed")
	}
}

type NullNotifier struct{}

func (n NullNotifier) Notify(string, ...any) {}
