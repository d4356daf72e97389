package cmd

import (
	"log/slog"

	"github.com/frahmantamala/servicebook/internal/core/events"
)

// registerEventHandlers subscribes the API process's listeners. The dashboard registers its
// own cache invalidation in internal/web.
func registerEventHandlers(bus *events.EventBus, lg *slog.Logger) {
	bus.Subscribe(events.EventTypeRecordChanged, events.AuditLog(lg.With("component", "audit")))
}
