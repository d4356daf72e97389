package events

import (
	"context"
	"fmt"
	"log/slog"
)

// AuditLog writes one line per committed write.
func AuditLog(lg *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		e, ok := event.(*RecordChangedEvent)
		if !ok {
			return fmt.Errorf("audit: unexpected event %T", event)
		}
		lg.InfoContext(ctx, "record changed",
			"event_id", e.ID,
			"collection", e.Collection,
			"record_id", e.RecordID,
			"operation", e.Operation,
			"actor_id", e.ActorID,
			"at", e.Timestamp)
		return nil
	}
}
