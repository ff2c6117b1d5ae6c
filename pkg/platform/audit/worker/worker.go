// Package worker drains audit events from a channel into a store, keeping
// event persistence off the request path.
package worker

import (
	"context"
	"log/slog"

	audit "rollbook/pkg/platform/audit"
)

// Worker consumes audit events from inbox and appends them to the store.
// A failed append is logged and the event dropped; the worker never stops
// on a single bad event.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"entity_id", event.EntityID,
					"error", err,
				)
			}
		}
	}
}
