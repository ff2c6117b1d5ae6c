// Package publisher emits audit events to a sink. The store publisher keeps
// events in-process; the Kafka publisher ships them to a broker. Both share
// fire-and-forget semantics: emission never fails the caller's operation.
package publisher

import (
	"context"
	"errors"
	"time"

	audit "rollbook/pkg/platform/audit"
)

// Publisher is the emission seam services depend on.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StorePublisher appends events to an audit store. Used for tests and
// deployments without a broker.
type StorePublisher struct {
	store audit.Store
}

func NewStorePublisher(store audit.Store) *StorePublisher {
	return &StorePublisher{store: store}
}

func (p *StorePublisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// ChannelPublisher hands events to a buffered channel drained by a worker,
// keeping persistence off the request path. A full buffer drops the event
// rather than blocking the caller.
type ChannelPublisher struct {
	outbox chan<- audit.Event
}

func NewChannelPublisher(outbox chan<- audit.Event) *ChannelPublisher {
	return &ChannelPublisher{outbox: outbox}
}

func (p *ChannelPublisher) Emit(_ context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.outbox <- event:
		return nil
	default:
		return errors.New("audit buffer full, event dropped")
	}
}
