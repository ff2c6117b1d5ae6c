// Package audit defines the structured event emitted on every successful
// mutation. Events are transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"time"
)

// Action names a mutation kind.
type Action string

const (
	ActionMembershipCreated Action = "membership_created"
	ActionMembershipUpdated Action = "membership_updated"
	ActionMembershipDeleted Action = "membership_deleted"
)

// Event captures one successful mutation. Emission is fire-and-forget,
// at-most-once: a failed emit is logged and dropped, never rolled into the
// primary operation's outcome.
type Event struct {
	Action        Action    `json:"action"`
	TenantID      string    `json:"tenant_id"`
	EntityID      string    `json:"entity_id"`
	MemberNumber  string    `json:"member_number,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	ChangedFields []string  `json:"changed_fields,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Store is an append-only event sink with tenant-scoped reads.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByTenant(ctx context.Context, tenantID string) ([]Event, error)
}
