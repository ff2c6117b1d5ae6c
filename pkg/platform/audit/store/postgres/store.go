// Package postgres persists audit events in an append-only table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "rollbook/pkg/platform/audit"
	txcontext "rollbook/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL. Appends join an ambient
// transaction when one is carried in the context, so a mutation and its
// audit row can commit together.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes one event. ChangedFields serializes as a JSON array.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	changed, err := json.Marshal(event.ChangedFields)
	if err != nil {
		return fmt.Errorf("marshal changed fields: %w", err)
	}

	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO audit_events
			(id, tenant_id, action, entity_id, member_number, actor_id, request_id, changed_fields, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(),
		event.TenantID,
		string(event.Action),
		event.EntityID,
		event.MemberNumber,
		event.ActorID,
		event.RequestID,
		changed,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByTenant returns a tenant's events oldest first.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT action, entity_id, member_number, actor_id, request_id, changed_fields, created_at
		FROM audit_events
		WHERE tenant_id = $1
		ORDER BY created_at ASC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		event := audit.Event{TenantID: tenantID}
		var action string
		var changed []byte
		if err := rows.Scan(&action, &event.EntityID, &event.MemberNumber,
			&event.ActorID, &event.RequestID, &changed, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = audit.Action(action)
		if len(changed) > 0 {
			if err := json.Unmarshal(changed, &event.ChangedFields); err != nil {
				return nil, fmt.Errorf("unmarshal changed fields: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
