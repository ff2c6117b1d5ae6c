// Package store persists membership records in their external
// representation. Implementations return sentinel errors so the service
// layer can translate infrastructure facts into domain errors.
package store

import (
	"context"

	"rollbook/internal/membership/mapper"
)

// MaxPageSize is the hard server-side ceiling on list page sizes. Requests
// asking for more are clamped, never honored.
const MaxPageSize = 100

// DefaultPageSize applies when the caller does not specify one.
const DefaultPageSize = 20

// Filter selects records within one tenant. Zero values mean "no
// constraint". Soft-deleted records are excluded unless IncludeInactive.
type Filter struct {
	TenantID        string
	NameContains    string
	CategoryCodes   []int
	MemberNumbers   []string
	IncludeInactive bool
}

// Page is the (skip, top) pagination window. Top is clamped to MaxPageSize
// by Normalize.
type Page struct {
	Skip int
	Top  int
}

// Normalize applies the default and the ceiling.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Top <= 0 {
		p.Top = DefaultPageSize
	}
	if p.Top > MaxPageSize {
		p.Top = MaxPageSize
	}
	return p
}

// Store is the narrow repository interface over the storage collaborator.
// All lookups are tenant-scoped: a record belonging to another tenant is
// indistinguishable from an absent one.
type Store interface {
	Create(ctx context.Context, rec mapper.Record) (mapper.Record, error)
	FindByID(ctx context.Context, tenantID, membershipID string) (mapper.Record, error)
	FindByBusinessID(ctx context.Context, tenantID, memberNumber string) (mapper.Record, error)
	Update(ctx context.Context, rec mapper.Record) (mapper.Record, error)
	List(ctx context.Context, filter Filter, page Page) (items []mapper.Record, total int, err error)
}
