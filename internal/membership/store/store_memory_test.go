package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbook/internal/membership/mapper"
	"rollbook/pkg/platform/sentinel"
)

func record(tenantID, memberNumber, name string) mapper.Record {
	return mapper.Record{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		MemberNumber: memberNumber,
		DisplayName:  name,
		CategoryCode: 100,
		StateCode:    mapper.StateActive,
	}
}

func TestInMemoryStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := uuid.NewString()

	rec := record(tenant, "M-1", "Ada")
	created, err := s.Create(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, rec, created)

	byID, err := s.FindByID(ctx, tenant, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, byID)

	byNumber, err := s.FindByBusinessID(ctx, tenant, "M-1")
	require.NoError(t, err)
	assert.Equal(t, rec, byNumber)
}

func TestInMemoryStore_DuplicateMemberNumberConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := uuid.NewString()

	_, err := s.Create(ctx, record(tenant, "M-1", "Ada"))
	require.NoError(t, err)

	_, err = s.Create(ctx, record(tenant, "M-1", "Grace"))
	assert.ErrorIs(t, err, sentinel.ErrConflict)

	// Same member number under a different tenant is fine.
	_, err = s.Create(ctx, record(uuid.NewString(), "M-1", "Grace"))
	assert.NoError(t, err)
}

func TestInMemoryStore_TenantScoping(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenantA := uuid.NewString()
	tenantB := uuid.NewString()

	rec := record(tenantA, "M-1", "Ada")
	_, err := s.Create(ctx, rec)
	require.NoError(t, err)

	// Another tenant's record is indistinguishable from an absent one.
	_, err = s.FindByID(ctx, tenantB, rec.ID)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	rec.TenantID = tenantB
	_, err = s.Update(ctx, rec)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := uuid.NewString()

	for i := 0; i < 5; i++ {
		rec := record(tenant, fmt.Sprintf("M-%03d", i), fmt.Sprintf("Member %d", i))
		if i == 4 {
			rec.StateCode = mapper.StateInactive
		}
		_, err := s.Create(ctx, rec)
		require.NoError(t, err)
	}

	t.Run("inactive excluded by default", func(t *testing.T) {
		items, total, err := s.List(ctx, Filter{TenantID: tenant}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Len(t, items, 4)
	})

	t.Run("include inactive", func(t *testing.T) {
		_, total, err := s.List(ctx, Filter{TenantID: tenant, IncludeInactive: true}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
	})

	t.Run("substring filter is case-insensitive", func(t *testing.T) {
		items, total, err := s.List(ctx, Filter{TenantID: tenant, NameContains: "member 2"}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, items, 1)
		assert.Equal(t, "Member 2", items[0].DisplayName)
	})

	t.Run("set membership filter", func(t *testing.T) {
		_, total, err := s.List(ctx, Filter{TenantID: tenant, MemberNumbers: []string{"M-000", "M-002"}}, Page{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
	})

	t.Run("pagination window with stable order", func(t *testing.T) {
		items, total, err := s.List(ctx, Filter{TenantID: tenant}, Page{Skip: 1, Top: 2})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, items, 2)
		assert.Equal(t, "M-001", items[0].MemberNumber)
		assert.Equal(t, "M-002", items[1].MemberNumber)
	})

	t.Run("page size ceiling enforced", func(t *testing.T) {
		items, total, err := s.List(ctx, Filter{TenantID: tenant}, Page{Top: 10000})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.LessOrEqual(t, len(items), MaxPageSize)
	})

	t.Run("skip past the end returns empty page with full total", func(t *testing.T) {
		items, total, err := s.List(ctx, Filter{TenantID: tenant}, Page{Skip: 50})
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Empty(t, items)
	})
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Skip: 0, Top: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Skip: 0, Top: DefaultPageSize}, Page{Skip: -3, Top: 0}.Normalize())
	assert.Equal(t, Page{Skip: 10, Top: MaxPageSize}, Page{Skip: 10, Top: 99999}.Normalize())
	assert.Equal(t, Page{Skip: 2, Top: 7}, Page{Skip: 2, Top: 7}.Normalize())
}
