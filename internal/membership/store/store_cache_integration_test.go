//go:build integration

package store_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rollbook/internal/membership/mapper"
	"rollbook/internal/membership/store"
	"rollbook/pkg/testutil/containers"
)

type CachedStoreSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	inner  *store.InMemoryStore
	cached *store.CachedStore
}

func TestCachedStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedStoreSuite))
}

func (s *CachedStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *CachedStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.FlushAll(ctx).Err())
	s.inner = store.NewInMemoryStore()
	s.cached = store.NewCachedStore(s.inner, s.redis.Client, slog.Default())
}

func (s *CachedStoreSuite) testRecord(tenant string) mapper.Record {
	return mapper.Record{
		ID:           uuid.NewString(),
		TenantID:     tenant,
		MemberNumber: "M-2024-00001",
		DisplayName:  "Ada Lovelace",
		CategoryCode: 100,
		StateCode:    mapper.StateActive,
	}
}

func (s *CachedStoreSuite) TestReadThrough() {
	ctx := context.Background()
	tenant := uuid.NewString()
	rec := s.testRecord(tenant)

	_, err := s.cached.Create(ctx, rec)
	s.Require().NoError(err)

	// First read populates the cache, second is served from it.
	first, err := s.cached.FindByID(ctx, tenant, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec, first)

	keys, err := s.redis.Client.Keys(ctx, "membership:*").Result()
	s.Require().NoError(err)
	s.Len(keys, 1)

	second, err := s.cached.FindByID(ctx, tenant, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec, second)
}

func (s *CachedStoreSuite) TestUpdateInvalidatesBeforeReturning() {
	ctx := context.Background()
	tenant := uuid.NewString()
	rec := s.testRecord(tenant)

	_, err := s.cached.Create(ctx, rec)
	s.Require().NoError(err)
	_, err = s.cached.FindByID(ctx, tenant, rec.ID) // warm the cache
	s.Require().NoError(err)

	rec.DisplayName = "Countess of Lovelace"
	_, err = s.cached.Update(ctx, rec)
	s.Require().NoError(err)

	// The stale entry must be gone the moment Update returns.
	got, err := s.cached.FindByID(ctx, tenant, rec.ID)
	s.Require().NoError(err)
	s.Equal("Countess of Lovelace", got.DisplayName)
}

func (s *CachedStoreSuite) TestCorruptEntryFallsThrough() {
	ctx := context.Background()
	tenant := uuid.NewString()
	rec := s.testRecord(tenant)

	_, err := s.cached.Create(ctx, rec)
	s.Require().NoError(err)

	key := "membership:" + tenant + ":" + rec.ID
	s.Require().NoError(s.redis.Client.Set(ctx, key, "not-json", 0).Err())

	got, err := s.cached.FindByID(ctx, tenant, rec.ID)
	s.Require().NoError(err)
	s.Equal(rec, got)
}
