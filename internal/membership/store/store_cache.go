package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"rollbook/internal/membership/mapper"
)

// CacheTTL bounds how long a membership record may be served from Redis.
const CacheTTL = 5 * time.Minute

// CachedStore is a read-through cache decorator. Reads by id are served from
// Redis when possible; every write invalidates the entity key and the
// tenant-level list key synchronously before returning, so a stale read
// cannot win a race against a completed write.
//
// Cache failures degrade to the underlying store: a broken Redis never fails
// a request, it only costs the round trip.
type CachedStore struct {
	inner  Store
	client *redis.Client
	logger *slog.Logger
}

func NewCachedStore(inner Store, client *redis.Client, logger *slog.Logger) *CachedStore {
	return &CachedStore{inner: inner, client: client, logger: logger}
}

func entityKey(tenantID, membershipID string) string {
	return fmt.Sprintf("membership:%s:%s", tenantID, membershipID)
}

func listKey(tenantID string) string {
	return fmt.Sprintf("memberships:%s", tenantID)
}

func (s *CachedStore) Create(ctx context.Context, rec mapper.Record) (mapper.Record, error) {
	created, err := s.inner.Create(ctx, rec)
	if err != nil {
		return mapper.Record{}, err
	}
	s.invalidate(ctx, created)
	return created, nil
}

func (s *CachedStore) FindByID(ctx context.Context, tenantID, membershipID string) (mapper.Record, error) {
	key := entityKey(tenantID, membershipID)
	if data, err := s.client.Get(ctx, key).Bytes(); err == nil {
		var rec mapper.Record
		if err := json.Unmarshal(data, &rec); err == nil {
			return rec, nil
		}
		// Corrupt cache entry: drop it and fall through to the store.
		s.client.Del(ctx, key)
	}

	rec, err := s.inner.FindByID(ctx, tenantID, membershipID)
	if err != nil {
		return mapper.Record{}, err
	}
	if data, err := json.Marshal(rec); err == nil {
		if err := s.client.Set(ctx, key, data, CacheTTL).Err(); err != nil {
			s.logger.WarnContext(ctx, "membership cache write failed", "key", key, "error", err)
		}
	}
	return rec, nil
}

// FindByBusinessID is intentionally uncached: member-number lookups resolve
// to the internal id once at the service boundary and subsequent reads hit
// the id key.
func (s *CachedStore) FindByBusinessID(ctx context.Context, tenantID, memberNumber string) (mapper.Record, error) {
	return s.inner.FindByBusinessID(ctx, tenantID, memberNumber)
}

func (s *CachedStore) Update(ctx context.Context, rec mapper.Record) (mapper.Record, error) {
	updated, err := s.inner.Update(ctx, rec)
	if err != nil {
		return mapper.Record{}, err
	}
	s.invalidate(ctx, updated)
	return updated, nil
}

func (s *CachedStore) List(ctx context.Context, filter Filter, page Page) ([]mapper.Record, int, error) {
	return s.inner.List(ctx, filter, page)
}

func (s *CachedStore) invalidate(ctx context.Context, rec mapper.Record) {
	keys := []string{entityKey(rec.TenantID, rec.ID), listKey(rec.TenantID)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		// The write already committed; log and move on. The entry expires
		// with CacheTTL at worst.
		s.logger.WarnContext(ctx, "membership cache invalidation failed", "keys", keys, "error", err)
	}
}
