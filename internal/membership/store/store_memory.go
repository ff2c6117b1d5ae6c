package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"rollbook/internal/membership/mapper"
	"rollbook/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded map store for tests and local
// development. It enforces the same uniqueness facts the SQL store does so
// services see identical sentinel errors in both environments.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]mapper.Record // keyed by record id
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]mapper.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, rec mapper.Record) (mapper.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return mapper.Record{}, sentinel.ErrConflict
	}
	for _, existing := range s.records {
		if existing.TenantID == rec.TenantID && existing.MemberNumber == rec.MemberNumber {
			return mapper.Record{}, sentinel.ErrConflict
		}
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, tenantID, membershipID string) (mapper.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[membershipID]
	if !ok || rec.TenantID != tenantID {
		return mapper.Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) FindByBusinessID(_ context.Context, tenantID, memberNumber string) (mapper.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.TenantID == tenantID && rec.MemberNumber == memberNumber {
			return rec, nil
		}
	}
	return mapper.Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, rec mapper.Record) (mapper.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[rec.ID]
	if !ok || existing.TenantID != rec.TenantID {
		return mapper.Record{}, sentinel.ErrNotFound
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter, page Page) ([]mapper.Record, int, error) {
	page = page.Normalize()

	s.mu.RLock()
	var matched []mapper.Record
	for _, rec := range s.records {
		if matches(rec, filter) {
			matched = append(matched, rec)
		}
	}
	s.mu.RUnlock()

	// Stable order so pagination windows don't overlap between calls.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].MemberNumber < matched[j].MemberNumber
	})

	total := len(matched)
	if page.Skip >= total {
		return nil, total, nil
	}
	end := page.Skip + page.Top
	if end > total {
		end = total
	}
	return matched[page.Skip:end], total, nil
}

func matches(rec mapper.Record, f Filter) bool {
	if rec.TenantID != f.TenantID {
		return false
	}
	if !f.IncludeInactive && rec.StateCode != mapper.StateActive {
		return false
	}
	if f.NameContains != "" && !strings.Contains(strings.ToLower(rec.DisplayName), strings.ToLower(f.NameContains)) {
		return false
	}
	if len(f.CategoryCodes) > 0 && !containsInt(f.CategoryCodes, rec.CategoryCode) {
		return false
	}
	if len(f.MemberNumbers) > 0 && !containsStr(f.MemberNumbers, rec.MemberNumber) {
		return false
	}
	return true
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
