// Package service orchestrates membership lifecycle operations: role check
// first, then rule evaluation, then mapping, then the store. No entity that
// fails validation is ever persisted, and no storage write is ever retried.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"rollbook/internal/membership/mapper"
	"rollbook/internal/membership/metrics"
	"rollbook/internal/membership/models"
	mrules "rollbook/internal/membership/rules"
	"rollbook/internal/membership/store"
	id "rollbook/pkg/domain"
	dErrors "rollbook/pkg/domain-errors"
	audit "rollbook/pkg/platform/audit"
	"rollbook/pkg/platform/audit/publisher"
	"rollbook/pkg/platform/sentinel"
	pstrings "rollbook/pkg/platform/strings"
	"rollbook/pkg/requestcontext"
)

// BulkConcurrency bounds how many bulk-create items run at once.
const BulkConcurrency = 4

// MaxBulkItems caps the number of candidates in one bulk request.
const MaxBulkItems = 100

// Service exposes the membership CRUD operations.
type Service struct {
	store   store.Store
	audit   publisher.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithAuditPublisher sets the audit event sink.
func WithAuditPublisher(p publisher.Publisher) Option {
	return func(s *Service) { s.audit = p }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a membership service backed by st.
func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("membership store is required")
	}
	s := &Service{
		store:  st,
		logger: slog.Default(),
		tracer: otel.Tracer("rollbook/membership"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates a candidate against the create rule set and persists it.
// The returned entity is the stored record read back through the mapper.
// Warnings are advisory and never block.
func (s *Service) Create(ctx context.Context, cand *models.Candidate) (*models.Membership, []string, error) {
	ctx, span := s.tracer.Start(ctx, "membership.create")
	defer span.End()
	start := time.Now()

	if err := s.authorize(ctx, id.RoleClerk); err != nil {
		return nil, nil, err
	}
	tenantID := requestcontext.TenantID(ctx)
	now := requestcontext.Now(ctx)

	res := mrules.ForCreate().Evaluate(cand)
	if !res.OK() {
		s.countValidationFailure()
		return nil, nil, dErrors.NewValidation("membership failed validation", res.Errors)
	}

	memberNumber := s.memberNumber(cand, now)
	m := models.NewMembership(id.MembershipID(uuid.New()), tenantID, cand, memberNumber, now)

	created, err := s.store.Create(ctx, mapper.ToRecord(m))
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// The collaborator's uniqueness violation is a client-side
			// problem, so it is re-classified as a validation failure.
			return nil, nil, dErrors.NewValidation("membership failed validation",
				[]string{fmt.Sprintf("member number %q is already in use", memberNumber)})
		}
		return nil, nil, s.storageError(ctx, "create", err)
	}

	out := mapper.FromRecord(created)
	s.emit(ctx, audit.ActionMembershipCreated, out, nil)
	if s.metrics != nil {
		s.metrics.MembershipsCreated.Inc()
		s.metrics.ObserveCreate(start)
	}
	return out, res.Warnings, nil
}

// Get resolves an entity reference (internal id or member number) and
// returns the membership. Lookups by either scheme behave identically.
func (s *Service) Get(ctx context.Context, ref id.EntityRef) (*models.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.get")
	defer span.End()

	if err := s.authorize(ctx, id.RoleViewer); err != nil {
		return nil, err
	}

	rec, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return mapper.FromRecord(rec), nil
}

// Update overlays the supplied fields of a partial candidate onto the
// existing entity. The rule set evaluates the merged record, so cross-field
// rules work even when only one side of a pair is in the patch, while
// nothing is required that the caller did not touch.
func (s *Service) Update(ctx context.Context, ref id.EntityRef, cand *models.Candidate) (*models.Membership, []string, error) {
	ctx, span := s.tracer.Start(ctx, "membership.update")
	defer span.End()

	if err := s.authorize(ctx, id.RoleClerk); err != nil {
		return nil, nil, err
	}
	now := requestcontext.Now(ctx)

	rec, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	m := mapper.FromRecord(rec)

	// Rules run against the stored record overlaid with the patch, so a
	// category change is judged together with an already-present retirement
	// date and an eligibility change against the stored member reference.
	res := mrules.ForUpdate().Evaluate(m.AsCandidate().Overlay(cand))
	if !res.OK() {
		s.countValidationFailure()
		return nil, nil, dErrors.NewValidation("membership failed validation", res.Errors)
	}

	changed := m.ApplyCandidate(cand, now)
	if len(changed) == 0 {
		return m, res.Warnings, nil
	}

	updated, err := s.store.Update(ctx, mapper.ToRecord(m))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "membership not found")
		}
		return nil, nil, s.storageError(ctx, "update", err)
	}

	out := mapper.FromRecord(updated)
	s.emit(ctx, audit.ActionMembershipUpdated, out, changed)
	if s.metrics != nil {
		s.metrics.MembershipsUpdated.Inc()
	}
	return out, res.Warnings, nil
}

// Delete soft-deletes a membership: the record is marked inactive, never
// removed. Deleting an already-inactive record succeeds without effect.
func (s *Service) Delete(ctx context.Context, ref id.EntityRef) error {
	ctx, span := s.tracer.Start(ctx, "membership.delete")
	defer span.End()

	if err := s.authorize(ctx, id.RoleAdmin); err != nil {
		return err
	}
	now := requestcontext.Now(ctx)

	rec, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}

	m := mapper.FromRecord(rec)
	if !m.IsActive() {
		return nil // idempotent
	}
	m.Status = models.StatusInactive
	m.UpdatedAt = now

	if _, err := s.store.Update(ctx, mapper.ToRecord(m)); err != nil {
		return s.storageError(ctx, "delete", err)
	}

	s.emit(ctx, audit.ActionMembershipDeleted, m, []string{models.FieldStatus})
	if s.metrics != nil {
		s.metrics.MembershipsDeleted.Inc()
	}
	return nil
}

// ListCriteria selects memberships within the actor's tenant.
type ListCriteria struct {
	NameContains    string
	Categories      []string
	MemberNumbers   []string
	IncludeInactive bool
}

// ListResult is one page of match results. Total counts every match
// regardless of the page window.
type ListResult struct {
	Items    []*models.Membership
	Total    int
	Page     int
	PageSize int
}

// List returns matching memberships. The page size is clamped server-side
// to store.MaxPageSize no matter what the caller asked for.
func (s *Service) List(ctx context.Context, criteria ListCriteria, page store.Page) (*ListResult, error) {
	ctx, span := s.tracer.Start(ctx, "membership.list")
	defer span.End()
	start := time.Now()

	if err := s.authorize(ctx, id.RoleViewer); err != nil {
		return nil, err
	}
	tenantID := requestcontext.TenantID(ctx)

	filter := store.Filter{
		TenantID:        tenantID.String(),
		NameContains:    strings.TrimSpace(criteria.NameContains),
		MemberNumbers:   pstrings.DedupeAndTrim(criteria.MemberNumbers),
		IncludeInactive: criteria.IncludeInactive,
	}
	for _, c := range pstrings.DedupeAndTrim(criteria.Categories) {
		code, ok := mapper.CategoryCode(models.Category(c))
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown category %q", c)
		}
		filter.CategoryCodes = append(filter.CategoryCodes, code)
	}

	page = page.Normalize()
	records, total, err := s.store.List(ctx, filter, page)
	if err != nil {
		return nil, s.storageError(ctx, "list", err)
	}

	items := make([]*models.Membership, 0, len(records))
	for _, rec := range records {
		items = append(items, mapper.FromRecord(rec))
	}
	if s.metrics != nil {
		s.metrics.ObserveList(start)
	}
	return &ListResult{
		Items:    items,
		Total:    total,
		Page:     page.Skip/page.Top + 1,
		PageSize: page.Top,
	}, nil
}

// BulkItem is the outcome for one candidate of a bulk create.
type BulkItem struct {
	Index      int
	Membership *models.Membership
	Warnings   []string
	Err        error
}

// BulkCreate processes independent candidates with bounded parallelism.
// One failing item never rolls back or aborts the others; the caller gets a
// per-item outcome in input order.
func (s *Service) BulkCreate(ctx context.Context, candidates []*models.Candidate) ([]BulkItem, error) {
	ctx, span := s.tracer.Start(ctx, "membership.bulk_create")
	defer span.End()

	if err := s.authorize(ctx, id.RoleClerk); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "bulk request contains no candidates")
	}
	if len(candidates) > MaxBulkItems {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "bulk request exceeds %d candidates", MaxBulkItems)
	}

	results := make([]BulkItem, len(candidates))
	var g errgroup.Group
	g.SetLimit(BulkConcurrency)
	for i, cand := range candidates {
		g.Go(func() error {
			m, warnings, err := s.Create(ctx, cand)
			// Item failures live in the item slot, not the group error,
			// so one bad candidate never aborts its siblings.
			results[i] = BulkItem{Index: i, Membership: m, Warnings: warnings, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}

// -----------------------------------------------------------------------------
// internal helpers
// -----------------------------------------------------------------------------

func (s *Service) authorize(ctx context.Context, min id.Role) error {
	if requestcontext.TenantID(ctx).IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "tenant context missing")
	}
	if !requestcontext.Role(ctx).AtLeast(min) {
		// No field or schema detail: an unauthorized actor learns only
		// that the operation is denied.
		return dErrors.New(dErrors.CodeForbidden, "operation not permitted")
	}
	return nil
}

// resolve turns an EntityRef into the stored record. Reads are idempotent,
// so a storage failure is retried exactly once; a miss is a uniform
// not-found regardless of reference shape.
func (s *Service) resolve(ctx context.Context, ref id.EntityRef) (mapper.Record, error) {
	tenantID := requestcontext.TenantID(ctx).String()

	find := func() (mapper.Record, error) {
		if ref.Kind == id.RefByInternalID {
			return s.store.FindByID(ctx, tenantID, ref.InternalID.String())
		}
		return s.store.FindByBusinessID(ctx, tenantID, ref.BusinessID)
	}

	rec, err := find()
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		rec, err = find()
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return mapper.Record{}, dErrors.New(dErrors.CodeNotFound, "membership not found")
		}
		return mapper.Record{}, s.storageError(ctx, "resolve", err)
	}
	return rec, nil
}

func (s *Service) memberNumber(cand *models.Candidate, now time.Time) string {
	if cand.MemberNumber != nil && strings.TrimSpace(*cand.MemberNumber) != "" {
		return strings.TrimSpace(*cand.MemberNumber)
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("M-%d-%s", now.Year(), suffix)
}

// emit publishes an audit event. Emission is fire-and-forget: failures are
// logged with the request id and dropped, never surfaced to the caller.
func (s *Service) emit(ctx context.Context, action audit.Action, m *models.Membership, changed []string) {
	if s.audit == nil {
		return
	}
	event := audit.Event{
		Action:        action,
		TenantID:      m.TenantID.String(),
		EntityID:      m.ID.String(),
		MemberNumber:  m.MemberNumber,
		ActorID:       requestcontext.ActorID(ctx),
		RequestID:     requestcontext.RequestID(ctx),
		ChangedFields: changed,
		Timestamp:     requestcontext.Now(ctx),
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emission failed",
			"action", action,
			"entity_id", event.EntityID,
			"request_id", event.RequestID,
			"error", err,
		)
	}
}

// storageError logs the collaborator failure with full context and returns
// a generic coded error that leaks no collaborator detail to callers.
func (s *Service) storageError(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "storage collaborator failed",
		"operation", op,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeStorage, "storage operation failed")
}

func (s *Service) countValidationFailure() {
	if s.metrics != nil {
		s.metrics.ValidationFailures.Inc()
	}
}
