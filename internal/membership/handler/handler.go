// Package handler is the thin HTTP layer over the membership service. It
// decodes requests, delegates, and translates coded errors into the shared
// envelope; no business rule lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rollbook/internal/membership/models"
	"rollbook/internal/membership/service"
	"rollbook/internal/membership/store"
	"rollbook/internal/platform/metrics"
	"rollbook/internal/platform/middleware"
	"rollbook/internal/transport/http/shared"
	id "rollbook/pkg/domain"
	dErrors "rollbook/pkg/domain-errors"
	"rollbook/pkg/requestcontext"
)

const timestampLayout = time.RFC3339

// Service is the membership operations surface the handler depends on.
type Service interface {
	Create(ctx context.Context, cand *models.Candidate) (*models.Membership, []string, error)
	Get(ctx context.Context, ref id.EntityRef) (*models.Membership, error)
	Update(ctx context.Context, ref id.EntityRef, cand *models.Candidate) (*models.Membership, []string, error)
	Delete(ctx context.Context, ref id.EntityRef) error
	List(ctx context.Context, criteria service.ListCriteria, page store.Page) (*service.ListResult, error)
	BulkCreate(ctx context.Context, candidates []*models.Candidate) ([]service.BulkItem, error)
}

// Handler handles membership endpoints.
type Handler struct {
	svc       Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

func New(svc Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) *Handler {
	return &Handler{svc: svc, logger: logger, metrics: m, validator: validator}
}

// Register mounts the membership routes. Every route sits behind the full
// middleware chain including authentication.
func (h *Handler) Register(r chi.Router) {
	mr := chi.NewRouter()
	mr.Use(middleware.Recovery(h.logger))
	mr.Use(middleware.RequestID)
	mr.Use(middleware.RequestTime)
	mr.Use(middleware.Logger(h.logger))
	mr.Use(middleware.Timeout(30 * time.Second))
	mr.Use(middleware.ContentTypeJSON)
	mr.Use(middleware.Latency(h.metrics))
	mr.Use(middleware.RequireAuth(h.validator, h.logger))

	mr.Post("/memberships", h.handleCreate)
	mr.Post("/memberships/bulk", h.handleBulkCreate)
	mr.Get("/memberships", h.handleList)
	mr.Get("/memberships/{ref}", h.handleGet)
	mr.Patch("/memberships/{ref}", h.handleUpdate)
	mr.Delete("/memberships/{ref}", h.handleDelete)

	r.Mount("/", mr)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cand models.Candidate
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	m, warnings, err := h.svc.Create(ctx, &cand)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, mutationResponse{Membership: toView(m), Warnings: warnings})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref, err := id.ParseEntityRef(chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	m, err := h.svc.Get(ctx, ref)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(m))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref, err := id.ParseEntityRef(chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	var cand models.Candidate
	if err := json.NewDecoder(r.Body).Decode(&cand); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	m, warnings, err := h.svc.Update(ctx, ref, &cand)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, mutationResponse{Membership: toView(m), Warnings: warnings})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ref, err := id.ParseEntityRef(chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	if err := h.svc.Delete(ctx, ref); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	criteria, page := listQuery(r)
	res, err := h.svc.List(ctx, criteria, page)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	items := make([]membershipView, 0, len(res.Items))
	for _, m := range res.Items {
		items = append(items, toView(m))
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{
		Items:    items,
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
	})
}

func (h *Handler) handleBulkCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	results, err := h.svc.BulkCreate(ctx, req.Candidates)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	views := make([]bulkItemView, 0, len(results))
	for _, item := range results {
		view := bulkItemView{Index: item.Index, Warnings: item.Warnings}
		if item.Err != nil {
			view.Errors = itemErrors(item.Err)
		} else {
			mv := toView(item.Membership)
			view.Membership = &mv
		}
		views = append(views, view)
	}
	shared.WriteJSON(w, http.StatusOK, bulkResponse{Results: views})
}

// itemErrors flattens a per-item failure into messages for the bulk view.
// Only the coded message crosses the wire; the cause chain stays in the logs
// so collaborator detail never reaches a client.
func itemErrors(err error) []string {
	if violations := dErrors.ViolationsOf(err); len(violations) > 0 {
		return violations
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		return []string{dErr.Message}
	}
	return []string{"internal error"}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	requestID := requestcontext.RequestID(ctx)
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			"request_id", requestID,
			"error", err,
		)
	}
	shared.WriteError(w, err, requestID)
}
