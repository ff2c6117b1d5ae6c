package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rollbook/internal/membership/mapper"
	"rollbook/internal/membership/service"
	"rollbook/internal/membership/store"
	"rollbook/internal/platform/middleware"
)

var testTenantID = uuid.New()

// stubValidator accepts any bearer token and returns fixed claims, so
// handler tests exercise routing and translation rather than crypto.
type stubValidator struct {
	role string
}

func (v *stubValidator) ValidateToken(string) (*middleware.Claims, error) {
	return &middleware.Claims{
		TenantID: testTenantID.String(),
		Role:     v.role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "actor-1",
		},
	}, nil
}

func newRouter(t *testing.T, role string) http.Handler {
	t.Helper()
	return newRouterWithStore(t, role, store.NewInMemoryStore())
}

func newRouterWithStore(t *testing.T, role string, st store.Store) http.Handler {
	t.Helper()
	svc, err := service.New(st)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(svc, logger, nil, &stubValidator{role: role})

	router := chi.NewRouter()
	h.Register(router)
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer test-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func candidatePayload() map[string]any {
	return map[string]any{
		"display_name": "Ada Lovelace",
		"contact_id":   uuid.NewString(),
		"category":     "standard",
		"eligibility":  "ordinary",
		"join_date":    "2024-01-15",
	}
}

func TestAuthRequired(t *testing.T) {
	router := newRouter(t, "clerk")
	req := httptest.NewRequest(http.MethodGet, "/memberships", nil)
	// No bearer token set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestCreateAndFetchByBothReferences(t *testing.T) {
	router := newRouter(t, "clerk")

	rec := doJSON(t, router, http.MethodPost, "/memberships", candidatePayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating membership, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Membership struct {
			ID           string `json:"id"`
			MemberNumber string `json:"member_number"`
			Status       string `json:"status"`
		} `json:"membership"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.Membership.ID == "" || created.Membership.MemberNumber == "" {
		t.Fatalf("expected id and member number in response")
	}
	if created.Membership.Status != "active" {
		t.Fatalf("expected active status, got %q", created.Membership.Status)
	}

	for _, ref := range []string{created.Membership.ID, created.Membership.MemberNumber} {
		getRec := doJSON(t, router, http.MethodGet, "/memberships/"+ref, nil)
		if getRec.Code != http.StatusOK {
			t.Fatalf("expected 200 fetching by %q, got %d", ref, getRec.Code)
		}
	}
}

func TestCreateValidationEnvelope(t *testing.T) {
	router := newRouter(t, "clerk")

	payload := candidatePayload()
	payload["organization_id"] = uuid.NewString()

	rec := doJSON(t, router, http.MethodPost, "/memberships", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for conflicting references, got %d", rec.Code)
	}

	var envelope struct {
		Message     string   `json:"message"`
		Errors      []string `json:"errors"`
		OperationID string   `json:"operation_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if len(envelope.Errors) == 0 {
		t.Fatalf("expected violation messages in envelope")
	}
	if envelope.OperationID == "" {
		t.Fatalf("expected operation id in envelope")
	}
}

func TestViewerCannotCreate(t *testing.T) {
	router := newRouter(t, "viewer")

	rec := doJSON(t, router, http.MethodPost, "/memberships", candidatePayload())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for viewer create, got %d", rec.Code)
	}
}

func TestGetUnknownMembership(t *testing.T) {
	router := newRouter(t, "viewer")

	rec := doJSON(t, router, http.MethodGet, "/memberships/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown membership, got %d", rec.Code)
	}
}

func TestDeleteSoftDeletes(t *testing.T) {
	router := newRouter(t, "admin")

	rec := doJSON(t, router, http.MethodPost, "/memberships", candidatePayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var created struct {
		Membership struct {
			ID string `json:"id"`
		} `json:"membership"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}

	delRec := doJSON(t, router, http.MethodDelete, "/memberships/"+created.Membership.ID, nil)
	if delRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 deleting, got %d", delRec.Code)
	}

	// The record survives as inactive and stays fetchable by id.
	getRec := doJSON(t, router, http.MethodGet, "/memberships/"+created.Membership.ID, nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching soft-deleted record, got %d", getRec.Code)
	}
	var fetched struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&fetched); err != nil {
		t.Fatalf("failed to decode get response: %v", err)
	}
	if fetched.Status != "inactive" {
		t.Fatalf("expected inactive status after delete, got %q", fetched.Status)
	}

	listRec := doJSON(t, router, http.MethodGet, "/memberships", nil)
	var list struct {
		Items []json.RawMessage `json:"items"`
		Total int               `json:"total"`
	}
	if err := json.NewDecoder(listRec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if list.Total != 0 {
		t.Fatalf("expected soft-deleted record excluded from default list, got total %d", list.Total)
	}

	inclRec := doJSON(t, router, http.MethodGet, "/memberships?include_inactive=true", nil)
	if err := json.NewDecoder(inclRec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("expected include_inactive to surface the record, got total %d", list.Total)
	}
}

func TestListFiltersAndPagination(t *testing.T) {
	router := newRouter(t, "clerk")

	for i := 0; i < 3; i++ {
		payload := candidatePayload()
		payload["member_number"] = fmt.Sprintf("M-%03d", i)
		payload["display_name"] = fmt.Sprintf("Member %d", i)
		rec := doJSON(t, router, http.MethodPost, "/memberships", payload)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 seeding, got %d", rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/memberships?skip=1&top=1", nil)
	var list struct {
		Items []struct {
			MemberNumber string `json:"member_number"`
		} `json:"items"`
		Total    int `json:"total"`
		PageSize int `json:"page_size"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if list.Total != 3 || len(list.Items) != 1 {
		t.Fatalf("expected total 3 with window of 1, got total %d len %d", list.Total, len(list.Items))
	}
	if list.Items[0].MemberNumber != "M-001" {
		t.Fatalf("expected stable window ordering, got %q", list.Items[0].MemberNumber)
	}

	unknownRec := doJSON(t, router, http.MethodGet, "/memberships?category=platinum", nil)
	if unknownRec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category filter, got %d", unknownRec.Code)
	}
}

func TestBulkCreateMixedOutcomes(t *testing.T) {
	router := newRouter(t, "clerk")

	bad := candidatePayload()
	bad["organization_id"] = uuid.NewString()
	payload := map[string]any{
		"candidates": []map[string]any{candidatePayload(), bad},
	}

	rec := doJSON(t, router, http.MethodPost, "/memberships/bulk", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for bulk create, got %d", rec.Code)
	}

	var resp struct {
		Results []struct {
			Index      int             `json:"index"`
			Membership json.RawMessage `json:"membership"`
			Errors     []string        `json:"errors"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode bulk response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Membership == nil || len(resp.Results[0].Errors) != 0 {
		t.Fatalf("expected first item to succeed")
	}
	if resp.Results[1].Membership != nil || len(resp.Results[1].Errors) == 0 {
		t.Fatalf("expected second item to fail with messages")
	}
}

// brokenStore fails every write with an error carrying infrastructure
// detail that must never surface in a response body.
type brokenStore struct {
	store.Store
}

func (b *brokenStore) Create(context.Context, mapper.Record) (mapper.Record, error) {
	return mapper.Record{}, errors.New("dial tcp db.internal:5432: connect: connection refused")
}

func TestBulkCreateHidesStorageDetail(t *testing.T) {
	router := newRouterWithStore(t, "clerk", &brokenStore{Store: store.NewInMemoryStore()})

	payload := map[string]any{
		"candidates": []map[string]any{candidatePayload()},
	}
	rec := doJSON(t, router, http.MethodPost, "/memberships/bulk", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for bulk create, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, leak := range []string{"dial tcp", "db.internal", "5432", "connection refused"} {
		if strings.Contains(body, leak) {
			t.Fatalf("bulk response leaks storage detail %q: %s", leak, body)
		}
	}

	var resp struct {
		Results []struct {
			Errors []string `json:"errors"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode bulk response: %v", err)
	}
	if len(resp.Results) != 1 || len(resp.Results[0].Errors) == 0 {
		t.Fatalf("expected the item to fail with a generic message")
	}
}

func TestHMACValidatorRoundTrip(t *testing.T) {
	const key = "test-signing-key"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		TenantID: testTenantID.String(),
		Role:     "clerk",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "actor-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(key))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	claims, err := middleware.NewHMACValidator(key).ValidateToken(signed)
	if err != nil {
		t.Fatalf("expected token to validate: %v", err)
	}
	if claims.Role != "clerk" || claims.TenantID != testTenantID.String() {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := middleware.NewHMACValidator("other-key").ValidateToken(signed); err == nil {
		t.Fatalf("expected validation failure with wrong key")
	}
}
