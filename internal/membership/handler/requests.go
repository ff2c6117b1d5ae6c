package handler

import (
	"net/http"
	"strconv"

	"rollbook/internal/membership/models"
	"rollbook/internal/membership/service"
	"rollbook/internal/membership/store"
)

// membershipView is the wire shape of a membership. Dates render in the
// day-granularity layout, timestamps in RFC 3339.
type membershipView struct {
	ID             string  `json:"id"`
	MemberNumber   string  `json:"member_number"`
	DisplayName    string  `json:"display_name"`
	ContactID      string  `json:"contact_id,omitempty"`
	OrganizationID string  `json:"organization_id,omitempty"`
	Category       string  `json:"category"`
	Eligibility    string  `json:"eligibility"`
	JoinDate       string  `json:"join_date"`
	RetirementDate *string `json:"retirement_date,omitempty"`
	LeaveFrom      *string `json:"leave_from,omitempty"`
	LeaveTo        *string `json:"leave_to,omitempty"`
	Status         string  `json:"status"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toView(m *models.Membership) membershipView {
	v := membershipView{
		ID:           m.ID.String(),
		MemberNumber: m.MemberNumber,
		DisplayName:  m.DisplayName,
		Category:     string(m.Category),
		Eligibility:  string(m.Eligibility),
		JoinDate:     m.JoinDate.String(),
		Status:       string(m.Status),
		CreatedAt:    m.CreatedAt.Format(timestampLayout),
		UpdatedAt:    m.UpdatedAt.Format(timestampLayout),
	}
	switch m.Member.Kind {
	case models.MemberKindContact:
		v.ContactID = m.Member.ID
	case models.MemberKindOrganization:
		v.OrganizationID = m.Member.ID
	}
	v.RetirementDate = dateString(m.RetirementDate)
	v.LeaveFrom = dateString(m.LeaveFrom)
	v.LeaveTo = dateString(m.LeaveTo)
	return v
}

func dateString(d *models.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

// mutationResponse pairs the entity with advisory warnings so a client can
// show them without treating the operation as failed.
type mutationResponse struct {
	Membership membershipView `json:"membership"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type listResponse struct {
	Items    []membershipView `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type bulkRequest struct {
	Candidates []*models.Candidate `json:"candidates"`
}

// bulkItemView reports one candidate's outcome. Exactly one of membership
// and errors is populated.
type bulkItemView struct {
	Index      int             `json:"index"`
	Membership *membershipView `json:"membership,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Errors     []string        `json:"errors,omitempty"`
}

type bulkResponse struct {
	Results []bulkItemView `json:"results"`
}

// listQuery extracts the list criteria and page window from query params.
// Unparseable numbers fall back to defaults rather than failing the request.
func listQuery(r *http.Request) (service.ListCriteria, store.Page) {
	q := r.URL.Query()
	criteria := service.ListCriteria{
		NameContains:    q.Get("name"),
		Categories:      q["category"],
		MemberNumbers:   q["member_number"],
		IncludeInactive: q.Get("include_inactive") == "true",
	}
	page := store.Page{
		Skip: atoiOr(q.Get("skip"), 0),
		Top:  atoiOr(q.Get("top"), 0),
	}
	return criteria, page
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
