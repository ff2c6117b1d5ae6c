// Package mapper translates between the validated Membership entity and the
// storage collaborator's record shape: enums flatten to numeric codes and
// relationship references become binding strings.
//
// The mapping is total and field-by-field: no field's mapped value depends on
// another field's mapped value. Reads are defensive: an unknown code maps to
// the absent value instead of failing, so one corrupt record cannot break a
// whole list response.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"rollbook/internal/membership/models"
	id "rollbook/pkg/domain"

	"github.com/google/uuid"
)

// Record is the external representation the storage layer persists and
// echoes back. String dates are YYYY-MM-DD; empty means absent.
type Record struct {
	ID                  string `json:"membershipid"`
	TenantID            string `json:"tenantid"`
	MemberNumber        string `json:"membernumber"`
	DisplayName         string `json:"name"`
	ContactBinding      string `json:"contact_bind,omitempty"`
	OrganizationBinding string `json:"organization_bind,omitempty"`
	CategoryCode        int    `json:"categorycode"`
	EligibilityCode     int    `json:"eligibilitycode"`
	StateCode           int    `json:"statecode"`
	JoinDate            string `json:"joindate,omitempty"`
	RetirementDate      string `json:"retirementdate,omitempty"`
	LeaveFrom           string `json:"leavefrom,omitempty"`
	LeaveTo             string `json:"leaveto,omitempty"`
	CreatedOn           string `json:"createdon,omitempty"`
	ModifiedOn          string `json:"modifiedon,omitempty"`
}

// State codes in the external representation.
const (
	StateActive   = 0
	StateInactive = 1
)

// Enum code tables. Read-only configuration: populated here, mutated
// nowhere. Code 0 is reserved for "unset" in both directions.
var categoryCodes = map[models.Category]int{
	models.CategoryStandard:        100,
	models.CategoryStudent:         110,
	models.CategoryParentalLeave:   120,
	models.CategoryRetired:         200,
	models.CategoryRetiredHonorary: 210,
}

var eligibilityCodes = map[models.Eligibility]int{
	models.EligibilityOrdinary:      300,
	models.EligibilityStudent:       310,
	models.EligibilityHonorary:      320,
	models.EligibilitySenior:        330,
	models.EligibilityCorporate:     400,
	models.EligibilitySupporting:    410,
	models.EligibilityInstitutional: 420,
}

var categoryByCode = invert(categoryCodes)
var eligibilityByCode = invert(eligibilityCodes)

func invert[K comparable, V comparable](m map[K]V) map[V]K {
	out := make(map[V]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// CategoryCode returns the external code for a category. Used when list
// filters are translated into the storage representation.
func CategoryCode(c models.Category) (int, bool) {
	code, ok := categoryCodes[c]
	return code, ok
}

// ToRecord maps a validated entity to its external representation.
func ToRecord(m *models.Membership) Record {
	r := Record{
		ID:              m.ID.String(),
		TenantID:        m.TenantID.String(),
		MemberNumber:    m.MemberNumber,
		DisplayName:     m.DisplayName,
		CategoryCode:    categoryCodes[m.Category],
		EligibilityCode: eligibilityCodes[m.Eligibility],
		StateCode:       StateInactive,
	}
	if m.Status == models.StatusActive {
		r.StateCode = StateActive
	}
	switch m.Member.Kind {
	case models.MemberKindContact:
		r.ContactBinding = fmt.Sprintf("contacts(%s)", m.Member.ID)
	case models.MemberKindOrganization:
		r.OrganizationBinding = fmt.Sprintf("organizations(%s)", m.Member.ID)
	}
	if !m.JoinDate.IsZero() {
		r.JoinDate = m.JoinDate.String()
	}
	if m.RetirementDate != nil {
		r.RetirementDate = m.RetirementDate.String()
	}
	if m.LeaveFrom != nil {
		r.LeaveFrom = m.LeaveFrom.String()
	}
	if m.LeaveTo != nil {
		r.LeaveTo = m.LeaveTo.String()
	}
	if !m.CreatedAt.IsZero() {
		r.CreatedOn = m.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !m.UpdatedAt.IsZero() {
		r.ModifiedOn = m.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return r
}

// FromRecord maps an external record back to the internal entity. Unknown or
// malformed values map to the absent value, never to an error.
func FromRecord(r Record) *models.Membership {
	m := &models.Membership{
		MemberNumber: r.MemberNumber,
		DisplayName:  r.DisplayName,
		Category:     categoryByCode[r.CategoryCode],
		Eligibility:  eligibilityByCode[r.EligibilityCode],
		Status:       models.StatusInactive,
	}
	if u, err := uuid.Parse(r.ID); err == nil {
		m.ID = id.MembershipID(u)
	}
	if u, err := uuid.Parse(r.TenantID); err == nil {
		m.TenantID = id.TenantID(u)
	}
	if r.StateCode == StateActive {
		m.Status = models.StatusActive
	}
	if ref, ok := parseBinding(r.ContactBinding, "contacts"); ok {
		m.Member = models.ContactRef(ref)
	} else if ref, ok := parseBinding(r.OrganizationBinding, "organizations"); ok {
		m.Member = models.OrganizationRef(ref)
	}
	if d, err := models.ParseDate(r.JoinDate); err == nil {
		m.JoinDate = d
	}
	m.RetirementDate = parseOptionalDate(r.RetirementDate)
	m.LeaveFrom = parseOptionalDate(r.LeaveFrom)
	m.LeaveTo = parseOptionalDate(r.LeaveTo)
	if t, err := time.Parse(time.RFC3339, r.CreatedOn); err == nil {
		m.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, r.ModifiedOn); err == nil {
		m.UpdatedAt = t
	}
	return m
}

func parseBinding(s, collection string) (string, bool) {
	prefix := collection + "("
	if strings.HasPrefix(s, prefix) && strings.HasSuffix(s, ")") {
		inner := s[len(prefix) : len(s)-1]
		if inner != "" {
			return inner, true
		}
	}
	return "", false
}

func parseOptionalDate(s string) *models.Date {
	if s == "" {
		return nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}
