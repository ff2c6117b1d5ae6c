package models

import (
	"strings"
	"time"

	id "rollbook/pkg/domain"
)

// MemberKind discriminates the member reference union.
type MemberKind int

const (
	MemberKindNone MemberKind = iota
	MemberKindContact
	MemberKindOrganization
)

// MemberRef is the tagged union of the two mutually-exclusive relationship
// references a membership can point at. Modeling this as a union rather than
// two optional fields makes the exactly-one invariant representable in the
// type system; the cross-field rules enforce it on the untrusted candidate
// before a MemberRef is ever constructed.
type MemberRef struct {
	Kind MemberKind
	ID   string
}

// ContactRef builds a reference to an individual contact.
func ContactRef(contactID string) MemberRef {
	return MemberRef{Kind: MemberKindContact, ID: contactID}
}

// OrganizationRef builds a reference to an organization.
func OrganizationRef(organizationID string) MemberRef {
	return MemberRef{Kind: MemberKindOrganization, ID: organizationID}
}

// Membership is a validated membership record. It is constructed only from a
// Candidate that passed the full rule set; handlers and stores never build
// one from raw input.
//
// Invariants:
//   - Member is set (exactly one reference kind)
//   - Category and Eligibility are valid enum values
//   - Eligibility kind matches the member reference kind
//   - retired categories carry a retirement date
type Membership struct {
	ID             id.MembershipID
	TenantID       id.TenantID
	MemberNumber   string
	DisplayName    string
	Member         MemberRef
	Category       Category
	Eligibility    Eligibility
	JoinDate       Date
	RetirementDate *Date
	LeaveFrom      *Date
	LeaveTo        *Date
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsActive reports whether the record has not been soft-deleted.
func (m *Membership) IsActive() bool { return m.Status == StatusActive }

// NewMembership builds a validated entity from a candidate that passed the
// create rule set. Callers must not invoke this on an unvalidated candidate;
// date fields are assumed parseable because the format validators ran.
func NewMembership(membershipID id.MembershipID, tenantID id.TenantID, c *Candidate, memberNumber string, now time.Time) *Membership {
	m := &Membership{
		ID:           membershipID,
		TenantID:     tenantID,
		MemberNumber: memberNumber,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.apply(c)
	return m
}

// ApplyCandidate overlays the supplied fields of a partial-update candidate
// onto the entity and returns the names of fields whose value changed, for
// the audit diff. Fields absent from the candidate are left untouched.
func (m *Membership) ApplyCandidate(c *Candidate, now time.Time) []string {
	before := *m
	m.apply(c)

	var changed []string
	if before.DisplayName != m.DisplayName {
		changed = append(changed, FieldDisplayName)
	}
	if before.Member != m.Member {
		if m.Member.Kind == MemberKindContact {
			changed = append(changed, FieldContactID)
		} else {
			changed = append(changed, FieldOrganizationID)
		}
	}
	if before.Category != m.Category {
		changed = append(changed, FieldCategory)
	}
	if before.Eligibility != m.Eligibility {
		changed = append(changed, FieldEligibility)
	}
	if !before.JoinDate.Equal(m.JoinDate) {
		changed = append(changed, FieldJoinDate)
	}
	if !datePtrEqual(before.RetirementDate, m.RetirementDate) {
		changed = append(changed, FieldRetirementDate)
	}
	if !datePtrEqual(before.LeaveFrom, m.LeaveFrom) {
		changed = append(changed, FieldLeaveFrom)
	}
	if !datePtrEqual(before.LeaveTo, m.LeaveTo) {
		changed = append(changed, FieldLeaveTo)
	}
	if before.Status != m.Status {
		changed = append(changed, FieldStatus)
	}
	if len(changed) > 0 {
		m.UpdatedAt = now
	}
	return changed
}

// AsCandidate renders the entity back into candidate form. Partial updates
// are validated against AsCandidate().Overlay(patch) so cross-field rules
// see the merged record, not the patch in isolation.
func (m *Membership) AsCandidate() *Candidate {
	c := &Candidate{
		DisplayName:  strPtr(m.DisplayName),
		MemberNumber: strPtr(m.MemberNumber),
		Category:     strPtr(string(m.Category)),
		Eligibility:  strPtr(string(m.Eligibility)),
		Status:       strPtr(string(m.Status)),
	}
	switch m.Member.Kind {
	case MemberKindContact:
		c.ContactID = strPtr(m.Member.ID)
	case MemberKindOrganization:
		c.OrganizationID = strPtr(m.Member.ID)
	}
	if !m.JoinDate.IsZero() {
		c.JoinDate = strPtr(m.JoinDate.String())
	}
	c.RetirementDate = dateString(m.RetirementDate)
	c.LeaveFrom = dateString(m.LeaveFrom)
	c.LeaveTo = dateString(m.LeaveTo)
	return c
}

func (m *Membership) apply(c *Candidate) {
	if v, ok := supplied(c.DisplayName); ok {
		m.DisplayName = v
	}
	if v, ok := supplied(c.ContactID); ok {
		m.Member = ContactRef(v)
	}
	if v, ok := supplied(c.OrganizationID); ok {
		m.Member = OrganizationRef(v)
	}
	if v, ok := supplied(c.Category); ok {
		m.Category = Category(v)
	}
	if v, ok := supplied(c.Eligibility); ok {
		m.Eligibility = Eligibility(v)
	}
	if v, ok := supplied(c.JoinDate); ok {
		if d, err := ParseDate(v); err == nil {
			m.JoinDate = d
		}
	}
	if v, ok := supplied(c.RetirementDate); ok {
		if d, err := ParseDate(v); err == nil {
			m.RetirementDate = &d
		}
	}
	if v, ok := supplied(c.LeaveFrom); ok {
		if d, err := ParseDate(v); err == nil {
			m.LeaveFrom = &d
		}
	}
	if v, ok := supplied(c.LeaveTo); ok {
		if d, err := ParseDate(v); err == nil {
			m.LeaveTo = &d
		}
	}
	if v, ok := supplied(c.Status); ok {
		m.Status = Status(v)
	}
}

func supplied(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return "", false
	}
	return v, true
}

func strPtr(s string) *string { return &s }

func dateString(d *Date) *string {
	if d == nil {
		return nil
	}
	return strPtr(d.String())
}

func datePtrEqual(a, b *Date) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
