package models

// Candidate is an untrusted, partially-populated membership record submitted
// for create or update. Every attribute is optional at this stage; pointer
// fields distinguish "not supplied" from "supplied empty". Candidates are
// request-local and are never persisted; only a Membership built by the
// evaluator path reaches the store.
type Candidate struct {
	DisplayName    *string `json:"display_name,omitempty"`
	MemberNumber   *string `json:"member_number,omitempty"`
	ContactID      *string `json:"contact_id,omitempty"`
	OrganizationID *string `json:"organization_id,omitempty"`
	Category       *string `json:"category,omitempty"`
	Eligibility    *string `json:"eligibility,omitempty"`
	JoinDate       *string `json:"join_date,omitempty"`
	RetirementDate *string `json:"retirement_date,omitempty"`
	LeaveFrom      *string `json:"leave_from,omitempty"`
	LeaveTo        *string `json:"leave_to,omitempty"`
	Status         *string `json:"status,omitempty"`
}

// Overlay returns a copy of c with every supplied field of o taking
// precedence. Supplying either reference field replaces the reference as a
// whole, matching how an applied update swaps the member reference instead
// of accumulating both. Leave dates overlay individually so a one-sided
// patch is validated against the stored other side.
func (c *Candidate) Overlay(o *Candidate) *Candidate {
	merged := *c
	if o.DisplayName != nil {
		merged.DisplayName = o.DisplayName
	}
	if o.MemberNumber != nil {
		merged.MemberNumber = o.MemberNumber
	}
	_, contactSupplied := supplied(o.ContactID)
	_, orgSupplied := supplied(o.OrganizationID)
	if contactSupplied || orgSupplied {
		merged.ContactID = o.ContactID
		merged.OrganizationID = o.OrganizationID
	}
	if o.Category != nil {
		merged.Category = o.Category
	}
	if o.Eligibility != nil {
		merged.Eligibility = o.Eligibility
	}
	if o.JoinDate != nil {
		merged.JoinDate = o.JoinDate
	}
	if o.RetirementDate != nil {
		merged.RetirementDate = o.RetirementDate
	}
	if o.LeaveFrom != nil {
		merged.LeaveFrom = o.LeaveFrom
	}
	if o.LeaveTo != nil {
		merged.LeaveTo = o.LeaveTo
	}
	if o.Status != nil {
		merged.Status = o.Status
	}
	return &merged
}

// Field names shared by the schema declarations and the rule Requires
// guards. Declared once so rules and tests cannot drift from the schema.
const (
	FieldDisplayName    = "display_name"
	FieldMemberNumber   = "member_number"
	FieldContactID      = "contact_id"
	FieldOrganizationID = "organization_id"
	FieldCategory       = "category"
	FieldEligibility    = "eligibility"
	FieldJoinDate       = "join_date"
	FieldRetirementDate = "retirement_date"
	FieldLeaveFrom      = "leave_from"
	FieldLeaveTo        = "leave_to"
	FieldStatus         = "status"
)
