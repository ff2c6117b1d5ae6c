package models

// Category is the membership category choice.
type Category string

const (
	CategoryStandard        Category = "standard"
	CategoryStudent         Category = "student"
	CategoryParentalLeave   Category = "parental_leave"
	CategoryRetired         Category = "retired"
	CategoryRetiredHonorary Category = "retired_honorary"
)

// retiredCategories is the subset of categories that require a retirement
// date companion field. Read-only configuration; never mutated.
var retiredCategories = map[Category]struct{}{
	CategoryRetired:         {},
	CategoryRetiredHonorary: {},
}

// IsRetired reports whether the category belongs to the retired subset.
func (c Category) IsRetired() bool {
	_, ok := retiredCategories[c]
	return ok
}

// Categories lists every valid category value.
func Categories() []string {
	return []string{
		string(CategoryStandard),
		string(CategoryStudent),
		string(CategoryParentalLeave),
		string(CategoryRetired),
		string(CategoryRetiredHonorary),
	}
}

// EligibilityKind distinguishes the two eligibility enumerations: values
// that apply to individual contacts and values that apply to organizations.
type EligibilityKind int

const (
	EligibilityKindUnknown EligibilityKind = iota
	EligibilityKindContact
	EligibilityKindOrganization
)

// Eligibility is the eligibility choice. Its value determines which
// enumeration (contact-shaped or organization-shaped) it belongs to.
type Eligibility string

const (
	EligibilityOrdinary Eligibility = "ordinary"
	EligibilityStudent  Eligibility = "student"
	EligibilityHonorary Eligibility = "honorary"
	EligibilitySenior   Eligibility = "senior"

	EligibilityCorporate     Eligibility = "corporate"
	EligibilitySupporting    Eligibility = "supporting"
	EligibilityInstitutional Eligibility = "institutional"
)

var eligibilityKinds = map[Eligibility]EligibilityKind{
	EligibilityOrdinary: EligibilityKindContact,
	EligibilityStudent:  EligibilityKindContact,
	EligibilityHonorary: EligibilityKindContact,
	EligibilitySenior:   EligibilityKindContact,

	EligibilityCorporate:     EligibilityKindOrganization,
	EligibilitySupporting:    EligibilityKindOrganization,
	EligibilityInstitutional: EligibilityKindOrganization,
}

// Kind returns which enumeration the eligibility value belongs to.
func (e Eligibility) Kind() EligibilityKind {
	return eligibilityKinds[e]
}

// Eligibilities lists every valid eligibility value across both kinds.
func Eligibilities() []string {
	return []string{
		string(EligibilityOrdinary),
		string(EligibilityStudent),
		string(EligibilityHonorary),
		string(EligibilitySenior),
		string(EligibilityCorporate),
		string(EligibilitySupporting),
		string(EligibilityInstitutional),
	}
}

// Status is the record lifecycle state. Deletion is soft: records move to
// StatusInactive and stay in the store.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)
