// Package rules defines the membership rule sets: field validators and
// cross-field rules composed into one schema per operation. The create set
// enforces required presence; the update set drops the presence rules and is
// evaluated over the stored record merged with the patch.
package rules

import (
	"fmt"
	"strings"
	"time"

	"rollbook/internal/membership/models"
	"rollbook/internal/rules"
)

// MaxLeaveDays caps the parental-leave span at two years.
const MaxLeaveDays = 730

// Stable rule messages. Tests and UI string-match on these; change with care.
const (
	MsgBothReferencesSet    = "contact and organization references are mutually exclusive; set exactly one"
	MsgNoReferenceSet       = "exactly one of contact or organization reference must be set"
	MsgRetirementDateNeeded = "retirement date is required for retired categories"
	MsgRetirementDateUnused = "retirement date is ignored for non-retired categories"
	MsgRetirementDateFuture = "retirement date is in the future"
	MsgLeaveDatesUnpaired   = "leave start and end dates must be provided together"
	MsgLeaveStartNotBefore  = "leave start must be strictly before leave end"
	MsgLeaveSpanExceeded    = "leave period exceeds the maximum of 730 days"
	MsgJoinDateInFuture     = "join date cannot be in the future"
)

type candidate = *models.Candidate

func baseSchema() *rules.Schema[candidate] {
	dateValidator := rules.Predicate("must be an ISO date (YYYY-MM-DD)", func(s string) bool {
		_, err := models.ParseDate(s)
		return err == nil
	})

	return rules.NewSchema[candidate]().
		Field(models.FieldDisplayName, rules.OptionalString(func(c candidate) *string { return c.DisplayName })).
		Field(models.FieldMemberNumber, rules.OptionalString(func(c candidate) *string { return c.MemberNumber })).
		Field(models.FieldContactID, rules.OptionalString(func(c candidate) *string { return c.ContactID })).
		Field(models.FieldOrganizationID, rules.OptionalString(func(c candidate) *string { return c.OrganizationID })).
		Field(models.FieldCategory, rules.OptionalString(func(c candidate) *string { return c.Category })).
		Field(models.FieldEligibility, rules.OptionalString(func(c candidate) *string { return c.Eligibility })).
		Field(models.FieldJoinDate, rules.OptionalString(func(c candidate) *string { return c.JoinDate })).
		Field(models.FieldRetirementDate, rules.OptionalString(func(c candidate) *string { return c.RetirementDate })).
		Field(models.FieldLeaveFrom, rules.OptionalString(func(c candidate) *string { return c.LeaveFrom })).
		Field(models.FieldLeaveTo, rules.OptionalString(func(c candidate) *string { return c.LeaveTo })).
		Field(models.FieldStatus, rules.OptionalString(func(c candidate) *string { return c.Status })).
		Validate(models.FieldDisplayName, rules.MaxLen("must be 256 characters or less", 256)).
		Validate(models.FieldCategory, rules.OneOf("is not a valid category", models.Categories()...)).
		Validate(models.FieldEligibility, rules.OneOf("is not a valid eligibility", models.Eligibilities()...)).
		Validate(models.FieldStatus, rules.OneOf("must be active or inactive", string(models.StatusActive), string(models.StatusInactive))).
		Validate(models.FieldJoinDate, dateValidator).
		Validate(models.FieldRetirementDate, dateValidator).
		Validate(models.FieldLeaveFrom, dateValidator).
		Validate(models.FieldLeaveTo, dateValidator).
		Rule(bothReferencesSet()).
		Rule(retiredRequiresDate()).
		Rule(retirementDateOnlyForRetired()).
		Rule(retirementDateNotFuture).
		Rule(leaveDatesPaired()).
		Rule(leaveRangeValid()).
		Rule(joinDateNotFuture).
		Rule(eligibilityMatchesReference())
}

// ForCreate returns the create rule set: everything in the base schema plus
// required presence and the neither-reference-set check.
func ForCreate() *rules.Schema[candidate] {
	return baseSchema().
		Required(models.FieldDisplayName).
		Required(models.FieldCategory).
		Required(models.FieldEligibility).
		Required(models.FieldJoinDate).
		Rule(someReferenceSet())
}

// ForUpdate returns the update rule set. No field is required and the
// neither-reference-set rule is absent. The service evaluates it against the
// stored record overlaid with the patch, so cross-field rules see the merged
// state while untouched fields never trip create-only requirements.
func ForUpdate() *rules.Schema[candidate] {
	return baseSchema()
}

// bothReferencesSet fires only when both references are present; the guard
// makes the rule vacuously valid for every candidate with at most one.
func bothReferencesSet() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name:     "member-reference-exclusive",
		Requires: []string{models.FieldContactID, models.FieldOrganizationID},
		Check: func(candidate) rules.Outcome {
			return rules.Fail(MsgBothReferencesSet)
		},
	}
}

// someReferenceSet is create-only: a new membership must point somewhere.
func someReferenceSet() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name: "member-reference-required",
		Check: func(c candidate) rules.Outcome {
			if !present(c.ContactID) && !present(c.OrganizationID) {
				return rules.Fail(MsgNoReferenceSet)
			}
			return rules.Pass()
		},
	}
}

func retiredRequiresDate() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name:     "retired-category-requires-retirement-date",
		Requires: []string{models.FieldCategory},
		Check: func(c candidate) rules.Outcome {
			if models.Category(*c.Category).IsRetired() && !present(c.RetirementDate) {
				return rules.Fail(MsgRetirementDateNeeded)
			}
			return rules.Pass()
		},
	}
}

// A retirement date on a non-retired category is advisory only: the mapper
// drops nothing and persistence proceeds.
func retirementDateOnlyForRetired() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name:     "retirement-date-only-for-retired-categories",
		Requires: []string{models.FieldCategory, models.FieldRetirementDate},
		Check: func(c candidate) rules.Outcome {
			if !models.Category(*c.Category).IsRetired() {
				return rules.Warn(MsgRetirementDateUnused)
			}
			return rules.Pass()
		},
	}
}

// retirementDateNotFuture is a warning while the equivalent join-date check
// is an error. The asymmetry is inherited behavior; do not unify without a
// product decision.
var retirementDateNotFuture = rules.Rule[candidate]{
	Name:     "retirement-date-not-future",
	Requires: []string{models.FieldRetirementDate},
	Check: func(c candidate) rules.Outcome {
		d, err := models.ParseDate(trimmed(c.RetirementDate))
		if err != nil {
			return rules.Pass() // format validator reports this
		}
		if d.After(models.DateOf(time.Now())) {
			return rules.Warn(MsgRetirementDateFuture)
		}
		return rules.Pass()
	},
}

func leaveDatesPaired() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name: "parental-leave-dates-paired",
		Check: func(c candidate) rules.Outcome {
			if present(c.LeaveFrom) != present(c.LeaveTo) {
				return rules.Fail(MsgLeaveDatesUnpaired)
			}
			return rules.Pass()
		},
	}
}

func leaveRangeValid() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name:     "parental-leave-range-valid",
		Requires: []string{models.FieldLeaveFrom, models.FieldLeaveTo},
		Check: func(c candidate) rules.Outcome {
			from, errF := models.ParseDate(trimmed(c.LeaveFrom))
			to, errT := models.ParseDate(trimmed(c.LeaveTo))
			if errF != nil || errT != nil {
				return rules.Pass()
			}
			var out rules.Outcome
			if !from.Before(to) {
				out.Errors = append(out.Errors, MsgLeaveStartNotBefore)
			}
			// Span check is independent of ordering: an inverted range that
			// also exceeds the cap reports both.
			span := from.DaysUntil(to)
			if span < 0 {
				span = -span
			}
			if span > MaxLeaveDays {
				out.Errors = append(out.Errors, MsgLeaveSpanExceeded)
			}
			return out
		},
	}
}

// Today is allowed, tomorrow is not; comparison is at day granularity.
var joinDateNotFuture = rules.Rule[candidate]{
	Name:     "join-date-not-future",
	Requires: []string{models.FieldJoinDate},
	Check: func(c candidate) rules.Outcome {
		d, err := models.ParseDate(trimmed(c.JoinDate))
		if err != nil {
			return rules.Pass()
		}
		if d.After(models.DateOf(time.Now())) {
			return rules.Fail(MsgJoinDateInFuture)
		}
		return rules.Pass()
	},
}

// eligibilityMatchesReference checks that the eligibility enumeration the
// value belongs to matches which reference is set. With no reference set it
// passes vacuously; the reference rules report that case.
func eligibilityMatchesReference() rules.Rule[candidate] {
	return rules.Rule[candidate]{
		Name:     "eligibility-matches-reference-kind",
		Requires: []string{models.FieldEligibility},
		Check: func(c candidate) rules.Outcome {
			kind := models.Eligibility(trimmed(c.Eligibility)).Kind()
			if kind == models.EligibilityKindUnknown {
				return rules.Pass() // enum validator reports this
			}
			switch {
			case present(c.ContactID) && kind != models.EligibilityKindContact:
				return rules.Fail(fmt.Sprintf("eligibility %q applies to organizations, but a contact reference is set", trimmed(c.Eligibility)))
			case present(c.OrganizationID) && kind != models.EligibilityKindOrganization:
				return rules.Fail(fmt.Sprintf("eligibility %q applies to contacts, but an organization reference is set", trimmed(c.Eligibility)))
			}
			return rules.Pass()
		},
	}
}

func present(p *string) bool { return trimmed(p) != "" }

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
