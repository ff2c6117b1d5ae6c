package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbook/internal/membership/models"
)

func str(s string) *string { return &s }

func today() string { return models.DateOf(time.Now()).String() }

func daysAgo(n int) *string {
	s := models.DateOf(time.Now().AddDate(0, 0, -n)).String()
	return &s
}

func daysAhead(n int) *string {
	s := models.DateOf(time.Now().AddDate(0, 0, n)).String()
	return &s
}

// validCandidate is the baseline used across tests: a contact-backed
// standard membership with a past join date.
func validCandidate() *models.Candidate {
	return &models.Candidate{
		DisplayName: str("Ada Lovelace"),
		ContactID:   str("contact-0042"),
		Category:    str(string(models.CategoryStandard)),
		Eligibility: str(string(models.EligibilityOrdinary)),
		JoinDate:    daysAgo(30),
	}
}

func TestCreate_ValidCandidatePasses(t *testing.T) {
	res := ForCreate().Evaluate(validCandidate())
	assert.True(t, res.OK(), "errors: %v", res.Errors)
	assert.Empty(t, res.Warnings)
}

func TestCreate_OrganizationBackedCandidatePasses(t *testing.T) {
	c := validCandidate()
	c.ContactID = nil
	c.OrganizationID = str("org-7")
	c.Eligibility = str(string(models.EligibilityCorporate))
	res := ForCreate().Evaluate(c)
	assert.True(t, res.OK(), "errors: %v", res.Errors)
}

func TestMutualExclusivity(t *testing.T) {
	t.Run("both references set fails with stable message", func(t *testing.T) {
		c := validCandidate()
		c.OrganizationID = str("org-1")
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgBothReferencesSet)
	})

	t.Run("neither reference set fails with distinct message", func(t *testing.T) {
		c := validCandidate()
		c.ContactID = nil
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgNoReferenceSet)
		assert.NotContains(t, res.Errors, MsgBothReferencesSet)
	})

	t.Run("whitespace-only reference counts as absent", func(t *testing.T) {
		c := validCandidate()
		c.OrganizationID = str("   ")
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})
}

func TestRetiredCategoryRules(t *testing.T) {
	t.Run("retired without retirement date fails", func(t *testing.T) {
		c := validCandidate()
		c.Category = str(string(models.CategoryRetired))
		c.Eligibility = str(string(models.EligibilitySenior))
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgRetirementDateNeeded)
	})

	t.Run("retired with retirement date passes", func(t *testing.T) {
		c := validCandidate()
		c.Category = str(string(models.CategoryRetired))
		c.Eligibility = str(string(models.EligibilitySenior))
		c.RetirementDate = daysAgo(365)
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})

	t.Run("retirement date on non-retired category warns only", func(t *testing.T) {
		c := validCandidate()
		c.RetirementDate = daysAgo(10)
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
		assert.Contains(t, res.Warnings, MsgRetirementDateUnused)
	})

	t.Run("future retirement date warns but does not block", func(t *testing.T) {
		c := validCandidate()
		c.Category = str(string(models.CategoryRetiredHonorary))
		c.Eligibility = str(string(models.EligibilityHonorary))
		c.RetirementDate = daysAhead(30)
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
		assert.Contains(t, res.Warnings, MsgRetirementDateFuture)
	})
}

func TestLeaveRange(t *testing.T) {
	t.Run("valid range passes", func(t *testing.T) {
		c := validCandidate()
		c.Category = str(string(models.CategoryParentalLeave))
		c.LeaveFrom = str("2025-01-15")
		c.LeaveTo = str("2025-09-01")
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})

	t.Run("start not strictly before end fails", func(t *testing.T) {
		c := validCandidate()
		c.LeaveFrom = str("2025-06-01")
		c.LeaveTo = str("2025-06-01")
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgLeaveStartNotBefore)
	})

	t.Run("span over 730 days fails", func(t *testing.T) {
		c := validCandidate()
		c.LeaveFrom = str("2025-01-15")
		c.LeaveTo = str("2027-06-01")
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgLeaveSpanExceeded)
	})

	t.Run("span check applies regardless of ordering", func(t *testing.T) {
		c := validCandidate()
		c.LeaveFrom = str("2027-06-01")
		c.LeaveTo = str("2025-01-15")
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgLeaveStartNotBefore)
		assert.Contains(t, res.Errors, MsgLeaveSpanExceeded)
	})

	t.Run("exactly 730 days passes", func(t *testing.T) {
		c := validCandidate()
		c.LeaveFrom = str("2025-01-01")
		c.LeaveTo = str("2027-01-01") // 730 days
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})

	t.Run("one end without the other fails", func(t *testing.T) {
		c := validCandidate()
		c.LeaveFrom = str("2025-01-15")
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgLeaveDatesUnpaired)
	})

	t.Run("neither end skips the rule", func(t *testing.T) {
		res := ForCreate().Evaluate(validCandidate())
		assert.Contains(t, res.Skipped, "parental-leave-range-valid")
	})
}

func TestJoinDateNotFuture(t *testing.T) {
	t.Run("today passes", func(t *testing.T) {
		c := validCandidate()
		c.JoinDate = str(today())
		res := ForCreate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})

	t.Run("tomorrow fails", func(t *testing.T) {
		c := validCandidate()
		c.JoinDate = daysAhead(1)
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgJoinDateInFuture)
	})

	t.Run("any past day passes", func(t *testing.T) {
		for _, n := range []int{0, 1, 30, 3650} {
			c := validCandidate()
			c.JoinDate = daysAgo(n)
			res := ForCreate().Evaluate(c)
			assert.True(t, res.OK(), "join date %d days ago, errors: %v", n, res.Errors)
		}
	})
}

func TestEligibilityMatchesReference(t *testing.T) {
	t.Run("organization eligibility with contact reference fails", func(t *testing.T) {
		c := validCandidate()
		c.Eligibility = str(string(models.EligibilityCorporate))
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors[0], "applies to organizations")
	})

	t.Run("contact eligibility with organization reference fails", func(t *testing.T) {
		c := validCandidate()
		c.ContactID = nil
		c.OrganizationID = str("org-1")
		res := ForCreate().Evaluate(c)
		require.False(t, res.OK())
	})
}

func TestCreate_AggregatesIndependentFailures(t *testing.T) {
	c := &models.Candidate{
		ContactID:      str("contact-1"),
		OrganizationID: str("org-1"),
		Category:       str("gold"), // not a valid category
		JoinDate:       daysAhead(5),
	}
	res := ForCreate().Evaluate(c)
	require.False(t, res.OK())
	// display_name + eligibility required, invalid category, both refs,
	// future join date: every independent violation is reported at once.
	assert.GreaterOrEqual(t, len(res.Errors), 5)
}

func TestUpdate_PartialCandidateSkipsCreateOnlyRules(t *testing.T) {
	t.Run("status-only update passes", func(t *testing.T) {
		c := &models.Candidate{Status: str(string(models.StatusInactive))}
		res := ForUpdate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})

	t.Run("no reference required on update", func(t *testing.T) {
		c := &models.Candidate{DisplayName: str("New Name")}
		res := ForUpdate().Evaluate(c)
		assert.True(t, res.OK(), "errors: %v", res.Errors)
	})

	t.Run("supplied fields still validated", func(t *testing.T) {
		c := &models.Candidate{JoinDate: daysAhead(2)}
		res := ForUpdate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgJoinDateInFuture)
	})

	t.Run("both references still exclusive on update", func(t *testing.T) {
		c := &models.Candidate{ContactID: str("c-1"), OrganizationID: str("o-1")}
		res := ForUpdate().Evaluate(c)
		require.False(t, res.OK())
		assert.Contains(t, res.Errors, MsgBothReferencesSet)
	})
}

func TestMalformedDatesReportFormatOnly(t *testing.T) {
	c := validCandidate()
	c.JoinDate = str("15/01/2025")
	res := ForCreate().Evaluate(c)
	require.False(t, res.OK())
	assert.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "ISO date")
}
