package rules

// Outcome is what a single cross-field rule reports for one candidate.
type Outcome struct {
	Errors   []string
	Warnings []string
}

// Pass reports no violations.
func Pass() Outcome { return Outcome{} }

// Fail reports one blocking violation.
func Fail(msg string) Outcome { return Outcome{Errors: []string{msg}} }

// Warn reports one non-blocking violation. Warnings never prevent
// persistence.
func Warn(msg string) Outcome { return Outcome{Warnings: []string{msg}} }

// Rule is a named, pure cross-field check over one candidate entity.
//
// Requires lists the fields that must be present for the rule to apply. When
// any of them is absent the evaluator skips the rule entirely, a visible
// "vacuously valid" branch that keeps partial updates permissive
// instead of an accidental early return inside the rule body.
type Rule[T any] struct {
	Name     string
	Requires []string
	Check    func(T) Outcome
}

// Result aggregates every field and cross-field violation for one candidate.
// Invariant: OK() is true iff Errors is empty; warnings never block.
type Result struct {
	Errors   []string
	Warnings []string
	// Skipped names the rules whose Requires guard did not hold, so callers
	// and tests can tell a vacuous pass from an actual one.
	Skipped []string
}

// OK reports whether the candidate passed validation.
func (r Result) OK() bool { return len(r.Errors) == 0 }

func (r *Result) merge(o Outcome) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}
