// Package rules implements the declarative validation engine: single-field
// validators, cross-field rules with explicit presence guards, and an
// evaluator that aggregates every violation instead of stopping at the first.
//
// Field validators check format only. Required-ness is a separate schema
// declaration, so validators never need the "optional field returns true
// early" branch duplicated inside each one; an absent value is always valid
// at the validator level.
package rules

import (
	"regexp"
	"strconv"
)

// Validator is an atomic single-field check. Validators are total: they never
// panic and never perform I/O.
type Validator struct {
	check func(string) bool
	msg   string
}

// Validate applies the predicate to a raw value.
func (v Validator) Validate(raw string) bool { return v.check(raw) }

// Message returns the human-readable failure message.
func (v Validator) Message() string { return v.msg }

// Predicate builds a validator from an arbitrary total predicate. Range,
// pattern, and enum validators below are all specializations of this.
func Predicate(msg string, fn func(string) bool) Validator {
	return Validator{check: fn, msg: msg}
}

// Pattern builds a validator requiring the value to match re in full.
func Pattern(msg string, re *regexp.Regexp) Validator {
	return Predicate(msg, func(s string) bool { return re.MatchString(s) })
}

// IntRange builds a validator requiring an integer in [min, max].
func IntRange(msg string, min, max int) Validator {
	return Predicate(msg, func(s string) bool {
		n, err := strconv.Atoi(s)
		return err == nil && n >= min && n <= max
	})
}

// OneOf builds a validator requiring membership in a fixed value set.
func OneOf(msg string, allowed ...string) Validator {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return Predicate(msg, func(s string) bool {
		_, ok := set[s]
		return ok
	})
}

// MaxLen builds a validator capping the value length in bytes.
func MaxLen(msg string, max int) Validator {
	return Predicate(msg, func(s string) bool { return len(s) <= max })
}
