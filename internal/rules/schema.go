package rules

import (
	"fmt"
	"strings"
)

// Accessor extracts a named field from a candidate. ok is false when the
// field is absent; empty and whitespace-only values count as absent.
type Accessor[T any] func(T) (value string, ok bool)

// OptionalString adapts the common pointer-field shape to an Accessor.
// nil and whitespace-only values are treated as absent.
func OptionalString[T any](get func(T) *string) Accessor[T] {
	return func(entity T) (string, bool) {
		p := get(entity)
		if p == nil {
			return "", false
		}
		v := strings.TrimSpace(*p)
		if v == "" {
			return "", false
		}
		return v, true
	}
}

type fieldDecl struct {
	name       string
	required   bool
	validators []Validator
}

// Schema is a statically-constructed rule set for one entity type and one
// operation (create and update typically get different schemas). It replaces
// framework-discovered validator classes with an explicit, enumerable list
// composed at the call site.
type Schema[T any] struct {
	accessors map[string]Accessor[T]
	fields    []*fieldDecl
	rules     []Rule[T]
}

// NewSchema creates an empty schema.
func NewSchema[T any]() *Schema[T] {
	return &Schema[T]{accessors: make(map[string]Accessor[T])}
}

// Field declares a named field and its accessor. Declaring the same field
// twice panics; schemas are built once at startup so this surfaces wiring
// mistakes immediately.
func (s *Schema[T]) Field(name string, get Accessor[T]) *Schema[T] {
	if _, dup := s.accessors[name]; dup {
		panic(fmt.Sprintf("rules: field %q declared twice", name))
	}
	s.accessors[name] = get
	s.fields = append(s.fields, &fieldDecl{name: name})
	return s
}

// Required marks a declared field as mandatory for this schema.
func (s *Schema[T]) Required(name string) *Schema[T] {
	s.decl(name).required = true
	return s
}

// Validate attaches a format validator to a declared field. Validators run
// only when the field is present; required-ness is independent.
func (s *Schema[T]) Validate(name string, v Validator) *Schema[T] {
	d := s.decl(name)
	d.validators = append(d.validators, v)
	return s
}

// Rule appends a cross-field rule. Rules run in registration order. Every
// name listed in Requires must be a declared field.
func (s *Schema[T]) Rule(r Rule[T]) *Schema[T] {
	for _, f := range r.Requires {
		if _, ok := s.accessors[f]; !ok {
			panic(fmt.Sprintf("rules: rule %q requires undeclared field %q", r.Name, f))
		}
	}
	s.rules = append(s.rules, r)
	return s
}

func (s *Schema[T]) decl(name string) *fieldDecl {
	for _, d := range s.fields {
		if d.name == name {
			return d
		}
	}
	panic(fmt.Sprintf("rules: field %q not declared", name))
}

// Evaluate runs the full schema against one candidate and aggregates every
// violation rather than short-circuiting, so a caller sees all failures in a
// single round trip.
//
// Order of evaluation:
//  1. required-presence checks
//  2. format validators on present fields
//  3. cross-field rules whose Requires guard holds; the rest are recorded
//     as skipped (vacuously valid)
func (s *Schema[T]) Evaluate(entity T) Result {
	var res Result

	for _, d := range s.fields {
		value, present := s.accessors[d.name](entity)
		if !present {
			if d.required {
				res.Errors = append(res.Errors, fmt.Sprintf("%s is required", d.name))
			}
			continue
		}
		for _, v := range d.validators {
			if !v.Validate(value) {
				res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", d.name, v.Message()))
			}
		}
	}

	for _, r := range s.rules {
		if !s.guardHolds(entity, r.Requires) {
			res.Skipped = append(res.Skipped, r.Name)
			continue
		}
		res.merge(r.Check(entity))
	}

	return res
}

func (s *Schema[T]) guardHolds(entity T, requires []string) bool {
	for _, f := range requires {
		if _, present := s.accessors[f](entity); !present {
			return false
		}
	}
	return true
}
