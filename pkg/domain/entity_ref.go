package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "rollbook/pkg/domain-errors"
)

// RefKind discriminates how a caller addressed an entity.
type RefKind int

const (
	// RefByInternalID addresses a record by its opaque uuid.
	RefByInternalID RefKind = iota
	// RefByBusinessID addresses a record by its human-readable member number.
	RefByBusinessID
)

// EntityRef is the tagged union of the two lookup schemes. It is resolved
// once at the service boundary into a single internal id; downstream code
// never re-sniffs the string shape.
type EntityRef struct {
	Kind       RefKind
	InternalID MembershipID
	BusinessID string
}

// ParseEntityRef classifies a raw identifier. Anything that parses as a
// non-nil uuid is an internal id; every other non-empty string is treated as
// a business id.
func ParseEntityRef(s string) (EntityRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EntityRef{}, dErrors.New(dErrors.CodeBadRequest, "entity reference is required")
	}
	if u, err := uuid.Parse(s); err == nil && u != uuid.Nil {
		return EntityRef{Kind: RefByInternalID, InternalID: MembershipID(u)}, nil
	}
	return EntityRef{Kind: RefByBusinessID, BusinessID: s}, nil
}

// String returns the raw identifier regardless of kind, for logging.
func (r EntityRef) String() string {
	if r.Kind == RefByInternalID {
		return r.InternalID.String()
	}
	return r.BusinessID
}
