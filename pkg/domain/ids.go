// Package domain holds shared domain primitives: typed identifiers, the
// entity-reference union, and the actor role hierarchy.
//
// IDs are distinct uuid-backed types so the compiler rejects cross-type
// assignment (a MembershipID can never be passed where a TenantID is
// expected). Parse functions enforce validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "rollbook/pkg/domain-errors"
)

// TenantID identifies the tenant organization owning a record.
type TenantID uuid.UUID

// MembershipID is the opaque internal identifier of a membership record.
type MembershipID uuid.UUID

// ContactID references an individual contact record.
type ContactID uuid.UUID

// OrganizationID references an organization record.
type OrganizationID uuid.UUID

func (id TenantID) String() string       { return uuid.UUID(id).String() }
func (id MembershipID) String() string   { return uuid.UUID(id).String() }
func (id ContactID) String() string      { return uuid.UUID(id).String() }
func (id OrganizationID) String() string { return uuid.UUID(id).String() }

func (id TenantID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id MembershipID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is required", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s is not a valid uuid", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeBadRequest, "%s cannot be the nil uuid", kind)
	}
	return u, nil
}

// ParseTenantID validates and converts a raw string into a TenantID.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID("tenant id", s)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseMembershipID validates and converts a raw string into a MembershipID.
func ParseMembershipID(s string) (MembershipID, error) {
	u, err := parseUUID("membership id", s)
	if err != nil {
		return MembershipID{}, err
	}
	return MembershipID(u), nil
}
