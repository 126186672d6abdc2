package model

import "time"

type MembershipRole string

const (
	MembershipRoleAdmin  MembershipRole = "admin"
	MembershipRoleMember MembershipRole = "member"
)

// MembershipRoleFromProvider maps identity provider role keys ("org:admin",
// "org:member", ...) onto the two local roles.
func MembershipRoleFromProvider(role string) MembershipRole {
	if role == "org:admin" || role == "admin" {
		return MembershipRoleAdmin
	}
	return MembershipRoleMember
}

// MembershipRoleFor maps an invited account role onto an organization role.
func MembershipRoleFor(role AccountRole) MembershipRole {
	switch role {
	case AccountRoleAdmin:
		return MembershipRoleAdmin
	case AccountRoleTeamMember, AccountRoleClient:
		return MembershipRoleMember
	default:
		return MembershipRoleMember
	}
}

type Membership struct {
	ID             int64          `json:"id"`
	OrganizationID int64          `json:"organization_id"`
	AccountID      int64          `json:"account_id"`
	Role           MembershipRole `json:"role"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
