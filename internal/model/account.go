package model

import "time"

type AccountRole string

const (
	AccountRoleAdmin      AccountRole = "admin"
	AccountRoleTeamMember AccountRole = "team_member"
	AccountRoleClient     AccountRole = "client"
)

func (r AccountRole) Valid() bool {
	switch r {
	case AccountRoleAdmin, AccountRoleTeamMember, AccountRoleClient:
		return true
	default:
		return false
	}
}

const DefaultSubscriptionPlan = "free"

// Account is the system-of-record row for a person. Email is the natural key;
// ExternalID is set once the identity provider has announced the user.
type Account struct {
	ID               int64       `json:"id"`
	ExternalID       *string     `json:"external_id,omitempty"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	AvatarURL        *string     `json:"avatar_url,omitempty"`
	Role             AccountRole `json:"role"`
	SubscriptionPlan string      `json:"subscription_plan"`
	IsActive         bool        `json:"is_active"`
	LastLoginAt      *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
