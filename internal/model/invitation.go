package model

import "time"

type InvitationStatus string

const (
	InvitationStatusPending   InvitationStatus = "pending"
	InvitationStatusAccepted  InvitationStatus = "accepted"
	InvitationStatusExpired   InvitationStatus = "expired"
	InvitationStatusRevoked   InvitationStatus = "revoked"
	InvitationStatusCancelled InvitationStatus = "cancelled"
)

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Only pending invitations move, and only once.
func (s InvitationStatus) CanTransitionTo(next InvitationStatus) bool {
	switch s {
	case InvitationStatusPending:
		switch next {
		case InvitationStatusAccepted, InvitationStatusExpired, InvitationStatusRevoked, InvitationStatusCancelled:
			return true
		case InvitationStatusPending:
			return false
		default:
			return false
		}
	case InvitationStatusAccepted, InvitationStatusExpired, InvitationStatusRevoked, InvitationStatusCancelled:
		return false
	default:
		return false
	}
}

func (s InvitationStatus) Terminal() bool {
	return s != InvitationStatusPending
}

// AcceptMetadata is stamped on an invitation when it is accepted.
type AcceptMetadata struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

type Invitation struct {
	ID             int64            `json:"id"`
	Token          string           `json:"-"`
	Email          string           `json:"email"`
	Role           AccountRole      `json:"role"`
	ProjectID      *int64           `json:"project_id,omitempty"`
	OrganizationID *int64           `json:"organization_id,omitempty"`
	InvitedBy      *int64           `json:"invited_by,omitempty"`
	Status         InvitationStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expires_at"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
	AcceptedBy     *int64           `json:"accepted_by,omitempty"`
	RevokedAt      *time.Time       `json:"revoked_at,omitempty"`
	RevokedBy      *int64           `json:"revoked_by,omitempty"`
	RevokeReason   *string          `json:"revoke_reason,omitempty"`
	AcceptMetadata *AcceptMetadata  `json:"accept_metadata,omitempty"`
	ExternalID     *string          `json:"external_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

func (i *Invitation) IsValid(now time.Time) bool {
	return i.Status == InvitationStatusPending && !i.IsExpired(now)
}
