package domain

import "time"

type NotificationType string

const (
	NotificationAccountSynced      NotificationType = "account.synced"
	NotificationAccountDeleted     NotificationType = "account.deleted"
	NotificationOrganizationSynced NotificationType = "organization.synced"
	NotificationMembershipSynced   NotificationType = "membership.synced"
	NotificationInvitationAccepted NotificationType = "invitation.accepted"
	NotificationInvitationRevoked  NotificationType = "invitation.revoked"
)

// Notification is published to the realtime fan-out after a state change.
type Notification struct {
	Type           NotificationType `json:"type"`
	AccountID      *int64           `json:"account_id,omitempty"`
	OrganizationID *int64           `json:"organization_id,omitempty"`
	InvitationID   *int64           `json:"invitation_id,omitempty"`
	OccurredAt     time.Time        `json:"occurred_at"`
}
