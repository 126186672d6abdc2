package model

import (
	"encoding/json"
	"time"
)

type AuditAction string

const (
	AuditActionSent      AuditAction = "sent"
	AuditActionAccepted  AuditAction = "accepted"
	AuditActionRevoked   AuditAction = "revoked"
	AuditActionExpired   AuditAction = "expired"
	AuditActionCancelled AuditAction = "cancelled"
)

// AuditActionFor returns the audit action recorded when an invitation enters status.
func AuditActionFor(status InvitationStatus) (AuditAction, bool) {
	switch status {
	case InvitationStatusAccepted:
		return AuditActionAccepted, true
	case InvitationStatusExpired:
		return AuditActionExpired, true
	case InvitationStatusRevoked:
		return AuditActionRevoked, true
	case InvitationStatusCancelled:
		return AuditActionCancelled, true
	case InvitationStatusPending:
		return AuditActionSent, true
	default:
		return "", false
	}
}

type InvitationAuditEntry struct {
	ID           int64           `json:"id"`
	InvitationID int64           `json:"invitation_id"`
	Action       AuditAction     `json:"action"`
	ActorID      *int64          `json:"actor_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
