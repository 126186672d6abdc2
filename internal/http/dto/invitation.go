package dto

import (
	"time"

	"funnelhq.app/portal/internal/model"
)

type ValidateInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type AcceptInvitationRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID int64  `json:"userId,string" binding:"required"`
}

type CreateInvitationRequest struct {
	Email          string `json:"email" binding:"required,email,max=255"`
	Role           string `json:"role" binding:"required"`
	OrganizationID *int64 `json:"organizationId,omitempty,string"`
	InvitedBy      *int64 `json:"invitedBy,omitempty,string"`
	ProjectID      *int64 `json:"projectId,omitempty,string"`
}

type RevokeInvitationRequest struct {
	RevokedBy *int64  `json:"revokedBy,omitempty,string"`
	Reason    *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

// InvitationSummary is what an invitee may see about a pending invitation.
type InvitationSummary struct {
	ID             int64             `json:"id,string"`
	Email          string            `json:"email"`
	Role           model.AccountRole `json:"role"`
	OrganizationID *int64            `json:"organizationId,omitempty,string"`
	ProjectID      *int64            `json:"projectId,omitempty,string"`
	ExpiresAt      time.Time         `json:"expiresAt"`
}

type ValidateInvitationResponse struct {
	Valid      bool              `json:"valid"`
	Invitation InvitationSummary `json:"invitation"`
}

type AcceptInvitationResponse struct {
	Success        bool              `json:"success"`
	Role           model.AccountRole `json:"role"`
	OrganizationID *int64            `json:"organizationId,omitempty,string"`
	ProjectID      *int64            `json:"projectId,omitempty,string"`
}

type CreatedInvitation struct {
	ID            int64             `json:"id,string"`
	Email         string            `json:"email"`
	Role          model.AccountRole `json:"role"`
	InvitationURL string            `json:"invitationUrl"`
	ExpiresAt     time.Time         `json:"expiresAt"`
}

type CreateInvitationResponse struct {
	Invitation CreatedInvitation `json:"invitation"`
}

type InvitationResponse struct {
	ID             int64                  `json:"id,string"`
	Email          string                 `json:"email"`
	Role           model.AccountRole      `json:"role"`
	Status         model.InvitationStatus `json:"status"`
	OrganizationID *int64                 `json:"organizationId,omitempty,string"`
	ProjectID      *int64                 `json:"projectId,omitempty,string"`
	InvitedBy      *int64                 `json:"invitedBy,omitempty,string"`
	ExpiresAt      time.Time              `json:"expiresAt"`
	CreatedAt      time.Time              `json:"createdAt"`
	AcceptedAt     *time.Time             `json:"acceptedAt,omitempty"`
	RevokedAt      *time.Time             `json:"revokedAt,omitempty"`
}

func ToInvitationSummary(inv *model.Invitation) InvitationSummary {
	return InvitationSummary{
		ID:             inv.ID,
		Email:          inv.Email,
		Role:           inv.Role,
		OrganizationID: inv.OrganizationID,
		ProjectID:      inv.ProjectID,
		ExpiresAt:      inv.ExpiresAt,
	}
}

func ToInvitationResponse(inv model.Invitation) InvitationResponse {
	return InvitationResponse{
		ID:             inv.ID,
		Email:          inv.Email,
		Role:           inv.Role,
		Status:         inv.Status,
		OrganizationID: inv.OrganizationID,
		ProjectID:      inv.ProjectID,
		InvitedBy:      inv.InvitedBy,
		ExpiresAt:      inv.ExpiresAt,
		CreatedAt:      inv.CreatedAt,
		AcceptedAt:     inv.AcceptedAt,
		RevokedAt:      inv.RevokedAt,
	}
}
