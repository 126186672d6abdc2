package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/internal/http/dto"
	"funnelhq.app/portal/internal/model"
	"funnelhq.app/portal/internal/service"
)

type InvitationHandler struct {
	invService service.InvitationService
	errorResponder
}

func NewInvitationHandler(invService service.InvitationService, isProduction bool) *InvitationHandler {
	return &InvitationHandler{
		invService:     invService,
		errorResponder: errorResponder{isProduction: isProduction},
	}
}

// Validate checks an invitation token (public endpoint).
func (h *InvitationHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ValidateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "token is required", err)
		return
	}

	inv, err := h.invService.Validate(ctx, req.Token)
	if err != nil {
		h.lifecycleError(c, "failed to validate invitation", err)
		return
	}

	c.JSON(http.StatusOK, dto.ValidateInvitationResponse{
		Valid:      true,
		Invitation: dto.ToInvitationSummary(inv),
	})
}

// Accept consumes an invitation token for an existing account (public endpoint).
func (h *InvitationHandler) Accept(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "token and userId are required", err)
		return
	}

	inv, err := h.invService.Accept(ctx, req.Token, req.UserID, model.AcceptMetadata{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			h.fail(c, http.StatusNotFound, "user_not_found", "user not found", nil)
			return
		}
		h.lifecycleError(c, "failed to accept invitation", err)
		return
	}

	c.JSON(http.StatusOK, dto.AcceptInvitationResponse{
		Success:        true,
		Role:           inv.Role,
		OrganizationID: inv.OrganizationID,
		ProjectID:      inv.ProjectID,
	})
}

// Create issues a new invitation (admin only).
func (h *InvitationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "invalid request: email and role are required", err)
		return
	}

	inv, inviteURL, err := h.invService.Create(ctx, service.CreateInvitationParams{
		Email:          req.Email,
		Role:           model.AccountRole(req.Role),
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		InvitedBy:      req.InvitedBy,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			h.fail(c, http.StatusBadRequest, "invalid_email", "invalid email address", nil)
		case errors.Is(err, service.ErrInvalidRole):
			h.fail(c, http.StatusBadRequest, "invalid_role", "invalid role", nil)
		case errors.Is(err, service.ErrOrganizationNotFound):
			h.fail(c, http.StatusBadRequest, "organization_not_found", "organization not found", nil)
		case errors.Is(err, service.ErrDuplicateUser):
			h.fail(c, http.StatusConflict, "duplicate_user", "a user with this email already exists", nil)
		case errors.Is(err, service.ErrDuplicatePendingInvitation):
			h.fail(c, http.StatusConflict, "duplicate_pending", "a pending invitation already exists for this email", nil)
		default:
			slog.ErrorContext(ctx, "failed to create invitation", "error", err, "email", req.Email)
			h.fail(c, http.StatusInternalServerError, "", "failed to create invitation", err)
		}
		return
	}

	slog.InfoContext(ctx, "invitation created via admin API",
		"invitation_id", inv.ID,
		"email", inv.Email,
	)

	c.JSON(http.StatusCreated, dto.CreateInvitationResponse{
		Invitation: dto.CreatedInvitation{
			ID:            inv.ID,
			Email:         inv.Email,
			Role:          inv.Role,
			InvitationURL: inviteURL,
			ExpiresAt:     inv.ExpiresAt,
		},
	})
}

// Revoke revokes a pending invitation (admin only). The body is optional.
func (h *InvitationHandler) Revoke(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "invalid invitation id", nil)
		return
	}

	var req dto.RevokeInvitationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, http.StatusBadRequest, "invalid_request", "invalid request body", err)
			return
		}
	}

	inv, err := h.invService.Revoke(ctx, id, req.RevokedBy, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInviteNotFound):
			h.fail(c, http.StatusNotFound, "not_found", "invitation not found", nil)
		case errors.Is(err, service.ErrInviteAlreadyProcessed):
			h.fail(c, http.StatusConflict, "already_processed", "invitation has already been processed", nil)
		default:
			slog.ErrorContext(ctx, "failed to revoke invitation", "error", err, "invitation_id", id)
			h.fail(c, http.StatusInternalServerError, "", "failed to revoke invitation", err)
		}
		return
	}

	slog.InfoContext(ctx, "invitation revoked via admin API",
		"invitation_id", inv.ID,
		"email", inv.Email,
	)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListByOrganization lists an organization's invitations (admin only).
func (h *InvitationHandler) ListByOrganization(c *gin.Context) {
	ctx := c.Request.Context()

	orgID, err := strconv.ParseInt(c.Param("organizationId"), 10, 64)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "invalid organization id", nil)
		return
	}

	invitations, err := h.invService.ListByOrganization(ctx, orgID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list invitations", "error", err, "organization_id", orgID)
		h.fail(c, http.StatusInternalServerError, "", "failed to list invitations", err)
		return
	}

	resp := make([]dto.InvitationResponse, len(invitations))
	for i, inv := range invitations {
		resp[i] = dto.ToInvitationResponse(inv)
	}

	c.JSON(http.StatusOK, resp)
}

// lifecycleError maps invitation lifecycle failures to 400 responses carrying a
// specific code, so the invitee knows whether to ask for a new invitation.
func (h *InvitationHandler) lifecycleError(c *gin.Context, message string, err error) {
	switch {
	case errors.Is(err, service.ErrInviteNotFound):
		h.fail(c, http.StatusBadRequest, "not_found", "invitation not found", nil)
	case errors.Is(err, service.ErrInviteExpired):
		h.fail(c, http.StatusBadRequest, "expired", "invitation has expired", nil)
	case errors.Is(err, service.ErrInviteAlreadyProcessed):
		h.fail(c, http.StatusBadRequest, "already_processed", "invitation has already been processed", nil)
	default:
		slog.ErrorContext(c.Request.Context(), message, "error", err)
		h.fail(c, http.StatusInternalServerError, "", message, err)
	}
}
