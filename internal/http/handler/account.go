package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/internal/http/dto"
	"funnelhq.app/portal/internal/service"
)

type AccountHandler struct {
	deletion service.DeletionService
	errorResponder
}

func NewAccountHandler(deletion service.DeletionService, isProduction bool) *AccountHandler {
	return &AccountHandler{
		deletion:       deletion,
		errorResponder: errorResponder{isProduction: isProduction},
	}
}

// HardDeleteByEmail handles DELETE /accounts/:email/hard-delete.
func (h *AccountHandler) HardDeleteByEmail(c *gin.Context) {
	email := c.Param("email")
	h.hardDelete(c, "email", email, func(ctx context.Context) (*service.DeletionReport, error) {
		return h.deletion.HardDeleteByEmail(ctx, email)
	})
}

// HardDeleteByExternalID handles DELETE /accounts/by-external-id/:externalId/hard-delete.
func (h *AccountHandler) HardDeleteByExternalID(c *gin.Context) {
	externalID := c.Param("externalId")
	h.hardDelete(c, "external_id", externalID, func(ctx context.Context) (*service.DeletionReport, error) {
		return h.deletion.HardDeleteByExternalID(ctx, externalID)
	})
}

func (h *AccountHandler) hardDelete(c *gin.Context, keyName, key string, run func(ctx context.Context) (*service.DeletionReport, error)) {
	ctx := c.Request.Context()

	if key == "" {
		h.fail(c, http.StatusBadRequest, "invalid_request", keyName+" is required", nil)
		return
	}

	report, err := run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			h.fail(c, http.StatusNotFound, "not_found", "account not found", nil)
			return
		}
		slog.ErrorContext(ctx, "hard delete failed", "error", err, keyName, key)
		h.fail(c, http.StatusInternalServerError, "", "failed to delete account", err)
		return
	}

	slog.InfoContext(ctx, "account hard deleted via API",
		"account_id", report.AccountID,
		"rows", report.Total(),
		"failed_steps", report.FailedSteps,
	)

	c.JSON(http.StatusOK, dto.ToHardDeleteResponse(report))
}
