package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"funnelhq.app/portal/internal/http/dto"
	"funnelhq.app/portal/internal/service"
)

const (
	bundleFormField = "bundle"
	maxBundleBytes  = 10 << 20
)

type RecoveryHandler struct {
	recovery service.RecoveryService
	errorResponder
}

func NewRecoveryHandler(recovery service.RecoveryService, isProduction bool) *RecoveryHandler {
	return &RecoveryHandler{
		recovery:       recovery,
		errorResponder: errorResponder{isProduction: isProduction},
	}
}

// Validate checks an uploaded export bundle without staging it.
func (h *RecoveryHandler) Validate(c *gin.Context) {
	raw, ok := h.readBundle(c)
	if !ok {
		return
	}

	bundle, err := h.recovery.Validate(c.Request.Context(), raw)
	if err != nil {
		h.bundleError(c, "failed to validate bundle", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBundleSummary(bundle))
}

// Stage validates the bundle and queues a recovery job (admin only).
func (h *RecoveryHandler) Stage(c *gin.Context) {
	ctx := c.Request.Context()

	raw, ok := h.readBundle(c)
	if !ok {
		return
	}

	job, err := h.recovery.Stage(ctx, raw)
	if err != nil {
		h.bundleError(c, "failed to stage recovery job", err)
		return
	}

	slog.InfoContext(ctx, "recovery job staged via API", "job_id", job.ID)

	c.JSON(http.StatusAccepted, dto.StageRecoveryResponse{
		JobID:  job.ID,
		Status: string(job.Status),
	})
}

func (h *RecoveryHandler) readBundle(c *gin.Context) ([]byte, bool) {
	file, err := c.FormFile(bundleFormField)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "multipart field 'bundle' is required", err)
		return nil, false
	}
	if file.Size > maxBundleBytes {
		h.fail(c, http.StatusRequestEntityTooLarge, "bundle_too_large", "bundle exceeds 10MB", nil)
		return nil, false
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "failed to open bundle", err)
		return nil, false
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, http.StatusBadRequest, "invalid_request", "failed to read bundle", err)
		return nil, false
	}
	return raw, true
}

func (h *RecoveryHandler) bundleError(c *gin.Context, message string, err error) {
	var bundleErr *service.BundleError
	if errors.As(err, &bundleErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "invalid export bundle",
			"code":     "invalid_bundle",
			"problems": bundleErr.Problems,
		})
		return
	}
	slog.ErrorContext(c.Request.Context(), message, "error", err)
	h.fail(c, http.StatusInternalServerError, "", message, err)
}
