package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/infra/telemetry"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/middleware"
	"github.com/karahan-cpu/martek-marina/internal/usecase"
)

// AccessHandler exposes the access code verification endpoints.
type AccessHandler struct {
	access    *usecase.AccessService
	telemetry *telemetry.Provider
}

// NewAccessHandler constructs an access handler.
func NewAccessHandler(access *usecase.AccessService, provider *telemetry.Provider) *AccessHandler {
	return &AccessHandler{access: access, telemetry: provider}
}

// RegisterRoutes binds the verification routes to the provided router group.
// Extra middlewares, such as rate limiting, run before the handlers.
func (h *AccessHandler) RegisterRoutes(r *gin.RouterGroup, verifyMiddlewares ...gin.HandlerFunc) {
	if r == nil {
		return
	}

	verifyAccess := append([]gin.HandlerFunc{}, verifyMiddlewares...)
	verifyAccess = append(verifyAccess, h.VerifyAccess)
	r.POST("/:pedestal_id/verify-access", verifyAccess...)

	verifyByCode := append([]gin.HandlerFunc{}, verifyMiddlewares...)
	verifyByCode = append(verifyByCode, h.VerifyByCode)
	r.POST("/verify-by-code", verifyByCode...)
}

// VerifyAccess handles POST /pedestals/:pedestal_id/verify-access. It
// compares the submitted code with the pedestal's stored code, enforcing
// progressive lockouts.
func (h *AccessHandler) VerifyAccess(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req VerifyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count(telemetry.ResultMalformed)
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid access code format."))
		return
	}

	pedestal, err := h.access.VerifyPedestal(c.Request.Context(), userID, c.Param("pedestal_id"), req.AccessCode)
	if err != nil {
		h.respondVerificationError(c, err)
		return
	}

	h.count(telemetry.ResultGranted)
	c.JSON(http.StatusOK, VerifyAccessResponse{
		Verified: true,
		Pedestal: newPedestalSummary(*pedestal),
	})
}

// VerifyByCode handles POST /pedestals/verify-by-code. The pedestal is
// resolved solely by the submitted code; a non-matching code yields a
// generic denial.
func (h *AccessHandler) VerifyByCode(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req VerifyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.count(telemetry.ResultMalformed)
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid access code format."))
		return
	}

	pedestal, err := h.access.VerifyByCode(c.Request.Context(), userID, req.AccessCode)
	if err != nil {
		h.respondVerificationError(c, err)
		return
	}

	h.count(telemetry.ResultGranted)
	c.JSON(http.StatusOK, VerifyAccessResponse{
		Verified: true,
		Pedestal: newPedestalSummary(*pedestal),
	})
}

// respondVerificationError maps usecase errors onto the response contract.
// Typed errors are checked before their sentinels so messages carry the wait.
func (h *AccessHandler) respondVerificationError(c *gin.Context, err error) {
	var locked *usecase.LockoutError
	if errors.As(err, &locked) {
		h.count(telemetry.ResultLockedOut)
		message := fmt.Sprintf("Too many failed attempts. Please try again in %s.", domain.FormatWait(locked.RetryAfter))
		c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, message))
		return
	}

	var rejected *usecase.CodeRejectedError
	if errors.As(err, &rejected) {
		h.count(telemetry.ResultRejected)
		message := fmt.Sprintf("Invalid access code. Your access is locked for %s due to repeated failed attempts.", domain.FormatWait(rejected.LockedFor))
		c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, message))
		return
	}

	switch {
	case errors.Is(err, usecase.ErrMalformedCode):
		h.count(telemetry.ResultMalformed)
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid access code format."))
	case errors.Is(err, usecase.ErrInvalidCode):
		h.count(telemetry.ResultRejected)
		c.JSON(http.StatusTooManyRequests, NewErrorResponse(c, "Invalid access code."))
	case errors.Is(err, usecase.ErrPedestalNotFound):
		h.count(telemetry.ResultError)
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "Pedestal not found."))
	default:
		h.count(telemetry.ResultError)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to verify access code."))
	}
}

func (h *AccessHandler) count(result string) {
	if h.telemetry != nil {
		h.telemetry.CountVerification(result)
	}
}
