package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/middleware"
	"github.com/karahan-cpu/martek-marina/internal/usecase"
)

// PedestalHandler exposes pedestal queries and the guarded control endpoint.
type PedestalHandler struct {
	pedestals *usecase.PedestalService
	control   *usecase.ControlService
}

// NewPedestalHandler constructs a pedestal handler.
func NewPedestalHandler(pedestals *usecase.PedestalService, control *usecase.ControlService) *PedestalHandler {
	return &PedestalHandler{pedestals: pedestals, control: control}
}

// RegisterRoutes binds pedestal routes to the provided router group.
func (h *PedestalHandler) RegisterRoutes(r *gin.RouterGroup) {
	if r == nil {
		return
	}

	r.GET("", h.ListPedestals)
	r.GET("/:pedestal_id", h.GetPedestal)
	r.PATCH("/:pedestal_id", h.UpdateServices)
}

// RegisterAdminRoutes binds admin-only pedestal routes.
func (h *PedestalHandler) RegisterAdminRoutes(r *gin.RouterGroup) {
	if r == nil {
		return
	}

	r.GET("", h.AdminListPedestals)
}

// ListPedestals handles GET /pedestals, returning all pedestals without
// their access codes.
func (h *PedestalHandler) ListPedestals(c *gin.Context) {
	pedestals, err := h.pedestals.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to list pedestals."))
		return
	}

	summaries := make([]PedestalSummary, 0, len(pedestals))
	for _, p := range pedestals {
		summaries = append(summaries, newPedestalSummary(p))
	}

	c.JSON(http.StatusOK, PedestalListResponse{Pedestals: summaries, Total: len(summaries)})
}

// GetPedestal handles GET /pedestals/:pedestal_id.
func (h *PedestalHandler) GetPedestal(c *gin.Context) {
	pedestal, err := h.pedestals.Get(c.Request.Context(), c.Param("pedestal_id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPedestalNotFound, Status: http.StatusNotFound, Message: "Pedestal not found."},
		}, http.StatusInternalServerError, "Failed to load pedestal.")
		return
	}

	c.JSON(http.StatusOK, newPedestalSummary(*pedestal))
}

// serviceUpdateRequest is the strict PATCH payload. Decoding rejects unknown
// fields wholesale, so a request cannot smuggle status or usage changes.
type serviceUpdateRequest struct {
	WaterEnabled       *bool `json:"waterEnabled"`
	ElectricityEnabled *bool `json:"electricityEnabled"`
}

// UpdateServices handles PATCH /pedestals/:pedestal_id, toggling the water
// and electricity services. The caller must have verified the pedestal's
// access code first.
func (h *PedestalHandler) UpdateServices(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok || userID == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req serviceUpdateRequest
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request body."))
		return
	}

	pedestal, err := h.control.UpdateServices(c.Request.Context(), userID, c.Param("pedestal_id"), domain.ServiceUpdate{
		WaterEnabled:       req.WaterEnabled,
		ElectricityEnabled: req.ElectricityEnabled,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccessDenied, Status: http.StatusForbidden, Message: "Access denied. Please verify access code first."},
			{Err: usecase.ErrPedestalNotFound, Status: http.StatusNotFound, Message: "Pedestal not found."},
		}, http.StatusInternalServerError, "Failed to update pedestal services.")
		return
	}

	c.JSON(http.StatusOK, newPedestalSummary(*pedestal))
}

// AdminListPedestals handles GET /admin/pedestals, an admin-only listing
// that includes each pedestal's stored access code.
func (h *PedestalHandler) AdminListPedestals(c *gin.Context) {
	pedestals, err := h.pedestals.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Failed to list pedestals."))
		return
	}

	out := make([]AdminPedestal, 0, len(pedestals))
	for _, p := range pedestals {
		out = append(out, newAdminPedestal(p))
	}

	c.JSON(http.StatusOK, AdminPedestalListResponse{Pedestals: out, Total: len(out)})
}
