package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// VerifyAccessRequest defines the payload for the access verification endpoints.
type VerifyAccessRequest struct {
	AccessCode string `json:"accessCode" binding:"required"`
}

// PedestalSummary describes a pedestal as returned by the non-admin API.
// The stored access code is never included here.
type PedestalSummary struct {
	ID                 string  `json:"id"`
	MarinaID           string  `json:"marinaId"`
	BerthNumber        string  `json:"berthNumber"`
	Status             string  `json:"status"`
	WaterEnabled       bool    `json:"waterEnabled"`
	ElectricityEnabled bool    `json:"electricityEnabled"`
	WaterUsage         float64 `json:"waterUsage"`
	ElectricityUsage   float64 `json:"electricityUsage"`
	CurrentUserID      *string `json:"currentUserId,omitempty"`
	LocationX          float64 `json:"locationX"`
	LocationY          float64 `json:"locationY"`
}

// AdminPedestal extends the summary with the stored access code for
// admin-only surfaces.
type AdminPedestal struct {
	PedestalSummary
	AccessCode string `json:"accessCode"`
}

// VerifyAccessResponse is returned on successful code verification.
type VerifyAccessResponse struct {
	Verified bool            `json:"verified"`
	Pedestal PedestalSummary `json:"pedestal"`
}

// PedestalListResponse wraps a pedestal collection.
type PedestalListResponse struct {
	Pedestals []PedestalSummary `json:"pedestals"`
	Total     int               `json:"total"`
}

// AdminPedestalListResponse wraps the admin pedestal collection.
type AdminPedestalListResponse struct {
	Pedestals []AdminPedestal `json:"pedestals"`
	Total     int             `json:"total"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes readiness info including dependency checks.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newPedestalSummary(p domain.Pedestal) PedestalSummary {
	return PedestalSummary{
		ID:                 p.ID,
		MarinaID:           p.MarinaID,
		BerthNumber:        p.BerthNumber,
		Status:             string(p.Status),
		WaterEnabled:       p.WaterEnabled,
		ElectricityEnabled: p.ElectricityEnabled,
		WaterUsage:         p.WaterUsage,
		ElectricityUsage:   p.ElectricityUsage,
		CurrentUserID:      p.CurrentUserID,
		LocationX:          p.LocationX,
		LocationY:          p.LocationY,
	}
}

func newAdminPedestal(p domain.Pedestal) AdminPedestal {
	return AdminPedestal{
		PedestalSummary: newPedestalSummary(p),
		AccessCode:      p.AccessCode,
	}
}
