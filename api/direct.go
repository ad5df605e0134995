package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/service/direct"
)

type DirectHandler struct {
	service direct.DirectUseCase
}

func NewDirectHandler(service direct.DirectUseCase) *DirectHandler {
	return &DirectHandler{service: service}
}

// Register mounts the direct-request decision routes under the trips group.
func (h *DirectHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/approve", h.approve)
	router.POST("/:id/reject", h.reject)
}

type approveRequest struct {
	TotalPriceMinor int64  `json:"total_price_minor"`
	Currency        string `json:"currency"`
}

func (h *DirectHandler) approve(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	approval, err := h.service.Approve(c.Request.Context(), tripID, currentUserID(c), req.TotalPriceMinor, req.Currency)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trip":    toTripResponse(&approval.Trip),
		"booking": toBookingResponse(&approval.Booking),
	})
}

func (h *DirectHandler) reject(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Reject(c.Request.Context(), tripID, currentUserID(c), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}
