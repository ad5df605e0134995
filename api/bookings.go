package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/service/bookings"
)

type BookingHandler struct {
	service bookings.BookingUseCase
}

func NewBookingHandler(service bookings.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/quote", h.quote)
	router.POST("/:id/confirm", h.confirm)
	router.POST("/:id/reject", h.reject)
	router.POST("/:id/pay", h.pay)
	router.POST("/:id/cancel", h.cancel)
}

type createBookingRequest struct {
	TripID     string             `json:"trip_id"`
	Passengers []passengerPayload `json:"passengers"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type bookingResponse struct {
	ID                 string             `json:"id"`
	TripID             string             `json:"trip_id"`
	TravelerID         string             `json:"traveler_id"`
	CarrierID          string             `json:"carrier_id"`
	Seats              int                `json:"seats"`
	Passengers         []passengerPayload `json:"passengers,omitempty"`
	TotalPriceMinor    int64              `json:"total_price_minor"`
	Currency           string             `json:"currency"`
	Status             string             `json:"status"`
	CancelledBy        string             `json:"cancelled_by,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	CreatedAt          string             `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:                 b.ID.String(),
		TripID:             b.TripID.String(),
		TravelerID:         b.TravelerID.String(),
		CarrierID:          b.CarrierID.String(),
		Seats:              b.Seats,
		TotalPriceMinor:    b.TotalPriceMinor,
		Currency:           b.Currency,
		Status:             string(b.Status),
		CancelledBy:        string(b.CancelledBy),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
	}
	for _, p := range b.PassengerManifest {
		resp.Passengers = append(resp.Passengers, passengerPayload{Name: p.Name, Type: string(p.Type)})
	}
	return resp
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip_id"})
		return
	}

	manifest := make([]domain.Passenger, 0, len(req.Passengers))
	for _, p := range req.Passengers {
		manifest = append(manifest, domain.Passenger{Name: p.Name, Type: domain.PassengerType(p.Type)})
	}

	booking, err := h.service.Book(c.Request.Context(), bookings.BookInput{
		TripID:     tripID,
		TravelerID: currentUserID(c),
		Manifest:   manifest,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) list(c *gin.Context) {
	result, err := h.service.ListForTraveler(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]bookingResponse, 0, len(result))
	for i := range result {
		responses = append(responses, toBookingResponse(&result[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	booking, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) quote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	breakdown, err := h.service.DepositQuote(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_minor":     breakdown.TotalMinor,
		"deposit_minor":   breakdown.DepositMinor,
		"remaining_minor": breakdown.RemainingMinor,
	})
}

func (h *BookingHandler) confirm(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	booking, err := h.service.Confirm(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	booking, err := h.service.Reject(c.Request.Context(), id, currentUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	booking, err := h.service.Pay(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

// cancel resolves the cancelling party from who the caller is on the
// booking; a stranger gets a 404.
func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req reasonRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	userID := currentUserID(c)
	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	var by domain.CancelParty
	switch userID {
	case existing.TravelerID:
		by = domain.CancelledByTraveler
	case existing.CarrierID:
		by = domain.CancelledByCarrier
	default:
		respondError(c, domain.NotFoundError{Resource: "booking"})
		return
	}

	booking, err := h.service.Cancel(c.Request.Context(), id, userID, by, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}
