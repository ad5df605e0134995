package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/service/offers"
)

type OfferHandler struct {
	service offers.OfferUseCase
}

func NewOfferHandler(service offers.OfferUseCase) *OfferHandler {
	return &OfferHandler{service: service}
}

// Register mounts the offer routes under the trips group; an offer never
// exists outside its trip.
func (h *OfferHandler) Register(router *gin.RouterGroup) {
	router.POST("/:id/offers", h.submit)
	router.GET("/:id/offers", h.list)
	router.POST("/:id/offers/:offerID/accept", h.accept)
}

type submitOfferRequest struct {
	PricePerSeatMinor  int64  `json:"price_per_seat_minor"`
	Currency           string `json:"currency"`
	DepositPercent     int    `json:"deposit_percent"`
	VehicleDescription string `json:"vehicle_description"`
}

type offerResponse struct {
	ID                 string `json:"id"`
	TripID             string `json:"trip_id"`
	CarrierID          string `json:"carrier_id"`
	PricePerSeatMinor  int64  `json:"price_per_seat_minor"`
	Currency           string `json:"currency"`
	DepositPercent     int    `json:"deposit_percent"`
	VehicleDescription string `json:"vehicle_description,omitempty"`
	Status             string `json:"status"`
	CreatedAt          string `json:"created_at"`
}

func toOfferResponse(o *domain.Offer) offerResponse {
	return offerResponse{
		ID:                 o.ID.String(),
		TripID:             o.TripID.String(),
		CarrierID:          o.CarrierID.String(),
		PricePerSeatMinor:  o.PricePerSeatMinor,
		Currency:           o.Currency,
		DepositPercent:     o.DepositPercent,
		VehicleDescription: o.VehicleDescription,
		Status:             string(o.Status),
		CreatedAt:          o.CreatedAt.Format(time.RFC3339),
	}
}

func (h *OfferHandler) submit(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	var req submitOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	offer, err := h.service.Submit(c.Request.Context(), offers.SubmitInput{
		TripID:             tripID,
		CarrierID:          currentUserID(c),
		PricePerSeatMinor:  req.PricePerSeatMinor,
		Currency:           req.Currency,
		DepositPercent:     req.DepositPercent,
		VehicleDescription: req.VehicleDescription,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOfferResponse(offer))
}

func (h *OfferHandler) list(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	result, err := h.service.ListByTrip(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]offerResponse, 0, len(result))
	for i := range result {
		responses = append(responses, toOfferResponse(&result[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *OfferHandler) accept(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid trip id"})
		return
	}
	offerID, err := uuid.Parse(c.Param("offerID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer id"})
		return
	}

	acceptance, err := h.service.Accept(c.Request.Context(), tripID, offerID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"offer":   toOfferResponse(&acceptance.Offer),
		"trip":    toTripResponse(&acceptance.Trip),
		"booking": toBookingResponse(&acceptance.Booking),
	})
}
