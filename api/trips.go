package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/repository"
	"github.com/wasel-app/wasel/internal/service/trips"
)

type TripHandler struct {
	service trips.TripUseCase
}

func NewTripHandler(service trips.TripUseCase) *TripHandler {
	return &TripHandler{service: service}
}

func (h *TripHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.POST("/:id/start", h.transition(domain.TripActionStart))
	router.POST("/:id/complete", h.transition(domain.TripActionComplete))
	router.POST("/:id/cancel", h.transition(domain.TripActionCancel))
}

type passengerPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type createTripRequest struct {
	Kind              string             `json:"kind"`
	Origin            string             `json:"origin"`
	Destination       string             `json:"destination"`
	DepartureDate     time.Time          `json:"departure_date"`
	TargetCarrierID   string             `json:"target_carrier_id"`
	Passengers        []passengerPayload `json:"passengers"`
	PricePerSeatMinor int64              `json:"price_per_seat_minor"`
	Currency          string             `json:"currency"`
	DepositPercent    int                `json:"deposit_percent"`
	AvailableSeats    int                `json:"available_seats"`
}

type updateTripRequest struct {
	PricePerSeatMinor *int64     `json:"price_per_seat_minor"`
	AvailableSeats    *int       `json:"available_seats"`
	DepartureDate     *time.Time `json:"departure_date"`
	DepositPercent    *int       `json:"deposit_percent"`
}

type transitionRequest struct {
	Reason string `json:"reason"`
}

type tripResponse struct {
	ID                string             `json:"id"`
	Kind              string             `json:"kind"`
	Origin            string             `json:"origin"`
	Destination       string             `json:"destination"`
	DepartureDate     string             `json:"departure_date"`
	RequesterID       string             `json:"requester_id,omitempty"`
	CarrierID         string             `json:"carrier_id,omitempty"`
	TargetCarrierID   string             `json:"target_carrier_id,omitempty"`
	PricePerSeatMinor int64              `json:"price_per_seat_minor"`
	TotalPriceMinor   int64              `json:"total_price_minor,omitempty"`
	Currency          string             `json:"currency,omitempty"`
	DepositPercent    int                `json:"deposit_percent"`
	AvailableSeats    int                `json:"available_seats"`
	PassengerCount    int                `json:"passenger_count"`
	Passengers        []passengerPayload `json:"passengers,omitempty"`
	Status            string             `json:"status"`
	CreatedAt         string             `json:"created_at"`
}

func toTripResponse(t *domain.Trip) tripResponse {
	resp := tripResponse{
		ID:                t.ID.String(),
		Kind:              string(t.Kind),
		Origin:            t.Origin,
		Destination:       t.Destination,
		DepartureDate:     t.DepartureDate.Format(time.RFC3339),
		PricePerSeatMinor: t.PricePerSeatMinor,
		TotalPriceMinor:   t.TotalPriceMinor,
		Currency:          t.Currency,
		DepositPercent:    t.DepositPercent,
		AvailableSeats:    t.AvailableSeats,
		PassengerCount:    t.PassengerCount,
		Status:            string(t.Status),
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
	}
	if t.RequesterID != uuid.Nil {
		resp.RequesterID = t.RequesterID.String()
	}
	if t.CarrierID != uuid.Nil {
		resp.CarrierID = t.CarrierID.String()
	}
	if t.TargetCarrierID != uuid.Nil {
		resp.TargetCarrierID = t.TargetCarrierID.String()
	}
	for _, p := range t.PassengerManifest {
		resp.Passengers = append(resp.Passengers, passengerPayload{Name: p.Name, Type: string(p.Type)})
	}
	return resp
}

func (h *TripHandler) create(c *gin.Context) {
	var req createTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	var trip *domain.Trip
	var err error

	if domain.TripKind(req.Kind) == domain.TripKindScheduled {
		trip, err = h.service.CreateScheduled(c.Request.Context(), trips.CreateScheduledInput{
			CarrierID:         userID,
			Origin:            req.Origin,
			Destination:       req.Destination,
			DepartureDate:     req.DepartureDate,
			PricePerSeatMinor: req.PricePerSeatMinor,
			Currency:          req.Currency,
			DepositPercent:    req.DepositPercent,
			AvailableSeats:    req.AvailableSeats,
		})
	} else {
		var target uuid.UUID
		if req.TargetCarrierID != "" {
			target, err = uuid.Parse(req.TargetCarrierID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target_carrier_id"})
				return
			}
		}
		manifest := make([]domain.Passenger, 0, len(req.Passengers))
		for _, p := range req.Passengers {
			manifest = append(manifest, domain.Passenger{Name: p.Name, Type: domain.PassengerType(p.Type)})
		}
		trip, err = h.service.CreateRequest(c.Request.Context(), trips.CreateRequestInput{
			RequesterID:     userID,
			Kind:            domain.TripKind(req.Kind),
			Origin:          req.Origin,
			Destination:     req.Destination,
			DepartureDate:   req.DepartureDate,
			TargetCarrierID: target,
			Manifest:        manifest,
		})
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTripResponse(trip))
}

func (h *TripHandler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	trip, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripResponse(trip))
}

func (h *TripHandler) list(c *gin.Context) {
	userID := currentUserID(c)

	var (
		result []domain.Trip
		err    error
	)
	if c.Query("role") == "carrier" {
		result, err = h.service.ListForCarrier(c.Request.Context(), userID)
	} else {
		result, err = h.service.ListForRequester(c.Request.Context(), userID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]tripResponse, 0, len(result))
	for i := range result {
		responses = append(responses, toTripResponse(&result[i]))
	}
	c.JSON(http.StatusOK, responses)
}

func (h *TripHandler) update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req updateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	trip, err := h.service.Update(c.Request.Context(), id, currentUserID(c), repository.TripPatch{
		PricePerSeatMinor: req.PricePerSeatMinor,
		AvailableSeats:    req.AvailableSeats,
		DepartureDate:     req.DepartureDate,
		DepositPercent:    req.DepositPercent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTripResponse(trip))
}

func (h *TripHandler) transition(action domain.TripAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req transitionRequest
		if c.Request.Body != nil && c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		result, err := h.service.Transition(c.Request.Context(), id, currentUserID(c), action, req.Reason)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"trip":               toTripResponse(&result.Trip),
			"cancelled_bookings": len(result.Bookings),
		})
	}
}
