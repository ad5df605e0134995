package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/repository"
	"github.com/wasel-app/wasel/internal/service/trips"
)

type MockTripUseCase struct {
	mock.Mock
}

func (m *MockTripUseCase) CreateRequest(ctx context.Context, input trips.CreateRequestInput) (*domain.Trip, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) CreateScheduled(ctx context.Context, input trips.CreateScheduledInput) (*domain.Trip, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) ListForRequester(ctx context.Context, travelerID uuid.UUID) ([]domain.Trip, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) ListForCarrier(ctx context.Context, carrierID uuid.UUID) ([]domain.Trip, error) {
	args := m.Called(ctx, carrierID)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) Update(ctx context.Context, tripID, carrierID uuid.UUID, patch repository.TripPatch) (*domain.Trip, error) {
	args := m.Called(ctx, tripID, carrierID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripUseCase) Transition(ctx context.Context, tripID, carrierID uuid.UUID, action domain.TripAction, reason string) (*repository.TripTransition, error) {
	args := m.Called(ctx, tripID, carrierID, action, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TripTransition), args.Error(1)
}

func TestTripHandler_create_scheduled(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	carrierID := uuid.New()
	departure := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	c, w := testContext(t, "POST", "/trips", createTripRequest{
		Kind:              string(domain.TripKindScheduled),
		Origin:            "Amman",
		Destination:       "Aqaba",
		DepartureDate:     departure,
		PricePerSeatMinor: 15000,
		Currency:          "JOD",
		DepositPercent:    20,
		AvailableSeats:    4,
	}, carrierID)

	created := &domain.Trip{
		ID: uuid.New(), Kind: domain.TripKindScheduled, Origin: "Amman", Destination: "Aqaba",
		DepartureDate: departure, CarrierID: carrierID, PricePerSeatMinor: 15000,
		Currency: "JOD", DepositPercent: 20, AvailableSeats: 4, Status: domain.TripStatusPlanned,
	}
	mockService.On("CreateScheduled", c.Request.Context(), mock.MatchedBy(func(input trips.CreateScheduledInput) bool {
		return input.CarrierID == carrierID && input.AvailableSeats == 4
	})).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response tripResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.TripStatusPlanned), response.Status)
	assert.Equal(t, 4, response.AvailableSeats)
	mockService.AssertExpectations(t)
}

func TestTripHandler_create_generalRequest(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	travelerID := uuid.New()
	c, w := testContext(t, "POST", "/trips", createTripRequest{
		Kind:        string(domain.TripKindGeneralRequest),
		Origin:      "Amman",
		Destination: "Irbid",
		Passengers:  []passengerPayload{{Name: "Omar", Type: "adult"}},
	}, travelerID)

	created := &domain.Trip{
		ID: uuid.New(), Kind: domain.TripKindGeneralRequest, Origin: "Amman", Destination: "Irbid",
		RequesterID: travelerID, PassengerCount: 1, Status: domain.TripStatusAwaitingOffers,
	}
	mockService.On("CreateRequest", c.Request.Context(), mock.MatchedBy(func(input trips.CreateRequestInput) bool {
		return input.RequesterID == travelerID && input.Kind == domain.TripKindGeneralRequest && len(input.Manifest) == 1
	})).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response tripResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.TripStatusAwaitingOffers), response.Status)
	mockService.AssertExpectations(t)
}

func TestTripHandler_create_validationMapsTo400(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	c, w := testContext(t, "POST", "/trips", createTripRequest{
		Kind: string(domain.TripKindGeneralRequest),
	}, uuid.New())

	mockService.On("CreateRequest", c.Request.Context(), mock.Anything).
		Return(nil, domain.ValidationError{Field: "origin", Msg: "is required"})

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTripHandler_get_notFound(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	id := uuid.New()
	c, w := testContext(t, "GET", "/trips/"+id.String(), nil, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	mockService.On("Get", c.Request.Context(), id).Return(nil, domain.NotFoundError{Resource: "trip"})

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTripHandler_get_invalidID(t *testing.T) {
	handler := NewTripHandler(&MockTripUseCase{})

	c, w := testContext(t, "GET", "/trips/abc", nil, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTripHandler_list_byRole(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	carrierID := uuid.New()
	c, w := testContext(t, "GET", "/trips?role=carrier", nil, carrierID)

	mockService.On("ListForCarrier", c.Request.Context(), carrierID).
		Return([]domain.Trip{{ID: uuid.New(), Kind: domain.TripKindScheduled, CarrierID: carrierID}}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []tripResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 1)
	mockService.AssertNotCalled(t, "ListForRequester")
}

func TestTripHandler_transition_cancel(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	carrierID := uuid.New()
	tripID := uuid.New()
	c, w := testContext(t, "POST", "/trips/"+tripID.String()+"/cancel", transitionRequest{Reason: "breakdown"}, carrierID)
	c.Params = gin.Params{{Key: "id", Value: tripID.String()}}

	result := &repository.TripTransition{
		Trip:     domain.Trip{ID: tripID, Status: domain.TripStatusCancelled},
		Bookings: []domain.Booking{{ID: uuid.New()}, {ID: uuid.New()}},
	}
	mockService.On("Transition", c.Request.Context(), tripID, carrierID, domain.TripActionCancel, "breakdown").Return(result, nil)

	handler.transition(domain.TripActionCancel)(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Trip              tripResponse `json:"trip"`
		CancelledBookings int          `json:"cancelled_bookings"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.TripStatusCancelled), response.Trip.Status)
	assert.Equal(t, 2, response.CancelledBookings)
}

func TestTripHandler_transition_invalidStateMapsTo422(t *testing.T) {
	mockService := &MockTripUseCase{}
	handler := NewTripHandler(mockService)

	carrierID := uuid.New()
	tripID := uuid.New()
	c, w := testContext(t, "POST", "/trips/"+tripID.String()+"/start", nil, carrierID)
	c.Params = gin.Params{{Key: "id", Value: tripID.String()}}

	mockService.On("Transition", c.Request.Context(), tripID, carrierID, domain.TripActionStart, "").
		Return(nil, domain.InvalidStateError{Entity: "trip", Status: "COMPLETED", Op: "start"})

	handler.transition(domain.TripActionStart)(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
