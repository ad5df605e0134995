package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/pricing"
	"github.com/wasel-app/wasel/internal/service/bookings"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Book(ctx context.Context, input bookings.BookInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ListForTraveler(ctx context.Context, travelerID uuid.UUID) ([]domain.Booking, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Confirm(ctx context.Context, bookingID, carrierID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Reject(ctx context.Context, bookingID, carrierID uuid.UUID, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, carrierID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Pay(ctx context.Context, bookingID, travelerID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, travelerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Cancel(ctx context.Context, bookingID, actorID uuid.UUID, by domain.CancelParty, reason string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, actorID, by, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) DepositQuote(ctx context.Context, bookingID uuid.UUID) (pricing.Breakdown, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(pricing.Breakdown), args.Error(1)
}

func (m *MockBookingUseCase) ExpireUnpaid(ctx context.Context, olderThan time.Duration) ([]domain.Booking, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func testContext(t *testing.T, method, path string, body interface{}, userID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(userIDKey, userID)
	return c, w
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	travelerID := uuid.New()
	tripID := uuid.New()
	c, w := testContext(t, "POST", "/bookings", createBookingRequest{
		TripID: tripID.String(),
		Passengers: []passengerPayload{
			{Name: "Omar", Type: "adult"},
			{Name: "Lina", Type: "child"},
		},
	}, travelerID)

	booking := &domain.Booking{
		ID:              uuid.New(),
		TripID:          tripID,
		TravelerID:      travelerID,
		CarrierID:       uuid.New(),
		Seats:           2,
		TotalPriceMinor: 30000,
		Currency:        "JOD",
		Status:          domain.BookingStatusPendingCarrierConfirmation,
	}

	mockService.On("Book", c.Request.Context(), mock.MatchedBy(func(input bookings.BookInput) bool {
		return input.TripID == tripID && input.TravelerID == travelerID && len(input.Manifest) == 2
	})).Return(booking, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.BookingStatusPendingCarrierConfirmation), response.Status)
	assert.Equal(t, int64(30000), response.TotalPriceMinor)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_invalidTripID(t *testing.T) {
	handler := NewBookingHandler(&MockBookingUseCase{})

	c, w := testContext(t, "POST", "/bookings", createBookingRequest{TripID: "not-a-uuid"}, uuid.New())

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_confirm_capacityConflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	carrierID := uuid.New()
	bookingID := uuid.New()
	c, w := testContext(t, "POST", "/bookings/"+bookingID.String()+"/confirm", nil, carrierID)
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}

	mockService.On("Confirm", c.Request.Context(), bookingID, carrierID).
		Return(nil, domain.CapacityError{Requested: 2, Available: 1})

	handler.confirm(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_pay(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	travelerID := uuid.New()
	bookingID := uuid.New()
	c, w := testContext(t, "POST", "/bookings/"+bookingID.String()+"/pay", nil, travelerID)
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}

	paid := &domain.Booking{ID: bookingID, TravelerID: travelerID, CarrierID: uuid.New(), Status: domain.BookingStatusConfirmed}
	mockService.On("Pay", c.Request.Context(), bookingID, travelerID).Return(paid, nil)

	handler.pay(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.BookingStatusConfirmed), response.Status)
}

func TestBookingHandler_cancel_byTraveler(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	travelerID := uuid.New()
	bookingID := uuid.New()
	c, w := testContext(t, "POST", "/bookings/"+bookingID.String()+"/cancel", reasonRequest{Reason: "change of plans"}, travelerID)
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}

	existing := &domain.Booking{ID: bookingID, TravelerID: travelerID, CarrierID: uuid.New(), Status: domain.BookingStatusConfirmed}
	cancelled := &domain.Booking{ID: bookingID, TravelerID: travelerID, CarrierID: existing.CarrierID, Status: domain.BookingStatusCancelled, CancelledBy: domain.CancelledByTraveler}

	mockService.On("Get", c.Request.Context(), bookingID).Return(existing, nil)
	mockService.On("Cancel", c.Request.Context(), bookingID, travelerID, domain.CancelledByTraveler, "change of plans").Return(cancelled, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.CancelledByTraveler), response.CancelledBy)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_strangerGets404(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	bookingID := uuid.New()
	c, w := testContext(t, "POST", "/bookings/"+bookingID.String()+"/cancel", reasonRequest{Reason: "nope"}, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}

	existing := &domain.Booking{ID: bookingID, TravelerID: uuid.New(), CarrierID: uuid.New(), Status: domain.BookingStatusConfirmed}
	mockService.On("Get", c.Request.Context(), bookingID).Return(existing, nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertNotCalled(t, "Cancel")
}

func TestBookingHandler_quote(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	bookingID := uuid.New()
	c, w := testContext(t, "GET", "/bookings/"+bookingID.String()+"/quote", nil, uuid.New())
	c.Params = gin.Params{{Key: "id", Value: bookingID.String()}}

	mockService.On("DepositQuote", c.Request.Context(), bookingID).
		Return(pricing.Breakdown{TotalMinor: 30000, DepositMinor: 6000, RemainingMinor: 24000}, nil)

	handler.quote(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]int64
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(6000), response["deposit_minor"])
	assert.Equal(t, int64(24000), response["remaining_minor"])
}
