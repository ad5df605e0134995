package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/matching"
)

type MockMatchingUseCase struct {
	mock.Mock
}

func (m *MockMatchingUseCase) OpenRequests(ctx context.Context, carrierID uuid.UUID, includeAll bool) (matching.Result, error) {
	args := m.Called(ctx, carrierID, includeAll)
	return args.Get(0).(matching.Result), args.Error(1)
}

func TestMatchingHandler_openRequests(t *testing.T) {
	mockService := &MockMatchingUseCase{}
	handler := NewMatchingHandler(mockService)

	carrierID := uuid.New()
	c, w := testContext(t, "GET", "/matching/requests", nil, carrierID)

	result := matching.Result{Trips: []domain.Trip{
		{ID: uuid.New(), Kind: domain.TripKindGeneralRequest, Status: domain.TripStatusAwaitingOffers, PassengerCount: 2},
	}}
	mockService.On("OpenRequests", c.Request.Context(), carrierID, false).Return(result, nil)

	handler.openRequests(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Requests              []tripResponse `json:"requests"`
		SpecializationMissing bool           `json:"specialization_missing"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response.Requests, 1)
	assert.False(t, response.SpecializationMissing)
}

func TestMatchingHandler_openRequests_includeAll(t *testing.T) {
	mockService := &MockMatchingUseCase{}
	handler := NewMatchingHandler(mockService)

	carrierID := uuid.New()
	c, w := testContext(t, "GET", "/matching/requests?all=true", nil, carrierID)

	mockService.On("OpenRequests", c.Request.Context(), carrierID, true).Return(matching.Result{Trips: []domain.Trip{}}, nil)

	handler.openRequests(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestMatchingHandler_openRequests_specializationMissing(t *testing.T) {
	mockService := &MockMatchingUseCase{}
	handler := NewMatchingHandler(mockService)

	carrierID := uuid.New()
	c, w := testContext(t, "GET", "/matching/requests", nil, carrierID)

	mockService.On("OpenRequests", c.Request.Context(), carrierID, false).
		Return(matching.Result{Trips: []domain.Trip{}, SpecializationMissing: true}, nil)

	handler.openRequests(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		SpecializationMissing bool `json:"specialization_missing"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.SpecializationMissing)
}
