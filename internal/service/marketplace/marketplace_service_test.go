package marketplace

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wasel-app/wasel/internal/domain"
	"github.com/wasel-app/wasel/internal/repository"
)

type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	args := m.Called(ctx, trip)
	return args.Error(0)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ListOpenGeneralRequests(ctx context.Context) ([]domain.Trip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ListByRequester(ctx context.Context, travelerID uuid.UUID) ([]domain.Trip, error) {
	args := m.Called(ctx, travelerID)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) ListByCarrier(ctx context.Context, carrierID uuid.UUID) ([]domain.Trip, error) {
	args := m.Called(ctx, carrierID)
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockTripRepository) UpdatePlanned(ctx context.Context, tripID, carrierID uuid.UUID, patch repository.TripPatch) (*domain.Trip, error) {
	args := m.Called(ctx, tripID, carrierID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

func (m *MockTripRepository) Transition(ctx context.Context, tripID, carrierID uuid.UUID, action domain.TripAction, reason string) (*repository.TripTransition, error) {
	args := m.Called(ctx, tripID, carrierID, action, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TripTransition), args.Error(1)
}

func (m *MockTripRepository) RejectDirect(ctx context.Context, tripID, carrierID uuid.UUID) (*domain.Trip, error) {
	args := m.Called(ctx, tripID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Trip), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByCarrierID(ctx context.Context, carrierID uuid.UUID) (domain.CarrierProfile, error) {
	args := m.Called(ctx, carrierID)
	return args.Get(0).(domain.CarrierProfile), args.Error(1)
}

type MockPoolCache struct {
	mock.Mock
}

func (m *MockPoolCache) GetOpenRequests(ctx context.Context) ([]domain.Trip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Trip), args.Error(1)
}

func (m *MockPoolCache) SetOpenRequests(ctx context.Context, trips []domain.Trip) error {
	args := m.Called(ctx, trips)
	return args.Error(0)
}

func openRequest(origin, destination string, passengers int) domain.Trip {
	return domain.Trip{
		ID:             uuid.New(),
		Kind:           domain.TripKindGeneralRequest,
		Origin:         origin,
		Destination:    destination,
		PassengerCount: passengers,
		Status:         domain.TripStatusAwaitingOffers,
	}
}

func ammanAqabaProfile(capacity int) domain.CarrierProfile {
	return domain.CarrierProfile{
		CarrierID:       uuid.New(),
		PrimaryRoute:    domain.Route{Origin: "Amman", Destination: "Aqaba"},
		VehicleCapacity: capacity,
	}
}

func TestMatchingService_OpenRequests_FiltersRouteAndCapacity(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	mockCache := &MockPoolCache{}
	service := NewMatchingService(mockTrips, mockProfiles, mockCache)

	ctx := context.Background()
	profile := ammanAqabaProfile(4)
	onRoute := openRequest("Amman", "Aqaba", 3)
	offRoute := openRequest("Amman", "Irbid", 2)
	tooBig := openRequest("Amman", "Aqaba", 6)
	pool := []domain.Trip{onRoute, offRoute, tooBig}

	mockProfiles.On("GetByCarrierID", ctx, profile.CarrierID).Return(profile, nil).Once()
	mockCache.On("GetOpenRequests", ctx).Return(pool, nil).Once()

	result, err := service.OpenRequests(ctx, profile.CarrierID, false)

	assert.NoError(t, err)
	assert.False(t, result.SpecializationMissing)
	assert.Len(t, result.Trips, 1)
	assert.Equal(t, onRoute.ID, result.Trips[0].ID)

	// Cache hit means the database is never touched.
	mockTrips.AssertNotCalled(t, "ListOpenGeneralRequests")
}

func TestMatchingService_OpenRequests_IncludeAllKeepsCapacityFilter(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	mockCache := &MockPoolCache{}
	service := NewMatchingService(mockTrips, mockProfiles, mockCache)

	ctx := context.Background()
	profile := ammanAqabaProfile(4)
	offRoute := openRequest("Amman", "Irbid", 2)
	tooBig := openRequest("Amman", "Irbid", 6)
	pool := []domain.Trip{offRoute, tooBig}

	mockProfiles.On("GetByCarrierID", ctx, profile.CarrierID).Return(profile, nil).Once()
	mockCache.On("GetOpenRequests", ctx).Return(pool, nil).Once()

	result, err := service.OpenRequests(ctx, profile.CarrierID, true)

	assert.NoError(t, err)
	assert.Len(t, result.Trips, 1)
	assert.Equal(t, offRoute.ID, result.Trips[0].ID)
}

func TestMatchingService_OpenRequests_CacheMissLoadsAndStores(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	mockCache := &MockPoolCache{}
	service := NewMatchingService(mockTrips, mockProfiles, mockCache)

	ctx := context.Background()
	profile := ammanAqabaProfile(4)
	pool := []domain.Trip{openRequest("Amman", "Aqaba", 2)}

	mockProfiles.On("GetByCarrierID", ctx, profile.CarrierID).Return(profile, nil).Once()
	mockCache.On("GetOpenRequests", ctx).Return(nil, nil).Once()
	mockTrips.On("ListOpenGeneralRequests", ctx).Return(pool, nil).Once()
	mockCache.On("SetOpenRequests", ctx, pool).Return(nil).Once()

	result, err := service.OpenRequests(ctx, profile.CarrierID, false)

	assert.NoError(t, err)
	assert.Len(t, result.Trips, 1)
	mockTrips.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestMatchingService_OpenRequests_CacheErrorFallsThrough(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	mockCache := &MockPoolCache{}
	service := NewMatchingService(mockTrips, mockProfiles, mockCache)

	ctx := context.Background()
	profile := ammanAqabaProfile(4)
	pool := []domain.Trip{openRequest("Amman", "Aqaba", 2)}

	mockProfiles.On("GetByCarrierID", ctx, profile.CarrierID).Return(profile, nil).Once()
	mockCache.On("GetOpenRequests", ctx).Return(nil, errors.New("redis down")).Once()
	mockTrips.On("ListOpenGeneralRequests", ctx).Return(pool, nil).Once()
	mockCache.On("SetOpenRequests", ctx, pool).Return(nil).Once()

	result, err := service.OpenRequests(ctx, profile.CarrierID, false)

	assert.NoError(t, err)
	assert.Len(t, result.Trips, 1)
}

func TestMatchingService_OpenRequests_SpecializationMissing(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	service := NewMatchingService(mockTrips, mockProfiles, nil)

	ctx := context.Background()
	carrierID := uuid.New()
	// No declared route and no capacity on file.
	mockProfiles.On("GetByCarrierID", ctx, carrierID).Return(domain.CarrierProfile{CarrierID: carrierID}, nil).Once()
	mockTrips.On("ListOpenGeneralRequests", ctx).Return([]domain.Trip{openRequest("Amman", "Aqaba", 2)}, nil).Once()

	result, err := service.OpenRequests(ctx, carrierID, false)

	assert.NoError(t, err)
	assert.True(t, result.SpecializationMissing)
	assert.Empty(t, result.Trips)
}

func TestMatchingService_OpenRequests_WithoutCache(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	service := NewMatchingService(mockTrips, mockProfiles, nil)

	ctx := context.Background()
	profile := ammanAqabaProfile(4)
	pool := []domain.Trip{openRequest("Amman", "Aqaba", 2)}

	mockProfiles.On("GetByCarrierID", ctx, profile.CarrierID).Return(profile, nil).Once()
	mockTrips.On("ListOpenGeneralRequests", ctx).Return(pool, nil).Once()

	result, err := service.OpenRequests(ctx, profile.CarrierID, false)

	assert.NoError(t, err)
	assert.Len(t, result.Trips, 1)
}

func TestMatchingService_OpenRequests_RepositoryError(t *testing.T) {
	mockTrips := &MockTripRepository{}
	mockProfiles := &MockProfileRepository{}
	service := NewMatchingService(mockTrips, mockProfiles, nil)

	ctx := context.Background()
	profile := ammanAqabaProfile(4)
	expectedErr := errors.New("database error")

	mockProfiles.On("GetByCarrierID", ctx, profile.CarrierID).Return(profile, nil).Once()
	mockTrips.On("ListOpenGeneralRequests", ctx).Return(nil, expectedErr).Once()

	_, err := service.OpenRequests(ctx, profile.CarrierID, false)

	assert.Error(t, err)
	assert.Equal(t, expectedErr, err)
}
