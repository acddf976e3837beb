package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/villa-web/internal/apiclient"
	"github.com/spec-kit/villa-web/internal/domain"
)

// MockAPI is a mock implementation of the villa API.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Register(ctx context.Context, username, email, password string) (string, error) {
	args := m.Called(ctx, username, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Profile(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAPI) ListVillas(ctx context.Context, filter domain.VillaFilter) ([]domain.Villa, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Villa), args.Error(1)
}

func (m *MockAPI) GetVilla(ctx context.Context, token string, id int) (*domain.Villa, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Villa), args.Error(1)
}

func (m *MockAPI) CreateVilla(ctx context.Context, token string, props domain.VillaProperties, thumbnail apiclient.File) (string, error) {
	args := m.Called(ctx, token, props, thumbnail)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) ListLocations(ctx context.Context, token string) ([]domain.Location, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Location), args.Error(1)
}

func (m *MockAPI) ListCategories(ctx context.Context, token string) ([]domain.Category, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}

func (m *MockAPI) ListAmenities(ctx context.Context, token string) ([]domain.Amenity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Amenity), args.Error(1)
}
