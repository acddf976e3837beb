package service

import (
	"context"

	"github.com/spec-kit/villa-web/internal/cache"
	"github.com/spec-kit/villa-web/internal/domain"
)

// CatalogAPI lists the reference data villas point at.
type CatalogAPI interface {
	ListLocations(ctx context.Context, token string) ([]domain.Location, error)
	ListCategories(ctx context.Context, token string) ([]domain.Category, error)
	ListAmenities(ctx context.Context, token string) ([]domain.Amenity, error)
}

// Catalog bundles the reference lists used by the villa form.
type Catalog struct {
	Locations  []domain.Location
	Categories []domain.Category
	Amenities  []domain.Amenity
}

// CatalogService reads reference data through the catalog cache.
type CatalogService struct {
	api   CatalogAPI
	cache *cache.Catalog
}

// NewCatalogService builds the service.
func NewCatalogService(api CatalogAPI, c *cache.Catalog) *CatalogService {
	return &CatalogService{api: api, cache: c}
}

// Locations returns every location.
func (s *CatalogService) Locations(ctx context.Context, token string) ([]domain.Location, error) {
	return cache.Fetch(ctx, s.cache, "locations", func(ctx context.Context) ([]domain.Location, error) {
		return s.api.ListLocations(ctx, token)
	})
}

// Categories returns every category.
func (s *CatalogService) Categories(ctx context.Context, token string) ([]domain.Category, error) {
	return cache.Fetch(ctx, s.cache, "categories", func(ctx context.Context) ([]domain.Category, error) {
		return s.api.ListCategories(ctx, token)
	})
}

// Amenities returns every amenity.
func (s *CatalogService) Amenities(ctx context.Context, token string) ([]domain.Amenity, error) {
	return cache.Fetch(ctx, s.cache, "amenities", func(ctx context.Context) ([]domain.Amenity, error) {
		return s.api.ListAmenities(ctx, token)
	})
}

// All loads the three lists, stopping at the first failure.
func (s *CatalogService) All(ctx context.Context, token string) (Catalog, error) {
	var (
		out Catalog
		err error
	)
	if out.Locations, err = s.Locations(ctx, token); err != nil {
		return Catalog{}, err
	}
	if out.Categories, err = s.Categories(ctx, token); err != nil {
		return Catalog{}, err
	}
	if out.Amenities, err = s.Amenities(ctx, token); err != nil {
		return Catalog{}, err
	}
	return out, nil
}
