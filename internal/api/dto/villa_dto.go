package dto

import (
	"net/url"
	"strconv"

	"github.com/spec-kit/villa-web/internal/domain"
)

// Listing defaults.
const (
	DefaultVillaLimit = 5
	MaxVillaLimit     = 10
)

// VillaQuery is the browse page filter bar.
type VillaQuery struct {
	Location string `query:"location"`
	Category string `query:"category"`
	MinGuest string `query:"min_guest" validate:"omitempty,number"`
	Bedrooms string `query:"bedrooms" validate:"omitempty,number"`
	Limit    int    `query:"limit" validate:"gte=1,lte=10"`
	Offset   int    `query:"offset" validate:"gte=0"`
	Sort     string `query:"sort" validate:"oneof=asc desc"`
}

// WithDefaults fills unset paging fields.
func (q VillaQuery) WithDefaults() VillaQuery {
	if q.Limit == 0 {
		q.Limit = DefaultVillaLimit
	}
	if q.Sort == "" {
		q.Sort = "asc"
	}
	return q
}

// HasMore reports whether a page of n villas may have a successor.
func (q VillaQuery) HasMore(n int) bool {
	return q.Limit > 0 && n == q.Limit
}

// PrevOffset is the offset of the previous page, or -1 on the first page.
func (q VillaQuery) PrevOffset() int {
	if q.Offset <= 0 {
		return -1
	}
	return max(q.Offset-q.Limit, 0)
}

// Encode renders the query with offset replaced, for paging links.
func (q VillaQuery) Encode(offset int) string {
	v := url.Values{}
	for key, value := range map[string]string{
		"location":  q.Location,
		"category":  q.Category,
		"min_guest": q.MinGuest,
		"bedrooms":  q.Bedrooms,
		"sort":      q.Sort,
	} {
		if value != "" {
			v.Set(key, value)
		}
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if offset > 0 {
		v.Set("offset", strconv.Itoa(offset))
	}
	return v.Encode()
}

// Filter converts the query for the API client.
func (q VillaQuery) Filter() domain.VillaFilter {
	return domain.VillaFilter{
		Location: q.Location,
		Category: q.Category,
		MinGuest: q.MinGuest,
		Bedrooms: q.Bedrooms,
		Limit:    q.Limit,
		Offset:   q.Offset,
		Sort:     q.Sort,
	}
}

// CreateVillaRequest is the admin "new villa" form, minus the thumbnail.
type CreateVillaRequest struct {
	Name        string  `form:"name" validate:"required,min=4"`
	Description string  `form:"description" validate:"required,min=8"`
	MinGuest    int     `form:"min_guest" validate:"required,min=1"`
	Bedrooms    int     `form:"bedrooms" validate:"required,min=1"`
	Baths       int     `form:"baths" validate:"required,min=1"`
	Price       float64 `form:"price" validate:"required,min=1"`
	CategoryID  int     `form:"category_id" validate:"required,min=1"`
	LocationID  int     `form:"location_id" validate:"required,min=1"`
	AmenityIDs  []int   `form:"amenity_id" validate:"required,min=1,dive,min=1"`
}

// Properties converts the form into the API's JSON part.
func (r CreateVillaRequest) Properties() domain.VillaProperties {
	return domain.VillaProperties{
		Name:        r.Name,
		Description: r.Description,
		MinGuest:    r.MinGuest,
		Bedrooms:    r.Bedrooms,
		Baths:       r.Baths,
		Price:       r.Price,
		CategoryID:  r.CategoryID,
		LocationID:  r.LocationID,
		AmenityIDs:  r.AmenityIDs,
	}
}
