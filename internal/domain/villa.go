package domain

// Villa is a listing as returned by the villa API.
type Villa struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	CategoryID  int          `json:"category_id"`
	LocationID  int          `json:"location_id"`
	Category    CategoryRef  `json:"category"`
	Location    LocationRef  `json:"location"`
	Amenities   []AmenityRef `json:"amentiy"`
	MinGuest    int          `json:"min_guest"`
	Bedrooms    int          `json:"bedrooms"`
	Price       float64      `json:"price"`
	Baths       int          `json:"baths"`
	ImageURLs   []string     `json:"image_urls"`
	CreatedAt   string       `json:"created_at"`
	UpdatedAt   string       `json:"updated_at"`
}

// Thumbnail returns the first image url, if any.
func (v Villa) Thumbnail() string {
	if len(v.ImageURLs) == 0 {
		return ""
	}
	return v.ImageURLs[0]
}

// CategoryRef is the category summary embedded in a villa.
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// LocationRef is the location summary embedded in a villa.
type LocationRef struct {
	ID   int    `json:"id"`
	Area string `json:"area"`
}

// AmenityRef is the amenity summary embedded in a villa.
type AmenityRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Location is an area villas can be listed in.
type Location struct {
	ID        int    `json:"id"`
	Area      string `json:"area"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Category groups villas by kind.
type Category struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AmenityType names the group an amenity belongs to.
type AmenityType struct {
	Name string `json:"name"`
}

// Amenity is a feature a villa can offer.
type Amenity struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	TypeID    int         `json:"type_id"`
	Type      AmenityType `json:"type"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

// VillaFilter narrows the public villa listing.
type VillaFilter struct {
	Location string
	Category string
	MinGuest string
	Bedrooms string
	Limit    int
	Offset   int
	Sort     string
}

// VillaProperties is the JSON part of a villa creation request.
type VillaProperties struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinGuest    int     `json:"min_guest"`
	Bedrooms    int     `json:"bedrooms"`
	Baths       int     `json:"baths"`
	Price       float64 `json:"price"`
	CategoryID  int     `json:"category_id"`
	LocationID  int     `json:"location_id"`
	AmenityIDs  []int   `json:"amenity_id"`
}
