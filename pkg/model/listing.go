package model

import "fmt"

type PropertyType int

const (
	PropertyHouse PropertyType = iota
	PropertyApartment
	PropertyGuesthouse
	PropertyHotel
	PropertyVilla
	PropertyCabin
)

var propertyTypeNames = []string{"house", "apartment", "guesthouse", "hotel", "villa", "cabin"}

func ParsePropertyType(s string) (PropertyType, error) {
	for i, name := range propertyTypeNames {
		if name == s {
			return PropertyType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown property type %q", s)
}

func (p PropertyType) String() string {
	if int(p) >= 0 && int(p) < len(propertyTypeNames) {
		return propertyTypeNames[p]
	}
	return fmt.Sprintf("property_type(%d)", int(p))
}

// Listing is the rentable resource. It is owned by the catalog and read here only.
type Listing struct {
	ID            string       `json:"id" bson:"_id,omitempty"`
	OwnerID       string       `json:"owner_id" bson:"owner_id"`
	Title         string       `json:"title" bson:"title"`
	Address       string       `json:"address" bson:"address"`
	PricePerNight float64      `json:"price_per_night" bson:"price_per_night"`
	PropertyType  PropertyType `json:"property_type" bson:"property_type"`
	Bedrooms      int          `json:"bedrooms" bson:"bedrooms"`
	Bathrooms     int          `json:"bathrooms" bson:"bathrooms"`
	MaxGuests     int          `json:"max_guests" bson:"max_guests"`
}

// ListingCriteria filters listings. Nil fields do not filter.
// The price range only applies when both bounds are set.
type ListingCriteria struct {
	MinPrice     *float64
	MaxPrice     *float64
	PropertyType *PropertyType
	MinBedrooms  *int
}

func (c ListingCriteria) Matches(l *Listing) bool {
	if c.MinPrice != nil && c.MaxPrice != nil {
		if l.PricePerNight < *c.MinPrice || l.PricePerNight > *c.MaxPrice {
			return false
		}
	}
	if c.PropertyType != nil && l.PropertyType != *c.PropertyType {
		return false
	}
	if c.MinBedrooms != nil && l.Bedrooms < *c.MinBedrooms {
		return false
	}
	return true
}
