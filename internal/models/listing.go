package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	ListingTypeRent = "rent"
	ListingTypeSale = "sale"
)

// MaxImagesPerListing caps the number of images accepted per upload batch.
const MaxImagesPerListing = 6

// StringList stores an ordered list of strings as a JSON-encoded TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Listing is a property record with pricing, physical attributes and
// references to its uploaded images. OwnerRef points at the user who
// created the listing; only that user may mutate or delete it.
type Listing struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name              string     `gorm:"not null" json:"name"`
	Description       string     `json:"description"`
	Address           string     `json:"address"`
	Type              string     `gorm:"index" json:"type"`
	RegularPrice      float64    `json:"regularPrice"`
	DiscountPrice     float64    `json:"discountPrice"`
	Offer             bool       `gorm:"index" json:"offer"`
	Bedrooms          int        `json:"bedrooms"`
	Bathrooms         int        `json:"bathrooms"`
	Area              float64    `json:"area"`
	Parking           bool       `json:"parking"`
	Furnished         bool       `json:"furnished"`
	AgeOfConstruction *int       `json:"ageOfConstruction"`
	ImageURLs         StringList `gorm:"type:text" json:"imageUrls"`
	OwnerRef          string     `gorm:"index;not null" json:"userRef"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func (Listing) TableName() string {
	return "listings"
}

// SortableFields maps the client-facing attribute names to their
// database columns. Sort requests outside this set are rejected.
var SortableFields = map[string]string{
	"name":              "name",
	"type":              "type",
	"regularPrice":      "regular_price",
	"discountPrice":     "discount_price",
	"offer":             "offer",
	"bedrooms":          "bedrooms",
	"bathrooms":         "bathrooms",
	"area":              "area",
	"parking":           "parking",
	"furnished":         "furnished",
	"ageOfConstruction": "age_of_construction",
	"createdAt":         "created_at",
}
