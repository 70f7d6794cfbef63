package query

import (
	"homestead/server/internal/apperrors"
	"homestead/server/internal/models"
)

// Params are the raw filter/sort values taken from the request query
// string. Absent values are empty strings.
type Params struct {
	Type   string `form:"type"`
	Offer  string `form:"offer"`
	SortBy string `form:"sortBy"`
	Order  string `form:"order"`
}

// Descriptor is the catalog query derived from Params, prior to
// execution against the store.
type Descriptor struct {
	// Type constrains the listing type when non-empty.
	Type string

	// OfferOnly constrains results to offer listings when true. There
	// is deliberately no "offer is false" constraint.
	OfferOnly bool

	// SortColumn is the whitelisted database column to sort by.
	SortColumn string

	// Descending is the sort direction.
	Descending bool
}

// Build translates request parameters into a Descriptor.
//
// type is ignored when absent or the literal "all". offer filters only
// when it is the literal "true"; "false" and absent both mean
// unfiltered (asymmetry preserved from the product contract). sortBy
// must name a sortable listing attribute; when it is absent the result
// is createdAt descending and order is ignored. With sortBy set, the
// direction is ascending only for order == "asc".
func Build(params Params) (Descriptor, error) {
	desc := Descriptor{
		SortColumn: models.SortableFields["createdAt"],
		Descending: true,
	}

	if params.Type != "" && params.Type != "all" {
		desc.Type = params.Type
	}

	if params.Offer == "true" {
		desc.OfferOnly = true
	}

	if params.SortBy != "" {
		column, ok := models.SortableFields[params.SortBy]
		if !ok {
			return Descriptor{}, apperrors.Validation("Invalid sort field: " + params.SortBy)
		}
		desc.SortColumn = column
		desc.Descending = params.Order != "asc"
	}

	return desc, nil
}
