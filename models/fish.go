package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FishCategory string

const (
	CategoryFreshwater FishCategory = "freshwater"
	CategorySaltwater  FishCategory = "saltwater"
	CategoryShellfish  FishCategory = "shellfish"
	CategoryExotic     FishCategory = "exotic"
)

type Availability string

const (
	AvailabilityAvailable  Availability = "available"
	AvailabilityLimited    Availability = "limited"
	AvailabilityOutOfStock Availability = "out_of_stock"
)

// Fish is a catalog item. Deleting a fish only clears IsActive.
type Fish struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name" validate:"required"`
	Description  string             `json:"description" bson:"description"`
	PricePerKg   float64            `json:"pricePerKg" bson:"pricePerKg" validate:"gte=0"`
	Category     FishCategory       `json:"category" bson:"category" validate:"oneof=freshwater saltwater shellfish exotic"`
	Availability Availability       `json:"availability" bson:"availability" validate:"oneof=available limited out_of_stock"`
	Stock        int                `json:"stock" bson:"stock" validate:"gte=0"`
	ImageURL     string             `json:"imageUrl" bson:"imageUrl"`
	IsActive     bool               `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FishInput is the create/update payload. Nil fields are absent from the request.
type FishInput struct {
	Name         *string       `json:"name"`
	Description  *string       `json:"description"`
	PricePerKg   *float64      `json:"pricePerKg"`
	Category     *FishCategory `json:"category"`
	Availability *Availability `json:"availability"`
	Stock        *int          `json:"stock"`
	ImageURL     *string       `json:"imageUrl"`
	IsActive     *bool         `json:"isActive"`
}

// NewFish applies the catalog defaults and then the supplied fields.
func NewFish(in FishInput) *Fish {
	f := &Fish{
		Category:     CategoryFreshwater,
		Availability: AvailabilityAvailable,
		IsActive:     true,
	}
	in.ApplyTo(f)
	return f
}

// ApplyTo copies the present fields onto f.
func (in FishInput) ApplyTo(f *Fish) {
	if in.Name != nil {
		f.Name = *in.Name
	}
	if in.Description != nil {
		f.Description = *in.Description
	}
	if in.PricePerKg != nil {
		f.PricePerKg = *in.PricePerKg
	}
	if in.Category != nil {
		f.Category = *in.Category
	}
	if in.Availability != nil {
		f.Availability = *in.Availability
	}
	if in.Stock != nil {
		f.Stock = *in.Stock
	}
	if in.ImageURL != nil {
		f.ImageURL = *in.ImageURL
	}
	if in.IsActive != nil {
		f.IsActive = *in.IsActive
	}
}

// FishFilter narrows catalog listings. Search matches name or description,
// case-insensitively.
type FishFilter struct {
	Category        FishCategory
	Availability    Availability
	Search          string
	IncludeInactive bool
}
