package models

import "time"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageSrc    string    `json:"imageSrc"`
	Category    string    `json:"category"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Price       float64   `json:"price"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductWithOwner is a product joined with its owner's summary.
type ProductWithOwner struct {
	Product
	Owner UserSummary `json:"user"`
}

// NewProduct is the creation input. Numeric fields are pointers so that a
// missing value can be told apart from zero.
type NewProduct struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageSrc    string   `json:"imageSrc"`
	Category    string   `json:"category"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Price       *float64 `json:"price"`
	UserID      string   `json:"userId"`
}

// ProductPage is one page of a filtered listing.
type ProductPage struct {
	Items      []Product `json:"items"`
	TotalItems int       `json:"totalItems"`
}
