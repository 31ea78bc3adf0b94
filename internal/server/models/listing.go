package models

import "time"

// Tags are the searchable attributes of a car listing.
type Tags struct {
	CarType  string `json:"carType"`
	Company  string `json:"company"`
	Model    string `json:"model"`
	Color    string `json:"color"`
	FuelType string `json:"fuelType"`
	Year     string `json:"year"`
}

// Listing is a car offered by an account.
type Listing struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"-"`
	OwnerHandle string         `json:"ownerHandle"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Phone       int64          `json:"phone"`
	Tags        Tags           `json:"tags"`
	Images      []ListingImage `json:"images"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ListingImage points at an object in the image bucket. URL is filled with
// a presigned GET link when the listing is read and is never persisted.
type ListingImage struct {
	ListingID  string `json:"-"`
	StorageKey string `json:"key"`
	Position   int    `json:"position"`
	URL        string `json:"url,omitempty"`
}

// UploadTask instructs the client to PUT an image to a presigned URL.
type UploadTask struct {
	// StorageKey identifies the image slot the upload fills.
	StorageKey string `json:"key"`
	// URL is a temporary presigned HTTP URL.
	URL string `json:"url"`
}

// ListingFilter selects listings by equality on every non-blank field.
type ListingFilter struct {
	ID          string `json:"id"`
	OwnerHandle string `json:"ownerHandle"`
	Title       string `json:"title"`
	Phone       int64  `json:"phone"`
	Tags
}
