package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Listing is a for-sale item tied to one uploaded image.
//
// The ID is the CDN public identifier with its folder prefix stripped, so a
// CDN asset "madison-marketplace/abc123" becomes listing "abc123".
//
// Price, PickupLocation and SellerEmail are pointers because the upload form
// treats them as optional and JSON must render them as null when absent.
//
// Sold only ever moves from false to true (see ListingRepository.MarkSold).
type Listing struct {
	ID             string    `json:"id"`
	Price          *float64  `json:"price"`
	PickupLocation *string   `json:"pickupLocation"`
	CreatedAt      time.Time `json:"createdAt"`
	Category       string    `json:"category"`
	MainCategory   string    `json:"mainCategory"`
	Description    string    `json:"description"`
	ImageURL       string    `json:"imageUrl"`
	SellerEmail    *string   `json:"sellerEmail"`
	Sold           bool      `json:"sold"`
}

// Categories returns the category fields the matcher searches.
func (l *Listing) Categories() []string {
	return []string{l.Category, l.MainCategory}
}

// TagSet is the structured description the vision model returns for an image.
// It is never stored on its own; its fields are copied onto the Listing and
// into the CDN metadata.
type TagSet struct {
	MainCategory string `json:"main_category"`
	SpecificItem string `json:"specific_item"`
	Color        string `json:"color"`
	Material     string `json:"material"`
	Description  string `json:"description"`
}

// Categories is a category field that may arrive either as a single string
// or as a list of strings. Both forms decode into a slice.
type Categories []string

// UnmarshalJSON accepts "a", ["a","b"] and null.
func (c *Categories) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = Categories{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("categories must be a string or a list of strings: %w", err)
	}
	*c = many
	return nil
}
