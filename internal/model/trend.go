package model

import "time"

// RecentPrice is one sold listing contributing to a price trend.
type RecentPrice struct {
	Price     float64    `json:"price"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// PriceTrend is the median price of recently sold listings in a category.
// Recent is in the order the store returned the records (newest first when
// ordering was available).
type PriceTrend struct {
	Category *string       `json:"category"`
	Median   float64       `json:"median"`
	Count    int           `json:"count"`
	Recent   []RecentPrice `json:"recent"`
}
