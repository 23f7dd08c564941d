// Package pricing computes median-price trends over recently sold listings.
package pricing

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/madison-marketplace/internal/catalog"
	"github.com/sakif/madison-marketplace/internal/model"
)

const (
	// FetchCap bounds how many documents are read from the store.
	FetchCap = 500
	// WindowCap bounds how many matching prices enter the median.
	WindowCap = 100
)

// Record is a price document as read from the store. Sold and Price are
// loosely typed because documents written by older clients store them as
// strings.
type Record struct {
	Price      any              `json:"price"`
	Sold       any              `json:"sold"`
	Categories model.Categories `json:"categories"`
	CreatedAt  *time.Time       `json:"createdAt"`
}

// FromListing converts a stored listing into a Record.
func FromListing(l model.Listing) Record {
	var price any
	if l.Price != nil {
		price = *l.Price
	}
	created := l.CreatedAt
	return Record{
		Price:      price,
		Sold:       l.Sold,
		Categories: l.Categories(),
		CreatedAt:  &created,
	}
}

// Median returns the median of values without modifying them.
// An empty input yields 0.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Aggregate filters records down to sold items in the term's category with a
// positive price, keeps the first WindowCap of them in input order and
// returns their median.
func Aggregate(records []Record, term string) model.PriceTrend {
	recent := make([]model.RecentPrice, 0, WindowCap)
	for _, r := range records {
		if !IsSold(r.Sold) {
			continue
		}
		if !catalog.Matches(r.Categories, term) {
			continue
		}
		price := ParsePrice(r.Price)
		if price <= 0 {
			continue
		}
		recent = append(recent, model.RecentPrice{Price: price, CreatedAt: r.CreatedAt})
		if len(recent) == WindowCap {
			break
		}
	}

	prices := make([]float64, len(recent))
	for i, r := range recent {
		prices[i] = r.Price
	}

	trend := model.PriceTrend{
		Median: Median(prices),
		Count:  len(prices),
		Recent: recent,
	}
	if term = strings.TrimSpace(term); term != "" {
		trend.Category = &term
	}
	return trend
}

// IsSold accepts boolean true or the string "true" in any case.
func IsSold(v any) bool {
	switch s := v.(type) {
	case bool:
		return s
	case string:
		return strings.EqualFold(strings.TrimSpace(s), "true")
	default:
		return false
	}
}

// ParsePrice coerces a stored price to a number, falling back to 0 when it
// is missing or not numeric.
func ParsePrice(v any) float64 {
	switch p := v.(type) {
	case float64:
		return p
	case float32:
		return float64(p)
	case int:
		return float64(p)
	case int64:
		return float64(p)
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
