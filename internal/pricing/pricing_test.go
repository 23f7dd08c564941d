package pricing

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/sakif/madison-marketplace/internal/model"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5}, 5},
		{"even count", []float64{1, 2, 3, 4}, 2.5},
		{"odd count unsorted", []float64{3, 1, 2}, 2},
		{"duplicates", []float64{10, 10, 40}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.want {
				t.Errorf("Median(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestMedian_OrderInvariant(t *testing.T) {
	values := []float64{12, 7.5, 99, 3, 42, 18, 18, 1}
	want := Median(values)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]float64(nil), values...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := Median(shuffled); got != want {
			t.Fatalf("Median(%v) = %v, want %v", shuffled, got, want)
		}
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("Median() reordered its input: %v", values)
	}
}

func TestIsSold(t *testing.T) {
	cases := map[string]struct {
		in   any
		want bool
	}{
		"bool true":    {true, true},
		"bool false":   {false, false},
		"string true":  {"true", true},
		"string TRUE":  {"TRUE", true},
		"string false": {"false", false},
		"string yes":   {"yes", false},
		"nil":          {nil, false},
		"number":       {1, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := IsSold(tc.in); got != tc.want {
				t.Errorf("IsSold(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	cases := map[string]struct {
		in   any
		want float64
	}{
		"float":       {12.5, 12.5},
		"int":         {40, 40},
		"string":      {" 30 ", 30},
		"json number": {json.Number("7.25"), 7.25},
		"garbage":     {"free", 0},
		"nil":         {nil, 0},
		"bool":        {true, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := ParsePrice(tc.in); got != tc.want {
				t.Errorf("ParsePrice(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

// decodeRecords parses documents the way they come back from a document store.
func decodeRecords(t *testing.T, raw string) []Record {
	t.Helper()
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return records
}

func TestAggregate_FiltersSoldCategoryAndPrice(t *testing.T) {
	records := decodeRecords(t, `[
		{"price": 100, "sold": true,   "categories": ["electronics", "headphones"]},
		{"price": "50", "sold": "TRUE", "categories": "Electronics & Gadgets"},
		{"price": 300, "sold": false,  "categories": "electronics"},
		{"price": 0,   "sold": true,   "categories": "electronics"},
		{"price": "n/a", "sold": true, "categories": "electronics"},
		{"price": 20,  "sold": true,   "categories": "furniture"},
		{"price": 80,  "sold": "true", "categories": ["laptop", "electronics"]}
	]`)

	trend := Aggregate(records, "electronics")

	if trend.Count != 3 {
		t.Fatalf("Count = %d, want 3", trend.Count)
	}
	if trend.Median != 80 {
		t.Errorf("Median = %v, want 80", trend.Median)
	}
	wantOrder := []float64{100, 50, 80}
	for i, r := range trend.Recent {
		if r.Price != wantOrder[i] {
			t.Errorf("Recent[%d].Price = %v, want %v", i, r.Price, wantOrder[i])
		}
	}
	if trend.Category == nil || *trend.Category != "electronics" {
		t.Errorf("Category = %v, want electronics", trend.Category)
	}
}

func TestAggregate_EmptyTermMatchesAll(t *testing.T) {
	records := decodeRecords(t, `[
		{"price": 10, "sold": true, "categories": "books"},
		{"price": 30, "sold": true, "categories": "furniture"}
	]`)

	trend := Aggregate(records, "")
	if trend.Count != 2 || trend.Median != 20 {
		t.Errorf("Aggregate(\"\") = count %d median %v, want 2 and 20", trend.Count, trend.Median)
	}
	if trend.Category != nil {
		t.Errorf("Category = %q, want nil for an empty term", *trend.Category)
	}
}

func TestAggregate_CapsWindow(t *testing.T) {
	records := make([]Record, 0, WindowCap+50)
	for i := 0; i < WindowCap+50; i++ {
		records = append(records, Record{Price: float64(i + 1), Sold: true, Categories: model.Categories{"books"}})
	}

	trend := Aggregate(records, "books")
	if trend.Count != WindowCap {
		t.Fatalf("Count = %d, want %d", trend.Count, WindowCap)
	}
	if trend.Recent[0].Price != 1 || trend.Recent[WindowCap-1].Price != WindowCap {
		t.Errorf("window should keep the first %d records in input order", WindowCap)
	}
	if trend.Median != 50.5 {
		t.Errorf("Median = %v, want 50.5", trend.Median)
	}
}

func TestAggregate_NoMatches(t *testing.T) {
	trend := Aggregate(nil, "electronics")
	if trend.Count != 0 || trend.Median != 0 {
		t.Errorf("Aggregate(nil) = %+v, want zero median and count", trend)
	}
	if trend.Recent == nil {
		t.Error("Recent should be an empty slice so it encodes as []")
	}
}

func TestFromListing(t *testing.T) {
	price := 45.0
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := model.Listing{ID: "abc", Price: &price, Category: "desk lamp", MainCategory: "furniture", Sold: true, CreatedAt: created}

	r := FromListing(l)
	if ParsePrice(r.Price) != 45 || !IsSold(r.Sold) {
		t.Errorf("FromListing() = %+v, want price 45 and sold", r)
	}
	if r.CreatedAt == nil || !r.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", r.CreatedAt, created)
	}

	l.Price = nil
	if ParsePrice(FromListing(l).Price) != 0 {
		t.Error("a listing without a price should coerce to 0")
	}
}
