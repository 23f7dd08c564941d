package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/model"
)

func newTestListingDB(t *testing.T) *ListingDB {
	t.Helper()
	return newTestDB(t).Listings()
}

func ptr[T any](v T) *T { return &v }

func createTestListing(t *testing.T, db *ListingDB, id string, createdAt time.Time) *model.Listing {
	t.Helper()
	l := &model.Listing{
		ID:           id,
		Price:        ptr(25.0),
		CreatedAt:    createdAt,
		Category:     "desk lamp",
		MainCategory: "furniture",
		Description:  "a lamp",
		ImageURL:     "https://cdn.example.com/" + id + ".jpg",
	}
	if err := db.Create(context.Background(), l); err != nil {
		t.Fatalf("failed to create test listing: %v", err)
	}
	return l
}

func TestListingCreateAndGet(t *testing.T) {
	db := newTestListingDB(t)
	ctx := context.Background()

	in := &model.Listing{
		ID:             "abc123",
		Price:          ptr(12.5),
		PickupLocation: ptr("Memorial Union"),
		CreatedAt:      time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC),
		Category:       "mini fridge",
		MainCategory:   "appliances",
		Description:    "Small black fridge",
		ImageURL:       "https://cdn.example.com/abc123.jpg",
		SellerEmail:    ptr("bucky@wisc.edu"),
	}
	if err := db.Create(ctx, in); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Price == nil || *got.Price != 12.5 {
		t.Errorf("Price = %v, want 12.5", got.Price)
	}
	if got.PickupLocation == nil || *got.PickupLocation != "Memorial Union" {
		t.Errorf("PickupLocation = %v", got.PickupLocation)
	}
	if got.SellerEmail == nil || *got.SellerEmail != "bucky@wisc.edu" {
		t.Errorf("SellerEmail = %v", got.SellerEmail)
	}
	if got.Category != "mini fridge" || got.MainCategory != "appliances" {
		t.Errorf("categories = %q/%q", got.Category, got.MainCategory)
	}
	if got.Sold {
		t.Error("new listing should not be sold")
	}
	if !got.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, in.CreatedAt)
	}
}

func TestListingCreate_NullOptionals(t *testing.T) {
	db := newTestListingDB(t)
	ctx := context.Background()

	if err := db.Create(ctx, &model.Listing{ID: "bare"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	got, err := db.GetByID(ctx, "bare")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Price != nil || got.PickupLocation != nil || got.SellerEmail != nil {
		t.Errorf("expected nil optionals, got %+v", got)
	}
}

func TestListingCreate_Duplicate(t *testing.T) {
	db := newTestListingDB(t)
	createTestListing(t, db, "dup", time.Now())

	err := db.Create(context.Background(), &model.Listing{ID: "dup"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestListingGetByID_NotFound(t *testing.T) {
	db := newTestListingDB(t)

	_, err := db.GetByID(context.Background(), "nope")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRecent_OrderAndLimit(t *testing.T) {
	db := newTestListingDB(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	createTestListing(t, db, "oldest", base)
	createTestListing(t, db, "newest", base.Add(2*time.Hour))
	createTestListing(t, db, "middle", base.Add(time.Hour))

	got, err := db.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "newest" || got[1].ID != "middle" {
		t.Errorf("order = [%s %s], want [newest middle]", got[0].ID, got[1].ID)
	}
}

func TestListAll_Limit(t *testing.T) {
	db := newTestListingDB(t)
	for _, id := range []string{"a", "b", "c"} {
		createTestListing(t, db, id, time.Now())
	}

	got, err := db.ListAll(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}

func TestListUnsold_Empty(t *testing.T) {
	db := newTestListingDB(t)

	got, err := db.ListUnsold(context.Background())
	if err != nil {
		t.Fatalf("ListUnsold() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestMarkSold(t *testing.T) {
	db := newTestListingDB(t)
	ctx := context.Background()
	createTestListing(t, db, "keep", time.Now())
	createTestListing(t, db, "sell", time.Now())

	if err := db.MarkSold(ctx, "sell"); err != nil {
		t.Fatalf("MarkSold() error = %v", err)
	}

	got, err := db.GetByID(ctx, "sell")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.Sold {
		t.Error("listing should be sold")
	}

	unsold, err := db.ListUnsold(ctx)
	if err != nil {
		t.Fatalf("ListUnsold() error = %v", err)
	}
	if len(unsold) != 1 || unsold[0].ID != "keep" {
		t.Errorf("unsold = %+v, want only keep", unsold)
	}
}

func TestMarkSold_Idempotent(t *testing.T) {
	db := newTestListingDB(t)
	ctx := context.Background()
	createTestListing(t, db, "twice", time.Now())

	for i := 0; i < 2; i++ {
		if err := db.MarkSold(ctx, "twice"); err != nil {
			t.Fatalf("MarkSold() call %d error = %v", i+1, err)
		}
	}
}

func TestMarkSold_NotFound(t *testing.T) {
	db := newTestListingDB(t)

	err := db.MarkSold(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
