package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/repository"
)

// compile-time check that *ListingDB implements repository.ListingRepository
var _ repository.ListingRepository = (*ListingDB)(nil)

// ListingDB stores listings in the listings table.
type ListingDB struct {
	conn *sql.DB
}

const listingColumns = `id, price, pickup_location, created_at, category,
	main_category, description, image_url, seller_email, sold`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*model.Listing, error) {
	var (
		l      model.Listing
		price  sql.NullFloat64
		pickup sql.NullString
		seller sql.NullString
		sold   int64
	)
	err := s.Scan(
		&l.ID,
		&price,
		&pickup,
		&l.CreatedAt,
		&l.Category,
		&l.MainCategory,
		&l.Description,
		&l.ImageURL,
		&seller,
		&sold,
	)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		l.Price = &price.Float64
	}
	if pickup.Valid {
		l.PickupLocation = &pickup.String
	}
	if seller.Valid {
		l.SellerEmail = &seller.String
	}
	l.Sold = sold != 0
	return &l, nil
}

// Create inserts a listing. A second listing with the same id is a conflict;
// the first one is left untouched.
func (db *ListingDB) Create(ctx context.Context, l *model.Listing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	l.CreatedAt = l.CreatedAt.UTC()

	sold := 0
	if l.Sold {
		sold = 1
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO listings (`+listingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		l.ID,
		l.Price,
		l.PickupLocation,
		l.CreatedAt,
		l.Category,
		l.MainCategory,
		l.Description,
		l.ImageURL,
		l.SellerEmail,
		sold,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting listing %s: %w", l.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict("listing", l.ID)
	}
	return nil
}

// GetByID returns apperror.ErrNotFound if no listing has that id.
func (db *ListingDB) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)

	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("sqlite: getting listing %s: %w", id, err)
	}
	return l, nil
}

// ListUnsold returns every unsold listing, newest first.
func (db *ListingDB) ListUnsold(ctx context.Context) ([]model.Listing, error) {
	return db.query(ctx, "listing unsold",
		`SELECT `+listingColumns+` FROM listings WHERE sold = 0 ORDER BY created_at DESC`)
}

// ListRecent returns at most limit listings ordered by created_at descending.
func (db *ListingDB) ListRecent(ctx context.Context, limit int) ([]model.Listing, error) {
	return db.query(ctx, "listing recent",
		`SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListAll returns at most limit listings in storage order.
func (db *ListingDB) ListAll(ctx context.Context, limit int) ([]model.Listing, error) {
	return db.query(ctx, "listing all",
		`SELECT `+listingColumns+` FROM listings LIMIT ?`, limit)
}

// MarkSold flips the sold flag. The WHERE clause does not filter on sold, so
// repeating the call on a sold listing still matches the row and succeeds.
func (db *ListingDB) MarkSold(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE listings SET sold = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: marking listing %s sold: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("listing", id)
	}
	return nil
}

func (db *ListingDB) query(ctx context.Context, op, query string, args ...any) ([]model.Listing, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	defer rows.Close()

	// Non-nil so an empty result encodes as [] rather than null.
	listings := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning listing: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating listings: %w", err)
	}
	return listings, nil
}
