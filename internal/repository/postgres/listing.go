package postgres

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

var _ repository.ListingRepository = (*ListingRepository)(nil)

const listingColumns = `id, price, pickup_location, created_at, category, main_category, description, image_url, seller_email, sold`

type ListingRepository struct {
	db DBTX
}

func NewListingRepository(db DBTX) *ListingRepository {
	return &ListingRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*model.Listing, error) {
	var (
		l      model.Listing
		price  sql.NullFloat64
		pickup sql.NullString
		seller sql.NullString
	)
	err := s.Scan(&l.ID, &price, &pickup, &l.CreatedAt, &l.Category, &l.MainCategory,
		&l.Description, &l.ImageURL, &seller, &l.Sold)
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
	return &l, nil
}

func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}

	query :=
		`INSERT INTO listings (` + listingColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		l.ID, l.Price, l.PickupLocation, l.CreatedAt, l.Category, l.MainCategory,
		l.Description, l.ImageURL, l.SellerEmail, l.Sold)
	if err != nil {
		return fmt.Errorf("postgres: inserting listing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.Conflict("listing", l.ID)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`

	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("listing", id)
		}
		return nil, fmt.Errorf("postgres: getting listing: %w", err)
	}
	return l, nil
}

func (r *ListingRepository) ListUnsold(ctx context.Context) ([]model.Listing, error) {
	return r.list(ctx, `SELECT `+listingColumns+` FROM listings WHERE NOT sold ORDER BY created_at DESC`)
}

func (r *ListingRepository) ListRecent(ctx context.Context, limit int) ([]model.Listing, error) {
	return r.list(ctx, `SELECT `+listingColumns+` FROM listings ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *ListingRepository) ListAll(ctx context.Context, limit int) ([]model.Listing, error) {
	return r.list(ctx, `SELECT `+listingColumns+` FROM listings LIMIT $1`, limit)
}

// MarkSold is idempotent: the row matches whether or not it was already sold.
func (r *ListingRepository) MarkSold(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE listings SET sold = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: marking listing sold: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("listing", id)
	}
	return nil
}

func (r *ListingRepository) list(ctx context.Context, query string, args ...any) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing query: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning listing: %w", err)
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating listings: %w", err)
	}
	return listings, nil
}
