// Package repository declares the storage contracts the services depend on.
// Implementations live in sub-packages (sqlite, postgres) and decorators
// (cache) wrap them.
package repository

import (
	"context"

	"github.com/sakif/madison-marketplace/internal/model"
)

// UserRepository stores credential records keyed by normalized email.
type UserRepository interface {
	// Create inserts the user atomically. If the email is already taken it
	// returns an apperror.ErrConflict error and leaves the record untouched.
	Create(ctx context.Context, user *model.User) error
	// GetByEmail returns apperror.ErrNotFound when no record exists.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// ListingRepository stores listings keyed by CDN asset id.
type ListingRepository interface {
	Create(ctx context.Context, listing *model.Listing) error
	GetByID(ctx context.Context, id string) (*model.Listing, error)
	// ListUnsold returns every listing with sold == false.
	ListUnsold(ctx context.Context) ([]model.Listing, error)
	// ListRecent returns at most limit listings, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Listing, error)
	// ListAll returns at most limit listings in no particular order. It is
	// the fallback when ordered reads fail.
	ListAll(ctx context.Context, limit int) ([]model.Listing, error)
	// MarkSold sets sold = true. Marking a sold listing again is a no-op;
	// an unknown id returns apperror.ErrNotFound.
	MarkSold(ctx context.Context, id string) error
}
