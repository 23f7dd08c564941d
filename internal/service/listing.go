package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/auth"
	"github.com/sakif/madison-marketplace/internal/catalog"
	"github.com/sakif/madison-marketplace/internal/cdn"
	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/repository"
	"github.com/sakif/madison-marketplace/internal/tagger"
)

// ListingService ingests photos into listings and serves catalog reads.
//
// tagger and uploader may be nil when their credentials are missing; the
// operations that need them then return apperror.ErrNotConfigured.
type ListingService struct {
	repo     repository.ListingRepository
	tagger   tagger.Tagger
	uploader cdn.Uploader
	logger   *slog.Logger
}

func NewListingService(
	repo repository.ListingRepository,
	tg tagger.Tagger,
	uploader cdn.Uploader,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{repo: repo, tagger: tg, uploader: uploader, logger: logger}
}

// ListingInput is an upload request. Image is base64, optionally as a
// data URL ("data:image/png;base64,...").
type ListingInput struct {
	Image          string
	MediaType      string
	Tags           *model.TagSet
	Price          *float64
	PickupLocation *string
	SellerEmail    *string
}

// CreateResult reports the stored asset and the listing written for it.
type CreateResult struct {
	URL      string
	PublicID string
	Listing  *model.Listing
}

// Create runs the ingestion pipeline: decode, tag (unless tags were
// supplied), upload, persist. A failure at any step stops the pipeline, and
// the listing is written only after the upload is confirmed.
func (s *ListingService) Create(ctx context.Context, in ListingInput) (*CreateResult, error) {
	image, mediaType, err := DecodeImage(in.Image, in.MediaType)
	if err != nil {
		return nil, err
	}
	if in.Price != nil && (*in.Price < 0 || math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0)) {
		return nil, apperror.ValidationFailed("price", "Price must be a non-negative number")
	}
	if s.uploader == nil {
		return nil, apperror.NotConfigured("image upload")
	}

	tags := in.Tags
	if tags == nil {
		tags, err = s.GenerateTags(ctx, image, mediaType)
		if err != nil {
			return nil, err
		}
	}

	seller := in.SellerEmail
	if seller == nil || strings.TrimSpace(*seller) == "" {
		seller = nil
		if email, ok := auth.EmailFromContext(ctx); ok {
			seller = &email
		}
	}

	uploaded, err := s.uploader.Upload(ctx, cdn.UploadRequest{
		Image:          image,
		MediaType:      mediaType,
		Tags:           *tags,
		Price:          in.Price,
		PickupLocation: in.PickupLocation,
		SellerEmail:    seller,
	})
	if err != nil {
		return nil, err
	}

	listing := &model.Listing{
		ID:             cdn.ListingID(uploaded.PublicID),
		Price:          in.Price,
		PickupLocation: in.PickupLocation,
		CreatedAt:      uploaded.CreatedAt,
		Category:       tags.SpecificItem,
		MainCategory:   tags.MainCategory,
		Description:    tags.Description,
		ImageURL:       uploaded.SecureURL,
		SellerEmail:    seller,
		Sold:           false,
	}
	if listing.ID == "" {
		return nil, apperror.Upstream("upload", "Failed to upload image", errors.New("empty public id"))
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("service/listing: saving listing %s: %w", listing.ID, err)
	}

	s.logger.Info("listing created",
		slog.String("id", listing.ID),
		slog.String("category", listing.MainCategory),
	)
	return &CreateResult{URL: uploaded.SecureURL, PublicID: uploaded.PublicID, Listing: listing}, nil
}

// GenerateTags asks the vision model to describe image. Nothing is stored.
func (s *ListingService) GenerateTags(ctx context.Context, image []byte, mediaType string) (*model.TagSet, error) {
	if s.tagger == nil {
		return nil, apperror.NotConfigured("image tagging")
	}
	tags, err := s.tagger.Tag(ctx, image, mediaType)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Search returns unsold listings whose category fields match q. An empty q
// returns every unsold listing.
func (s *ListingService) Search(ctx context.Context, q string) ([]model.Listing, error) {
	unsold, err := s.repo.ListUnsold(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/listing: listing unsold: %w", err)
	}
	out := make([]model.Listing, 0, len(unsold))
	for _, l := range unsold {
		if catalog.Matches(l.Categories(), q) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Browse returns unsold listings matching any of tags, or, with exclude,
// those matching none of them. No tags returns every unsold listing.
func (s *ListingService) Browse(ctx context.Context, tags []string, exclude bool) ([]model.Listing, error) {
	unsold, err := s.repo.ListUnsold(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/listing: listing unsold: %w", err)
	}
	if len(tags) == 0 {
		return unsold, nil
	}
	out := make([]model.Listing, 0, len(unsold))
	for _, l := range unsold {
		if catalog.MatchesAny(l.Categories(), tags) != exclude {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get returns one listing.
func (s *ListingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "Listing id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// MarkSold flips the sold flag. Marking a sold listing again succeeds.
func (s *ListingService) MarkSold(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperror.ValidationFailed("itemId", "Missing itemId")
	}
	if err := s.repo.MarkSold(ctx, id); err != nil {
		return err
	}
	s.logger.Info("listing marked sold", slog.String("id", id))
	return nil
}

// DecodeImage accepts raw base64 or a data URL and returns the bytes and a
// media type. An explicit mediaType wins over the one in the data URL;
// "image/jpeg" is the fallback.
func DecodeImage(data, mediaType string) ([]byte, string, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, "", apperror.ValidationFailed("image", "Image is required")
	}

	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", apperror.ValidationFailed("image", "Image must be base64 encoded")
		}
		if mediaType == "" {
			mediaType = strings.TrimSuffix(header, ";base64")
		}
		data = payload
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	image, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, "", apperror.ValidationFailed("image", "Image must be base64 encoded")
	}
	if len(image) == 0 {
		return nil, "", apperror.ValidationFailed("image", "Image is required")
	}
	return image, mediaType, nil
}
