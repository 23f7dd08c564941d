package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/madison-marketplace/internal/model"
	"github.com/sakif/madison-marketplace/internal/pricing"
	"github.com/sakif/madison-marketplace/internal/repository"
)

// PricingService answers price-trend queries. It never writes.
type PricingService struct {
	repo   repository.ListingRepository
	logger *slog.Logger
}

func NewPricingService(repo repository.ListingRepository, logger *slog.Logger) *PricingService {
	return &PricingService{repo: repo, logger: logger}
}

// Trends computes the median over the most recent sold listings matching
// term. When the ordered read fails it retries once unordered, and recency
// is then best effort.
func (s *PricingService) Trends(ctx context.Context, term string) (model.PriceTrend, error) {
	listings, err := s.repo.ListRecent(ctx, pricing.FetchCap)
	if err != nil {
		s.logger.Warn("ordered price query failed, falling back to unordered read",
			slog.String("error", err.Error()),
		)
		listings, err = s.repo.ListAll(ctx, pricing.FetchCap)
		if err != nil {
			return model.PriceTrend{}, fmt.Errorf("service/pricing: reading listings: %w", err)
		}
	}

	records := make([]pricing.Record, len(listings))
	for i, l := range listings {
		records[i] = pricing.FromListing(l)
	}
	return pricing.Aggregate(records, term), nil
}
