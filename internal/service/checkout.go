package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/madison-marketplace/internal/apperror"
	"github.com/sakif/madison-marketplace/internal/payment"
)

const (
	MsgPaymentSucceeded    = "Payment successful! The item has been marked as sold."
	MsgListingUpdateFailed = "Payment succeeded but listing update failed."
)

// Receipt is the outcome of a checkout that passed card validation.
type Receipt struct {
	ListingID       string `json:"listingId"`
	PaymentAccepted bool   `json:"paymentAccepted"`
	ListingUpdated  bool   `json:"listingUpdated"`
	Message         string `json:"message"`
}

// CheckoutService runs the simulated payment flow. No money moves and no
// card data is stored.
type CheckoutService struct {
	listings *ListingService
	logger   *slog.Logger
}

func NewCheckoutService(listings *ListingService, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{listings: listings, logger: logger}
}

// Checkout validates card and then marks the listing sold. card is wiped on
// every path.
//
// A failed sold-flag update after validation is not an error: the buyer
// gets a receipt with ListingUpdated false.
func (s *CheckoutService) Checkout(ctx context.Context, listingID string, card *payment.Card) (*Receipt, error) {
	defer card.Wipe()

	if strings.TrimSpace(listingID) == "" {
		return nil, apperror.ValidationFailed("itemId", "Missing itemId")
	}
	if err := card.Validate(); err != nil {
		return nil, err
	}

	receipt := &Receipt{ListingID: listingID, PaymentAccepted: true}
	if err := s.listings.MarkSold(ctx, listingID); err != nil {
		s.logger.Error("payment accepted but listing update failed",
			slog.String("id", listingID),
			slog.String("error", err.Error()),
		)
		receipt.Message = MsgListingUpdateFailed
		return receipt, nil
	}

	receipt.ListingUpdated = true
	receipt.Message = MsgPaymentSucceeded
	return receipt, nil
}
