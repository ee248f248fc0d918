package auction

import (
	"context"
	"fmt"

	"auction-service/internal/auctionerrors"
	"auction-service/internal/models"
	"auction-service/utils"
)

// ProcessCompletion finalizes a listing after the payment provider redirect.
//
// "full" marks the listing sold and closes the auction for good. "penalty"
// records that the winning bidder forfeited (paying the punitive fee instead
// of buying) and restores the listing to its pre-auction state so the owner
// can relaunch it.
//
// The caller is trusted: no payment verification happens here. That mirrors
// the provider-redirect flow this endpoint sits behind.
func (s *AuctionService) ProcessCompletion(ctx context.Context, listingID, paymentType string) (models.Listing, error) {
	if listingID == "" || paymentType == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing listing ID or payment type", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}

	var updated models.Listing
	switch paymentType {
	case models.PaymentFull:
		updated, err = s.repo.MarkSold(ctx, listingID, s.now())
	case models.PaymentPenalty:
		// The forfeiting bidder is whoever was winning before the reset wipes
		// the highest-bidder fields.
		updated, err = s.repo.ResetAuction(ctx, listingID, listing.Auction.HighestBidderEmail, s.now())
	default:
		return models.Listing{}, fmt.Errorf("service: %w - unknown payment type %q", auctionerrors.ErrInvalidInput, paymentType)
	}
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to settle listing %s: %w", listingID, err)
	}

	s.publish(ctx, SubjectListingSettled, updated)
	utils.Info("listing settled", map[string]any{
		"listing_id":   listingID,
		"payment_type": paymentType,
	})
	return updated, nil
}
