package auction

import (
	"context"
	"errors"
	"fmt"

	"auction-service/internal/auctionerrors"
	"auction-service/internal/models"
	"auction-service/utils"
)

// PlaceBid validates and commits a user's bid on a listing.
//
// Preconditions are checked in a fixed order and the first failure wins:
// input validity, listing existence, auction enabled, auction effectively
// active (with lazy expiry persisted as a side effect), bidder is not the
// owner, and amount strictly above the current bid. The commit itself is a
// conditional write inside the repository, so a bid that loses a race against
// a concurrent higher bid is rejected with the fresh current bid instead of
// silently overwriting it.
func (s *AuctionService) PlaceBid(ctx context.Context, listingID string, bidder models.UserIdentity, amount float64) (models.Bid, models.Listing, error) {
	if listingID == "" || bidder.UserID == "" || bidder.Email == "" {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: %w - missing listing ID or bidder identity", auctionerrors.ErrInvalidInput)
	}
	if amount <= 0 {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	if !listing.HasAuction {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrNoAuction)
	}

	listing, err = s.refreshExpiry(ctx, listing)
	if err != nil {
		return models.Bid{}, models.Listing{}, err
	}
	if listing.Auction.Status != models.AuctionActive {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrAuctionClosed)
	}

	if isOwner(listing, bidder) {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrOwnBid)
	}

	if amount <= listing.Auction.CurrentBid {
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: bid must be higher than the current bid of %.2f: %w",
			listing.Auction.CurrentBid, auctionerrors.ErrBidTooLow)
	}

	bid := models.Bid{
		BidID:       utils.GenerateID(),
		ListingID:   listingID,
		BidderID:    bidder.UserID,
		BidderEmail: bidder.Email,
		Amount:      amount,
		IsWinning:   true,
		CreatedAt:   s.now(),
	}

	updated, err := s.repo.ApplyBid(ctx, bid)
	if err != nil {
		// A concurrent bid can invalidate the checks above between read and
		// commit. Re-read once so the rejection reflects the winner's write.
		if errors.Is(err, auctionerrors.ErrBidTooLow) {
			if fresh, rerr := s.repo.GetListing(ctx, listingID); rerr == nil {
				return models.Bid{}, models.Listing{}, fmt.Errorf("service: bid must be higher than the current bid of %.2f: %w",
					fresh.Auction.CurrentBid, auctionerrors.ErrBidTooLow)
			}
		}
		return models.Bid{}, models.Listing{}, fmt.Errorf("service: failed to record bid for listing %s by user %s: %w",
			listingID, bidder.UserID, err)
	}

	s.publish(ctx, SubjectBidPlaced, bid)
	return bid, updated, nil
}

// ListBids returns all bids for a listing, highest amount first and newest
// first among equal amounts
func (s *AuctionService) ListBids(ctx context.Context, listingID string) ([]models.Bid, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.repo.GetBidsByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}
