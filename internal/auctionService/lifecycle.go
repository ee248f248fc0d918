package auction

import (
	"context"
	"fmt"
	"time"

	"auction-service/internal/auctionerrors"
	"auction-service/internal/models"
	"auction-service/utils"
)

// CreateListingInput carries the owner-supplied fields for a new listing.
type CreateListingInput struct {
	Title         string
	Description   string
	StartingBid   float64
	HasAuction    bool
	DurationHours int
}

// effectiveStatus computes the auction status a caller should observe at the
// given instant. Every entry point goes through this one function, so an
// expired-but-unobserved auction can never accept a bid: the stored "active"
// is corrected on the next touch.
func effectiveStatus(listing models.Listing, now time.Time) models.AuctionStatus {
	if !listing.HasAuction {
		return models.AuctionNone
	}
	if listing.Auction.Status == models.AuctionActive &&
		listing.Auction.EndTime != nil && now.After(*listing.Auction.EndTime) {
		return models.AuctionEnded
	}
	return listing.Auction.Status
}

// refreshExpiry persists the lazy active->ended transition when the listing's
// end time has passed. Idempotent: an already-ended listing passes through
// unchanged and its end time is never touched again.
func (s *AuctionService) refreshExpiry(ctx context.Context, listing models.Listing) (models.Listing, error) {
	if listing.Auction.Status != models.AuctionActive ||
		effectiveStatus(listing, s.now()) != models.AuctionEnded {
		return listing, nil
	}

	updated, err := s.repo.MarkAuctionEnded(ctx, listing.ListingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to expire auction for listing %s: %w", listing.ListingID, err)
	}
	s.publish(ctx, SubjectAuctionEnded, updated)
	utils.Info("auction expired lazily", map[string]any{
		"listing_id": listing.ListingID,
		"end_time":   listing.Auction.EndTime,
	})
	return updated, nil
}

// CreateListing validates input and stores a new listing. With HasAuction set
// the auction opens immediately: end time = now + duration (default 24h) and
// the current bid starts at the starting bid.
func (s *AuctionService) CreateListing(ctx context.Context, owner models.UserIdentity, in CreateListingInput) (models.Listing, error) {
	if owner.UserID == "" || owner.Email == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing owner identity", auctionerrors.ErrInvalidInput)
	}
	if in.Title == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing title", auctionerrors.ErrInvalidInput)
	}
	if in.StartingBid < 0 {
		return models.Listing{}, fmt.Errorf("service: %w - negative starting bid", auctionerrors.ErrInvalidInput)
	}
	if in.DurationHours < 0 {
		return models.Listing{}, fmt.Errorf("service: %w - negative auction duration", auctionerrors.ErrInvalidInput)
	}

	now := s.now()
	listing := models.Listing{
		ListingID:   utils.GenerateID(),
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     owner.UserID,
		OwnerEmail:  owner.Email,
		HasAuction:  in.HasAuction,
		Status:      models.ListingStatusListed,
		Auction: models.Auction{
			Status:      models.AuctionNone,
			StartingBid: in.StartingBid,
			CurrentBid:  in.StartingBid,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.HasAuction {
		duration := s.defaultDuration
		if in.DurationHours > 0 {
			duration = time.Duration(in.DurationHours) * time.Hour
		}
		end := now.Add(duration)
		listing.Auction.Status = models.AuctionActive
		listing.Auction.EndTime = &end
	}

	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing: %w", err)
	}
	return listing, nil
}

// GetListing returns a listing by id, applying lazy expiry on the way out
func (s *AuctionService) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}
	return s.refreshExpiry(ctx, listing)
}

// ListListings returns all listings, applying lazy expiry to each
func (s *AuctionService) ListListings(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.repo.ListListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	for i, l := range listings {
		refreshed, err := s.refreshExpiry(ctx, l)
		if err != nil {
			return nil, err
		}
		listings[i] = refreshed
	}
	return listings, nil
}

// isOwner reports whether the caller is the listing owner. The stored owner
// identity is immutable after creation, so this comparison is enough.
func isOwner(listing models.Listing, caller models.UserIdentity) bool {
	return (caller.UserID != "" && caller.UserID == listing.OwnerID) ||
		(caller.Email != "" && caller.Email == listing.OwnerEmail)
}

// EndAuction force-ends an active auction on behalf of the listing owner.
// Ending an already-ended auction is an idempotent no-op.
func (s *AuctionService) EndAuction(ctx context.Context, listingID string, caller models.UserIdentity) (models.Listing, error) {
	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}
	if !isOwner(listing, caller) {
		return models.Listing{}, fmt.Errorf("service: %w - only the owner may end the auction", auctionerrors.ErrNotOwner)
	}
	if !listing.HasAuction {
		return models.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrNoAuction)
	}
	if listing.Auction.Status != models.AuctionActive {
		return listing, nil
	}

	updated, err := s.repo.EndAuction(ctx, listingID, s.now())
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to end auction for listing %s: %w", listingID, err)
	}
	s.publish(ctx, SubjectAuctionEnded, updated)
	utils.Info("auction ended by owner", map[string]any{"listing_id": listingID, "owner_id": listing.OwnerID})
	return updated, nil
}

// ExtendAuction adds extensionHours (default 24) to an active auction's end
// time. The new end time is relative to the OLD end time, not to now. An
// ended auction is left untouched and returned as-is.
func (s *AuctionService) ExtendAuction(ctx context.Context, listingID string, caller models.UserIdentity, extensionHours int) (models.Listing, error) {
	if extensionHours < 0 {
		return models.Listing{}, fmt.Errorf("service: %w - negative extension", auctionerrors.ErrInvalidInput)
	}

	listing, err := s.GetListing(ctx, listingID)
	if err != nil {
		return models.Listing{}, err
	}
	if !isOwner(listing, caller) {
		return models.Listing{}, fmt.Errorf("service: %w - only the owner may extend the auction", auctionerrors.ErrNotOwner)
	}
	if !listing.HasAuction {
		return models.Listing{}, fmt.Errorf("service: %w", auctionerrors.ErrNoAuction)
	}
	if listing.Auction.Status != models.AuctionActive {
		// Extension on an ended auction is explicitly a no-op.
		return listing, nil
	}

	extension := s.defaultExtension
	if extensionHours > 0 {
		extension = time.Duration(extensionHours) * time.Hour
	}
	base := s.now()
	if listing.Auction.EndTime != nil {
		base = *listing.Auction.EndTime
	}

	updated, err := s.repo.ExtendAuction(ctx, listingID, base.Add(extension))
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to extend auction for listing %s: %w", listingID, err)
	}
	utils.Info("auction extended", map[string]any{
		"listing_id": listingID,
		"new_end":    updated.Auction.EndTime,
	})
	return updated, nil
}
