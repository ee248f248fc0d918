package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"
)

// AuctionDB defines the storage interface for listings, bids and chat logs.
//
// ApplyBid and the lifecycle transitions are conditional primitives: they
// re-check the listing state inside the storage layer's own atomicity scope,
// so two racing bids can never both pass validation against a stale read.
type AuctionDB interface {
	CreateListing(ctx context.Context, listing model.Listing) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context) ([]model.Listing, error)

	// ApplyBid commits a bid as one atomic unit: it bumps the listing's
	// current bid only while the auction is still active and the amount is
	// strictly greater than the stored current bid, clears the previous
	// winning bid's flag and inserts the new bid as winning. A race loser
	// gets ErrBidTooLow (or ErrAuctionClosed if the auction ended mid-flight).
	ApplyBid(ctx context.Context, bid model.Bid) (model.Listing, error)
	GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error)

	// MarkAuctionEnded is the lazy-expiry transition: active -> ended with the
	// end time left untouched. Idempotent on an already-ended listing.
	MarkAuctionEnded(ctx context.Context, listingID string) (model.Listing, error)
	// EndAuction is the owner-initiated force end: active -> ended with the
	// end time stamped to endedAt. No-op if the auction is not active.
	EndAuction(ctx context.Context, listingID string, endedAt time.Time) (model.Listing, error)
	// ExtendAuction moves the end time while the auction is still active.
	ExtendAuction(ctx context.Context, listingID string, newEnd time.Time) (model.Listing, error)

	MarkSold(ctx context.Context, listingID string, soldAt time.Time) (model.Listing, error)
	// ResetAuction restores a listing to its pre-auction state after a penalty
	// settlement: auction off, current bid back to the starting bid, bid
	// counters and highest-bidder fields cleared, penalty bookkeeping stamped.
	ResetAuction(ctx context.Context, listingID string, forfeitedBy string, paidAt time.Time) (model.Listing, error)

	AppendMessage(ctx context.Context, msg model.ChatMessage) error
	// MessagesAfter returns a listing's chat messages with CreatedAt strictly
	// after the given time, oldest first (monotonic polling contract).
	MessagesAfter(ctx context.Context, listingID string, after time.Time) ([]model.ChatMessage, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB.
// The single mutex makes every conditional primitive atomic, which is exactly
// the per-listing exclusion the bid path needs.
type MemoryRepo struct {
	mu       sync.RWMutex
	listings map[string]model.Listing      // key: listingID
	bids     map[string][]model.Bid        // key: listingID -> bids in insertion order
	messages map[string][]model.ChatMessage // key: listingID -> append-only chat log
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings: make(map[string]model.Listing),
		bids:     make(map[string][]model.Bid),
		messages: make(map[string][]model.ChatMessage),
	}
}

// CreateListing stores a new listing
func (r *MemoryRepo) CreateListing(_ context.Context, listing model.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[listing.ListingID]; ok {
		return fmt.Errorf("create listing %s: listing already exists", listing.ListingID)
	}
	r.listings[listing.ListingID] = listing
	return nil
}

// GetListing returns a listing by id
func (r *MemoryRepo) GetListing(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return listing, nil
}

// ListListings returns all listings ordered by creation time, newest first
func (r *MemoryRepo) ListListings(_ context.Context) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listings := make([]model.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		listings = append(listings, l)
	}
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
	return listings, nil
}

// ApplyBid atomically validates and commits a bid against the stored listing state
func (r *MemoryRepo) ApplyBid(_ context.Context, bid model.Bid) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[bid.ListingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("apply bid for listing %s: %w", bid.ListingID, auctionerrors.ErrListingNotFound)
	}
	if listing.Auction.Status != model.AuctionActive {
		return model.Listing{}, fmt.Errorf("apply bid for listing %s: %w", bid.ListingID, auctionerrors.ErrAuctionClosed)
	}
	if bid.Amount <= listing.Auction.CurrentBid {
		return model.Listing{}, fmt.Errorf("apply bid for listing %s: current bid is %.2f: %w",
			bid.ListingID, listing.Auction.CurrentBid, auctionerrors.ErrBidTooLow)
	}

	bids := r.bids[bid.ListingID]
	for i := range bids {
		bids[i].IsWinning = false
	}
	bid.IsWinning = true
	r.bids[bid.ListingID] = append(bids, bid)

	listing.Auction.CurrentBid = bid.Amount
	listing.Auction.HighestBidder = bid.BidderID
	listing.Auction.HighestBidderEmail = bid.BidderEmail
	listing.Auction.TotalBids++
	listing.UpdatedAt = bid.CreatedAt
	r.listings[bid.ListingID] = listing

	return listing, nil
}

// GetBidsByListing returns all bids for a listing, highest amount first and
// newest first among equal amounts
func (r *MemoryRepo) GetBidsByListing(_ context.Context, listingID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	bids := append([]model.Bid(nil), r.bids[listingID]...)
	sort.Slice(bids, func(i, j int) bool {
		if bids[i].Amount != bids[j].Amount {
			return bids[i].Amount > bids[j].Amount
		}
		return bids[i].CreatedAt.After(bids[j].CreatedAt)
	})
	return bids, nil
}

// MarkAuctionEnded transitions an active auction to ended without touching the
// end time. Re-observing an already-ended listing is a no-op.
func (r *MemoryRepo) MarkAuctionEnded(_ context.Context, listingID string) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("mark auction ended for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if listing.Auction.Status == model.AuctionActive {
		listing.Auction.Status = model.AuctionEnded
		r.listings[listingID] = listing
	}
	return listing, nil
}

// EndAuction force-ends an active auction, stamping the end time
func (r *MemoryRepo) EndAuction(_ context.Context, listingID string, endedAt time.Time) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("end auction for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if listing.Auction.Status == model.AuctionActive {
		listing.Auction.Status = model.AuctionEnded
		listing.Auction.EndTime = &endedAt
		listing.UpdatedAt = endedAt
		r.listings[listingID] = listing
	}
	return listing, nil
}

// ExtendAuction moves the end time of a still-active auction
func (r *MemoryRepo) ExtendAuction(_ context.Context, listingID string, newEnd time.Time) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("extend auction for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if listing.Auction.Status == model.AuctionActive {
		listing.Auction.EndTime = &newEnd
		r.listings[listingID] = listing
	}
	return listing, nil
}

// MarkSold finalizes a listing as sold after a full payment
func (r *MemoryRepo) MarkSold(_ context.Context, listingID string, soldAt time.Time) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("mark sold for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	listing.Status = model.ListingStatusSold
	if listing.Auction.Status == model.AuctionActive {
		listing.Auction.Status = model.AuctionEnded
	}
	listing.SoldAt = &soldAt
	listing.UpdatedAt = soldAt
	r.listings[listingID] = listing
	return listing, nil
}

// ResetAuction restores the pre-auction state after a penalty settlement
func (r *MemoryRepo) ResetAuction(_ context.Context, listingID string, forfeitedBy string, paidAt time.Time) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[listingID]
	if !ok {
		return model.Listing{}, fmt.Errorf("reset auction for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	listing.HasAuction = false
	listing.Auction.Status = model.AuctionNone
	listing.Auction.EndTime = nil
	listing.Auction.CurrentBid = listing.Auction.StartingBid
	listing.Auction.HighestBidder = ""
	listing.Auction.HighestBidderEmail = ""
	listing.Auction.TotalBids = 0
	listing.PenaltyPaid = true
	listing.PenaltyPaidBy = forfeitedBy
	listing.PenaltyPaidAt = &paidAt
	listing.UpdatedAt = paidAt
	r.listings[listingID] = listing
	return listing, nil
}

// AppendMessage appends a chat message to a listing's log
func (r *MemoryRepo) AppendMessage(_ context.Context, msg model.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.listings[msg.ListingID]; !ok {
		return fmt.Errorf("append message for listing %s: %w", msg.ListingID, auctionerrors.ErrListingNotFound)
	}
	r.messages[msg.ListingID] = append(r.messages[msg.ListingID], msg)
	return nil
}

// MessagesAfter returns chat messages created strictly after the given time,
// oldest first
func (r *MemoryRepo) MessagesAfter(_ context.Context, listingID string, after time.Time) ([]model.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.listings[listingID]; !ok {
		return nil, fmt.Errorf("get messages for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}

	msgs := make([]model.ChatMessage, 0)
	for _, m := range r.messages[listingID] {
		if m.CreatedAt.After(after) {
			msgs = append(msgs, m)
		}
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

// AddListing stores a listing directly, bypassing validation. Intended for
// tests and local seeding.
func (r *MemoryRepo) AddListing(listing model.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ListingID] = listing
}
