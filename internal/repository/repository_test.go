package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"

	"github.com/stretchr/testify/require"
)

// Helper to create an auction-enabled listing
func newAuctionListing(listingID, ownerEmail string, startingBid float64, end time.Time) model.Listing {
	return model.Listing{
		ListingID:   listingID,
		Title:       fmt.Sprintf("%s title", listingID),
		Description: fmt.Sprintf("%s description", listingID),
		OwnerID:     "owner-" + listingID,
		OwnerEmail:  ownerEmail,
		HasAuction:  true,
		Status:      model.ListingStatusListed,
		Auction: model.Auction{
			Status:      model.AuctionActive,
			EndTime:     &end,
			StartingBid: startingBid,
			CurrentBid:  startingBid,
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

// Helper to create a new Bid
func newBid(bidID, listingID, bidderID string, amount float64, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:       bidID,
		ListingID:   listingID,
		BidderID:    bidderID,
		BidderEmail: bidderID + "@example.com",
		Amount:      amount,
		CreatedAt:   createdAt,
	}
}

// Test ApplyBid
func TestMemoryRepo_ApplyBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	end := time.Now().Add(time.Hour)

	// Table-driven test cases
	tests := []struct {
		name      string
		seed      func(repo *MemoryRepo)
		bid       model.Bid
		wantErr   error
		wantCur   float64
		wantTotal int
	}{
		{
			name:      "first_bid_above_starting",
			seed:      func(r *MemoryRepo) { r.AddListing(newAuctionListing("l1", "o@example.com", 100, end)) },
			bid:       newBid("b1", "l1", "user1", 150, time.Now()),
			wantCur:   150,
			wantTotal: 1,
		},
		{
			name:    "listing_not_found",
			seed:    func(r *MemoryRepo) {},
			bid:     newBid("b2", "missing", "user1", 150, time.Now()),
			wantErr: auctionerrors.ErrListingNotFound,
		},
		{
			name: "auction_not_active",
			seed: func(r *MemoryRepo) {
				l := newAuctionListing("l2", "o@example.com", 100, end)
				l.Auction.Status = model.AuctionEnded
				r.AddListing(l)
			},
			bid:     newBid("b3", "l2", "user1", 150, time.Now()),
			wantErr: auctionerrors.ErrAuctionClosed,
		},
		{
			name:    "bid_equal_to_current",
			seed:    func(r *MemoryRepo) { r.AddListing(newAuctionListing("l3", "o@example.com", 100, end)) },
			bid:     newBid("b4", "l3", "user1", 100, time.Now()),
			wantErr: auctionerrors.ErrBidTooLow,
		},
		{
			name:    "bid_below_current",
			seed:    func(r *MemoryRepo) { r.AddListing(newAuctionListing("l4", "o@example.com", 100, end)) },
			bid:     newBid("b5", "l4", "user1", 80, time.Now()),
			wantErr: auctionerrors.ErrBidTooLow,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMemoryRepo()
			tc.seed(repo)

			listing, err := repo.ApplyBid(ctx, tc.bid)
			if tc.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantErr), "expected error: %v, got: %v", tc.wantErr, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCur, listing.Auction.CurrentBid)
			require.Equal(t, tc.wantTotal, listing.Auction.TotalBids)
			require.Equal(t, tc.bid.BidderID, listing.Auction.HighestBidder)
			require.Equal(t, tc.bid.BidderEmail, listing.Auction.HighestBidderEmail)
		})
	}
}

// A superseding bid must clear the previous winning flag; exactly one bid per
// listing stays winning and it matches the listing's denormalized fields.
func TestMemoryRepo_ApplyBid_SingleWinner(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, time.Now().Add(time.Hour)))

	_, err := repo.ApplyBid(ctx, newBid("b1", "l1", "user1", 150, time.Now()))
	require.NoError(t, err)
	listing, err := repo.ApplyBid(ctx, newBid("b2", "l1", "user2", 200, time.Now()))
	require.NoError(t, err)

	bids, err := repo.GetBidsByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, bids, 2)

	var winners []model.Bid
	for _, b := range bids {
		if b.IsWinning {
			winners = append(winners, b)
		}
	}
	require.Len(t, winners, 1)
	require.Equal(t, "b2", winners[0].BidID)
	require.Equal(t, winners[0].Amount, listing.Auction.CurrentBid)
	require.Equal(t, winners[0].BidderID, listing.Auction.HighestBidder)
}

// Rejected bids never mutate the listing
func TestMemoryRepo_ApplyBid_RejectionLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, time.Now().Add(time.Hour)))

	_, err := repo.ApplyBid(ctx, newBid("b1", "l1", "user1", 150, time.Now()))
	require.NoError(t, err)

	_, err = repo.ApplyBid(ctx, newBid("b2", "l1", "user2", 120, time.Now()))
	require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow))

	listing, err := repo.GetListing(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, 150.0, listing.Auction.CurrentBid)
	require.Equal(t, 1, listing.Auction.TotalBids)
	require.Equal(t, "user1", listing.Auction.HighestBidder)
}

// concurrency test: many racing bids, the monotonic chain must hold
func TestMemoryRepo_ApplyBid_Concurrent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 50, time.Now().Add(time.Hour)))

	var wg sync.WaitGroup
	concurrentCount := 50
	results := make([]error, concurrentCount)

	for i := 0; i < concurrentCount; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			b := newBid(fmt.Sprintf("bid-%d", i), "l1", fmt.Sprintf("user-%d", i), float64(100+i), time.Now())
			_, results[i] = repo.ApplyBid(ctx, b)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.True(t, errors.Is(err, auctionerrors.ErrBidTooLow), "loser must observe ErrBidTooLow, got: %v", err)
		}
	}
	require.GreaterOrEqual(t, succeeded, 1)

	// The highest amount always lands; accepted bids form a strictly
	// increasing chain ending at it.
	listing, err := repo.GetListing(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, float64(100+concurrentCount-1), listing.Auction.CurrentBid)
	require.Equal(t, succeeded, listing.Auction.TotalBids)

	bids, err := repo.GetBidsByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, bids, succeeded)

	winners := 0
	for _, b := range bids {
		if b.IsWinning {
			winners++
			require.Equal(t, listing.Auction.CurrentBid, b.Amount)
		}
	}
	require.Equal(t, 1, winners)
}

// Test GetBidsByListing ordering: amount desc, then recency desc
func TestMemoryRepo_GetBidsByListing_Sorted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 10, time.Now().Add(time.Hour)))

	base := time.Now()
	for i := 0; i < 5; i++ {
		_, err := repo.ApplyBid(ctx, newBid(fmt.Sprintf("bid-%d", i), "l1", fmt.Sprintf("user-%d", i), float64(20+i*10), base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	bids, err := repo.GetBidsByListing(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, bids, 5)
	for i := 1; i < len(bids); i++ {
		require.GreaterOrEqual(t, bids[i-1].Amount, bids[i].Amount)
	}
	require.Equal(t, "bid-4", bids[0].BidID)

	_, err = repo.GetBidsByListing(ctx, "missing")
	require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))
}

// Test MarkAuctionEnded: transitions once, never touches the end time
func TestMemoryRepo_MarkAuctionEnded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	end := time.Now().Add(-time.Second)
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, end))

	listing, err := repo.MarkAuctionEnded(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, model.AuctionEnded, listing.Auction.Status)
	require.True(t, listing.Auction.EndTime.Equal(end))

	// idempotent: a second call changes nothing
	again, err := repo.MarkAuctionEnded(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, model.AuctionEnded, again.Auction.Status)
	require.True(t, again.Auction.EndTime.Equal(end))

	_, err = repo.MarkAuctionEnded(ctx, "missing")
	require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))
}

// Test EndAuction and ExtendAuction conditional transitions
func TestMemoryRepo_EndAndExtendAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	end := time.Now().Add(time.Hour)
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, end))

	newEnd := end.Add(48 * time.Hour)
	listing, err := repo.ExtendAuction(ctx, "l1", newEnd)
	require.NoError(t, err)
	require.True(t, listing.Auction.EndTime.Equal(newEnd))

	endedAt := time.Now()
	listing, err = repo.EndAuction(ctx, "l1", endedAt)
	require.NoError(t, err)
	require.Equal(t, model.AuctionEnded, listing.Auction.Status)
	require.True(t, listing.Auction.EndTime.Equal(endedAt))

	// both are no-ops once ended
	listing, err = repo.ExtendAuction(ctx, "l1", endedAt.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, listing.Auction.EndTime.Equal(endedAt))

	listing, err = repo.EndAuction(ctx, "l1", endedAt.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, listing.Auction.EndTime.Equal(endedAt))
}

// Test MarkSold
func TestMemoryRepo_MarkSold(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, time.Now().Add(time.Hour)))

	soldAt := time.Now()
	listing, err := repo.MarkSold(ctx, "l1", soldAt)
	require.NoError(t, err)
	require.Equal(t, model.ListingStatusSold, listing.Status)
	require.Equal(t, model.AuctionEnded, listing.Auction.Status)
	require.NotNil(t, listing.SoldAt)
	require.True(t, listing.SoldAt.Equal(soldAt))
}

// Test ResetAuction: pre-auction state restored, penalty stamped
func TestMemoryRepo_ResetAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, time.Now().Add(time.Hour)))

	_, err := repo.ApplyBid(ctx, newBid("b1", "l1", "user1", 500, time.Now()))
	require.NoError(t, err)

	paidAt := time.Now()
	listing, err := repo.ResetAuction(ctx, "l1", "user1@example.com", paidAt)
	require.NoError(t, err)

	require.False(t, listing.HasAuction)
	require.Equal(t, model.AuctionNone, listing.Auction.Status)
	require.Nil(t, listing.Auction.EndTime)
	require.Equal(t, 100.0, listing.Auction.CurrentBid)
	require.Equal(t, 0, listing.Auction.TotalBids)
	require.Empty(t, listing.Auction.HighestBidder)
	require.Empty(t, listing.Auction.HighestBidderEmail)
	require.True(t, listing.PenaltyPaid)
	require.Equal(t, "user1@example.com", listing.PenaltyPaidBy)
	require.NotNil(t, listing.PenaltyPaidAt)
}

// Test the chat log: append + poll-after contract
func TestMemoryRepo_Messages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 100, time.Now().Add(time.Hour)))

	base := time.Now()
	for i := 0; i < 5; i++ {
		err := repo.AppendMessage(ctx, model.ChatMessage{
			MessageID: fmt.Sprintf("m%d", i),
			ListingID: "l1",
			SenderID:  "user1",
			Text:      fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	msgs, err := repo.MessagesAfter(ctx, "l1", base.Add(2*time.Second))
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m3", msgs[0].MessageID)
	require.Equal(t, "m4", msgs[1].MessageID)

	all, err := repo.MessagesAfter(ctx, "l1", time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 5)

	err = repo.AppendMessage(ctx, model.ChatMessage{MessageID: "mX", ListingID: "missing", CreatedAt: base})
	require.True(t, errors.Is(err, auctionerrors.ErrListingNotFound))
}

// concurrent reads while a writer races
func TestMemoryRepo_ConcurrentReadWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	repo.AddListing(newAuctionListing("l1", "o@example.com", 50, time.Now().Add(time.Hour)))

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		i := i
		go func() {
			defer wg.Done()
			_, _ = repo.ApplyBid(ctx, newBid(fmt.Sprintf("bid-%d", i), "l1", fmt.Sprintf("user-%d", i), float64(100+i), time.Now()))
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.GetListing(ctx, "l1")
			require.NoError(t, err)
		}()
	}
	wg.Wait()
}
