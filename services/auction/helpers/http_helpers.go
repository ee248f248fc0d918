package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrListingNotFound):
		return http.StatusNotFound, "listing not found"
	case errors.Is(err, auctionerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auctionerrors.ErrOwnBid):
		return http.StatusForbidden, "cannot bid on own listing"
	case errors.Is(err, auctionerrors.ErrNotOwner):
		return http.StatusForbidden, "only the listing owner may do this"
	case errors.Is(err, auctionerrors.ErrNoAuction):
		return http.StatusBadRequest, "no auction on this listing"
	case errors.Is(err, auctionerrors.ErrAuctionClosed):
		return http.StatusBadRequest, "auction has ended"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusBadRequest, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request details"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}

// NewBidResponse converts a bid model to its response DTO
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:       bid.BidID,
		ListingID:   bid.ListingID,
		BidderID:    bid.BidderID,
		BidderEmail: bid.BidderEmail,
		Amount:      bid.Amount,
		IsWinning:   bid.IsWinning,
		CreatedAt:   bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewListingSummary extracts the denormalized auction fields from a listing
func NewListingSummary(listing model.Listing) ListingSummary {
	return ListingSummary{
		ListingID:          listing.ListingID,
		CurrentBid:         listing.Auction.CurrentBid,
		HighestBidder:      listing.Auction.HighestBidder,
		HighestBidderEmail: listing.Auction.HighestBidderEmail,
		TotalBids:          listing.Auction.TotalBids,
	}
}
