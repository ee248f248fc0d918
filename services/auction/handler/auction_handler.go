package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"auction-service/internal/auctionerrors"
	auction "auction-service/internal/auctionService"
	model "auction-service/internal/models"
	"auction-service/services/auction/helpers"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key the auth middleware stores the caller
// identity under.
const IdentityKey = "identity"

type AuctionServiceInterface interface {
	PlaceBid(ctx context.Context, listingID string, bidder model.UserIdentity, amount float64) (model.Bid, model.Listing, error)
	ListBids(ctx context.Context, listingID string) ([]model.Bid, error)
	CreateListing(ctx context.Context, owner model.UserIdentity, in auction.CreateListingInput) (model.Listing, error)
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context) ([]model.Listing, error)
	EndAuction(ctx context.Context, listingID string, caller model.UserIdentity) (model.Listing, error)
	ExtendAuction(ctx context.Context, listingID string, caller model.UserIdentity, extensionHours int) (model.Listing, error)
	ProcessCompletion(ctx context.Context, listingID, paymentType string) (model.Listing, error)
	PostMessage(ctx context.Context, listingID string, sender model.UserIdentity, text string) (model.ChatMessage, error)
	MessagesAfter(ctx context.Context, listingID string, after time.Time) ([]model.ChatMessage, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CallerIdentity extracts the authenticated identity the middleware stored.
func CallerIdentity(c *gin.Context) (model.UserIdentity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return model.UserIdentity{}, false
	}
	identity, ok := v.(model.UserIdentity)
	return identity, ok
}

// requireIdentity responds 401 when no authenticated identity is present.
func requireIdentity(c *gin.Context, handlerName string) (model.UserIdentity, bool) {
	identity, ok := CallerIdentity(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthenticated, "authentication required")
		utils.Warn(handlerName+": missing identity", nil)
		return model.UserIdentity{}, false
	}
	return identity, true
}

// PlaceBidHandler handles POST /bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	identity, ok := requireIdentity(c, "PlaceBidHandler")
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	bid, listing, err := h.service.PlaceBid(c.Request.Context(), req.ListingID, identity, req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("PlaceBidHandler: failed to place bid", map[string]any{
			"listing_id": req.ListingID,
			"bidder_id":  identity.UserID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.PlaceBidResponse{
		Bid:     helpers.NewBidResponse(bid),
		Listing: helpers.NewListingSummary(listing),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"bid_id":     bid.BidID,
		"listing_id": bid.ListingID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount,
	})
}

// ListBidsHandler handles GET /bids?listing_id=
func (h *AuctionHandler) ListBidsHandler(c *gin.Context) {
	listingID := c.Query("listing_id")
	if listingID == "" {
		utils.JSONError(c, http.StatusBadRequest, auctionerrors.ErrInvalidInput, "missing listing_id")
		return
	}

	bids, err := h.service.ListBids(c.Request.Context(), listingID)
	if err != nil && !errors.Is(err, auctionerrors.ErrNoBids) {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListBidsHandler: error retrieving bids", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("ListBidsHandler", "bids retrieved successfully", map[string]any{
		"listing_id": listingID,
		"count":      len(bids),
	})
}
