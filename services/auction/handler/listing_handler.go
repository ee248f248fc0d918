package handler

import (
	"fmt"
	"net/http"

	auction "auction-service/internal/auctionService"
	"auction-service/services/auction/helpers"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

// CreateListingHandler handles POST /listings
func (h *AuctionHandler) CreateListingHandler(c *gin.Context) {
	identity, ok := requireIdentity(c, "CreateListingHandler")
	if !ok {
		return
	}

	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), identity, auction.CreateListingInput{
		Title:         req.Title,
		Description:   req.Description,
		StartingBid:   req.StartingBid,
		HasAuction:    req.HasAuction,
		DurationHours: req.DurationHours,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("CreateListingHandler: failed to create listing", map[string]any{
			"owner_id": identity.UserID,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, listing, "listing created successfully")
	helpers.LogSuccess("CreateListingHandler", "listing created successfully", map[string]any{
		"listing_id":  listing.ListingID,
		"owner_id":    listing.OwnerID,
		"has_auction": listing.HasAuction,
	})
}

// GetListingHandler handles GET /listings/:listing_id
func (h *AuctionHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("listing_id")
	listing, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetListingHandler: error retrieving listing", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "listing retrieved successfully")
}

// ListListingsHandler handles GET /listings
func (h *AuctionHandler) ListListingsHandler(c *gin.Context) {
	listings, err := h.service.ListListings(c.Request.Context())
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListListingsHandler: error retrieving listings", map[string]any{"error": err.Error()})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listings, "listings retrieved successfully")
}

// UpdateListingHandler handles PUT /listings/:listing_id with the owner
// lifecycle actions (end or extend the auction).
func (h *AuctionHandler) UpdateListingHandler(c *gin.Context) {
	identity, ok := requireIdentity(c, "UpdateListingHandler")
	if !ok {
		return
	}

	listingID := c.Param("listing_id")

	var req helpers.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UpdateListingHandler", err)
		return
	}
	if !req.EndAuction && !req.ExtendAuction {
		utils.JSONError(c, http.StatusBadRequest,
			fmt.Errorf("invalid request payload: no action requested"), "invalid request payload")
		return
	}

	var (
		listing interface{}
		err     error
		action  string
	)
	if req.EndAuction {
		action = "end_auction"
		listing, err = h.service.EndAuction(c.Request.Context(), listingID, identity)
	} else {
		action = "extend_auction"
		listing, err = h.service.ExtendAuction(c.Request.Context(), listingID, identity, req.ExtensionHours)
	}
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("UpdateListingHandler: failed to update listing", map[string]any{
			"listing_id": listingID,
			"action":     action,
			"caller_id":  identity.UserID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "listing updated successfully")
	helpers.LogSuccess("UpdateListingHandler", "listing updated successfully", map[string]any{
		"listing_id": listingID,
		"action":     action,
	})
}
