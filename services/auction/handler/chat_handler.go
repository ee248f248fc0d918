package handler

import (
	"fmt"
	"net/http"
	"time"

	model "auction-service/internal/models"
	"auction-service/services/auction/helpers"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

// PostMessageHandler handles POST /listings/:listing_id/messages
func (h *AuctionHandler) PostMessageHandler(c *gin.Context) {
	identity, ok := requireIdentity(c, "PostMessageHandler")
	if !ok {
		return
	}

	listingID := c.Param("listing_id")

	var req helpers.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PostMessageHandler", err)
		return
	}

	msg, err := h.service.PostMessage(c.Request.Context(), listingID, identity, req.Text)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("PostMessageHandler: failed to post message", map[string]any{
			"listing_id": listingID,
			"sender_id":  identity.UserID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, msg, "message posted successfully")
}

// ListMessagesHandler handles GET /listings/:listing_id/messages?after=
// The after parameter is RFC3339; pollers pass the timestamp of the last
// message they saw and get everything newer, oldest first.
func (h *AuctionHandler) ListMessagesHandler(c *gin.Context) {
	listingID := c.Param("listing_id")

	var after time.Time
	if raw := c.Query("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest,
				fmt.Errorf("invalid after timestamp: %w", err), "invalid after timestamp")
			return
		}
		after = parsed
	}

	msgs, err := h.service.MessagesAfter(c.Request.Context(), listingID, after)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("ListMessagesHandler: error retrieving messages", map[string]any{"listing_id": listingID, "error": err.Error()})
		return
	}

	if msgs == nil {
		msgs = []model.ChatMessage{}
	}

	utils.JSONResponse(c, http.StatusOK, msgs, "messages retrieved successfully")
}
