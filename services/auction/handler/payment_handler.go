package handler

import (
	"fmt"
	"net/http"

	"auction-service/services/auction/helpers"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

// PaymentCompletionHandler handles POST /payment/completion. The endpoint is
// unauthenticated: it is driven by the client after the payment-provider
// redirect and trusts the reported outcome.
func (h *AuctionHandler) PaymentCompletionHandler(c *gin.Context) {
	var req helpers.PaymentCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PaymentCompletionHandler", err)
		return
	}

	listing, err := h.service.ProcessCompletion(c.Request.Context(), req.ListingID, req.PaymentType)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("PaymentCompletionHandler: settlement failed", map[string]any{
			"listing_id":   req.ListingID,
			"payment_type": req.PaymentType,
			"error":        err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "payment processed successfully")
	helpers.LogSuccess("PaymentCompletionHandler", "payment processed successfully", map[string]any{
		"listing_id":   req.ListingID,
		"payment_type": req.PaymentType,
	})
}
