package server

import (
	"auction-service/internal/auth"
	handler "auction-service/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.AuctionServiceInterface, jwtManager *auth.JWTManager) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service)
	authenticated := AuthMiddleware(jwtManager)

	bids := router.Group("/bids")
	{
		bids.POST("", authenticated, auctionHandler.PlaceBidHandler)
		bids.GET("", auctionHandler.ListBidsHandler)
	}

	listings := router.Group("/listings")
	{
		listings.POST("", authenticated, auctionHandler.CreateListingHandler)
		listings.GET("", auctionHandler.ListListingsHandler)
		listings.GET("/:listing_id", auctionHandler.GetListingHandler)
		listings.PUT("/:listing_id", authenticated, auctionHandler.UpdateListingHandler)
		listings.GET("/:listing_id/messages", auctionHandler.ListMessagesHandler)
		listings.POST("/:listing_id/messages", authenticated, auctionHandler.PostMessageHandler)
	}

	payment := router.Group("/payment")
	{
		// Driven by the client after the payment-provider redirect; no auth
		// is enforced on this path.
		payment.POST("/completion", auctionHandler.PaymentCompletionHandler)
	}

	return router
}
