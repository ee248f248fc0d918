package helpers

// Request/Response DTOs
type PlaceBidRequest struct {
	ListingID string  `json:"listing_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type CreateListingRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   string  `json:"description"`
	StartingBid   float64 `json:"starting_bid" binding:"gte=0"`
	HasAuction    bool    `json:"has_auction"`
	DurationHours int     `json:"duration_hours" binding:"gte=0"`
}

// UpdateListingRequest carries the owner-initiated lifecycle actions. Exactly
// one of EndAuction / ExtendAuction is expected to be set.
type UpdateListingRequest struct {
	EndAuction     bool `json:"end_auction"`
	ExtendAuction  bool `json:"extend_auction"`
	ExtensionHours int  `json:"extension_hours" binding:"gte=0"`
}

type PaymentCompletionRequest struct {
	ListingID   string `json:"listing_id" binding:"required"`
	PaymentType string `json:"payment_type" binding:"required"`
}

type PostMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

type BidResponse struct {
	BidID       string  `json:"bid_id"`
	ListingID   string  `json:"listing_id"`
	BidderID    string  `json:"bidder_id"`
	BidderEmail string  `json:"bidder_email"`
	Amount      float64 `json:"amount"`
	IsWinning   bool    `json:"is_winning"`
	CreatedAt   string  `json:"created_at"`
}

// ListingSummary is the denormalized auction view returned alongside a bid.
type ListingSummary struct {
	ListingID          string  `json:"listing_id"`
	CurrentBid         float64 `json:"current_bid"`
	HighestBidder      string  `json:"highest_bidder"`
	HighestBidderEmail string  `json:"highest_bidder_email"`
	TotalBids          int     `json:"total_bids"`
}

type PlaceBidResponse struct {
	Bid     BidResponse    `json:"bid"`
	Listing ListingSummary `json:"listing"`
}
