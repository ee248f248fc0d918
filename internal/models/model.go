package models

import "time"

// AuctionStatus is the lifecycle state of a listing's auction.
type AuctionStatus string

const (
	AuctionNone   AuctionStatus = "none"
	AuctionActive AuctionStatus = "active"
	AuctionEnded  AuctionStatus = "ended"
)

// Listing statuses
const (
	ListingStatusListed = "listed"
	ListingStatusSold   = "sold"
)

// Settlement payment types
const (
	PaymentFull    = "full"
	PaymentPenalty = "penalty"
)

// UserIdentity identifies an authenticated caller (id + email from the session token)
type UserIdentity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// Auction holds the auction state embedded in a Listing.
// CurrentBid is always initialized to StartingBid, so the effective bid to
// beat is simply CurrentBid.
type Auction struct {
	Status             AuctionStatus `json:"status" bson:"status"`
	EndTime            *time.Time    `json:"end_time,omitempty" bson:"end_time,omitempty"`
	StartingBid        float64       `json:"starting_bid" bson:"starting_bid"`
	CurrentBid         float64       `json:"current_bid" bson:"current_bid"`
	HighestBidder      string        `json:"highest_bidder,omitempty" bson:"highest_bidder,omitempty"`
	HighestBidderEmail string        `json:"highest_bidder_email,omitempty" bson:"highest_bidder_email,omitempty"`
	TotalBids          int           `json:"total_bids" bson:"total_bids"`
}

// Listing represents an item for sale, optionally auction-enabled
type Listing struct {
	ListingID   string `json:"listing_id" bson:"_id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	OwnerID    string `json:"owner_id" bson:"owner_id"`
	OwnerEmail string `json:"owner_email" bson:"owner_email"`

	HasAuction bool    `json:"has_auction" bson:"has_auction"`
	Auction    Auction `json:"auction" bson:"auction"`

	Status string     `json:"status" bson:"status"`
	SoldAt *time.Time `json:"sold_at,omitempty" bson:"sold_at,omitempty"`

	PenaltyPaid   bool       `json:"penalty_paid" bson:"penalty_paid"`
	PenaltyPaidBy string     `json:"penalty_paid_by,omitempty" bson:"penalty_paid_by,omitempty"`
	PenaltyPaidAt *time.Time `json:"penalty_paid_at,omitempty" bson:"penalty_paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Bid represents a user's bid on a listing. Immutable after insert except for
// the IsWinning flag, which is cleared when a higher bid supersedes it.
type Bid struct {
	BidID       string    `json:"bid_id" bson:"_id"`
	ListingID   string    `json:"listing_id" bson:"listing_id"`
	BidderID    string    `json:"bidder_id" bson:"bidder_id"`
	BidderEmail string    `json:"bidder_email" bson:"bidder_email"`
	Amount      float64   `json:"amount" bson:"amount"`
	IsWinning   bool      `json:"is_winning" bson:"is_winning"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// ChatMessage is one entry in a listing's append-only chat log
type ChatMessage struct {
	MessageID   string    `json:"message_id" bson:"_id"`
	ListingID   string    `json:"listing_id" bson:"listing_id"`
	SenderID    string    `json:"sender_id" bson:"sender_id"`
	SenderEmail string    `json:"sender_email" bson:"sender_email"`
	Text        string    `json:"text" bson:"text"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
