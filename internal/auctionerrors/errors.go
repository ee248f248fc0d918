package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrNoBids          = errors.New("no bids found for listing")
)

// business logic errors
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoAuction       = errors.New("no auction on this listing")
	ErrAuctionClosed   = errors.New("auction has ended")
	ErrBidTooLow       = errors.New("bid amount too low")
	ErrOwnBid          = errors.New("cannot bid on own listing")
	ErrNotOwner        = errors.New("caller is not the listing owner")
	ErrUnauthenticated = errors.New("authentication required")
)
