package auction

import (
	"context"
	"time"

	"auction-service/internal/repository"
	"auction-service/utils"
)

// Publisher emits auction events. Implementations must tolerate being called
// from the hot bid path: publishing is best-effort and never fails the caller.
type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Event subjects emitted by the service.
const (
	SubjectBidPlaced      = "auction.bid.placed"
	SubjectAuctionEnded   = "auction.ended"
	SubjectListingSettled = "auction.listing.settled"
)

// AuctionService implements the auction core: the bidding engine, the
// lifecycle controller and the settlement resolver over a shared AuctionDB.
// Auction expiry is never scheduled; it is re-checked lazily on every access.
type AuctionService struct {
	repo             repository.AuctionDB
	events           Publisher
	defaultDuration  time.Duration
	defaultExtension time.Duration
	maxChatLen       int
	now              func() time.Time
}

// Option configures an AuctionService.
type Option func(*AuctionService)

// WithPublisher attaches an event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *AuctionService) { s.events = p }
}

// WithDurations overrides the default auction duration and extension.
func WithDurations(duration, extension time.Duration) Option {
	return func(s *AuctionService) {
		if duration > 0 {
			s.defaultDuration = duration
		}
		if extension > 0 {
			s.defaultExtension = extension
		}
	}
}

// WithMaxChatMessageLen overrides the chat message length limit.
func WithMaxChatMessageLen(n int) Option {
	return func(s *AuctionService) {
		if n > 0 {
			s.maxChatLen = n
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) { s.now = now }
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, opts ...Option) *AuctionService {
	s := &AuctionService{
		repo:             repo,
		defaultDuration:  24 * time.Hour,
		defaultExtension: 24 * time.Hour,
		maxChatLen:       500,
		now:              func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// publish emits an event if a publisher is configured. Failures are logged
// and swallowed: events never fail the operation that produced them.
func (s *AuctionService) publish(ctx context.Context, subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, data); err != nil {
		utils.Warn("event publish failed", map[string]any{"subject": subject, "error": err.Error()})
	}
}
