package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	model "auction-service/internal/models"
	"auction-service/utils"

	"github.com/redis/go-redis/v9"
)

// CachedAuctionDB decorates an AuctionDB with a Redis read cache for single
// listings. Every mutating operation invalidates the cached entry, so readers
// never see a bid or lifecycle transition older than the last write. Cache
// failures degrade to the inner store, never to an error.
type CachedAuctionDB struct {
	inner  AuctionDB
	client *redis.Client
	ttl    time.Duration
}

// NewCachedAuctionDB connects to Redis and wraps the given store.
func NewCachedAuctionDB(ctx context.Context, addr string, ttl time.Duration, inner AuctionDB) (*CachedAuctionDB, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &CachedAuctionDB{inner: inner, client: client, ttl: ttl}, nil
}

func listingKey(listingID string) string {
	return "listing:" + listingID
}

func (c *CachedAuctionDB) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	data, err := c.client.Get(ctx, listingKey(listingID)).Bytes()
	if err == nil {
		var listing model.Listing
		if err := json.Unmarshal(data, &listing); err == nil {
			return listing, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		utils.Warn("listing cache read failed", map[string]any{"listing_id": listingID, "error": err.Error()})
	}

	listing, err := c.inner.GetListing(ctx, listingID)
	if err != nil {
		return model.Listing{}, err
	}
	if data, err := json.Marshal(listing); err == nil {
		if err := c.client.Set(ctx, listingKey(listingID), data, c.ttl).Err(); err != nil {
			utils.Warn("listing cache write failed", map[string]any{"listing_id": listingID, "error": err.Error()})
		}
	}
	return listing, nil
}

func (c *CachedAuctionDB) invalidate(ctx context.Context, listingID string) {
	if err := c.client.Del(ctx, listingKey(listingID)).Err(); err != nil {
		utils.Warn("listing cache invalidation failed", map[string]any{"listing_id": listingID, "error": err.Error()})
	}
}

func (c *CachedAuctionDB) CreateListing(ctx context.Context, listing model.Listing) error {
	if err := c.inner.CreateListing(ctx, listing); err != nil {
		return err
	}
	c.invalidate(ctx, listing.ListingID)
	return nil
}

func (c *CachedAuctionDB) ListListings(ctx context.Context) ([]model.Listing, error) {
	return c.inner.ListListings(ctx)
}

func (c *CachedAuctionDB) ApplyBid(ctx context.Context, bid model.Bid) (model.Listing, error) {
	listing, err := c.inner.ApplyBid(ctx, bid)
	if err != nil {
		return model.Listing{}, err
	}
	c.invalidate(ctx, bid.ListingID)
	return listing, nil
}

func (c *CachedAuctionDB) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	return c.inner.GetBidsByListing(ctx, listingID)
}

func (c *CachedAuctionDB) MarkAuctionEnded(ctx context.Context, listingID string) (model.Listing, error) {
	listing, err := c.inner.MarkAuctionEnded(ctx, listingID)
	if err != nil {
		return model.Listing{}, err
	}
	c.invalidate(ctx, listingID)
	return listing, nil
}

func (c *CachedAuctionDB) EndAuction(ctx context.Context, listingID string, endedAt time.Time) (model.Listing, error) {
	listing, err := c.inner.EndAuction(ctx, listingID, endedAt)
	if err != nil {
		return model.Listing{}, err
	}
	c.invalidate(ctx, listingID)
	return listing, nil
}

func (c *CachedAuctionDB) ExtendAuction(ctx context.Context, listingID string, newEnd time.Time) (model.Listing, error) {
	listing, err := c.inner.ExtendAuction(ctx, listingID, newEnd)
	if err != nil {
		return model.Listing{}, err
	}
	c.invalidate(ctx, listingID)
	return listing, nil
}

func (c *CachedAuctionDB) MarkSold(ctx context.Context, listingID string, soldAt time.Time) (model.Listing, error) {
	listing, err := c.inner.MarkSold(ctx, listingID, soldAt)
	if err != nil {
		return model.Listing{}, err
	}
	c.invalidate(ctx, listingID)
	return listing, nil
}

func (c *CachedAuctionDB) ResetAuction(ctx context.Context, listingID string, forfeitedBy string, paidAt time.Time) (model.Listing, error) {
	listing, err := c.inner.ResetAuction(ctx, listingID, forfeitedBy, paidAt)
	if err != nil {
		return model.Listing{}, err
	}
	c.invalidate(ctx, listingID)
	return listing, nil
}

func (c *CachedAuctionDB) AppendMessage(ctx context.Context, msg model.ChatMessage) error {
	return c.inner.AppendMessage(ctx, msg)
}

func (c *CachedAuctionDB) MessagesAfter(ctx context.Context, listingID string, after time.Time) ([]model.ChatMessage, error) {
	return c.inner.MessagesAfter(ctx, listingID, after)
}

// Close releases the Redis connection
func (c *CachedAuctionDB) Close() error {
	return c.client.Close()
}
