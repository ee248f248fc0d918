package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auction-service/internal/auctionerrors"
	model "auction-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo is the MongoDB implementation of AuctionDB. Listings carry the
// denormalized auction state; bids and chat messages live in their own
// collections keyed by listing id (string reference, no schema-level FK).
type MongoRepo struct {
	client   *mongo.Client
	listings *mongo.Collection
	bids     *mongo.Collection
	messages *mongo.Collection
}

// NewMongoRepo connects to MongoDB and prepares the collections and indexes.
func NewMongoRepo(ctx context.Context, uri, database string, connectTimeout time.Duration) (*MongoRepo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	repo := &MongoRepo{
		client:   client,
		listings: db.Collection("listings"),
		bids:     db.Collection("bids"),
		messages: db.Collection("messages"),
	}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	return repo, nil
}

func (r *MongoRepo) ensureIndexes(ctx context.Context) error {
	_, err := r.bids.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "amount", Value: -1}}},
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "is_winning", Value: 1}}},
	})
	if err != nil {
		return err
	}
	_, err = r.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

// Close disconnects the underlying client
func (r *MongoRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoRepo) CreateListing(ctx context.Context, listing model.Listing) error {
	if _, err := r.listings.InsertOne(ctx, listing); err != nil {
		return fmt.Errorf("create listing %s: %w", listing.ListingID, err)
	}
	return nil
}

func (r *MongoRepo) GetListing(ctx context.Context, listingID string) (model.Listing, error) {
	var listing model.Listing
	err := r.listings.FindOne(ctx, bson.M{"_id": listingID}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", listingID, err)
	}
	return listing, nil
}

func (r *MongoRepo) ListListings(ctx context.Context) ([]model.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.listings.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []model.Listing
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return listings, nil
}

// ApplyBid commits a bid inside a session transaction. The conditional
// FindOneAndUpdate on the listing is the linearization point: it only matches
// while the auction is active and the stored current bid is strictly below the
// new amount, so of two racing bids at most one can pass. The ledger updates
// (clearing the previous winning flag, inserting the new winning bid) ride in
// the same transaction, which keeps the single-winner invariant even when two
// winners commit back to back.
func (r *MongoRepo) ApplyBid(ctx context.Context, bid model.Bid) (model.Listing, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return model.Listing{}, fmt.Errorf("apply bid for listing %s: %w", bid.ListingID, err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		filter := bson.M{
			"_id":                 bid.ListingID,
			"auction.status":      model.AuctionActive,
			"auction.current_bid": bson.M{"$lt": bid.Amount},
		}
		update := bson.M{
			"$set": bson.M{
				"auction.current_bid":          bid.Amount,
				"auction.highest_bidder":       bid.BidderID,
				"auction.highest_bidder_email": bid.BidderEmail,
				"updated_at":                   bid.CreatedAt,
			},
			"$inc": bson.M{"auction.total_bids": 1},
		}
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var listing model.Listing
		if err := r.listings.FindOneAndUpdate(sc, filter, update, opts).Decode(&listing); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, r.diagnoseBidRejection(sc, bid)
			}
			return nil, err
		}

		if _, err := r.bids.UpdateMany(sc,
			bson.M{"listing_id": bid.ListingID, "is_winning": true},
			bson.M{"$set": bson.M{"is_winning": false}},
		); err != nil {
			return nil, err
		}
		bid.IsWinning = true
		if _, err := r.bids.InsertOne(sc, bid); err != nil {
			return nil, err
		}
		return listing, nil
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("apply bid for listing %s: %w", bid.ListingID, err)
	}
	return result.(model.Listing), nil
}

// diagnoseBidRejection distinguishes why the conditional update missed: the
// listing is gone, the auction is no longer active, or the bid lost a race and
// is now too low.
func (r *MongoRepo) diagnoseBidRejection(ctx context.Context, bid model.Bid) error {
	var listing model.Listing
	err := r.listings.FindOne(ctx, bson.M{"_id": bid.ListingID}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return auctionerrors.ErrListingNotFound
	}
	if err != nil {
		return err
	}
	if listing.Auction.Status != model.AuctionActive {
		return auctionerrors.ErrAuctionClosed
	}
	return fmt.Errorf("current bid is %.2f: %w", listing.Auction.CurrentBid, auctionerrors.ErrBidTooLow)
}

func (r *MongoRepo) GetBidsByListing(ctx context.Context, listingID string) ([]model.Bid, error) {
	if _, err := r.GetListing(ctx, listingID); err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "amount", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.bids.Find(ctx, bson.M{"listing_id": listingID}, opts)
	if err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	bids := make([]model.Bid, 0)
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, fmt.Errorf("get bids for listing %s: %w", listingID, err)
	}
	return bids, nil
}

func (r *MongoRepo) MarkAuctionEnded(ctx context.Context, listingID string) (model.Listing, error) {
	update := bson.M{"$set": bson.M{"auction.status": model.AuctionEnded}}
	return r.conditionalTransition(ctx, listingID, update)
}

func (r *MongoRepo) EndAuction(ctx context.Context, listingID string, endedAt time.Time) (model.Listing, error) {
	update := bson.M{"$set": bson.M{
		"auction.status":   model.AuctionEnded,
		"auction.end_time": endedAt,
		"updated_at":       endedAt,
	}}
	return r.conditionalTransition(ctx, listingID, update)
}

func (r *MongoRepo) ExtendAuction(ctx context.Context, listingID string, newEnd time.Time) (model.Listing, error) {
	update := bson.M{"$set": bson.M{
		"auction.end_time": newEnd,
		"updated_at":       newEnd,
	}}
	return r.conditionalTransition(ctx, listingID, update)
}

// conditionalTransition applies an update only while the auction is active.
// When the conditional update misses, the current listing is returned
// unchanged, which makes all three transitions idempotent on ended auctions.
func (r *MongoRepo) conditionalTransition(ctx context.Context, listingID string, update interface{}) (model.Listing, error) {
	filter := bson.M{"_id": listingID, "auction.status": model.AuctionActive}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var listing model.Listing
	err := r.listings.FindOneAndUpdate(ctx, filter, update, opts).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.GetListing(ctx, listingID)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("transition listing %s: %w", listingID, err)
	}
	return listing, nil
}

func (r *MongoRepo) MarkSold(ctx context.Context, listingID string, soldAt time.Time) (model.Listing, error) {
	update := bson.M{"$set": bson.M{
		"status":         model.ListingStatusSold,
		"auction.status": model.AuctionEnded,
		"sold_at":        soldAt,
		"updated_at":     soldAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var listing model.Listing
	err := r.listings.FindOneAndUpdate(ctx, bson.M{"_id": listingID}, update, opts).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Listing{}, fmt.Errorf("mark sold for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("mark sold for listing %s: %w", listingID, err)
	}
	return listing, nil
}

func (r *MongoRepo) ResetAuction(ctx context.Context, listingID string, forfeitedBy string, paidAt time.Time) (model.Listing, error) {
	// Pipeline update so current_bid can be reset from the document's own
	// starting_bid in a single round trip.
	update := bson.A{
		bson.M{"$set": bson.M{
			"has_auction":         false,
			"auction.status":      model.AuctionNone,
			"auction.current_bid": "$auction.starting_bid",
			"auction.total_bids":  0,
			"penalty_paid":        true,
			"penalty_paid_by":     forfeitedBy,
			"penalty_paid_at":     paidAt,
			"updated_at":          paidAt,
		}},
		bson.M{"$unset": bson.A{
			"auction.end_time",
			"auction.highest_bidder",
			"auction.highest_bidder_email",
		}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var listing model.Listing
	err := r.listings.FindOneAndUpdate(ctx, bson.M{"_id": listingID}, update, opts).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Listing{}, fmt.Errorf("reset auction for listing %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	if err != nil {
		return model.Listing{}, fmt.Errorf("reset auction for listing %s: %w", listingID, err)
	}
	return listing, nil
}

func (r *MongoRepo) AppendMessage(ctx context.Context, msg model.ChatMessage) error {
	if _, err := r.GetListing(ctx, msg.ListingID); err != nil {
		return err
	}
	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("append message for listing %s: %w", msg.ListingID, err)
	}
	return nil
}

func (r *MongoRepo) MessagesAfter(ctx context.Context, listingID string, after time.Time) ([]model.ChatMessage, error) {
	filter := bson.M{"listing_id": listingID, "created_at": bson.M{"$gt": after}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("get messages for listing %s: %w", listingID, err)
	}
	defer cursor.Close(ctx)

	msgs := make([]model.ChatMessage, 0)
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("get messages for listing %s: %w", listingID, err)
	}
	return msgs, nil
}
