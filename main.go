package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"auction-service/internal/auth"
	auction "auction-service/internal/auctionService"
	"auction-service/internal/config"
	natspub "auction-service/internal/messaging/nats"
	model "auction-service/internal/models"
	"auction-service/internal/repository"
	"auction-service/internal/server"
	"auction-service/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}

	gin.SetMode(cfg.HTTP.Mode)
	ctx := context.Background()

	repo, cleanup := buildRepository(ctx, cfg)
	defer cleanup()

	opts := []auction.Option{
		auction.WithDurations(cfg.Auction.DefaultDuration, cfg.Auction.DefaultExtension),
		auction.WithMaxChatMessageLen(cfg.Auction.MaxChatMessageLen),
	}
	if cfg.NATS.URL != "" {
		publisher, err := natspub.NewPublisher(cfg.NATS.URL)
		if err != nil {
			utils.Fatal("failed to connect to NATS", map[string]any{"url": cfg.NATS.URL, "error": err.Error()})
		}
		defer publisher.Close()
		opts = append(opts, auction.WithPublisher(publisher))
	}
	auctionSvc := auction.NewAuctionService(repo, opts...)

	jwtManager := auth.NewJWTManager(jwtSecret(cfg), cfg.JWT.Duration)
	router := server.SetupRouter(auctionSvc, jwtManager)

	addr := ":" + cfg.HTTP.Port
	utils.Info("starting auction server", map[string]any{"addr": addr})
	if err := router.Run(addr); err != nil {
		utils.Fatal("server stopped", map[string]any{"error": err.Error()})
	}
}

// buildRepository picks the storage backend from config: MongoDB when a URI is
// configured (optionally fronted by a Redis listing cache), otherwise the
// in-memory store seeded with sample listings for local development.
func buildRepository(ctx context.Context, cfg *config.Config) (repository.AuctionDB, func()) {
	if cfg.Mongo.URI == "" {
		utils.Info("no mongo.uri configured, using in-memory repository", nil)
		memRepo := repository.NewMemoryRepo()
		prepopulateListings(memRepo)
		return memRepo, func() {}
	}

	mongoRepo, err := repository.NewMongoRepo(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.ConnectTimeout)
	if err != nil {
		utils.Fatal("failed to connect to MongoDB", map[string]any{"error": err.Error()})
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoRepo.Close(shutdownCtx); err != nil {
			utils.Error("mongo disconnect failed", map[string]any{"error": err.Error()})
		}
	}

	if cfg.Redis.Address == "" {
		return mongoRepo, cleanup
	}

	cached, err := repository.NewCachedAuctionDB(ctx, cfg.Redis.Address, cfg.Redis.TTL, mongoRepo)
	if err != nil {
		utils.Fatal("failed to connect to Redis", map[string]any{"address": cfg.Redis.Address, "error": err.Error()})
	}
	return cached, func() {
		if err := cached.Close(); err != nil {
			utils.Error("redis close failed", map[string]any{"error": err.Error()})
		}
		cleanup()
	}
}

// jwtSecret returns the configured signing secret, or a random per-process one
// so a dev instance still boots. Tokens then won't survive a restart.
func jwtSecret(cfg *config.Config) string {
	if cfg.JWT.Secret != "" {
		return cfg.JWT.Secret
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		utils.Fatal("failed to generate jwt secret", map[string]any{"error": err.Error()})
	}
	utils.Warn("jwt.secret not configured, using a random per-process secret", nil)
	return hex.EncodeToString(buf)
}

// prepopulateListings seeds sample auction listings into the in-memory repo
func prepopulateListings(repo *repository.MemoryRepo) {
	now := time.Now().UTC()
	for i, starting := range []float64{100, 200, 150} {
		end := now.Add(24 * time.Hour)
		repo.AddListing(model.Listing{
			ListingID:   fmt.Sprintf("listing%d", i+1),
			Title:       fmt.Sprintf("title%d", i+1),
			Description: fmt.Sprintf("description%d", i+1),
			OwnerID:     "owner1",
			OwnerEmail:  "owner1@example.com",
			HasAuction:  true,
			Status:      model.ListingStatusListed,
			Auction: model.Auction{
				Status:      model.AuctionActive,
				EndTime:     &end,
				StartingBid: starting,
				CurrentBid:  starting,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
}
