package auction

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"auction-service/internal/auctionerrors"
	"auction-service/internal/models"
	"auction-service/utils"
)

// PostMessage appends a chat message to a listing's log
func (s *AuctionService) PostMessage(ctx context.Context, listingID string, sender models.UserIdentity, text string) (models.ChatMessage, error) {
	if listingID == "" || sender.UserID == "" || sender.Email == "" {
		return models.ChatMessage{}, fmt.Errorf("service: %w - missing listing ID or sender identity", auctionerrors.ErrInvalidInput)
	}
	if text == "" {
		return models.ChatMessage{}, fmt.Errorf("service: %w - empty message", auctionerrors.ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > s.maxChatLen {
		return models.ChatMessage{}, fmt.Errorf("service: %w - message exceeds %d characters", auctionerrors.ErrInvalidInput, s.maxChatLen)
	}

	msg := models.ChatMessage{
		MessageID:   utils.GenerateID(),
		ListingID:   listingID,
		SenderID:    sender.UserID,
		SenderEmail: sender.Email,
		Text:        text,
		CreatedAt:   s.now(),
	}
	if err := s.repo.AppendMessage(ctx, msg); err != nil {
		return models.ChatMessage{}, fmt.Errorf("service: failed to append message for listing %s: %w", listingID, err)
	}
	return msg, nil
}

// MessagesAfter returns a listing's chat messages created strictly after the
// given time, oldest first. Pollers pass the timestamp of the last message
// they saw.
func (s *AuctionService) MessagesAfter(ctx context.Context, listingID string, after time.Time) ([]models.ChatMessage, error) {
	if listingID == "" {
		return nil, fmt.Errorf("service: %w - empty listing ID", auctionerrors.ErrInvalidInput)
	}

	msgs, err := s.repo.MessagesAfter(ctx, listingID, after)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get messages for listing %s: %w", listingID, err)
	}
	return msgs, nil
}
