package nats

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// Event subjects published by the auction service.
const (
	SubjectBidPlaced      = "auction.bid.placed"
	SubjectAuctionEnded   = "auction.ended"
	SubjectListingSettled = "auction.listing.settled"
)

// Publisher emits auction events over NATS.
type Publisher struct {
	conn *nats.Conn
}

// NewPublisher connects to the given NATS URL.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// Publish marshals data to JSON and publishes it on the subject.
func (p *Publisher) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

// Close drains the connection.
func (p *Publisher) Close() {
	p.conn.Close()
}
