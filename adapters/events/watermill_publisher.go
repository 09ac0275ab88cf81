package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/aniverse/walletbridge/core"
	"github.com/aniverse/walletbridge/ports"
)

const (
	// TopicConnected carries wallet connection events.
	TopicConnected = "walletbridge.session.connected"

	// TopicLogout carries session teardown events.
	TopicLogout = "walletbridge.session.logout"
)

// ConnectedEvent is broadcast when a wallet completes the exchange.
type ConnectedEvent struct {
	PrincipalID   string `json:"principal_id"`
	WalletAddress string `json:"wallet_address"`
	Created       bool   `json:"created"`
}

// LogoutEvent is broadcast when a session is torn down.
type LogoutEvent struct {
	PrincipalID   string `json:"principal_id"`
	WalletAddress string `json:"wallet_address"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishConnected publishes a wallet connection event.
func (p *WatermillPublisher) PublishConnected(ctx context.Context, principal *core.Principal, created bool) error {
	return p.publish(TopicConnected, ConnectedEvent{
		PrincipalID:   principal.ID,
		WalletAddress: principal.WalletAddress,
		Created:       created,
	})
}

// PublishLogout publishes a session teardown event.
func (p *WatermillPublisher) PublishLogout(ctx context.Context, principalID, address string) error {
	return p.publish(TopicLogout, LogoutEvent{
		PrincipalID:   principalID,
		WalletAddress: address,
	})
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishConnected(ctx context.Context, p *core.Principal, created bool) error {
	return nil
}

func (NopPublisher) PublishLogout(ctx context.Context, principalID, address string) error {
	return nil
}
