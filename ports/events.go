package ports

import (
	"context"

	"github.com/aniverse/walletbridge/core"
)

// EventPublisher broadcasts session lifecycle events to other instances.
type EventPublisher interface {
	PublishConnected(ctx context.Context, p *core.Principal, created bool) error
	PublishLogout(ctx context.Context, principalID, address string) error
}
