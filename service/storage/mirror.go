package storage

import (
	"context"
	"time"
)

// Mirror adapts the presence keys to the gateway's PresenceMirror interface.
type Mirror struct {
	GatewayID string
	TTL       time.Duration
}

func (m *Mirror) Online(ctx context.Context, userID string) error {
	return PresenceOnline(ctx, userID, m.GatewayID, m.TTL)
}

func (m *Mirror) Offline(ctx context.Context, userID string) error {
	return PresenceOffline(ctx, userID)
}
