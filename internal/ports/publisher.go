package ports

import (
	"context"

	"cyberguard/internal/domain/threat"
)

// IntelPublisher pushes honeypot events to an external consumer.
// Publishing is fire-and-forget: callers log failures and move on, and no
// delivery or replay guarantee exists.
type IntelPublisher interface {
	Publish(ctx context.Context, event threat.HoneypotEvent) error
}
