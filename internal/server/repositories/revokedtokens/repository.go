package revokedtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/server/models"
)

// Repository is the session token denylist consulted when logout revocation
// is enabled.
type Repository interface {
	Create(ctx context.Context, token models.RevokedToken) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
