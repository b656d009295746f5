package repository

import (
	"context"
	"time"

	"tradepost/internal/domain/entity"
)

type OfferRepository interface {
	Create(ctx context.Context, offer *entity.TradeOffer) error
	GetByID(ctx context.Context, id string) (*entity.TradeOffer, error)

	// ListMarket returns active, non-expired offers not owned by the caller.
	ListMarket(ctx context.Context, excludingUserID string, now time.Time, limit, offset int) ([]*entity.TradeOffer, int64, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entity.TradeOffer, int64, error)

	// Cancel flips active -> cancelled for the owner. The status check and the
	// write happen in one transaction so a concurrent accept cannot race it.
	Cancel(ctx context.Context, offerID, callerID string, now time.Time) error

	// Expire flips active -> expired when expiresAt has passed. Same
	// check-and-set discipline as Cancel.
	Expire(ctx context.Context, offerID string, now time.Time) error

	// ListExpiredActive returns active offers whose expiresAt is in the past,
	// for the sweeper.
	ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entity.TradeOffer, error)
}
