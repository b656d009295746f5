package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/pkg/errors"
	"tradepost/pkg/logger"
)

type SettlementUseCase struct {
	settlementRepo repository.SettlementRepository
	offerRepo      repository.OfferRepository
	clock          repository.Clock
	feed           MarketFeed
}

func NewSettlementUseCase(
	settlementRepo repository.SettlementRepository,
	offerRepo repository.OfferRepository,
	clock repository.Clock,
	feed MarketFeed,
) *SettlementUseCase {
	return &SettlementUseCase{
		settlementRepo: settlementRepo,
		offerRepo:      offerRepo,
		clock:          clock,
		feed:           feed,
	}
}

// AcceptOffer executes the exchange atomically and returns the history
// record. Retrying a completed offer fails cleanly with OFFER_NOT_ACTIVE
// instead of double-settling.
func (uc *SettlementUseCase) AcceptOffer(ctx context.Context, acceptorID, offerID string, buyerItems []entity.ItemStack) (*entity.TradeHistory, error) {
	now := uc.clock.Now()

	history, err := uc.settlementRepo.Settle(ctx, offerID, acceptorID, buyerItems, now)
	if err != nil {
		if errors.Is(err, "OFFER_EXPIRED") {
			// Opportunistic flip so the market stops listing it. Losing the
			// race against the sweeper here is harmless.
			if expireErr := uc.offerRepo.Expire(ctx, offerID, now); expireErr != nil && !errors.Is(expireErr, "OFFER_NOT_ACTIVE") {
				logger.Warn("Failed to flip expired offer %s: %v", offerID, expireErr)
			} else {
				uc.publish(EventOfferExpired, map[string]string{"offer_id": offerID})
			}
		}
		return nil, err
	}

	uc.publish(EventOfferCompleted, map[string]string{
		"offer_id":   offerID,
		"history_id": history.ID,
	})

	return history, nil
}

func (uc *SettlementUseCase) publish(event string, payload interface{}) {
	if uc.feed != nil {
		uc.feed.Publish(event, payload)
	}
}
