package usecase

import (
	"context"
	"fmt"
	"time"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/pkg/errors"
	"tradepost/pkg/logger"
	"tradepost/pkg/utils"
)

type OfferUseCase struct {
	offerRepo     repository.OfferRepository
	inventoryRepo repository.InventoryRepository
	clock         repository.Clock
	feed          MarketFeed
}

func NewOfferUseCase(
	offerRepo repository.OfferRepository,
	inventoryRepo repository.InventoryRepository,
	clock repository.Clock,
	feed MarketFeed,
) *OfferUseCase {
	return &OfferUseCase{
		offerRepo:     offerRepo,
		inventoryRepo: inventoryRepo,
		clock:         clock,
		feed:          feed,
	}
}

type CreateOfferInput struct {
	OfferingItems   []entity.ItemStack
	RequestingItems []entity.ItemStack
	ExpiresHours    int
	Message         string
}

func (uc *OfferUseCase) CreateOffer(ctx context.Context, ownerID string, input CreateOfferInput) (*entity.TradeOffer, error) {
	if len(input.OfferingItems) == 0 {
		return nil, errors.Validation("Offering items must not be empty")
	}
	if err := validateStacks(input.OfferingItems); err != nil {
		return nil, err
	}
	if err := validateStacks(input.RequestingItems); err != nil {
		return nil, err
	}
	if !isAllowedExpiry(input.ExpiresHours) {
		return nil, errors.Validation(fmt.Sprintf("expires_hours must be one of %v", entity.AllowedExpiryHours))
	}

	// Snapshot check only. Offering items are never debited at creation; the
	// settlement re-validates the owner's live inventory at acceptance time.
	for _, st := range input.OfferingItems {
		available, err := uc.inventoryRepo.GetQuantity(ctx, ownerID, st.ItemID)
		if err != nil {
			return nil, err
		}
		if available < st.Quantity {
			return nil, errors.InsufficientQuantity(st.ItemID, st.Name, st.Quantity, available)
		}
	}

	now := uc.clock.Now()
	offer := &entity.TradeOffer{
		OwnerID:         ownerID,
		OfferingItems:   input.OfferingItems,
		RequestingItems: input.RequestingItems,
		Status:          entity.OfferStatusActive,
		Message:         input.Message,
		ExpiresAt:       now.Add(time.Duration(input.ExpiresHours) * time.Hour),
	}

	if err := uc.offerRepo.Create(ctx, offer); err != nil {
		return nil, err
	}

	uc.publish(EventOfferCreated, offer)

	return offer, nil
}

func (uc *OfferUseCase) GetOffer(ctx context.Context, offerID string) (*entity.TradeOffer, error) {
	return uc.offerRepo.GetByID(ctx, offerID)
}

func (uc *OfferUseCase) ListMarket(ctx context.Context, callerID string, page, limit int) ([]*entity.TradeOffer, int64, error) {
	pagination := utils.NewPaginationParams(page, limit)
	return uc.offerRepo.ListMarket(ctx, callerID, uc.clock.Now(), pagination.PageSize, pagination.Offset)
}

func (uc *OfferUseCase) ListMine(ctx context.Context, ownerID string, page, limit int) ([]*entity.TradeOffer, int64, error) {
	pagination := utils.NewPaginationParams(page, limit)
	return uc.offerRepo.ListByOwner(ctx, ownerID, pagination.PageSize, pagination.Offset)
}

func (uc *OfferUseCase) CancelOffer(ctx context.Context, callerID, offerID string) error {
	if err := uc.offerRepo.Cancel(ctx, offerID, callerID, uc.clock.Now()); err != nil {
		return err
	}

	uc.publish(EventOfferCancelled, map[string]string{"offer_id": offerID})

	return nil
}

// SweepExpired transitions stale active offers to expired. Each flip uses the
// same check-and-set as acceptance, so losing a race against a concurrent
// accept is expected and only logged.
func (uc *OfferUseCase) SweepExpired(ctx context.Context) (int, error) {
	now := uc.clock.Now()

	stale, err := uc.offerRepo.ListExpiredActive(ctx, now, 0)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, offer := range stale {
		if err := uc.offerRepo.Expire(ctx, offer.ID, now); err != nil {
			if errors.Is(err, "OFFER_NOT_ACTIVE") {
				logger.Debug("Offer %s settled before sweep could expire it", offer.ID)
				continue
			}
			logger.Warn("Failed to expire offer %s: %v", offer.ID, err)
			continue
		}
		expired++
		uc.publish(EventOfferExpired, map[string]string{"offer_id": offer.ID})
	}

	return expired, nil
}

// StartExpirySweeper runs SweepExpired on a fixed interval until ctx is done.
func (uc *OfferUseCase) StartExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-ticker.C:
				count, err := uc.SweepExpired(ctx)
				if err != nil {
					logger.Error("Expiry sweep failed: %v", err)
					continue
				}
				if count > 0 {
					logger.Info("Expiry sweep flipped %d offers", count)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	logger.Info("Expiry sweeper started (interval %s)", interval)
}

func (uc *OfferUseCase) publish(event string, payload interface{}) {
	if uc.feed != nil {
		uc.feed.Publish(event, payload)
	}
}

func validateStacks(stacks []entity.ItemStack) error {
	for _, st := range stacks {
		if st.ItemID == "" {
			return errors.Validation("Item id must not be empty")
		}
		if st.Quantity <= 0 {
			return errors.Validation(fmt.Sprintf("Quantity for %s must be positive", st.Name))
		}
		if st.IsAI() && st.Quantity != 1 {
			return errors.Validation(fmt.Sprintf("Unique item %s cannot stack", st.Name))
		}
	}
	return nil
}

func isAllowedExpiry(hours int) bool {
	for _, allowed := range entity.AllowedExpiryHours {
		if hours == allowed {
			return true
		}
	}
	return false
}
