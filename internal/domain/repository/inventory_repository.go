package repository

import (
	"context"
	"time"

	"tradepost/internal/domain/entity"
)

type InventoryRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*entity.InventoryItem, error)

	// GetQuantity sums the user's holdings of one item. For ai items the id is
	// the instance id and the result is 0 or 1.
	GetQuantity(ctx context.Context, userID, itemID string) (int, error)
}

// SettlementRepository executes offer acceptance as one atomic exchange:
// both ledger halves, the history record and the completed transition commit
// together or not at all.
type SettlementRepository interface {
	Settle(ctx context.Context, offerID, acceptorID string, buyerItems []entity.ItemStack, now time.Time) (*entity.TradeHistory, error)
}
