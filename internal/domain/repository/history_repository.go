package repository

import (
	"context"

	"tradepost/internal/domain/entity"
)

type HistoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.TradeHistory, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.TradeHistory, int64, error)

	// SetRating fills the given party's rating slot. The slot-still-empty check
	// and the write happen in one transaction; a second call fails with
	// ALREADY_RATED instead of overwriting.
	SetRating(ctx context.Context, historyID, party string, rating int, comment string) error

	// CountPendingRatings counts records where the user participated and has
	// not yet used their own outgoing rating slot.
	CountPendingRatings(ctx context.Context, userID string) (int, error)
}
