package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/pkg/errors"
	"tradepost/pkg/utils"
)

type HistoryUseCase struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryUseCase(historyRepo repository.HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{
		historyRepo: historyRepo,
	}
}

// RateTrade sets the rater's outgoing rating on a completed trade. The store
// re-checks the slot inside its transaction, so a duplicate call always fails
// with ALREADY_RATED and never overwrites.
func (uc *HistoryUseCase) RateTrade(ctx context.Context, raterID, historyID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return errors.InvalidRating(rating)
	}

	record, err := uc.historyRepo.GetByID(ctx, historyID)
	if err != nil {
		return err
	}

	party := record.RatingPartyOf(raterID)
	if party == "" {
		return errors.NotParticipant()
	}
	if record.HasRated(party) {
		return errors.AlreadyRated()
	}

	return uc.historyRepo.SetRating(ctx, historyID, party, rating, comment)
}

func (uc *HistoryUseCase) ListHistory(ctx context.Context, userID string, page, limit int) ([]*entity.TradeHistory, int64, error) {
	pagination := utils.NewPaginationParams(page, limit)
	return uc.historyRepo.ListByUser(ctx, userID, pagination.PageSize, pagination.Offset)
}

func (uc *HistoryUseCase) PendingRatingCount(ctx context.Context, userID string) (int, error) {
	return uc.historyRepo.CountPendingRatings(ctx, userID)
}
