package repository

import (
	"context"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/pkg/errors"
)

type firestoreHistoryRepository struct {
	client *firestore.Client
}

func NewFirestoreHistoryRepository(client *firestore.Client) repository.HistoryRepository {
	return &firestoreHistoryRepository{
		client: client,
	}
}

func (r *firestoreHistoryRepository) GetByID(ctx context.Context, id string) (*entity.TradeHistory, error) {
	doc, err := r.client.Collection(historyCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.HistoryNotFound(err)
		}
		return nil, errors.Internal("Failed to get trade history", err)
	}

	var record entity.TradeHistory
	if err := doc.DataTo(&record); err != nil {
		return nil, errors.Internal("Failed to parse trade history data", err)
	}

	return &record, nil
}

func (r *firestoreHistoryRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.TradeHistory, int64, error) {
	records, err := r.collectByField(ctx, "sellerId", userID)
	if err != nil {
		return nil, 0, err
	}
	asBuyer, err := r.collectByField(ctx, "buyerId", userID)
	if err != nil {
		return nil, 0, err
	}
	records = append(records, asBuyer...)

	sortHistoryByCompletedAt(records)

	total := int64(len(records))
	if offset >= len(records) {
		return nil, total, nil
	}
	records = records[offset:]
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	return records, total, nil
}

// SetRating fills the party's slot inside a transaction; the slot-empty check
// is re-run against the committed document, so a second rating attempt fails
// with ALREADY_RATED instead of overwriting the first value.
func (r *firestoreHistoryRepository) SetRating(ctx context.Context, historyID, party string, rating int, comment string) error {
	docRef := r.client.Collection(historyCollection).Doc(historyID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.HistoryNotFound(err)
			}
			return err
		}

		var record entity.TradeHistory
		if err := doc.DataTo(&record); err != nil {
			return err
		}

		if record.HasRated(party) {
			return errors.AlreadyRated()
		}

		var ratingField, commentField string
		switch party {
		case entity.RatingPartySeller:
			ratingField, commentField = "sellerRating", "sellerComment"
		case entity.RatingPartyBuyer:
			ratingField, commentField = "buyerRating", "buyerComment"
		default:
			return errors.NotParticipant()
		}

		return tx.Update(docRef, []firestore.Update{
			{Path: ratingField, Value: rating},
			{Path: commentField, Value: comment},
		})
	})

	return wrapTxError(err, "Failed to set rating")
}

func (r *firestoreHistoryRepository) CountPendingRatings(ctx context.Context, userID string) (int, error) {
	asSeller, err := r.collectByField(ctx, "sellerId", userID)
	if err != nil {
		return 0, err
	}
	asBuyer, err := r.collectByField(ctx, "buyerId", userID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, record := range asSeller {
		if record.SellerRating == nil {
			count++
		}
	}
	for _, record := range asBuyer {
		if record.BuyerRating == nil {
			count++
		}
	}

	return count, nil
}

func (r *firestoreHistoryRepository) collectByField(ctx context.Context, field, userID string) ([]*entity.TradeHistory, error) {
	query := r.client.Collection(historyCollection).Where(field, "==", userID)

	iter := query.Documents(ctx)
	var records []*entity.TradeHistory

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate trade history", err)
		}

		var record entity.TradeHistory
		if err := doc.DataTo(&record); err != nil {
			return nil, errors.Internal("Failed to parse trade history data", err)
		}
		records = append(records, &record)
	}

	return records, nil
}

func sortHistoryByCompletedAt(records []*entity.TradeHistory) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
}
