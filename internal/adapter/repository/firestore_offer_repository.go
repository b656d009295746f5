package repository

import (
	"context"
	stderrors "errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/pkg/errors"
)

const offersCollection = "trade_offers"

type firestoreOfferRepository struct {
	client *firestore.Client
}

func NewFirestoreOfferRepository(client *firestore.Client) repository.OfferRepository {
	return &firestoreOfferRepository{
		client: client,
	}
}

func (r *firestoreOfferRepository) Create(ctx context.Context, offer *entity.TradeOffer) error {
	if offer.ID == "" {
		offer.ID = uuid.New().String()
	}

	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now

	_, err := r.client.Collection(offersCollection).Doc(offer.ID).Set(ctx, offer)
	if err != nil {
		return errors.Internal("Failed to create offer", err)
	}

	return nil
}

func (r *firestoreOfferRepository) GetByID(ctx context.Context, id string) (*entity.TradeOffer, error) {
	doc, err := r.client.Collection(offersCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.OfferNotFound(err)
		}
		return nil, errors.Internal("Failed to get offer", err)
	}

	var offer entity.TradeOffer
	if err := doc.DataTo(&offer); err != nil {
		return nil, errors.Internal("Failed to parse offer data", err)
	}

	return &offer, nil
}

func (r *firestoreOfferRepository) ListMarket(ctx context.Context, excludingUserID string, now time.Time, limit, offset int) ([]*entity.TradeOffer, int64, error) {
	query := r.client.Collection(offersCollection).
		Where("status", "==", entity.OfferStatusActive).
		Where("expiresAt", ">", now).
		OrderBy("expiresAt", firestore.Asc)

	iter := query.Documents(ctx)
	var offers []*entity.TradeOffer

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate offers", err)
		}

		var offer entity.TradeOffer
		if err := doc.DataTo(&offer); err != nil {
			return nil, 0, errors.Internal("Failed to parse offer data", err)
		}
		// Caller's own offers never show up on the market.
		if offer.OwnerID == excludingUserID {
			continue
		}
		offers = append(offers, &offer)
	}

	total := int64(len(offers))
	offers = paginateOffers(offers, limit, offset)

	return offers, total, nil
}

func (r *firestoreOfferRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entity.TradeOffer, int64, error) {
	query := r.client.Collection(offersCollection).
		Where("ownerId", "==", ownerID).
		OrderBy("createdAt", firestore.Desc)

	iter := query.Documents(ctx)
	var offers []*entity.TradeOffer

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate offers", err)
		}

		var offer entity.TradeOffer
		if err := doc.DataTo(&offer); err != nil {
			return nil, 0, errors.Internal("Failed to parse offer data", err)
		}
		offers = append(offers, &offer)
	}

	total := int64(len(offers))
	offers = paginateOffers(offers, limit, offset)

	return offers, total, nil
}

// Cancel flips active -> cancelled inside a transaction. A concurrent accept
// or expiry committing first makes this fail with OFFER_NOT_ACTIVE.
func (r *firestoreOfferRepository) Cancel(ctx context.Context, offerID, callerID string, now time.Time) error {
	docRef := r.client.Collection(offersCollection).Doc(offerID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.OfferNotFound(err)
			}
			return err
		}

		var offer entity.TradeOffer
		if err := doc.DataTo(&offer); err != nil {
			return err
		}

		if offer.OwnerID != callerID {
			return errors.NotOwner()
		}
		if offer.Status != entity.OfferStatusActive {
			return errors.OfferNotActive(offer.Status)
		}

		offer.Status = entity.OfferStatusCancelled
		offer.UpdatedAt = now

		return tx.Set(docRef, &offer)
	})

	return wrapTxError(err, "Failed to cancel offer")
}

// Expire flips active -> expired with the same check-and-set discipline, so a
// sweep cannot expire an offer that a concurrent accept already completed.
func (r *firestoreOfferRepository) Expire(ctx context.Context, offerID string, now time.Time) error {
	docRef := r.client.Collection(offersCollection).Doc(offerID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.OfferNotFound(err)
			}
			return err
		}

		var offer entity.TradeOffer
		if err := doc.DataTo(&offer); err != nil {
			return err
		}

		if offer.Status != entity.OfferStatusActive {
			return errors.OfferNotActive(offer.Status)
		}
		if !now.After(offer.ExpiresAt) {
			return errors.BadRequest("Offer has not expired yet", nil)
		}

		offer.Status = entity.OfferStatusExpired
		offer.UpdatedAt = now

		return tx.Set(docRef, &offer)
	})

	return wrapTxError(err, "Failed to expire offer")
}

func (r *firestoreOfferRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entity.TradeOffer, error) {
	query := r.client.Collection(offersCollection).
		Where("status", "==", entity.OfferStatusActive).
		Where("expiresAt", "<=", now).
		OrderBy("expiresAt", firestore.Asc)

	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var offers []*entity.TradeOffer

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate expired offers", err)
		}

		var offer entity.TradeOffer
		if err := doc.DataTo(&offer); err != nil {
			return nil, errors.Internal("Failed to parse offer data", err)
		}
		offers = append(offers, &offer)
	}

	return offers, nil
}

func paginateOffers(offers []*entity.TradeOffer, limit, offset int) []*entity.TradeOffer {
	if offset >= len(offers) {
		return nil
	}
	offers = offers[offset:]
	if limit > 0 && limit < len(offers) {
		offers = offers[:limit]
	}
	return offers
}

// wrapTxError keeps typed business failures intact and wraps everything else.
func wrapTxError(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.Internal(message, err)
}
