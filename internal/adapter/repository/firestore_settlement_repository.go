package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/pkg/errors"
)

const historyCollection = "trade_history"

type firestoreSettlementRepository struct {
	client *firestore.Client
}

func NewFirestoreSettlementRepository(client *firestore.Client) repository.SettlementRepository {
	return &firestoreSettlementRepository{
		client: client,
	}
}

// Settle runs the whole acceptance inside one Firestore transaction: offer
// and both inventories are read as a snapshot, the planner validates the
// exchange, and the ledger writes, the history record and the completed
// transition commit together. Firestore aborts the commit if any read
// document changed, which is the status compare-and-swap: two concurrent
// acceptors cannot both succeed, and the loser sees OFFER_NOT_ACTIVE on its
// retried read.
func (r *firestoreSettlementRepository) Settle(ctx context.Context, offerID, acceptorID string, buyerItems []entity.ItemStack, now time.Time) (*entity.TradeHistory, error) {
	offerRef := r.client.Collection(offersCollection).Doc(offerID)

	var history *entity.TradeHistory

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(offerRef)
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

		ownerItems, err := r.readInventory(tx, offer.OwnerID)
		if err != nil {
			return err
		}
		acceptorItems, err := r.readInventory(tx, acceptorID)
		if err != nil {
			return err
		}

		plan, err := service.PlanSettlement(service.SettlementInput{
			Offer:         &offer,
			OwnerItems:    ownerItems,
			AcceptorItems: acceptorItems,
			AcceptorID:    acceptorID,
			BuyerItems:    buyerItems,
			Now:           now,
		})
		if err != nil {
			return err
		}

		inventory := r.client.Collection(inventoryCollection)
		for _, update := range plan.Updates {
			ref := inventory.Doc(update.RowID)
			if update.Quantity == 0 {
				if err := tx.Delete(ref); err != nil {
					return err
				}
				continue
			}
			err := tx.Update(ref, []firestore.Update{
				{Path: "quantity", Value: update.Quantity},
				{Path: "updatedAt", Value: now},
			})
			if err != nil {
				return err
			}
		}
		for _, reassign := range plan.Reassigns {
			err := tx.Update(inventory.Doc(reassign.RowID), []firestore.Update{
				{Path: "userId", Value: reassign.NewUserID},
				{Path: "updatedAt", Value: now},
			})
			if err != nil {
				return err
			}
		}
		for _, create := range plan.Creates {
			item := create.Item
			item.ID = uuid.New().String()
			item.UpdatedAt = now
			if err := tx.Create(inventory.Doc(item.ID), &item); err != nil {
				return err
			}
		}

		record := &entity.TradeHistory{
			ID:          uuid.New().String(),
			OfferID:     offer.ID,
			SellerID:    offer.OwnerID,
			BuyerID:     acceptorID,
			SellerItems: plan.SellerItems,
			BuyerItems:  plan.BuyerItems,
			CompletedAt: now,
		}
		if err := tx.Create(r.client.Collection(historyCollection).Doc(record.ID), record); err != nil {
			return err
		}

		offer.Status = entity.OfferStatusCompleted
		offer.CompletedAt = &now
		offer.CompletedByUserID = acceptorID
		offer.UpdatedAt = now
		if err := tx.Set(offerRef, &offer); err != nil {
			return err
		}

		history = record
		return nil
	})

	if err != nil {
		return nil, wrapTxError(err, "Failed to settle offer")
	}

	return history, nil
}

func (r *firestoreSettlementRepository) readInventory(tx *firestore.Transaction, userID string) ([]*entity.InventoryItem, error) {
	query := r.client.Collection(inventoryCollection).Where("userId", "==", userID)

	iter := tx.Documents(query)
	var items []*entity.InventoryItem

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var item entity.InventoryItem
		if err := doc.DataTo(&item); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, nil
}
