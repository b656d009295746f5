package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/pkg/errors"
)

const inventoryCollection = "inventory_items"

type firestoreInventoryRepository struct {
	client *firestore.Client
}

func NewFirestoreInventoryRepository(client *firestore.Client) repository.InventoryRepository {
	return &firestoreInventoryRepository{
		client: client,
	}
}

func (r *firestoreInventoryRepository) ListByUser(ctx context.Context, userID string) ([]*entity.InventoryItem, error) {
	query := r.client.Collection(inventoryCollection).Where("userId", "==", userID)

	iter := query.Documents(ctx)
	var items []*entity.InventoryItem

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate inventory", err)
		}

		var item entity.InventoryItem
		if err := doc.DataTo(&item); err != nil {
			return nil, errors.Internal("Failed to parse inventory data", err)
		}
		items = append(items, &item)
	}

	return items, nil
}

func (r *firestoreInventoryRepository) GetQuantity(ctx context.Context, userID, itemID string) (int, error) {
	query := r.client.Collection(inventoryCollection).
		Where("userId", "==", userID).
		Where("itemId", "==", itemID)

	iter := query.Documents(ctx)
	total := 0

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, errors.Internal("Failed to iterate inventory", err)
		}

		var item entity.InventoryItem
		if err := doc.DataTo(&item); err != nil {
			return 0, errors.Internal("Failed to parse inventory data", err)
		}
		total += item.Quantity
	}

	return total, nil
}
