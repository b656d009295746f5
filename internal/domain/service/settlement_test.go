package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/domain/entity"
	"tradepost/pkg/errors"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func row(id, userID, itemID, itemType, name string, qty int) *entity.InventoryItem {
	return &entity.InventoryItem{
		ID:       id,
		UserID:   userID,
		ItemID:   itemID,
		ItemType: itemType,
		Name:     name,
		Quantity: qty,
	}
}

func stack(itemID, itemType, name string, qty int) entity.ItemStack {
	return entity.ItemStack{ItemID: itemID, ItemType: itemType, Name: name, Quantity: qty}
}

func activeOffer(ownerID string, offering, requesting []entity.ItemStack) *entity.TradeOffer {
	return &entity.TradeOffer{
		ID:              "offer-1",
		OwnerID:         ownerID,
		OfferingItems:   offering,
		RequestingItems: requesting,
		Status:          entity.OfferStatusActive,
		ExpiresAt:       baseTime.Add(24 * time.Hour),
	}
}

func TestPlanSettlementSwap(t *testing.T) {
	offer := activeOffer("owner",
		[]entity.ItemStack{stack("water", entity.ItemTypeNormal, "Water", 5)},
		[]entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 10)},
	)

	plan, err := PlanSettlement(SettlementInput{
		Offer:         offer,
		OwnerItems:    []*entity.InventoryItem{row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 5)},
		AcceptorItems: []*entity.InventoryItem{row("r2", "acceptor", "iron", entity.ItemTypeNormal, "Iron", 12)},
		AcceptorID:    "acceptor",
		BuyerItems:    []entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 10)},
		Now:           baseTime,
	})

	require.NoError(t, err)

	// Owner's water row is emptied, acceptor keeps 2 iron.
	require.Len(t, plan.Updates, 2)
	assert.Equal(t, RowUpdate{RowID: "r1", UserID: "owner", Quantity: 0}, plan.Updates[0])
	assert.Equal(t, RowUpdate{RowID: "r2", UserID: "acceptor", Quantity: 2}, plan.Updates[1])

	// Owner gains an iron row, acceptor gains a water row.
	require.Len(t, plan.Creates, 2)
	assert.Equal(t, "owner", plan.Creates[0].Item.UserID)
	assert.Equal(t, "iron", plan.Creates[0].Item.ItemID)
	assert.Equal(t, 10, plan.Creates[0].Item.Quantity)
	assert.Equal(t, "acceptor", plan.Creates[1].Item.UserID)
	assert.Equal(t, "water", plan.Creates[1].Item.ItemID)
	assert.Equal(t, 5, plan.Creates[1].Item.Quantity)

	assert.Empty(t, plan.Reassigns)
	assert.Equal(t, offer.OfferingItems, plan.SellerItems)
	assert.Equal(t, offer.RequestingItems, plan.BuyerItems)
}

func TestPlanSettlementMergesIntoExistingRow(t *testing.T) {
	offer := activeOffer("owner",
		[]entity.ItemStack{stack("water", entity.ItemTypeNormal, "Water", 3)},
		nil,
	)

	plan, err := PlanSettlement(SettlementInput{
		Offer: offer,
		OwnerItems: []*entity.InventoryItem{
			row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 8),
		},
		AcceptorItems: []*entity.InventoryItem{
			row("r2", "acceptor", "water", entity.ItemTypeNormal, "Water", 1),
		},
		AcceptorID: "acceptor",
		Now:        baseTime,
	})

	require.NoError(t, err)
	require.Len(t, plan.Updates, 2)
	assert.Equal(t, RowUpdate{RowID: "r1", UserID: "owner", Quantity: 5}, plan.Updates[0])
	assert.Equal(t, RowUpdate{RowID: "r2", UserID: "acceptor", Quantity: 4}, plan.Updates[1])
	assert.Empty(t, plan.Creates)
}

func TestPlanSettlementAITransfer(t *testing.T) {
	offer := activeOffer("owner",
		[]entity.ItemStack{stack("sword-7f2", entity.ItemTypeAI, "Ember Blade", 1)},
		nil,
	)

	plan, err := PlanSettlement(SettlementInput{
		Offer: offer,
		OwnerItems: []*entity.InventoryItem{
			row("r1", "owner", "sword-7f2", entity.ItemTypeAI, "Ember Blade", 1),
		},
		AcceptorID: "acceptor",
		Now:        baseTime,
	})

	require.NoError(t, err)
	assert.Empty(t, plan.Updates)
	assert.Empty(t, plan.Creates)
	require.Len(t, plan.Reassigns, 1)
	assert.Equal(t, RowReassign{RowID: "r1", NewUserID: "acceptor"}, plan.Reassigns[0])
}

func TestPlanSettlementOpenOfferIgnoresBuyerInventory(t *testing.T) {
	offer := activeOffer("owner",
		[]entity.ItemStack{stack("water", entity.ItemTypeNormal, "Water", 2)},
		nil,
	)

	// Acceptor holds nothing at all; an open offer must still settle.
	plan, err := PlanSettlement(SettlementInput{
		Offer:      offer,
		OwnerItems: []*entity.InventoryItem{row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 5)},
		AcceptorID: "acceptor",
		Now:        baseTime,
	})

	require.NoError(t, err)
	assert.Equal(t, []entity.ItemStack{}, plan.BuyerItems)
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, RowUpdate{RowID: "r1", UserID: "owner", Quantity: 3}, plan.Updates[0])
}

func TestPlanSettlementFailures(t *testing.T) {
	offering := []entity.ItemStack{stack("water", entity.ItemTypeNormal, "Water", 5)}
	requesting := []entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 10)}

	ownerRows := []*entity.InventoryItem{row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 5)}
	buyerConsent := []entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 10)}

	tests := []struct {
		name     string
		mutate   func(in *SettlementInput)
		wantCode string
	}{
		{
			name: "expired offer",
			mutate: func(in *SettlementInput) {
				in.Now = baseTime.Add(25 * time.Hour)
			},
			wantCode: "OFFER_EXPIRED",
		},
		{
			name: "completed offer",
			mutate: func(in *SettlementInput) {
				in.Offer.Status = entity.OfferStatusCompleted
			},
			wantCode: "OFFER_NOT_ACTIVE",
		},
		{
			name: "cancelled offer",
			mutate: func(in *SettlementInput) {
				in.Offer.Status = entity.OfferStatusCancelled
			},
			wantCode: "OFFER_NOT_ACTIVE",
		},
		{
			name: "self accept",
			mutate: func(in *SettlementInput) {
				in.AcceptorID = "owner"
			},
			wantCode: "CANNOT_ACCEPT_OWN_OFFER",
		},
		{
			name: "missing buyer consent",
			mutate: func(in *SettlementInput) {
				in.BuyerItems = nil
			},
			wantCode: "BUYER_ITEMS_REQUIRED",
		},
		{
			name: "buyer item absent",
			mutate: func(in *SettlementInput) {
				in.AcceptorItems = nil
			},
			wantCode: "BUYER_ITEM_NOT_FOUND",
		},
		{
			name: "buyer shortfall",
			mutate: func(in *SettlementInput) {
				in.AcceptorItems = []*entity.InventoryItem{
					row("r2", "acceptor", "iron", entity.ItemTypeNormal, "Iron", 3),
				}
			},
			wantCode: "BUYER_INSUFFICIENT_QUANTITY",
		},
		{
			name: "owner no longer covers offering",
			mutate: func(in *SettlementInput) {
				in.OwnerItems = []*entity.InventoryItem{
					row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 4),
				}
			},
			wantCode: "INSUFFICIENT_QUANTITY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := SettlementInput{
				Offer:         activeOffer("owner", offering, requesting),
				OwnerItems:    ownerRows,
				AcceptorItems: []*entity.InventoryItem{row("r2", "acceptor", "iron", entity.ItemTypeNormal, "Iron", 12)},
				AcceptorID:    "acceptor",
				BuyerItems:    buyerConsent,
				Now:           baseTime,
			}
			tt.mutate(&in)

			plan, err := PlanSettlement(in)

			assert.Nil(t, plan)
			assert.True(t, errors.Is(err, tt.wantCode), "expected %s, got %v", tt.wantCode, err)
		})
	}
}

func TestPlanSettlementShortfallDetails(t *testing.T) {
	offer := activeOffer("owner",
		[]entity.ItemStack{stack("water", entity.ItemTypeNormal, "Water", 5)},
		[]entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 10)},
	)

	_, err := PlanSettlement(SettlementInput{
		Offer:         offer,
		OwnerItems:    []*entity.InventoryItem{row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 5)},
		AcceptorItems: []*entity.InventoryItem{row("r2", "acceptor", "iron", entity.ItemTypeNormal, "Iron", 3)},
		AcceptorID:    "acceptor",
		BuyerItems:    []entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 10)},
		Now:           baseTime,
	})

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BUYER_INSUFFICIENT_QUANTITY", appErr.Code)
	assert.Equal(t, "iron", appErr.Details["item_id"])
	assert.Equal(t, 10, appErr.Details["requested"])
	assert.Equal(t, 3, appErr.Details["available"])
}

func TestPlanSettlementDuplicateRequestedStacksAreSummed(t *testing.T) {
	offer := activeOffer("owner",
		[]entity.ItemStack{stack("water", entity.ItemTypeNormal, "Water", 1)},
		[]entity.ItemStack{
			stack("iron", entity.ItemTypeNormal, "Iron", 4),
			stack("iron", entity.ItemTypeNormal, "Iron", 4),
		},
	)

	_, err := PlanSettlement(SettlementInput{
		Offer:         offer,
		OwnerItems:    []*entity.InventoryItem{row("r1", "owner", "water", entity.ItemTypeNormal, "Water", 1)},
		AcceptorItems: []*entity.InventoryItem{row("r2", "acceptor", "iron", entity.ItemTypeNormal, "Iron", 6)},
		AcceptorID:    "acceptor",
		BuyerItems:    []entity.ItemStack{stack("iron", entity.ItemTypeNormal, "Iron", 8)},
		Now:           baseTime,
	})

	assert.True(t, errors.Is(err, "BUYER_INSUFFICIENT_QUANTITY"), "got %v", err)
}
