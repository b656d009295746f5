package service

import (
	"sort"
	"time"

	"tradepost/internal/domain/entity"
	"tradepost/pkg/errors"
)

// SettlementInput is everything the planner needs, read as one snapshot:
// the offer plus both parties' full inventories.
type SettlementInput struct {
	Offer         *entity.TradeOffer
	OwnerItems    []*entity.InventoryItem
	AcceptorItems []*entity.InventoryItem
	AcceptorID    string
	BuyerItems    []entity.ItemStack
	Now           time.Time
}

// RowUpdate changes a row's quantity. Quantity 0 means the row is removed.
type RowUpdate struct {
	RowID    string
	UserID   string
	Quantity int
}

// RowReassign moves a unique ai item row to a new owner.
type RowReassign struct {
	RowID     string
	NewUserID string
}

// RowCreate adds a new row for a recipient who held none of the item.
// The store assigns the row id.
type RowCreate struct {
	Item entity.InventoryItem
}

// TransferPlan is the full effect of a settlement on both ledgers, plus the
// value snapshots that go into the history record.
type TransferPlan struct {
	Updates   []RowUpdate
	Reassigns []RowReassign
	Creates   []RowCreate

	SellerItems []entity.ItemStack
	BuyerItems  []entity.ItemStack
}

// PlanSettlement validates an acceptance against the snapshot and computes
// the resulting ledger changes. It is pure: the caller runs it inside a
// storage transaction and applies the plan only if the snapshot still holds.
//
// Requested items are resolved against the acceptor's own inventory rows,
// never against client-asserted ids. BuyerItems from the request only signals
// the acceptor's consent to pay; quantities always come from the offer.
func PlanSettlement(in SettlementInput) (*TransferPlan, error) {
	offer := in.Offer

	if in.Now.After(offer.ExpiresAt) {
		return nil, errors.OfferExpired()
	}
	if offer.Status != entity.OfferStatusActive {
		return nil, errors.OfferNotActive(offer.Status)
	}
	if in.AcceptorID == offer.OwnerID {
		return nil, errors.CannotAcceptOwnOffer()
	}
	if !offer.IsOpen() && len(in.BuyerItems) == 0 {
		return nil, errors.BuyerItemsRequired()
	}

	// Validate both sides against the untouched snapshot. Duplicated item ids
	// within one side are summed before the check.
	for _, st := range aggregateStacks(offer.RequestingItems) {
		avail, found := availability(in.AcceptorItems, st)
		if !found {
			return nil, errors.BuyerItemNotFound(st.ItemID, st.Name)
		}
		if avail < st.Quantity {
			return nil, errors.BuyerInsufficientQuantity(st.ItemID, st.Name, st.Quantity, avail)
		}
	}
	for _, st := range aggregateStacks(offer.OfferingItems) {
		avail, _ := availability(in.OwnerItems, st)
		if avail < st.Quantity {
			return nil, errors.InsufficientQuantity(st.ItemID, st.Name, st.Quantity, avail)
		}
	}

	ledger := newWorkingLedger(in.OwnerItems, in.AcceptorItems)
	for _, st := range offer.RequestingItems {
		ledger.transfer(in.AcceptorID, offer.OwnerID, st)
	}
	for _, st := range offer.OfferingItems {
		ledger.transfer(offer.OwnerID, in.AcceptorID, st)
	}

	plan := ledger.diff()
	plan.SellerItems = offer.OfferingItems
	plan.BuyerItems = offer.RequestingItems
	if plan.BuyerItems == nil {
		plan.BuyerItems = []entity.ItemStack{}
	}
	return plan, nil
}

// aggregateStacks merges duplicate item ids so availability is checked
// against the summed demand, preserving first-seen order.
func aggregateStacks(stacks []entity.ItemStack) []entity.ItemStack {
	var out []entity.ItemStack
	index := make(map[string]int)
	for _, st := range stacks {
		if i, ok := index[st.ItemID]; ok {
			out[i].Quantity += st.Quantity
			continue
		}
		index[st.ItemID] = len(out)
		out = append(out, st)
	}
	return out
}

// availability sums a user's holdings of the stack's item. found is false
// when no row of that item exists at all.
func availability(rows []*entity.InventoryItem, st entity.ItemStack) (int, bool) {
	total := 0
	found := false
	for _, row := range rows {
		if row.ItemID != st.ItemID {
			continue
		}
		found = true
		total += row.Quantity
	}
	return total, found
}

// workingLedger applies transfers to copies of both inventories and reports
// the net changes afterwards.
type workingLedger struct {
	rows     []*entity.InventoryItem
	original map[string]entity.InventoryItem
	creates  []*entity.InventoryItem
}

func newWorkingLedger(ownerRows, acceptorRows []*entity.InventoryItem) *workingLedger {
	l := &workingLedger{original: make(map[string]entity.InventoryItem)}
	for _, src := range [][]*entity.InventoryItem{ownerRows, acceptorRows} {
		for _, row := range src {
			copied := *row
			l.rows = append(l.rows, &copied)
			l.original[row.ID] = *row
		}
	}
	sort.Slice(l.rows, func(i, j int) bool { return l.rows[i].ID < l.rows[j].ID })
	return l
}

func (l *workingLedger) transfer(fromUserID, toUserID string, st entity.ItemStack) {
	if st.IsAI() {
		for _, row := range l.rows {
			if row.ItemID == st.ItemID && row.UserID == fromUserID {
				row.UserID = toUserID
				return
			}
		}
		return
	}

	// Debit across the payer's rows.
	need := st.Quantity
	for _, row := range l.rows {
		if need == 0 {
			break
		}
		if row.ItemID != st.ItemID || row.UserID != fromUserID || row.Quantity == 0 {
			continue
		}
		take := row.Quantity
		if take > need {
			take = need
		}
		row.Quantity -= take
		need -= take
	}

	// Credit: merge into the recipient's existing row, else create one.
	for _, row := range l.rows {
		if row.ItemID == st.ItemID && row.UserID == toUserID && row.ItemType == entity.ItemTypeNormal {
			row.Quantity += st.Quantity
			return
		}
	}
	for _, created := range l.creates {
		if created.ItemID == st.ItemID && created.UserID == toUserID {
			created.Quantity += st.Quantity
			return
		}
	}
	l.creates = append(l.creates, &entity.InventoryItem{
		UserID:   toUserID,
		ItemID:   st.ItemID,
		ItemType: st.ItemType,
		Name:     st.Name,
		Quantity: st.Quantity,
		Category: st.Category,
		Rarity:   st.Rarity,
		Icon:     st.Icon,
	})
}

func (l *workingLedger) diff() *TransferPlan {
	plan := &TransferPlan{}
	for _, row := range l.rows {
		before := l.original[row.ID]
		if row.UserID != before.UserID {
			plan.Reassigns = append(plan.Reassigns, RowReassign{RowID: row.ID, NewUserID: row.UserID})
			continue
		}
		if row.Quantity != before.Quantity {
			plan.Updates = append(plan.Updates, RowUpdate{RowID: row.ID, UserID: row.UserID, Quantity: row.Quantity})
		}
	}
	for _, created := range l.creates {
		plan.Creates = append(plan.Creates, RowCreate{Item: *created})
	}
	return plan
}
