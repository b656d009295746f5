package entity

import (
	"time"
)

const (
	ItemTypeNormal = "normal"
	ItemTypeAI     = "ai"
)

// ItemStack is a value snapshot of a quantity of one item. For normal items
// ItemID is the item definition id and stacks of the same id are fungible.
// For ai items ItemID is the unique instance id and Quantity is always 1.
type ItemStack struct {
	ItemID   string `json:"item_id" firestore:"itemId"`
	ItemType string `json:"item_type" firestore:"itemType"`
	Name     string `json:"name" firestore:"name"`
	Quantity int    `json:"quantity" firestore:"quantity"`
	Category string `json:"category,omitempty" firestore:"category,omitempty"`
	Rarity   string `json:"rarity,omitempty" firestore:"rarity,omitempty"`
	Icon     string `json:"icon,omitempty" firestore:"icon,omitempty"`
}

func (s ItemStack) IsAI() bool {
	return s.ItemType == ItemTypeAI
}

// InventoryItem is one owned row in a user's inventory ledger.
type InventoryItem struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	ItemID    string    `json:"item_id" firestore:"itemId"`
	ItemType  string    `json:"item_type" firestore:"itemType"`
	Name      string    `json:"name" firestore:"name"`
	Quantity  int       `json:"quantity" firestore:"quantity"`
	Category  string    `json:"category,omitempty" firestore:"category,omitempty"`
	Rarity    string    `json:"rarity,omitempty" firestore:"rarity,omitempty"`
	Icon      string    `json:"icon,omitempty" firestore:"icon,omitempty"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Stack copies the row into a value snapshot with the given quantity.
func (i *InventoryItem) Stack(quantity int) ItemStack {
	return ItemStack{
		ItemID:   i.ItemID,
		ItemType: i.ItemType,
		Name:     i.Name,
		Quantity: quantity,
		Category: i.Category,
		Rarity:   i.Rarity,
		Icon:     i.Icon,
	}
}
