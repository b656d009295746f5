package entity

import (
	"time"
)

const (
	OfferStatusActive    = "active"
	OfferStatusCompleted = "completed"
	OfferStatusCancelled = "cancelled"
	OfferStatusExpired   = "expired"
)

// AllowedExpiryHours are the durations a caller may pick for a new offer.
var AllowedExpiryHours = []int{6, 12, 24, 48, 72}

type TradeOffer struct {
	ID      string `json:"id" firestore:"id"`
	OwnerID string `json:"owner_id" firestore:"ownerId"`

	OfferingItems   []ItemStack `json:"offering_items" firestore:"offeringItems"`
	RequestingItems []ItemStack `json:"requesting_items,omitempty" firestore:"requestingItems,omitempty"`

	Status  string `json:"status" firestore:"status"` // active, completed, cancelled, expired
	Message string `json:"message,omitempty" firestore:"message,omitempty"`

	ExpiresAt         time.Time  `json:"expires_at" firestore:"expiresAt"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" firestore:"completedAt,omitempty"`
	CompletedByUserID string     `json:"completed_by_user_id,omitempty" firestore:"completedByUserId,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// IsOpen reports whether the offer asks nothing in return.
func (o *TradeOffer) IsOpen() bool {
	return len(o.RequestingItems) == 0
}

func (o *TradeOffer) IsExpiredAt(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
