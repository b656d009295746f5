package entity

import (
	"time"
)

const (
	RatingPartySeller = "seller"
	RatingPartyBuyer  = "buyer"
)

// TradeHistory is the immutable record of one settled offer. SellerRating is
// the rating given BY the seller about the buyer; BuyerRating mirrors it.
// Each slot is settable at most once, only by its own party.
type TradeHistory struct {
	ID       string `json:"id" firestore:"id"`
	OfferID  string `json:"offer_id" firestore:"offerId"`
	SellerID string `json:"seller_id" firestore:"sellerId"`
	BuyerID  string `json:"buyer_id" firestore:"buyerId"`

	SellerItems []ItemStack `json:"seller_items" firestore:"sellerItems"`
	BuyerItems  []ItemStack `json:"buyer_items" firestore:"buyerItems"`

	SellerRating  *int   `json:"seller_rating,omitempty" firestore:"sellerRating,omitempty"`
	SellerComment string `json:"seller_comment,omitempty" firestore:"sellerComment,omitempty"`
	BuyerRating   *int   `json:"buyer_rating,omitempty" firestore:"buyerRating,omitempty"`
	BuyerComment  string `json:"buyer_comment,omitempty" firestore:"buyerComment,omitempty"`

	CompletedAt time.Time `json:"completed_at" firestore:"completedAt"`
}

// RatingPartyOf resolves which rating slot a user owns on this record.
// Returns "" when the user did not participate.
func (h *TradeHistory) RatingPartyOf(userID string) string {
	switch userID {
	case h.SellerID:
		return RatingPartySeller
	case h.BuyerID:
		return RatingPartyBuyer
	}
	return ""
}

// HasRated reports whether the given party already used its rating slot.
func (h *TradeHistory) HasRated(party string) bool {
	switch party {
	case RatingPartySeller:
		return h.SellerRating != nil
	case RatingPartyBuyer:
		return h.BuyerRating != nil
	}
	return false
}
