package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// WithDetails attaches structured context (offending ids, quantities) so the
// caller can render a precise message.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Trade settlement failure kinds. Every business-rule violation in the
// offer/settlement/rating surface maps to exactly one of these codes.

func Validation(message string) *AppError {
	return New("VALIDATION_ERROR", message, http.StatusBadRequest, nil)
}

func OfferNotFound(err error) *AppError {
	return New("OFFER_NOT_FOUND", "Offer not found", http.StatusNotFound, err)
}

func OfferNotActive(status string) *AppError {
	return New("OFFER_NOT_ACTIVE", "Offer is no longer active", http.StatusConflict, nil).
		WithDetails(map[string]interface{}{"status": status})
}

func OfferExpired() *AppError {
	return New("OFFER_EXPIRED", "Offer has expired", http.StatusConflict, nil)
}

func CannotAcceptOwnOffer() *AppError {
	return New("CANNOT_ACCEPT_OWN_OFFER", "Cannot accept your own offer", http.StatusBadRequest, nil)
}

func NotOwner() *AppError {
	return New("NOT_OWNER", "Only the offer owner can do this", http.StatusForbidden, nil)
}

func InsufficientQuantity(itemID, name string, requested, available int) *AppError {
	return New("INSUFFICIENT_QUANTITY",
		fmt.Sprintf("Not enough %s: requested %d, available %d", name, requested, available),
		http.StatusConflict, nil).
		WithDetails(map[string]interface{}{
			"item_id":   itemID,
			"name":      name,
			"requested": requested,
			"available": available,
		})
}

func BuyerItemsRequired() *AppError {
	return New("BUYER_ITEMS_REQUIRED", "This offer requires items in return", http.StatusBadRequest, nil)
}

func BuyerItemNotFound(itemID, name string) *AppError {
	return New("BUYER_ITEM_NOT_FOUND",
		fmt.Sprintf("Requested item %s not found in your inventory", name),
		http.StatusConflict, nil).
		WithDetails(map[string]interface{}{"item_id": itemID, "name": name})
}

func BuyerInsufficientQuantity(itemID, name string, requested, available int) *AppError {
	return New("BUYER_INSUFFICIENT_QUANTITY",
		fmt.Sprintf("Not enough %s: requested %d, available %d", name, requested, available),
		http.StatusConflict, nil).
		WithDetails(map[string]interface{}{
			"item_id":   itemID,
			"name":      name,
			"requested": requested,
			"available": available,
		})
}

func HistoryNotFound(err error) *AppError {
	return New("HISTORY_NOT_FOUND", "Trade history not found", http.StatusNotFound, err)
}

func NotParticipant() *AppError {
	return New("NOT_PARTICIPANT", "You are not a participant of this trade", http.StatusForbidden, nil)
}

func AlreadyRated() *AppError {
	return New("ALREADY_RATED", "You have already rated this trade", http.StatusConflict, nil)
}

func InvalidRating(rating int) *AppError {
	return New("INVALID_RATING", "Rating must be between 1 and 5", http.StatusBadRequest, nil).
		WithDetails(map[string]interface{}{"rating": rating})
}
