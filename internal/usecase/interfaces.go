package usecase

// MarketFeed pushes advisory offer lifecycle events to connected clients.
// Delivery is fire-and-forget; callers never block on it.
type MarketFeed interface {
	Publish(event string, payload interface{})
}

const (
	EventOfferCreated   = "offer_created"
	EventOfferCompleted = "offer_completed"
	EventOfferCancelled = "offer_cancelled"
	EventOfferExpired   = "offer_expired"
)
