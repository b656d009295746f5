package usecase

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/service"
	"tradepost/pkg/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeFeed struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeFeed) Publish(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeFeed) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

// memStore backs all fake repositories so a settlement mutates the same
// state the other fakes read, like the shared Firestore project does.
type memStore struct {
	mu      sync.Mutex
	seq     int
	offers  map[string]*entity.TradeOffer
	rows    map[string]*entity.InventoryItem
	history map[string]*entity.TradeHistory
}

func newMemStore() *memStore {
	return &memStore{
		offers:  make(map[string]*entity.TradeOffer),
		rows:    make(map[string]*entity.InventoryItem),
		history: make(map[string]*entity.TradeHistory),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *memStore) addRow(userID, itemID, itemType, name string, qty int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID("row")
	s.rows[id] = &entity.InventoryItem{
		ID:       id,
		UserID:   userID,
		ItemID:   itemID,
		ItemType: itemType,
		Name:     name,
		Quantity: qty,
	}
	return id
}

func (s *memStore) quantity(userID, itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, row := range s.rows {
		if row.UserID == userID && row.ItemID == itemID {
			total += row.Quantity
		}
	}
	return total
}

func (s *memStore) userRows(userID string) []*entity.InventoryItem {
	var rows []*entity.InventoryItem
	for _, row := range s.rows {
		if row.UserID == userID {
			copied := *row
			rows = append(rows, &copied)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

type memOfferRepo struct {
	store *memStore
}

func (r *memOfferRepo) Create(ctx context.Context, offer *entity.TradeOffer) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if offer.ID == "" {
		offer.ID = r.store.nextID("offer")
	}
	copied := *offer
	r.store.offers[offer.ID] = &copied
	return nil
}

func (r *memOfferRepo) GetByID(ctx context.Context, id string) (*entity.TradeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.offers[id]
	if !ok {
		return nil, errors.OfferNotFound(nil)
	}
	copied := *offer
	return &copied, nil
}

func (r *memOfferRepo) ListMarket(ctx context.Context, excludingUserID string, now time.Time, limit, offset int) ([]*entity.TradeOffer, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*entity.TradeOffer
	for _, offer := range r.store.offers {
		if offer.OwnerID == excludingUserID {
			continue
		}
		if offer.Status != entity.OfferStatusActive || offer.IsExpiredAt(now) {
			continue
		}
		copied := *offer
		offers = append(offers, &copied)
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, int64(len(offers)), nil
}

func (r *memOfferRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*entity.TradeOffer, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*entity.TradeOffer
	for _, offer := range r.store.offers {
		if offer.OwnerID != ownerID {
			continue
		}
		copied := *offer
		offers = append(offers, &copied)
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, int64(len(offers)), nil
}

func (r *memOfferRepo) Cancel(ctx context.Context, offerID, callerID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.offers[offerID]
	if !ok {
		return errors.OfferNotFound(nil)
	}
	if offer.OwnerID != callerID {
		return errors.NotOwner()
	}
	if offer.Status != entity.OfferStatusActive {
		return errors.OfferNotActive(offer.Status)
	}
	offer.Status = entity.OfferStatusCancelled
	offer.UpdatedAt = now
	return nil
}

func (r *memOfferRepo) Expire(ctx context.Context, offerID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.offers[offerID]
	if !ok {
		return errors.OfferNotFound(nil)
	}
	if offer.Status != entity.OfferStatusActive {
		return errors.OfferNotActive(offer.Status)
	}
	if !now.After(offer.ExpiresAt) {
		return errors.BadRequest("Offer has not expired yet", nil)
	}
	offer.Status = entity.OfferStatusExpired
	offer.UpdatedAt = now
	return nil
}

func (r *memOfferRepo) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]*entity.TradeOffer, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*entity.TradeOffer
	for _, offer := range r.store.offers {
		if offer.Status == entity.OfferStatusActive && now.After(offer.ExpiresAt) {
			copied := *offer
			offers = append(offers, &copied)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers, nil
}

type memInventoryRepo struct {
	store *memStore
}

func (r *memInventoryRepo) ListByUser(ctx context.Context, userID string) ([]*entity.InventoryItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.userRows(userID), nil
}

func (r *memInventoryRepo) GetQuantity(ctx context.Context, userID, itemID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := 0
	for _, row := range r.store.rows {
		if row.UserID == userID && row.ItemID == itemID {
			total += row.Quantity
		}
	}
	return total, nil
}

// memSettlementRepo applies the same planner the Firestore adapter uses,
// under one lock so concurrent accepts serialize exactly like the
// transactional compare-and-swap.
type memSettlementRepo struct {
	store *memStore
}

func (r *memSettlementRepo) Settle(ctx context.Context, offerID, acceptorID string, buyerItems []entity.ItemStack, now time.Time) (*entity.TradeHistory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	offer, ok := r.store.offers[offerID]
	if !ok {
		return nil, errors.OfferNotFound(nil)
	}

	plan, err := service.PlanSettlement(service.SettlementInput{
		Offer:         offer,
		OwnerItems:    r.store.userRows(offer.OwnerID),
		AcceptorItems: r.store.userRows(acceptorID),
		AcceptorID:    acceptorID,
		BuyerItems:    buyerItems,
		Now:           now,
	})
	if err != nil {
		return nil, err
	}

	for _, update := range plan.Updates {
		if update.Quantity == 0 {
			delete(r.store.rows, update.RowID)
			continue
		}
		r.store.rows[update.RowID].Quantity = update.Quantity
	}
	for _, reassign := range plan.Reassigns {
		r.store.rows[reassign.RowID].UserID = reassign.NewUserID
	}
	for _, create := range plan.Creates {
		item := create.Item
		item.ID = r.store.nextID("row")
		r.store.rows[item.ID] = &item
	}

	record := &entity.TradeHistory{
		ID:          r.store.nextID("history"),
		OfferID:     offer.ID,
		SellerID:    offer.OwnerID,
		BuyerID:     acceptorID,
		SellerItems: plan.SellerItems,
		BuyerItems:  plan.BuyerItems,
		CompletedAt: now,
	}
	r.store.history[record.ID] = record

	offer.Status = entity.OfferStatusCompleted
	offer.CompletedAt = &now
	offer.CompletedByUserID = acceptorID
	offer.UpdatedAt = now

	copied := *record
	return &copied, nil
}

type memHistoryRepo struct {
	store *memStore
}

func (r *memHistoryRepo) GetByID(ctx context.Context, id string) (*entity.TradeHistory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	record, ok := r.store.history[id]
	if !ok {
		return nil, errors.HistoryNotFound(nil)
	}
	copied := *record
	return &copied, nil
}

func (r *memHistoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.TradeHistory, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var records []*entity.TradeHistory
	for _, record := range r.store.history {
		if record.SellerID != userID && record.BuyerID != userID {
			continue
		}
		copied := *record
		records = append(records, &copied)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, int64(len(records)), nil
}

func (r *memHistoryRepo) SetRating(ctx context.Context, historyID, party string, rating int, comment string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	record, ok := r.store.history[historyID]
	if !ok {
		return errors.HistoryNotFound(nil)
	}
	if record.HasRated(party) {
		return errors.AlreadyRated()
	}
	switch party {
	case entity.RatingPartySeller:
		record.SellerRating = &rating
		record.SellerComment = comment
	case entity.RatingPartyBuyer:
		record.BuyerRating = &rating
		record.BuyerComment = comment
	default:
		return errors.NotParticipant()
	}
	return nil
}

func (r *memHistoryRepo) CountPendingRatings(ctx context.Context, userID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, record := range r.store.history {
		if record.SellerID == userID && record.SellerRating == nil {
			count++
		}
		if record.BuyerID == userID && record.BuyerRating == nil {
			count++
		}
	}
	return count, nil
}

// testEnv wires all use cases over one shared store.
type testEnv struct {
	store      *memStore
	clock      *fakeClock
	feed       *fakeFeed
	offers     *OfferUseCase
	settlement *SettlementUseCase
	history    *HistoryUseCase
}

func newTestEnv(now time.Time) *testEnv {
	store := newMemStore()
	clock := newFakeClock(now)
	feed := &fakeFeed{}

	offerRepo := &memOfferRepo{store: store}
	inventoryRepo := &memInventoryRepo{store: store}
	settlementRepo := &memSettlementRepo{store: store}
	historyRepo := &memHistoryRepo{store: store}

	return &testEnv{
		store:      store,
		clock:      clock,
		feed:       feed,
		offers:     NewOfferUseCase(offerRepo, inventoryRepo, clock, feed),
		settlement: NewSettlementUseCase(settlementRepo, offerRepo, clock, feed),
		history:    NewHistoryUseCase(historyRepo),
	}
}
