package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process. Each tier has a one-slot channel
// acting as its row lock, so waiting for it respects context cancellation.
type MemoryStore struct {
	mu        sync.Mutex
	tiers     map[domain.TierName]domain.TicketTier
	tierNames map[string]domain.TierName
	inventory map[string]domain.Inventory
	locks     map[string]chan struct{}
	bookings  map[string]domain.Booking
	order     []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tiers:     make(map[domain.TierName]domain.TicketTier),
		tierNames: make(map[string]domain.TierName),
		inventory: make(map[string]domain.Inventory),
		locks:     make(map[string]chan struct{}),
		bookings:  make(map[string]domain.Booking),
	}
}

type memTxKey struct{}

// memTx buffers writes until commit and remembers which tier locks it holds.
type memTx struct {
	held       map[string]chan struct{}
	decrements map[string]int
	bookings   []domain.Booking
}

func memTxFromContext(ctx context.Context) *memTx {
	tx, _ := ctx.Value(memTxKey{}).(*memTx)
	return tx
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if memTxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx := &memTx{
		held:       make(map[string]chan struct{}),
		decrements: make(map[string]int),
	}
	defer func() {
		for _, lock := range tx.held {
			<-lock
		}
	}()

	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		return mapMemError(err)
	}
	if err := ctx.Err(); err != nil {
		return mapMemError(err)
	}
	return s.commit(tx)
}

func mapMemError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransactionConflict) {
		return fmt.Errorf("%w: %w", domain.ErrTransactionConflict, err)
	}
	return err
}

func (s *MemoryStore) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for tierID, qty := range tx.decrements {
		if s.inventory[tierID].QuantityAvailable < qty {
			return domain.ErrInsufficientInventory
		}
	}
	for tierID, qty := range tx.decrements {
		inv := s.inventory[tierID]
		inv.QuantityAvailable -= qty
		s.inventory[tierID] = inv
	}
	for _, b := range tx.bookings {
		s.bookings[b.ID] = b
		s.order = append(s.order, b.ID)
	}
	return nil
}

func (s *MemoryStore) ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}

	s.mu.Lock()
	entries := make([]domain.CatalogEntry, 0, len(s.tiers))
	for _, t := range s.tiers {
		entries = append(entries, domain.CatalogEntry{
			TierID:            t.ID,
			Name:              t.Name,
			Price:             t.Price,
			QuantityAvailable: s.inventory[t.ID].QuantityAvailable,
		})
	}
	s.mu.Unlock()

	slices.SortFunc(entries, func(a, b domain.CatalogEntry) int {
		if a.Price != b.Price {
			if a.Price > b.Price {
				return -1
			}
			return 1
		}
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return entries, nil
}

func (s *MemoryStore) GetTierByName(_ context.Context, name domain.TierName) (domain.TicketTier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tiers[name]
	if !ok {
		return domain.TicketTier{}, domain.ErrTierNotFound
	}
	return t, nil
}

func (s *MemoryStore) LockInventory(ctx context.Context, tierID string) (int, error) {
	tx := memTxFromContext(ctx)
	if tx == nil {
		return 0, domain.ErrNoTransaction
	}

	if _, ok := tx.held[tierID]; !ok {
		s.mu.Lock()
		lock, ok := s.locks[tierID]
		if !ok {
			lock = make(chan struct{}, 1)
			s.locks[tierID] = lock
		}
		s.mu.Unlock()

		select {
		case lock <- struct{}{}:
			tx.held[tierID] = lock
		case <-ctx.Done():
			return 0, fmt.Errorf("lock inventory: %w", ctx.Err())
		}
	}

	s.mu.Lock()
	available := s.inventory[tierID].QuantityAvailable
	s.mu.Unlock()
	return available - tx.decrements[tierID], nil
}

func (s *MemoryStore) DecrementInventory(ctx context.Context, tierID string, quantity int) error {
	tx := memTxFromContext(ctx)
	if tx == nil {
		return domain.ErrNoTransaction
	}
	if _, ok := tx.held[tierID]; !ok {
		return domain.ErrInventoryNotLocked
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	available := s.inventory[tierID].QuantityAvailable - tx.decrements[tierID]
	s.mu.Unlock()
	if available < quantity {
		return domain.ErrInsufficientInventory
	}
	tx.decrements[tierID] += quantity
	return nil
}

func (s *MemoryStore) UpdateTierPrice(_ context.Context, name domain.TierName, price int64) error {
	if price < 0 {
		return domain.ErrInvalidPrice
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tiers[name]
	if !ok {
		return domain.ErrTierNotFound
	}
	t.Price = price
	s.tiers[name] = t
	return nil
}

// Seed adds tiers that do not exist yet. Existing tiers keep their price and stock.
func (s *MemoryStore) Seed(_ context.Context, seeds []domain.TierSeed) error {
	for _, seed := range seeds {
		if err := seed.Validate(); err != nil {
			return fmt.Errorf("seed %s: %w", seed.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range seeds {
		if _, ok := s.tiers[seed.Name]; ok {
			continue
		}
		id := uuid.NewString()
		s.tiers[seed.Name] = domain.TicketTier{ID: id, Name: seed.Name, Price: seed.Price}
		s.tierNames[id] = seed.Name
		s.inventory[id] = domain.Inventory{TierID: id, QuantityAvailable: seed.Quantity}
	}
	return nil
}

func (s *MemoryStore) CreateBooking(ctx context.Context, booking domain.Booking) (string, error) {
	if len(booking.Items) == 0 {
		return "", errors.New("booking has no items")
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}

	items := make([]domain.BookingItem, len(booking.Items))
	s.mu.Lock()
	for i, item := range booking.Items {
		name, ok := s.tierNames[item.TierID]
		if !ok {
			s.mu.Unlock()
			return "", fmt.Errorf("insert booking item: %w", domain.ErrTierNotFound)
		}
		if item.Quantity <= 0 {
			s.mu.Unlock()
			return "", domain.ErrInvalidQuantity
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.BookingID = booking.ID
		item.TierName = name
		items[i] = item
	}
	s.mu.Unlock()
	booking.Items = items

	if tx := memTxFromContext(ctx); tx != nil {
		tx.bookings = append(tx.bookings, booking)
		return booking.ID, nil
	}

	s.mu.Lock()
	s.bookings[booking.ID] = booking
	s.order = append(s.order, booking.ID)
	s.mu.Unlock()
	return booking.ID, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	if tx := memTxFromContext(ctx); tx != nil {
		for _, b := range tx.bookings {
			if b.ID == id {
				return cloneBooking(b), nil
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return cloneBooking(b), nil
}

// Bookings returns every committed booking in commit order.
func (s *MemoryStore) Bookings() []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Booking, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneBooking(s.bookings[id]))
	}
	return out
}

func cloneBooking(b domain.Booking) domain.Booking {
	b.Items = slices.Clone(b.Items)
	return b
}

var _ Store = (*MemoryStore)(nil)
