package repository

import (
	"context"

	"github.com/Domenick1991/ticketbooking/internal/domain"
)

// Transactor runs fn as a single unit of work. The transaction travels in the
// context handed to fn; repository calls made with that context join it, and a
// nested WithTx joins the outer transaction instead of opening a new one.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type TierRepository interface {
	ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error)
	GetTierByName(ctx context.Context, name domain.TierName) (domain.TicketTier, error)
	// LockInventory takes the exclusive lock on one tier's inventory row and
	// returns the quantity available as seen under that lock.
	LockInventory(ctx context.Context, tierID string) (int, error)
	// DecrementInventory requires the lock taken by LockInventory in the same transaction.
	DecrementInventory(ctx context.Context, tierID string, quantity int) error
	UpdateTierPrice(ctx context.Context, name domain.TierName, price int64) error
	Seed(ctx context.Context, seeds []domain.TierSeed) error
}

// BookingRepository is append-only.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking domain.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
}

// Store bundles everything the booking engine needs from one backend.
type Store interface {
	Transactor
	TierRepository
	BookingRepository
}
