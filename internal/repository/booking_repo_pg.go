package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) *PGBookingRepository {
	return &PGBookingRepository{db: db}
}

// CreateBooking inserts the booking and its items. Called inside the booking
// transaction, so a failure on any item discards the whole booking.
func (r *PGBookingRepository) CreateBooking(ctx context.Context, booking domain.Booking) (string, error) {
	if len(booking.Items) == 0 {
		return "", errors.New("booking has no items")
	}
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}

	q := querierFor(ctx, r.db)

	if _, err := q.Exec(ctx,
		`INSERT INTO bookings (id, user_id, status, created_at) VALUES ($1, $2, $3, $4)`,
		booking.ID, booking.UserID, string(booking.Status), booking.CreatedAt,
	); err != nil {
		return "", fmt.Errorf("insert booking: %w", err)
	}

	for _, item := range booking.Items {
		if item.Quantity <= 0 {
			return "", domain.ErrInvalidQuantity
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO booking_items (id, booking_id, tier_id, quantity, price) VALUES ($1, $2, $3, $4, $5)`,
			item.ID, booking.ID, item.TierID, item.Quantity, item.Price,
		); err != nil {
			return "", fmt.Errorf("insert booking item: %w", err)
		}
	}

	return booking.ID, nil
}

func (r *PGBookingRepository) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	q := querierFor(ctx, r.db)

	var b domain.Booking
	var status string
	err := q.QueryRow(ctx, `SELECT id, user_id, status, created_at FROM bookings WHERE id = $1`, id).
		Scan(&b.ID, &b.UserID, &status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || hasCode(err, pgInvalidTextRep) {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	b.Status = domain.BookingStatus(status)

	rows, err := q.Query(ctx, `
SELECT bi.id, bi.booking_id, bi.tier_id, t.name, bi.quantity, bi.price
FROM booking_items bi
JOIN ticket_tiers t ON t.id = bi.tier_id
WHERE bi.booking_id = $1
ORDER BY t.name`, id)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("list booking items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.BookingItem
		var tierName string
		if err := rows.Scan(&item.ID, &item.BookingID, &item.TierID, &tierName, &item.Quantity, &item.Price); err != nil {
			return domain.Booking{}, fmt.Errorf("scan booking item: %w", err)
		}
		item.TierName = domain.TierName(tierName)
		b.Items = append(b.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Booking{}, fmt.Errorf("iterate booking items: %w", err)
	}
	return b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)

// PGStore wires the Postgres repositories behind a single Store.
type PGStore struct {
	*PGTransactor
	*PGTierRepository
	*PGBookingRepository
}

func NewPGStore(pool *pgxpool.Pool, opts TxOptions) *PGStore {
	return &PGStore{
		PGTransactor:        NewPGTransactor(pool, opts),
		PGTierRepository:    NewTierRepository(pool),
		PGBookingRepository: NewBookingRepository(pool),
	}
}

var _ Store = (*PGStore)(nil)
