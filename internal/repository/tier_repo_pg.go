package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGTierRepository struct {
	db *pgxpool.Pool
}

func NewTierRepository(db *pgxpool.Pool) *PGTierRepository {
	return &PGTierRepository{db: db}
}

func (r *PGTierRepository) ListCatalog(ctx context.Context) ([]domain.CatalogEntry, error) {
	const query = `
SELECT t.id, t.name, t.price, COALESCE(i.quantity_available, 0)
FROM ticket_tiers t
LEFT JOIN ticket_inventory i ON i.tier_id = t.id
ORDER BY t.price DESC, t.name`

	rows, err := querierFor(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list catalog: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	entries := make([]domain.CatalogEntry, 0, len(domain.AllTierNames()))
	for rows.Next() {
		var e domain.CatalogEntry
		var name string
		if err := rows.Scan(&e.TierID, &name, &e.Price, &e.QuantityAvailable); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		e.Name = domain.TierName(name)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate catalog: %w", domain.ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (r *PGTierRepository) GetTierByName(ctx context.Context, name domain.TierName) (domain.TicketTier, error) {
	const query = `SELECT id, name, price FROM ticket_tiers WHERE name = $1`

	var t domain.TicketTier
	var stored string
	err := querierFor(ctx, r.db).QueryRow(ctx, query, string(name)).Scan(&t.ID, &stored, &t.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TicketTier{}, domain.ErrTierNotFound
		}
		return domain.TicketTier{}, fmt.Errorf("get tier %s: %w", name, err)
	}
	t.Name = domain.TierName(stored)
	return t, nil
}

func (r *PGTierRepository) LockInventory(ctx context.Context, tierID string) (int, error) {
	tx := txFromContext(ctx)
	if tx == nil {
		return 0, domain.ErrNoTransaction
	}

	const query = `SELECT quantity_available FROM ticket_inventory WHERE tier_id = $1 FOR UPDATE`

	var available int
	if err := tx.QueryRow(ctx, query, tierID).Scan(&available); err != nil {
		// A tier without an inventory row has nothing to sell.
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("lock inventory: %w", err)
	}
	return available, nil
}

func (r *PGTierRepository) DecrementInventory(ctx context.Context, tierID string, quantity int) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return domain.ErrNoTransaction
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	const stmt = `
UPDATE ticket_inventory
SET quantity_available = quantity_available - $2, updated_at = NOW()
WHERE tier_id = $1 AND quantity_available >= $2`

	tag, err := tx.Exec(ctx, stmt, tierID, quantity)
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInsufficientInventory
	}
	return nil
}

func (r *PGTierRepository) UpdateTierPrice(ctx context.Context, name domain.TierName, price int64) error {
	if price < 0 {
		return domain.ErrInvalidPrice
	}
	tag, err := querierFor(ctx, r.db).Exec(ctx, `UPDATE ticket_tiers SET price = $2 WHERE name = $1`, string(name), price)
	if err != nil {
		return fmt.Errorf("update tier price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTierNotFound
	}
	return nil
}

// Seed inserts missing tiers and inventory rows. Existing rows are left as they are.
func (r *PGTierRepository) Seed(ctx context.Context, seeds []domain.TierSeed) error {
	for _, s := range seeds {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("seed %s: %w", s.Name, err)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range seeds {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_tiers (name, price) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			string(s.Name), s.Price,
		); err != nil {
			return fmt.Errorf("seed tier %s: %w", s.Name, err)
		}

		var tierID string
		if err := tx.QueryRow(ctx, `SELECT id FROM ticket_tiers WHERE name = $1`, string(s.Name)).Scan(&tierID); err != nil {
			return fmt.Errorf("read seeded tier %s: %w", s.Name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_inventory (tier_id, quantity_available) VALUES ($1, $2) ON CONFLICT (tier_id) DO NOTHING`,
			tierID, s.Quantity,
		); err != nil {
			return fmt.Errorf("seed inventory %s: %w", s.Name, err)
		}
	}

	return tx.Commit(ctx)
}

var _ TierRepository = (*PGTierRepository)(nil)
