package slots

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
)

var (
	// ErrNotFound is returned when a slot does not exist.
	ErrNotFound = errors.New("slot not found")
	// ErrSwapPending is returned when a write is refused because the slot is
	// held by an open swap request.
	ErrSwapPending = errors.New("slot is part of a pending swap")
)

// Repository handles slot persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a slot repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new slot.
func (r *Repository) Create(ctx context.Context, s *models.Slot) error {
	const q = `INSERT INTO slots (id, owner_id, title, start_time, end_time, status)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, s.OwnerID, s.Title, s.StartTime, s.EndTime, s.Status).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID returns a slot by ID or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	const q = `SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots WHERE id = $1`
	var s models.Slot
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.OwnerID, &s.Title, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByOwner returns all slots owned by the user, ordered by start time.
func (r *Repository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Slot, error) {
	const q = `SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots WHERE owner_id = $1 ORDER BY start_time`
	rows, err := r.pool.Query(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Slot
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Title, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// Update persists title, times, and status for a slot. The write is
// conditional on the slot not being SWAP_PENDING: a hold committed between
// the handler's read and this statement wins, and the update is refused.
func (r *Repository) Update(ctx context.Context, s *models.Slot) error {
	const q = `UPDATE slots SET title = $2, start_time = $3, end_time = $4, status = $5, updated_at = NOW()
		WHERE id = $1 AND status <> 'SWAP_PENDING'
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, s.ID, s.Title, s.StartTime, s.EndTime, s.Status).Scan(&s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSwapPending
	}
	return err
}

// Delete removes a slot by ID unless an open swap request holds it. With the
// hold checked in the DELETE itself, a PENDING swap_request row can never be
// cascaded away by its slot.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM slots WHERE id = $1 AND status <> 'SWAP_PENDING'`
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSwapPending
	}
	return nil
}
