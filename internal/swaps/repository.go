package swaps

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
)

// Repository implements Store over PostgreSQL. Multi-entity transitions run
// inside a transaction with conditional UPDATEs on the status column, so
// concurrent requests racing on the same slots serialize at write time.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a swap repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSlot returns a slot by ID or ErrSlotNotFound.
func (r *Repository) GetSlot(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	const q = `SELECT id, owner_id, title, start_time, end_time, status, created_at, updated_at
		FROM slots WHERE id = $1`
	var s models.Slot
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.OwnerID, &s.Title, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSwappableExcluding returns all SWAPPABLE slots owned by other users,
// with the owner's display name.
func (r *Repository) ListSwappableExcluding(ctx context.Context, owner uuid.UUID) ([]models.SlotWithOwner, error) {
	const q = `SELECT s.id, s.owner_id, s.title, s.start_time, s.end_time, s.status, s.created_at, s.updated_at, u.name
		FROM slots s JOIN users u ON u.id = s.owner_id
		WHERE s.status = 'SWAPPABLE' AND s.owner_id <> $1
		ORDER BY s.start_time`
	rows, err := r.pool.Query(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SlotWithOwner
	for rows.Next() {
		var s models.SlotWithOwner
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Title, &s.StartTime, &s.EndTime, &s.Status, &s.CreatedAt, &s.UpdatedAt, &s.OwnerName); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CreatePending inserts the request and holds both slots, all or nothing.
func (r *Repository) CreatePending(ctx context.Context, req *models.SwapRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, slotID := range []uuid.UUID{req.MySlotID, req.TheirSlotID} {
		if err := holdSlot(ctx, tx, slotID); err != nil {
			return err
		}
	}

	const q = `INSERT INTO swap_requests (id, my_slot_id, their_slot_id, requested_by, requested_to, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`
	if err := tx.QueryRow(ctx, q, req.ID, req.MySlotID, req.TheirSlotID, req.RequestedBy, req.RequestedTo, req.Status).
		Scan(&req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	return tx.Commit(ctx)
}

// holdSlot moves one slot SWAPPABLE -> SWAP_PENDING. Zero rows means the slot
// was taken (or removed) since the engine read it.
func holdSlot(ctx context.Context, tx pgx.Tx, slotID uuid.UUID) error {
	const q = `UPDATE slots SET status = 'SWAP_PENDING', updated_at = NOW()
		WHERE id = $1 AND status = 'SWAPPABLE'`
	tag, err := tx.Exec(ctx, q, slotID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotSwappable
	}
	return nil
}

// GetRequest returns a request with both referenced slots.
func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (*models.SwapRequest, *models.Slot, *models.Slot, error) {
	const q = `SELECT id, my_slot_id, their_slot_id, requested_by, requested_to, status, created_at, updated_at
		FROM swap_requests WHERE id = $1`
	var req models.SwapRequest
	err := r.pool.QueryRow(ctx, q, id).Scan(&req.ID, &req.MySlotID, &req.TheirSlotID, &req.RequestedBy, &req.RequestedTo, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, nil, nil, err
	}

	mySlot, err := r.GetSlot(ctx, req.MySlotID)
	if err != nil {
		return nil, nil, nil, err
	}
	theirSlot, err := r.GetSlot(ctx, req.TheirSlotID)
	if err != nil {
		return nil, nil, nil, err
	}
	return &req, mySlot, theirSlot, nil
}

// Finalize resolves the request and persists both slots, all or nothing. The
// request row transition is conditional on it still being PENDING.
func (r *Repository) Finalize(ctx context.Context, req *models.SwapRequest, mySlot, theirSlot *models.Slot) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const resolveQ = `UPDATE swap_requests SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`
	tag, err := tx.Exec(ctx, resolveQ, req.ID, req.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotPending
	}

	const slotQ = `UPDATE slots SET start_time = $2, end_time = $3, status = $4, updated_at = NOW()
		WHERE id = $1`
	for _, s := range []*models.Slot{mySlot, theirSlot} {
		if _, err := tx.Exec(ctx, slotQ, s.ID, s.StartTime, s.EndTime, s.Status); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ListPendingFor returns pending requests addressed to and created by the
// user, with slots embedded and the counter-party's name resolved.
func (r *Repository) ListPendingFor(ctx context.Context, user uuid.UUID) (incoming, outgoing []models.SwapRequestDetail, err error) {
	incoming, err = r.listPending(ctx, "requested_to", "requested_by", user)
	if err != nil {
		return nil, nil, err
	}
	outgoing, err = r.listPending(ctx, "requested_by", "requested_to", user)
	if err != nil {
		return nil, nil, err
	}
	return incoming, outgoing, nil
}

// listPending selects pending requests where matchCol equals the user; the
// counter-party name comes from the user referenced by otherCol.
func (r *Repository) listPending(ctx context.Context, matchCol, otherCol string, user uuid.UUID) ([]models.SwapRequestDetail, error) {
	q := fmt.Sprintf(`SELECT
			r.id, r.my_slot_id, r.their_slot_id, r.requested_by, r.requested_to, r.status, r.created_at, r.updated_at,
			m.id, m.owner_id, m.title, m.start_time, m.end_time, m.status, m.created_at, m.updated_at,
			t.id, t.owner_id, t.title, t.start_time, t.end_time, t.status, t.created_at, t.updated_at,
			u.name
		FROM swap_requests r
		JOIN slots m ON m.id = r.my_slot_id
		JOIN slots t ON t.id = r.their_slot_id
		JOIN users u ON u.id = r.%s
		WHERE r.%s = $1 AND r.status = 'PENDING'
		ORDER BY r.created_at DESC`, otherCol, matchCol)

	rows, err := r.pool.Query(ctx, q, user)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SwapRequestDetail
	for rows.Next() {
		var d models.SwapRequestDetail
		if err := rows.Scan(
			&d.ID, &d.MySlotID, &d.TheirSlotID, &d.RequestedBy, &d.RequestedTo, &d.Status, &d.CreatedAt, &d.UpdatedAt,
			&d.MySlot.ID, &d.MySlot.OwnerID, &d.MySlot.Title, &d.MySlot.StartTime, &d.MySlot.EndTime, &d.MySlot.Status, &d.MySlot.CreatedAt, &d.MySlot.UpdatedAt,
			&d.TheirSlot.ID, &d.TheirSlot.OwnerID, &d.TheirSlot.Title, &d.TheirSlot.StartTime, &d.TheirSlot.EndTime, &d.TheirSlot.Status, &d.TheirSlot.CreatedAt, &d.TheirSlot.UpdatedAt,
			&d.CounterpartyName,
		); err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
