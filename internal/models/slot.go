package models

import (
	"time"

	"github.com/google/uuid"
)

// SlotStatus is the lifecycle state of a calendar slot.
type SlotStatus string

const (
	// SlotBusy is a regular slot not offered for swapping.
	SlotBusy SlotStatus = "BUSY"
	// SlotSwappable means the owner has opted the slot into the marketplace.
	SlotSwappable SlotStatus = "SWAPPABLE"
	// SlotSwapPending means the slot is held by an open swap request and
	// cannot be edited, deleted, or offered again until that request resolves.
	SlotSwapPending SlotStatus = "SWAP_PENDING"
)

// Valid reports whether s is one of the three known statuses.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotBusy, SlotSwappable, SlotSwapPending:
		return true
	}
	return false
}

// Slot is a user-owned calendar time interval. StartTime < EndTime always.
type Slot struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Title     string     `json:"title"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	Status    SlotStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SlotWithOwner is a slot annotated with the owner's display name, used by
// the marketplace listing.
type SlotWithOwner struct {
	Slot
	OwnerName string `json:"owner_name"`
}
