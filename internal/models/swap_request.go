package models

import (
	"time"

	"github.com/google/uuid"
)

// SwapStatus is the lifecycle state of a swap request. ACCEPTED and REJECTED
// are terminal.
type SwapStatus string

const (
	SwapPending  SwapStatus = "PENDING"
	SwapAccepted SwapStatus = "ACCEPTED"
	SwapRejected SwapStatus = "REJECTED"
)

// SwapRequest pairs the requester's slot with another user's slot and awaits
// accept/reject by the recipient. RequestedBy is the owner of MySlot and
// RequestedTo the owner of TheirSlot, both captured at creation time.
type SwapRequest struct {
	ID          uuid.UUID  `json:"id"`
	MySlotID    uuid.UUID  `json:"my_slot_id"`
	TheirSlotID uuid.UUID  `json:"their_slot_id"`
	RequestedBy uuid.UUID  `json:"requested_by"`
	RequestedTo uuid.UUID  `json:"requested_to"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// SwapRequestDetail is a swap request with both slots embedded and the
// counter-party's display name resolved, as returned by the requests listing.
type SwapRequestDetail struct {
	SwapRequest
	MySlot           Slot   `json:"my_slot"`
	TheirSlot        Slot   `json:"their_slot"`
	CounterpartyName string `json:"counterparty_name"`
}
