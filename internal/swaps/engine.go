package swaps

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
)

// Taxonomy errors surfaced by the negotiation engine. Handlers map these to
// HTTP statuses; anything else is an internal persistence failure.
var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrNotSlotOwner        = errors.New("offered slot does not belong to requester")
	ErrSlotNotSwappable    = errors.New("slot is not swappable")
	ErrRequestNotFound     = errors.New("swap request not found")
	ErrNotRequestRecipient = errors.New("swap request is not addressed to responder")
	ErrRequestNotPending   = errors.New("swap request already resolved")
)

// Notifier delivers a real-time event to a user. Delivery is best-effort:
// implementations must return immediately and never fail the calling mutation.
type Notifier interface {
	NotifyUser(userID uuid.UUID, event, message string)
}

// Store is the persistence contract for the negotiation engine. The two
// multi-entity writes (CreatePending, Finalize) must be atomic: either every
// row changes or none does, and status transitions are compare-and-set so a
// concurrent request racing on the same slots loses cleanly.
type Store interface {
	// GetSlot returns the slot or ErrSlotNotFound.
	GetSlot(ctx context.Context, id uuid.UUID) (*models.Slot, error)

	// ListSwappableExcluding returns all SWAPPABLE slots not owned by the
	// given user, annotated with the owner's display name.
	ListSwappableExcluding(ctx context.Context, owner uuid.UUID) ([]models.SlotWithOwner, error)

	// CreatePending inserts the request and moves both referenced slots from
	// SWAPPABLE to SWAP_PENDING in one transaction. Returns
	// ErrSlotNotSwappable if either slot changed status since it was read.
	CreatePending(ctx context.Context, req *models.SwapRequest) error

	// GetRequest returns the request together with both referenced slots, or
	// ErrRequestNotFound.
	GetRequest(ctx context.Context, id uuid.UUID) (*models.SwapRequest, *models.Slot, *models.Slot, error)

	// Finalize moves the request from PENDING to its new terminal status and
	// persists both slots as given, in one transaction. Returns
	// ErrRequestNotPending if the request was already resolved.
	Finalize(ctx context.Context, req *models.SwapRequest, mySlot, theirSlot *models.Slot) error

	// ListPendingFor returns the user's PENDING requests: incoming
	// (addressed to the user) and outgoing (created by the user), with slots
	// and counter-party names resolved.
	ListPendingFor(ctx context.Context, user uuid.UUID) (incoming, outgoing []models.SwapRequestDetail, err error)
}

// Engine orchestrates swap negotiation: marketplace listing, request
// creation, accept/reject, and the notification side effects.
type Engine struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates a negotiation engine.
func NewEngine(store Store, notifier Notifier, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, notifier: notifier, logger: logger}
}

// ListSwappable returns every slot currently offered by other users.
func (e *Engine) ListSwappable(ctx context.Context, requester uuid.UUID) ([]models.SlotWithOwner, error) {
	return e.store.ListSwappableExcluding(ctx, requester)
}

// CreateRequest validates and creates a swap request for the two slots,
// holding both in SWAP_PENDING until the recipient responds. Preconditions
// are checked in order: existence of both slots, ownership of the offered
// slot, then swappability of both.
func (e *Engine) CreateRequest(ctx context.Context, requester uuid.UUID, requesterName string, mySlotID, theirSlotID uuid.UUID) (*models.SwapRequest, error) {
	mySlot, err := e.store.GetSlot(ctx, mySlotID)
	if err != nil {
		return nil, err
	}
	theirSlot, err := e.store.GetSlot(ctx, theirSlotID)
	if err != nil {
		return nil, err
	}
	if mySlot.OwnerID != requester {
		return nil, ErrNotSlotOwner
	}
	if mySlot.Status != models.SlotSwappable || theirSlot.Status != models.SlotSwappable {
		return nil, ErrSlotNotSwappable
	}

	req := &models.SwapRequest{
		ID:          uuid.New(),
		MySlotID:    mySlot.ID,
		TheirSlotID: theirSlot.ID,
		RequestedBy: requester,
		RequestedTo: theirSlot.OwnerID,
		Status:      models.SwapPending,
	}
	if err := e.store.CreatePending(ctx, req); err != nil {
		return nil, err
	}

	e.notify(theirSlot.OwnerID, "new-request",
		fmt.Sprintf("You received a new swap request from %s for %q", requesterName, theirSlot.Title))
	return req, nil
}

// Respond resolves a pending request. On accept the two slots exchange their
// time windows (titles and owners stay put) and both become BUSY; on reject
// the slots return to SWAPPABLE with times untouched. A request that is no
// longer PENDING is refused, never reapplied.
func (e *Engine) Respond(ctx context.Context, responder uuid.UUID, responderName string, requestID uuid.UUID, accepted bool) (models.SwapStatus, error) {
	req, mySlot, theirSlot, err := e.store.GetRequest(ctx, requestID)
	if err != nil {
		return "", err
	}
	if req.RequestedTo != responder {
		return "", ErrNotRequestRecipient
	}
	if req.Status != models.SwapPending {
		return "", ErrRequestNotPending
	}

	event := "request-rejected"
	if accepted {
		mySlot.StartTime, theirSlot.StartTime = theirSlot.StartTime, mySlot.StartTime
		mySlot.EndTime, theirSlot.EndTime = theirSlot.EndTime, mySlot.EndTime
		mySlot.Status = models.SlotBusy
		theirSlot.Status = models.SlotBusy
		req.Status = models.SwapAccepted
		event = "request-accepted"
	} else {
		mySlot.Status = models.SlotSwappable
		theirSlot.Status = models.SlotSwappable
		req.Status = models.SwapRejected
	}

	if err := e.store.Finalize(ctx, req, mySlot, theirSlot); err != nil {
		return "", err
	}

	verb := "rejected"
	if accepted {
		verb = "accepted"
	}
	e.notify(req.RequestedBy, event, fmt.Sprintf("%s %s your swap request.", responderName, verb))
	return req.Status, nil
}

// ListRequests returns the user's pending incoming and outgoing requests.
// Resolved requests are excluded; there is no history view.
func (e *Engine) ListRequests(ctx context.Context, user uuid.UUID) (incoming, outgoing []models.SwapRequestDetail, err error) {
	return e.store.ListPendingFor(ctx, user)
}

func (e *Engine) notify(userID uuid.UUID, event, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.NotifyUser(userID, event, message)
	e.logger.Debug("notification emitted", zap.String("event", event), zap.String("user_id", userID.String()))
}
