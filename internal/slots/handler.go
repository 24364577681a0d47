package slots

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tarunsaxena177/SlotSwapper/internal/middleware"
	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
	"github.com/Tarunsaxena177/SlotSwapper/pkg/response"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title     string `json:"title" binding:"required"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	Status    string `json:"status"` // optional: BUSY (default) or SWAPPABLE
}

// UpdateRequest is the body for PUT /events/:id. All fields optional.
type UpdateRequest struct {
	Title     *string `json:"title"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
	Status    *string `json:"status"`
}

// Store is the persistence surface the handler needs. *Repository satisfies
// it against Postgres.
type Store interface {
	Create(ctx context.Context, s *models.Slot) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Slot, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Slot, error)
	Update(ctx context.Context, s *models.Slot) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler handles slot HTTP endpoints.
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler creates a slot handler.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	startTime, err := parseTime(req.StartTime)
	if err != nil {
		response.BadRequest(c, "invalid startTime")
		return
	}
	endTime, err := parseTime(req.EndTime)
	if err != nil {
		response.BadRequest(c, "invalid endTime")
		return
	}
	if !startTime.Before(endTime) {
		response.BadRequest(c, "startTime must be before endTime")
		return
	}

	status := models.SlotBusy
	switch req.Status {
	case "", string(models.SlotBusy):
	case string(models.SlotSwappable):
		status = models.SlotSwappable
	default:
		response.BadRequest(c, "status must be BUSY or SWAPPABLE")
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s := &models.Slot{
		OwnerID:   userID,
		Title:     req.Title,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    status,
	}
	if err := h.store.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create slot", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, s)
}

// List handles GET /events. Returns the caller's own slots.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list slots", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /events/:id (owner only). A slot held by an open swap
// request cannot be edited, and SWAP_PENDING itself is never settable here.
func (h *Handler) Update(c *gin.Context) {
	s, ok := h.ownedSlot(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if s.Status == models.SlotSwapPending {
		response.Conflict(c, "event is part of a pending swap")
		return
	}

	if req.Title != nil {
		s.Title = *req.Title
	}
	if req.StartTime != nil {
		t, err := parseTime(*req.StartTime)
		if err != nil {
			response.BadRequest(c, "invalid startTime")
			return
		}
		s.StartTime = t
	}
	if req.EndTime != nil {
		t, err := parseTime(*req.EndTime)
		if err != nil {
			response.BadRequest(c, "invalid endTime")
			return
		}
		s.EndTime = t
	}
	if !s.StartTime.Before(s.EndTime) {
		response.BadRequest(c, "startTime must be before endTime")
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case string(models.SlotBusy):
			s.Status = models.SlotBusy
		case string(models.SlotSwappable):
			s.Status = models.SlotSwappable
		default:
			response.BadRequest(c, "status must be BUSY or SWAPPABLE")
			return
		}
	}

	if err := h.store.Update(c.Request.Context(), s); err != nil {
		if errors.Is(err, ErrSwapPending) {
			response.Conflict(c, "event is part of a pending swap")
			return
		}
		h.logger.Error("update slot", zap.Error(err))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, s)
}

// Delete handles DELETE /events/:id (owner only). Refused while the slot is
// held by an open swap request.
func (h *Handler) Delete(c *gin.Context) {
	s, ok := h.ownedSlot(c)
	if !ok {
		return
	}
	if s.Status == models.SlotSwapPending {
		response.Conflict(c, "event is part of a pending swap")
		return
	}
	if err := h.store.Delete(c.Request.Context(), s.ID); err != nil {
		if errors.Is(err, ErrSwapPending) {
			response.Conflict(c, "event is part of a pending swap")
			return
		}
		h.logger.Error("delete slot", zap.Error(err))
		response.Internal(c, "failed to delete event")
		return
	}
	response.OK(c, gin.H{"deleted": s.ID})
}

// Calendar handles GET /events/calendar.ics. Serves the caller's slots as an
// iCalendar feed for import into external calendar apps.
func (h *Handler) Calendar(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.store.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list slots for calendar", zap.Error(err))
		response.Internal(c, "failed to build calendar")
		return
	}
	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="slots.ics"`)
	c.String(http.StatusOK, BuildCalendar(list))
}

// ownedSlot loads the :id slot and verifies ownership. Missing and not-owned
// share one response so callers cannot probe for other users' events.
func (h *Handler) ownedSlot(c *gin.Context) (*models.Slot, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	s, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("get slot", zap.Error(err))
		}
		response.NotFound(c, "event not found or not yours")
		return nil, false
	}
	if s.OwnerID != userID {
		response.NotFound(c, "event not found or not yours")
		return nil, false
	}
	return s, true
}
