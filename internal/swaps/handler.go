package swaps

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tarunsaxena177/SlotSwapper/internal/middleware"
	"github.com/Tarunsaxena177/SlotSwapper/pkg/response"
)

// RequestBody is the body for POST /swaps/request.
type RequestBody struct {
	MySlotID    string `json:"mySlotId" binding:"required,uuid"`
	TheirSlotID string `json:"theirSlotId" binding:"required,uuid"`
}

// ResponseBody is the body for POST /swaps/response/:requestId.
type ResponseBody struct {
	Accepted *bool `json:"accepted" binding:"required"`
}

// Handler handles swap negotiation HTTP endpoints.
type Handler struct {
	engine *Engine
	logger *zap.Logger
}

// NewHandler creates a swap handler.
func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// ListSwappable handles GET /swaps/swappable-slots.
func (h *Handler) ListSwappable(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	slots, err := h.engine.ListSwappable(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list swappable", zap.Error(err))
		response.Internal(c, "failed to list swappable slots")
		return
	}
	response.OK(c, slots)
}

// CreateRequest handles POST /swaps/request.
func (h *Handler) CreateRequest(c *gin.Context) {
	var body RequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	mySlotID, _ := uuid.Parse(body.MySlotID)
	theirSlotID, _ := uuid.Parse(body.TheirSlotID)

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	userName := c.GetString(middleware.ContextUserName)

	req, err := h.engine.CreateRequest(c.Request.Context(), userID, userName, mySlotID, theirSlotID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotNotFound):
			response.NotFound(c, "slot not found")
		case errors.Is(err, ErrNotSlotOwner):
			response.Forbidden(c, "you do not own the offered slot")
		case errors.Is(err, ErrSlotNotSwappable):
			response.Conflict(c, "both slots must be swappable")
		default:
			h.logger.Error("create swap request", zap.Error(err))
			response.Internal(c, "failed to create swap request")
		}
		return
	}
	response.Created(c, req)
}

// Respond handles POST /swaps/response/:requestId.
func (h *Handler) Respond(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var body ResponseBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	userName := c.GetString(middleware.ContextUserName)

	status, err := h.engine.Respond(c.Request.Context(), userID, userName, requestID, *body.Accepted)
	if err != nil {
		switch {
		// Missing and not-yours deliberately share one response so callers
		// cannot probe for the existence of other users' requests.
		case errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrNotRequestRecipient):
			response.Forbidden(c, "request not found or not addressed to you")
		case errors.Is(err, ErrRequestNotPending):
			response.Conflict(c, "request already resolved")
		case errors.Is(err, ErrSlotNotFound):
			response.NotFound(c, "slot not found")
		default:
			h.logger.Error("respond to swap request", zap.Error(err))
			response.Internal(c, "failed to respond to swap request")
		}
		return
	}
	response.OK(c, gin.H{"status": status})
}

// ListRequests handles GET /swaps/requests.
func (h *Handler) ListRequests(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	incoming, outgoing, err := h.engine.ListRequests(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list swap requests", zap.Error(err))
		response.Internal(c, "failed to list swap requests")
		return
	}
	response.OK(c, gin.H{"incoming": incoming, "outgoing": outgoing})
}
