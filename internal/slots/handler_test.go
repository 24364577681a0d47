package slots

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Tarunsaxena177/SlotSwapper/internal/middleware"
	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
	"github.com/Tarunsaxena177/SlotSwapper/pkg/response"
)

// fakeSlotStore keeps slots in memory. Update and Delete refuse SWAP_PENDING
// slots the same way the Postgres conditional writes do, and beforeWrite runs
// just before that check so tests can interleave a competing hold.
type fakeSlotStore struct {
	slots       map[uuid.UUID]*models.Slot
	beforeWrite func()
}

func newFakeSlotStore() *fakeSlotStore {
	return &fakeSlotStore{slots: make(map[uuid.UUID]*models.Slot)}
}

func (f *fakeSlotStore) Create(_ context.Context, s *models.Slot) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	f.slots[s.ID] = &cp
	return nil
}

func (f *fakeSlotStore) GetByID(_ context.Context, id uuid.UUID) (*models.Slot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSlotStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Slot, error) {
	var out []models.Slot
	for _, s := range f.slots {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSlotStore) Update(_ context.Context, s *models.Slot) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	cur, ok := f.slots[s.ID]
	if !ok || cur.Status == models.SlotSwapPending {
		return ErrSwapPending
	}
	s.UpdatedAt = time.Now()
	cp := *s
	f.slots[s.ID] = &cp
	return nil
}

func (f *fakeSlotStore) Delete(_ context.Context, id uuid.UUID) error {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	cur, ok := f.slots[id]
	if !ok || cur.Status == models.SlotSwapPending {
		return ErrSwapPending
	}
	delete(f.slots, id)
	return nil
}

func newTestRouter(t *testing.T, store *fakeSlotStore, userID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, zap.NewNop())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	})
	r.POST("/events", h.Create)
	r.GET("/events", h.List)
	r.PUT("/events/:id", h.Update)
	r.DELETE("/events/:id", h.Delete)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, response.Body) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var parsed response.Body
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func seedSlot(store *fakeSlotStore, owner uuid.UUID, status models.SlotStatus) *models.Slot {
	s := &models.Slot{
		OwnerID:   owner,
		Title:     "Morning shift",
		StartTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC),
		Status:    status,
	}
	_ = store.Create(context.Background(), s)
	return s
}

func TestUpdateSlot(t *testing.T) {
	owner := uuid.New()

	t.Run("toggles busy to swappable", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotBusy)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPut, "/events/"+s.ID.String(), gin.H{"status": "SWAPPABLE"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, body.Success)
		assert.Equal(t, models.SlotSwappable, store.slots[s.ID].Status)
	})

	t.Run("refused while held by a pending swap", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotSwapPending)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPut, "/events/"+s.ID.String(), gin.H{"title": "Renamed"})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "event is part of a pending swap", body.Error)
		assert.Equal(t, "Morning shift", store.slots[s.ID].Title)
	})

	t.Run("refused when a hold lands between read and write", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotSwappable)
		store.beforeWrite = func() {
			store.slots[s.ID].Status = models.SlotSwapPending
		}
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPut, "/events/"+s.ID.String(), gin.H{"title": "Renamed"})
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "event is part of a pending swap", body.Error)
		assert.Equal(t, "Morning shift", store.slots[s.ID].Title)
	})

	t.Run("cannot set swap pending directly", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotBusy)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPut, "/events/"+s.ID.String(), gin.H{"status": "SWAP_PENDING"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "status must be BUSY or SWAPPABLE", body.Error)
		assert.Equal(t, models.SlotBusy, store.slots[s.ID].Status)
	})

	t.Run("rejects start at or after end", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotBusy)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPut, "/events/"+s.ID.String(), gin.H{
			"startTime": "2024-03-01T12:00:00Z",
			"endTime":   "2024-03-01T11:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "startTime must be before endTime", body.Error)
	})

	t.Run("someone else's slot looks missing", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, uuid.New(), models.SlotBusy)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPut, "/events/"+s.ID.String(), gin.H{"title": "Renamed"})
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "event not found or not yours", body.Error)
	})
}

func TestDeleteSlot(t *testing.T) {
	owner := uuid.New()

	t.Run("removes an owned slot", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotBusy)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodDelete, "/events/"+s.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, body.Success)
		assert.NotContains(t, store.slots, s.ID)
	})

	t.Run("refused while held by a pending swap", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotSwapPending)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodDelete, "/events/"+s.ID.String(), nil)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "event is part of a pending swap", body.Error)
		assert.Contains(t, store.slots, s.ID)
	})

	t.Run("refused when a hold lands between read and write", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, owner, models.SlotSwappable)
		store.beforeWrite = func() {
			store.slots[s.ID].Status = models.SlotSwapPending
		}
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodDelete, "/events/"+s.ID.String(), nil)
		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "event is part of a pending swap", body.Error)
		assert.Contains(t, store.slots, s.ID)
	})

	t.Run("someone else's slot looks missing", func(t *testing.T) {
		store := newFakeSlotStore()
		s := seedSlot(store, uuid.New(), models.SlotBusy)
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodDelete, "/events/"+s.ID.String(), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "event not found or not yours", body.Error)
		assert.Contains(t, store.slots, s.ID)
	})
}

func TestCreateSlot(t *testing.T) {
	owner := uuid.New()

	t.Run("defaults to busy", func(t *testing.T) {
		store := newFakeSlotStore()
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPost, "/events", gin.H{
			"title":     "Dentist",
			"startTime": "2024-03-01T10:00:00Z",
			"endTime":   "2024-03-01T11:00:00Z",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, body.Success)
		require.Len(t, store.slots, 1)
		for _, s := range store.slots {
			assert.Equal(t, models.SlotBusy, s.Status)
			assert.Equal(t, owner, s.OwnerID)
		}
	})

	t.Run("rejects swap pending status", func(t *testing.T) {
		store := newFakeSlotStore()
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPost, "/events", gin.H{
			"title":     "Dentist",
			"startTime": "2024-03-01T10:00:00Z",
			"endTime":   "2024-03-01T11:00:00Z",
			"status":    "SWAP_PENDING",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "status must be BUSY or SWAPPABLE", body.Error)
		assert.Empty(t, store.slots)
	})

	t.Run("rejects start at or after end", func(t *testing.T) {
		store := newFakeSlotStore()
		r := newTestRouter(t, store, owner)

		w, body := doJSON(t, r, http.MethodPost, "/events", gin.H{
			"title":     "Dentist",
			"startTime": "2024-03-01T11:00:00Z",
			"endTime":   "2024-03-01T11:00:00Z",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "startTime must be before endTime", body.Error)
		assert.Empty(t, store.slots)
	})
}
