package slots

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
)

func TestBuildCalendar(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	slot := models.Slot{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Title:     "Morning shift",
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		Status:    models.SlotSwappable,
		CreatedAt: now.Add(-24 * time.Hour),
		UpdatedAt: now.Add(-24 * time.Hour),
	}

	out := BuildCalendar([]models.Slot{slot})

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "BEGIN:VEVENT")
	assert.Contains(t, out, "SUMMARY:Morning shift")
	assert.Contains(t, out, slot.ID.String())
	assert.Contains(t, out, "Status: SWAPPABLE")

	// Output must parse back with the same library.
	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, cal.Events(), 1)

	start, err := cal.Events()[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(slot.StartTime))
}

func TestBuildCalendarEmpty(t *testing.T) {
	out := BuildCalendar(nil)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
