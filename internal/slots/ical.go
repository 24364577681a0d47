package slots

import (
	ics "github.com/arran4/golang-ical"

	"github.com/Tarunsaxena177/SlotSwapper/internal/models"
)

// BuildCalendar renders the slots as an iCalendar document, one VEVENT per
// slot with the swap status in the description.
func BuildCalendar(list []models.Slot) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SlotSwapper//Calendar Export//EN")

	for _, s := range list {
		ev := cal.AddEvent(s.ID.String())
		ev.SetSummary(s.Title)
		ev.SetStartAt(s.StartTime)
		ev.SetEndAt(s.EndTime)
		ev.SetCreatedTime(s.CreatedAt)
		ev.SetDtStampTime(s.UpdatedAt)
		ev.SetDescription("Status: " + string(s.Status))
	}
	return cal.Serialize()
}
