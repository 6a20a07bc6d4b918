package scheduling

import "github.com/synclaro/website-api/internal/models"

// Resolve summarizes a slot grid. SlotsByDate holds only available slots,
// in the order generated.
func Resolve(slots []models.TimeSlot) models.Availability {
	out := models.Availability{
		TotalSlots:  len(slots),
		SlotsByDate: make(map[string][]models.TimeSlot),
	}
	for _, s := range slots {
		if !s.Available {
			continue
		}
		out.AvailableSlots++
		out.SlotsByDate[s.Date] = append(out.SlotsByDate[s.Date], s)
	}
	return out
}
