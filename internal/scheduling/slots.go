// Package scheduling builds the bookable slot grid of the business calendar.
package scheduling

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/synclaro/website-api/internal/models"
)

const (
	// BusinessTimeZone is the only zone slots are generated in.
	BusinessTimeZone = "Europe/Zurich"

	SlotMinutes  = 15
	SlotDuration = SlotMinutes * time.Minute

	dayStartHour = 9
	dayEndHour   = 17

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// LoadBusinessLocation loads the business time zone from the embedded tz database.
func LoadBusinessLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(BusinessTimeZone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %s: %w", BusinessTimeZone, err)
	}
	return loc, nil
}

// Generator produces slot grids. Now is injectable so results are
// reproducible; it defaults to time.Now.
type Generator struct {
	Location *time.Location
	Now      func() time.Time
}

func NewGenerator(loc *time.Location) *Generator {
	return &Generator{Location: loc, Now: time.Now}
}

// Window returns the availability range for a request made now: local
// midnight today through the last instant of the day `days` days later.
func (g *Generator) Window(days int) (time.Time, time.Time) {
	now := g.now().In(g.Location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, g.Location)
	last := start.AddDate(0, 0, days)
	end := time.Date(last.Year(), last.Month(), last.Day(), 23, 59, 59, int(999*time.Millisecond), g.Location)
	return start, end
}

// GenerateSlots lists every future weekday slot between 09:00 and 17:00
// local time on the civil dates from windowStart to windowEnd inclusive, and
// marks each one unavailable when it overlaps a busy interval.
func (g *Generator) GenerateSlots(windowStart, windowEnd time.Time, busy []models.BusyInterval) []models.TimeSlot {
	now := g.now()
	first := civilDate(windowStart.In(g.Location))
	last := civilDate(windowEnd.In(g.Location))

	var slots []models.TimeSlot
	// Civil dates are stepped in UTC so day arithmetic never sees an offset change.
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		for hour := dayStartHour; hour < dayEndHour; hour++ {
			for minute := 0; minute < 60; minute += SlotMinutes {
				start := time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, g.Location)
				if !start.After(now) {
					continue
				}
				slot := models.TimeSlot{
					Date:            start.Format(dateLayout),
					StartTime:       start.Format(timeLayout),
					StartInstant:    start.UTC(),
					DurationMinutes: SlotMinutes,
				}
				slot.Available = isFree(slot.StartInstant, slot.End(), busy)
				slots = append(slots, slot)
			}
		}
	}
	return slots
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isFree(start, end time.Time, busy []models.BusyInterval) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return false
		}
	}
	return true
}
