package models

import "time"

// TimeSlot is one bookable appointment unit. Slots are computed per request
// and never persisted.
type TimeSlot struct {
	Date            string    `json:"date"`
	StartTime       string    `json:"time"`
	StartInstant    time.Time `json:"datetime"`
	DurationMinutes int       `json:"-"`
	Available       bool      `json:"available"`
}

// End returns the instant the slot ends.
func (s TimeSlot) End() time.Time {
	return s.StartInstant.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// BusyInterval is a half-open [Start, End) range occupied on the calendar.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [start, end) intersects the interval.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// CalendarCredentials is the single OAuth credential set of the calendar owner.
type CalendarCredentials struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Availability is the grouped view of a slot grid.
type Availability struct {
	RangeStart     time.Time
	RangeEnd       time.Time
	TotalSlots     int
	AvailableSlots int
	SlotsByDate    map[string][]TimeSlot
}
