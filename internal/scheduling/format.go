package scheduling

import (
	"fmt"
	"time"
)

var germanWeekdays = [...]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}

var germanMonths = [...]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"}

// FormatGermanDate renders t in loc like "Montag, 2. Juni 2025".
func FormatGermanDate(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	return fmt.Sprintf("%s, %d. %s %d", germanWeekdays[local.Weekday()], local.Day(), germanMonths[local.Month()-1], local.Year())
}

// FormatGermanTime renders t in loc as a 24h "HH:MM".
func FormatGermanTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(timeLayout)
}
