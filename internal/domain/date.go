package domain

import "time"

// DayLayout is the wire format of a calendar day.
const DayLayout = "2006-01-02"

// CalendarDay truncates t to midnight UTC of the day t falls on in UTC.
// Balance history is bucketed by this day, never by local time.
func CalendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns midnight UTC of the day after t's calendar day.
func NextDay(t time.Time) time.Time {
	return CalendarDay(t).AddDate(0, 0, 1)
}

// ParseDay parses a YYYY-MM-DD string as a UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}
