package points

import "time"

const dayLayout = "2006-01-02"

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDay renders a calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string { return Day(t).Format(dayLayout) }

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) { return time.ParseInLocation(dayLayout, s, time.UTC) }

// StartOfWeek returns Monday 00:00 UTC of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	day := Day(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Advance applies a login on today to s. The streak changes only on the
// first login of a calendar day: a one day gap extends it, a longer gap
// resets it to 1 and a first ever login starts it at 1. changed is false
// when the login does not mutate the streak.
func (s LoginStreak) Advance(today time.Time, bonus int) (next LoginStreak, changed bool) {
	today = Day(today)
	next = s

	if s.LastLoginDate.IsZero() {
		next.StreakCount = 1
	} else {
		gap := int(today.Sub(Day(s.LastLoginDate)).Hours() / 24)
		switch {
		case gap <= 0:
			return s, false
		case gap == 1:
			next.StreakCount = s.StreakCount + 1
		default:
			next.StreakCount = 1
		}
	}
	next.LastLoginDate = today
	next.TotalStreakPoints = s.TotalStreakPoints + bonus
	return next, true
}
