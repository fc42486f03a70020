package classroom

import "time"

// MeetsOn reports whether the class meets on the given calendar day.
// The date range check is inclusive on both ends and ignores time of day.
func MeetsOn(c *Class, day time.Time) bool {
	d := truncateToDay(day)
	if d.Before(truncateToDay(c.StartDate)) || d.After(truncateToDay(c.EndDate)) {
		return false
	}
	name := d.Weekday().String()
	for _, sd := range c.ScheduleDays {
		if sd == name {
			return true
		}
	}
	return false
}

// ClassesOn filters classes down to those meeting on the given day.
func ClassesOn(classes []Class, day time.Time) []Class {
	var out []Class
	for i := range classes {
		if MeetsOn(&classes[i], day) {
			out = append(out, classes[i])
		}
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
