package site

import (
	"fmt"
	"time"
)

// DaySelector builds the selector for a day cell in the currently
// displayed month. The :not(...) clause excludes leading/trailing cells
// that belong to the adjacent month; clicking one of those would
// silently book the wrong date.
func DaySelector(day int) string {
	return fmt.Sprintf(".react-datepicker__day--%03d:not(.react-datepicker__day--outside-month)", day)
}

// MonthChanges reports whether reaching target from the month shown for
// reference requires advancing the date picker.
func MonthChanges(target, reference time.Time) bool {
	return target.Month() != reference.Month() || target.Year() != reference.Year()
}
