package model

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// timeLayouts are tried in order; the first match wins.
var timeLayouts = []string{"15:04:05.999999", "15:04:05", "15:04"}

// Date is a calendar date with no time-of-day attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. Anything else, including
// out-of-range dates like 2024-13-45, reports ok=false.
func ParseDate(s string) (Date, bool) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, false
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, true
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// TimeOfDay is a wall-clock time independent of any date, with up to
// microsecond precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
	Micro  int
}

// ParseTimeOfDay parses a time string, accepting HH:MM:SS.ffffff,
// HH:MM:SS, or HH:MM, in that order of preference. Unparseable input
// reports ok=false; it is never an error.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return TimeOfDay{
			Hour:   t.Hour(),
			Minute: t.Minute(),
			Second: t.Second(),
			Micro:  t.Nanosecond() / 1000,
		}, true
	}
	return TimeOfDay{}, false
}

// String renders HH:MM:SS, with a six-digit fractional part appended when
// the time carries sub-second precision.
func (t TimeOfDay) String() string {
	if t.Micro != 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Micro)
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}
