package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

var AllWeekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// WeekdayOf converts a time.Weekday.
func WeekdayOf(d time.Weekday) Weekday {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// ParseWeekday accepts any casing of the english day name.
func ParseWeekday(s string) (Weekday, bool) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	for _, w := range AllWeekdays {
		if w == d {
			return d, true
		}
	}
	return "", false
}

// DaySchedule is one weekday of a doctor's template. Start and End are "HH:MM".
type DaySchedule struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Enabled bool   `json:"enabled"`
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Contains reports whether the wall-clock minute falls inside [Start, End).
func (d DaySchedule) Contains(minute int) bool {
	if !d.Enabled {
		return false
	}
	start, err := ParseClock(d.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(d.End)
	if err != nil {
		return false
	}
	return minute >= start && minute < end
}

// WeeklySchedule is a doctor's availability template, stored as jsonb.
type WeeklySchedule map[Weekday]DaySchedule

// DefaultWeeklySchedule is Monday to Friday 09:00-17:00.
func DefaultWeeklySchedule() WeeklySchedule {
	s := make(WeeklySchedule, len(AllWeekdays))
	for _, d := range AllWeekdays {
		s[d] = DaySchedule{Start: "09:00", End: "17:00", Enabled: d != Saturday && d != Sunday}
	}
	return s
}

var ErrInvalidSchedule = errors.New("invalid schedule")

// Validate checks that every enabled day has well formed times with start < end.
func (s WeeklySchedule) Validate() error {
	for day, entry := range s {
		if _, ok := ParseWeekday(string(day)); !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, day)
		}
		if !entry.Enabled {
			continue
		}
		start, err := ParseClock(entry.Start)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, day, err)
		}
		end, err := ParseClock(entry.End)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSchedule, day, err)
		}
		if start >= end {
			return fmt.Errorf("%w: %s starts at or after it ends", ErrInvalidSchedule, day)
		}
	}
	return nil
}

// Covers reports whether t, read on the given clinic clock, starts inside an
// enabled window. Only the start instant is checked.
func (s WeeklySchedule) Covers(t time.Time, loc *time.Location) bool {
	if loc != nil {
		t = t.In(loc)
	}
	entry, ok := s[WeekdayOf(t.Weekday())]
	if !ok {
		return false
	}
	return entry.Contains(t.Hour()*60 + t.Minute())
}

func (s WeeklySchedule) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func (s *WeeklySchedule) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal schedule value: %v", value)
	}
	result := WeeklySchedule{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*s = result
	return nil
}
