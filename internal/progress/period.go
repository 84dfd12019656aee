package progress

import (
	"fmt"
	"strings"
	"time"
)

// Period is a trailing window of whole calendar days. Days == 0 means all time.
type Period struct {
	Days int
}

// All covers every session.
var All = Period{}

var periodPresets = map[string]int{
	"2d":  2,
	"7d":  7,
	"15d": 15,
	"30d": 30,
	"90d": 90,
}

// ParsePeriod accepts "2d", "7d", "15d", "30d", "90d" or "all". The long
// forms "7days" and an empty string (= all) are accepted too.
func ParsePeriod(s string) (Period, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || key == "all" {
		return All, nil
	}
	if days, ok := periodPresets[strings.TrimSuffix(key, "ays")]; ok {
		return Period{Days: days}, nil
	}
	return Period{}, fmt.Errorf("unknown period %q (use 2d, 7d, 15d, 30d, 90d or all)", s)
}

// String returns the preset name.
func (p Period) String() string {
	if p.Days == 0 {
		return "all"
	}
	return fmt.Sprintf("%dd", p.Days)
}

// Range is an inclusive time span. A zero Start or End is unbounded on that side.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls within the range.
func (r Range) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	return r.End.IsZero() || !t.After(r.End)
}

// Range resolves the period relative to now: from the start of the day
// p.Days ago through the end of today, in now's location.
func (p Period) Range(now time.Time) Range {
	r := Range{End: endOfDay(now)}
	if p.Days > 0 {
		r.Start = startOfDay(now).AddDate(0, 0, -p.Days)
	}
	return r
}

// DayRange expands two calendar dates into a range covering both days fully.
func DayRange(start, end time.Time) (Range, error) {
	s, e := startOfDay(start), endOfDay(end)
	if s.After(e) {
		return Range{}, fmt.Errorf("start %s is after end %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return Range{Start: s, End: e}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999999999, t.Location())
}
