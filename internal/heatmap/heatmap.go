// Package heatmap turns sparse (date, count) contribution samples into the
// calendar-shaped payloads the API serves.
//
// Everything in this package is a pure function: no database, no clock, no
// logger. Data comes in, a payload comes out. That keeps the date arithmetic
// (the only genuinely tricky code in this service) trivially testable.
//
// CALENDAR CONVENTIONS:
// The grid is Sunday-first, like GitHub's own contribution graph. Go's
// time.Weekday already numbers Sunday=0..Saturday=6, so a day's column index
// is simply int(t.Weekday()) — no conversion needed.
//
// Days are exchanged as ISO date strings ("2006-01-02"), never time.Time
// instants: a contribution day is a calendar date and carrying a timezone
// around would only invite off-by-one-day bugs.
package heatmap

import (
	"sort"
	"time"
)

// DateLayout is the ISO date format used for all day keys.
const DateLayout = "2006-01-02"

// WeekdayLabels is the fixed Sunday-first label row, index-aligned with the
// weekday field of every day cell.
var WeekdayLabels = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Sample is one raw (date, count) contribution day, as produced by the
// GitHub client or stored in the database.
type Sample struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DayCell is a single rendered day: its date, Sunday-first weekday column,
// raw count, and intensity level.
type DayCell struct {
	Date    string `json:"date"`
	Weekday int    `json:"weekday"`
	Count   int    `json:"count"`
	Level   int    `json:"level"`
}

// Week is one Sunday-to-Saturday column of the grid.
type Week struct {
	WeekStart string    `json:"week_start"`
	Days      []DayCell `json:"days"`
}

// MonthLabel marks the week where a new month first appears in the grid.
type MonthLabel struct {
	WeekStart string `json:"week_start"`
	Month     string `json:"month"` // "YYYY-MM"
	Label     string `json:"label"` // abbreviated month name, e.g. "Feb"
}

// Grid is a fully aligned calendar: whole weeks only, first day is always a
// Sunday and the last a Saturday.
type Grid struct {
	Weeks       []Week       `json:"weeks"`
	MonthLabels []MonthLabel `json:"month_labels"`
	Total       int          `json:"total"`
}

// LevelRange describes one row of the fixed level taxonomy.
// Max is nil for the unbounded top bucket.
type LevelRange struct {
	Level int    `json:"level"`
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   *int   `json:"max"`
}

// Level maps a daily contribution count to an intensity bucket in [0,4].
//
// Thresholds are fixed: 0 → 0, 1–2 → 1, 3–5 → 2, 6–9 → 3, 10+ → 4.
// Total function — negative input (which the data model never produces)
// falls into the zero bucket.
func Level(count int) int {
	switch {
	case count <= 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 9:
		return 3
	default:
		return 4
	}
}

// Levels returns the fixed five-row taxonomy table, for clients that want to
// render a legend without hard-coding the thresholds.
func Levels() []LevelRange {
	bound := func(n int) *int { return &n }
	return []LevelRange{
		{Level: 0, Label: "0", Min: 0, Max: bound(0)},
		{Level: 1, Label: "1-2", Min: 1, Max: bound(2)},
		{Level: 2, Label: "3-5", Min: 3, Max: bound(5)},
		{Level: 3, Label: "6-9", Min: 6, Max: bound(9)},
		{Level: 4, Label: "10+", Min: 10, Max: nil},
	}
}

// BuildZeroFilledRange emits one Sample per calendar day in [from, to]
// inclusive, in ascending order, filling days absent from counts with zero.
// The second return value is the sum of the emitted counts.
//
// Precondition: from <= to. Range validation is the caller's job (the service
// layer returns an InvalidRange error before ever reaching this function).
func BuildZeroFilledRange(counts map[string]int, from, to time.Time) ([]Sample, int) {
	from, to = dateOnly(from), dateOnly(to)

	// Pre-size: the range length is known exactly.
	days := make([]Sample, 0, int(to.Sub(from).Hours()/24)+1)
	total := 0

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(DateLayout)
		count := counts[key] // zero value for absent days
		days = append(days, Sample{Date: key, Count: count})
		total += count
	}

	return days, total
}

// BuildCalendarGrid walks [from, to] expanded to whole Sunday-to-Saturday
// weeks and returns the aligned grid.
//
// Alignment padding (days before from or after to, added only to complete
// the first and last weeks) displays its true stored count — a padded cell
// is a real calendar day and hiding its activity would look like a gap —
// but only days inside the requested range contribute to Total.
//
// A month label is emitted for each week whose first in-range day falls in a
// year-month not seen in an earlier week, giving at most one label per month
// transition, in week order.
func BuildCalendarGrid(counts map[string]int, from, to time.Time) Grid {
	from, to = dateOnly(from), dateOnly(to)

	// Snap outward to the enclosing Sunday and Saturday.
	gridStart := from.AddDate(0, 0, -int(from.Weekday()))
	gridEnd := to.AddDate(0, 0, int(time.Saturday-to.Weekday()))

	grid := Grid{
		Weeks:       make([]Week, 0, int(gridEnd.Sub(gridStart).Hours()/24/7)+1),
		MonthLabels: []MonthLabel{},
	}
	labeled := make(map[string]bool)

	for ws := gridStart; !ws.After(gridEnd); ws = ws.AddDate(0, 0, 7) {
		week := Week{
			WeekStart: ws.Format(DateLayout),
			Days:      make([]DayCell, 0, 7),
		}

		var firstInRange time.Time
		for i := 0; i < 7; i++ {
			d := ws.AddDate(0, 0, i)
			key := d.Format(DateLayout)
			count := counts[key]

			if !d.Before(from) && !d.After(to) {
				grid.Total += count
				if firstInRange.IsZero() {
					firstInRange = d
				}
			}

			week.Days = append(week.Days, DayCell{
				Date:    key,
				Weekday: i,
				Count:   count,
				Level:   Level(count),
			})
		}

		if !firstInRange.IsZero() {
			month := firstInRange.Format("2006-01")
			if !labeled[month] {
				labeled[month] = true
				grid.MonthLabels = append(grid.MonthLabels, MonthLabel{
					WeekStart: week.WeekStart,
					Month:     month,
					Label:     firstInRange.Format("Jan"),
				})
			}
		}

		grid.Weeks = append(grid.Weeks, week)
	}

	return grid
}

// BuildWeeksPayload groups arbitrary raw samples into Sunday-start week
// buckets, with no padding to fixed range bounds: only weeks that contain at
// least one sample appear. Used for the live "me" view, where the data comes
// straight from GitHub and was never persisted.
//
// Samples with an unparseable date are silently skipped — partial upstream
// data is more useful than none. The returned total sums the valid samples.
func BuildWeeksPayload(samples []Sample) ([]Week, int) {
	grouped := make(map[string][]DayCell)
	total := 0

	for _, s := range samples {
		d, err := time.Parse(DateLayout, s.Date)
		if err != nil {
			continue
		}

		weekday := int(d.Weekday())
		weekStart := d.AddDate(0, 0, -weekday).Format(DateLayout)
		grouped[weekStart] = append(grouped[weekStart], DayCell{
			Date:    d.Format(DateLayout),
			Weekday: weekday,
			Count:   s.Count,
			Level:   Level(s.Count),
		})
		total += s.Count
	}

	starts := make([]string, 0, len(grouped))
	for ws := range grouped {
		starts = append(starts, ws)
	}
	sort.Strings(starts) // ISO dates sort chronologically as strings

	weeks := make([]Week, 0, len(starts))
	for _, ws := range starts {
		days := grouped[ws]
		sort.Slice(days, func(i, j int) bool {
			return days[i].Weekday < days[j].Weekday
		})
		weeks = append(weeks, Week{WeekStart: ws, Days: days})
	}

	return weeks, total
}

// CountsByDay indexes samples by their date string, ready for the Build*
// functions. Later samples for the same day overwrite earlier ones.
func CountsByDay(samples []Sample) map[string]int {
	counts := make(map[string]int, len(samples))
	for _, s := range samples {
		counts[s.Date] = s.Count
	}
	return counts
}

// dateOnly strips the clock and timezone, pinning the value to UTC midnight
// so day arithmetic never crosses a DST boundary.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
