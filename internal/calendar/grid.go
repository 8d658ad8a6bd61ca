package calendar

import (
	"time"

	"github.com/chetana/dailypushup/internal/types"
)

// DayStatus classifies one calendar cell.
type DayStatus string

const (
	// StatusValidated marks a day whose entry is validated.
	StatusValidated DayStatus = "validated"
	// StatusTodayPending marks today while it is not yet validated.
	StatusTodayPending DayStatus = "today_pending"
	// StatusFuture marks days strictly after today.
	StatusFuture DayStatus = "future"
	// StatusMissed marks past days without a validated entry. A day with a
	// recorded but non-validated count still classifies as missed.
	StatusMissed DayStatus = "missed"
	// StatusOutside marks pad cells before the 1st and after the last day.
	StatusOutside DayStatus = "outside"
)

// Cell is one position in the month grid. Pad cells have Day 0.
type Cell struct {
	Day     int       `json:"day,omitempty"`
	Date    string    `json:"date,omitempty"`
	Status  DayStatus `json:"status"`
	Pushups int       `json:"pushups,omitempty"`
}

// Classify returns the status for one date. Precedence: validated entry,
// then today, then future, then missed.
func Classify(date string, today string, entry *types.Entry) DayStatus {
	switch {
	case entry != nil && entry.Validated:
		return StatusValidated
	case date == today:
		return StatusTodayPending
	case date > today:
		// Canonical YYYY-MM-DD keys order lexicographically.
		return StatusFuture
	default:
		return StatusMissed
	}
}

// Grid lays out the month in Monday-start weeks. The first week is padded
// with leading outside cells, the last with trailing ones, so every week
// holds exactly seven cells.
func Grid(m Month, today time.Time, entries []types.Entry) [][]Cell {
	byDate := make(map[string]*types.Entry, len(entries))
	for i := range entries {
		byDate[entries[i].Date] = &entries[i]
	}
	todayKey := types.Day(today)

	// Offset of the 1st from Monday: time.Weekday counts from Sunday.
	lead := (int(m.First().Weekday()) + 6) % 7

	cells := make([]Cell, 0, lead+m.Days())
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Status: StatusOutside})
	}
	for day := 1; day <= m.Days(); day++ {
		date := time.Date(m.Year, m.Month, day, 0, 0, 0, 0, time.UTC).Format(types.DateFormat)
		entry := byDate[date]
		cell := Cell{
			Day:    day,
			Date:   date,
			Status: Classify(date, todayKey, entry),
		}
		if entry != nil {
			cell.Pushups = entry.Pushups
		}
		cells = append(cells, cell)
	}
	for len(cells)%7 != 0 {
		cells = append(cells, Cell{Status: StatusOutside})
	}

	weeks := make([][]Cell, 0, len(cells)/7)
	for i := 0; i < len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}
