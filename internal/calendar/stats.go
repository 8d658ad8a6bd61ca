package calendar

import (
	"sort"
	"time"

	"github.com/chetana/dailypushup/internal/types"
)

// DeriveStats projects aggregate statistics from the local entry set.
// It is a display fallback for a cache that has entries but no stats row;
// server-computed values always take precedence when present. TodayTarget
// is unknown locally and left zero.
func DeriveStats(entries []types.Entry, today time.Time) types.Stats {
	validated := make([]string, 0, len(entries))
	stats := types.Stats{}
	todayKey := types.Day(today)

	for _, e := range entries {
		if !e.Validated {
			continue
		}
		validated = append(validated, e.Date)
		stats.TotalPushups += e.Pushups
		stats.TotalDays++
		if e.Date == todayKey {
			stats.TodayValidated = true
		}
	}
	if len(validated) == 0 {
		return stats
	}
	sort.Strings(validated)

	// Longest run of consecutive validated days.
	run := 1
	longest := 1
	for i := 1; i < len(validated); i++ {
		if nextDay(validated[i-1]) == validated[i] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	stats.LongestStreak = longest

	// Current streak: consecutive validated days ending today, or ending
	// yesterday when today is still pending.
	last := validated[len(validated)-1]
	yesterdayKey := types.Day(today.AddDate(0, 0, -1))
	if last == todayKey || last == yesterdayKey {
		current := 1
		for i := len(validated) - 1; i > 0; i-- {
			if nextDay(validated[i-1]) != validated[i] {
				break
			}
			current++
		}
		stats.CurrentStreak = current
	}

	return stats
}

func nextDay(date string) string {
	t, err := time.Parse(types.DateFormat, date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 1).Format(types.DateFormat)
}
