package domain

import (
	"fmt"
	"time"
)

// StreakState is derived from the attendance list on every read.
type StreakState struct {
	CurrentWeekCount int `json:"current_week_count"`
	Streak           int `json:"streak"`
}

// NormalizeGoal clamps a weekly goal to at least one attendance.
func NormalizeGoal(goal int) int {
	if goal < 1 {
		return 1
	}
	return goal
}

// WeekKey buckets a date into "{year}-W{week}".
//
// Weeks run Sunday to Saturday and are numbered from the week holding Jan 1,
// using the date's own calendar year. A bucket that crosses the new year is
// split in two: Dec 31 and Jan 1 never share a key.
func WeekKey(date time.Time) string {
	firstJan := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, date.Location())
	dayOfYear := date.YearDay() - 1
	offset := dayOfYear + int(firstJan.Weekday()) + 1
	week := (offset + 6) / 7
	return fmt.Sprintf("%d-W%d", date.Year(), week)
}

// weekCounts buckets attendance by week key. Unparseable entries are skipped.
func weekCounts(attendance []string, loc *time.Location) map[string]int {
	counts := make(map[string]int)
	for _, s := range attendance {
		d, err := ParseDate(s, loc)
		if err != nil {
			continue
		}
		counts[WeekKey(d)]++
	}
	return counts
}

// CountAttendancesThisWeek counts entries that share today's week key.
func CountAttendancesThisWeek(attendance []string, today time.Time) int {
	current := WeekKey(today)
	count := 0
	for _, s := range attendance {
		d, err := ParseDate(s, today.Location())
		if err != nil {
			continue
		}
		if WeekKey(d) == current {
			count++
		}
	}
	return count
}

// CalculateWeeklyStreak counts consecutive weeks, ending with the week of
// today, whose attendance meets the goal. If the current week falls short the
// streak is zero no matter how good earlier weeks were.
func CalculateWeeklyStreak(attendance []string, goal int, today time.Time) StreakState {
	goal = NormalizeGoal(goal)
	counts := weekCounts(attendance, today.Location())

	streak := 0
	cursor := today
	for counts[WeekKey(cursor)] >= goal {
		streak++
		cursor = cursor.AddDate(0, 0, -7)
	}

	return StreakState{
		CurrentWeekCount: CountAttendancesThisWeek(attendance, today),
		Streak:           streak,
	}
}

// AddAttendanceIfNeeded appends today's date unless it is already recorded.
// The input is never modified: when nothing is added the same slice comes
// back, otherwise a fresh one.
func AddAttendanceIfNeeded(attendance []string, today time.Time) ([]string, bool) {
	todayStr := FormatDate(today)
	for _, d := range attendance {
		if d == todayStr {
			return attendance, false
		}
	}

	updated := make([]string, 0, len(attendance)+1)
	updated = append(updated, attendance...)
	updated = append(updated, todayStr)
	return updated, true
}

// WeekDays lists the days sharing the bucket of anchor, in ascending order.
func WeekDays(anchor time.Time) []time.Time {
	day := StartOfDay(anchor)
	key := WeekKey(day)

	start := day
	for {
		prev := start.AddDate(0, 0, -1)
		if WeekKey(prev) != key {
			break
		}
		start = prev
	}

	var days []time.Time
	for d := start; WeekKey(d) == key; d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
