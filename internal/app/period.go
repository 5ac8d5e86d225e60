package app

import (
	"fmt"
	"time"
)

// PeriodKeyFunc derives the session identity for the window opened at t.
type PeriodKeyFunc func(t time.Time) string

// WeeklyPeriodKey yields week_YYYY_WW where weeks start on Monday and the
// days before the first Monday of the year belong to week 00.
func WeeklyPeriodKey(t time.Time) string {
	yday := t.YearDay() - 1
	monday := (int(t.Weekday()) + 6) % 7
	week := (yday + 7 - monday) / 7
	return fmt.Sprintf("week_%04d_%02d", t.Year(), week)
}

// DailyPeriodKey yields day_YYYY_MM_DD.
func DailyPeriodKey(t time.Time) string {
	return "day_" + t.Format("2006_01_02")
}

// PeriodKeyByName resolves a configured policy name.
func PeriodKeyByName(name string) (PeriodKeyFunc, error) {
	switch name {
	case "", "weekly":
		return WeeklyPeriodKey, nil
	case "daily":
		return DailyPeriodKey, nil
	}
	return nil, fmt.Errorf("unknown period policy %q", name)
}
