// Package services orchestrates report exports on top of the aggregators.
//
// This file holds the period strategies that decide which window of days a
// scheduled export covers. Each strategy returns the last complete period
// before a given instant.
package services

import (
	"fmt"
	"sort"
	"time"

	"gigtrack/internal/core"
)

// PeriodStrategy picks the export window for a scheduled run.
type PeriodStrategy interface {
	// Previous returns the inclusive bounds of the last complete period
	// before now.
	Previous(now time.Time) (from, to core.Date)
}

// DailyPeriod covers yesterday.
type DailyPeriod struct{}

func (DailyPeriod) Previous(now time.Time) (core.Date, core.Date) {
	d := core.DateOf(now).AddDate(0, 0, -1)
	return core.DateOf(d), core.DateOf(d)
}

// WeeklyPeriod covers the last complete Monday to Sunday week.
type WeeklyPeriod struct{}

func (WeeklyPeriod) Previous(now time.Time) (core.Date, core.Date) {
	today := core.DateOf(now).Time
	sinceMonday := (int(today.Weekday()) + 6) % 7
	thisMonday := today.AddDate(0, 0, -sinceMonday)
	return core.DateOf(thisMonday.AddDate(0, 0, -7)), core.DateOf(thisMonday.AddDate(0, 0, -1))
}

// MonthlyPeriod covers the previous calendar month.
type MonthlyPeriod struct{}

func (MonthlyPeriod) Previous(now time.Time) (core.Date, core.Date) {
	return PreviousMonth(now)
}

// YearlyPeriod covers the previous calendar year.
type YearlyPeriod struct{}

func (YearlyPeriod) Previous(now time.Time) (core.Date, core.Date) {
	y := now.UTC().Year() - 1
	return core.NewDate(y, 1, 1), core.NewDate(y, 12, 31)
}

// PreviousMonth returns the first and last day of the month before now.
func PreviousMonth(now time.Time) (core.Date, core.Date) {
	first := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return core.DateOf(first.AddDate(0, -1, 0)), core.DateOf(first.AddDate(0, 0, -1))
}

var periodStrategies = map[string]PeriodStrategy{
	"daily":   DailyPeriod{},
	"weekly":  WeeklyPeriod{},
	"monthly": MonthlyPeriod{},
	"yearly":  YearlyPeriod{},
}

// GetPeriodStrategy returns the strategy registered under name.
func GetPeriodStrategy(name string) (PeriodStrategy, error) {
	s, ok := periodStrategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown export period: %s", name)
	}
	return s, nil
}

// PeriodNames lists the registered period names in order.
func PeriodNames() []string {
	names := make([]string, 0, len(periodStrategies))
	for n := range periodStrategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
