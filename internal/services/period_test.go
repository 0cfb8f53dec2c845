package services

import (
	"testing"
	"time"

	"gigtrack/internal/core"
)

func TestPeriodStrategies(t *testing.T) {
	// Wednesday
	now := time.Date(2024, 3, 13, 3, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		strategy PeriodStrategy
		from, to core.Date
	}{
		{"daily", DailyPeriod{}, core.NewDate(2024, 3, 12), core.NewDate(2024, 3, 12)},
		{"weekly", WeeklyPeriod{}, core.NewDate(2024, 3, 4), core.NewDate(2024, 3, 10)},
		{"monthly", MonthlyPeriod{}, core.NewDate(2024, 2, 1), core.NewDate(2024, 2, 29)},
		{"yearly", YearlyPeriod{}, core.NewDate(2023, 1, 1), core.NewDate(2023, 12, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := tt.strategy.Previous(now)
			if !from.Equal(tt.from.Time) || !to.Equal(tt.to.Time) {
				t.Errorf("Previous() = %s..%s, want %s..%s", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestWeeklyPeriodOnMonday(t *testing.T) {
	from, to := WeeklyPeriod{}.Previous(time.Date(2024, 3, 11, 0, 30, 0, 0, time.UTC))
	if from.String() != "2024-03-04" || to.String() != "2024-03-10" {
		t.Errorf("got %s..%s", from, to)
	}
}

func TestPreviousMonthAcrossYear(t *testing.T) {
	from, to := PreviousMonth(time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	if from.String() != "2023-12-01" || to.String() != "2023-12-31" {
		t.Errorf("got %s..%s", from, to)
	}
}

func TestGetPeriodStrategy(t *testing.T) {
	for _, name := range PeriodNames() {
		if _, err := GetPeriodStrategy(name); err != nil {
			t.Errorf("GetPeriodStrategy(%q) error = %v", name, err)
		}
	}
	if _, err := GetPeriodStrategy("hourly"); err == nil {
		t.Error("expected error for unknown period")
	}
}
