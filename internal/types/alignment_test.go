package types

import (
	"testing"
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAlignmentRuleDate(t *testing.T) {
	tuesday := date(2020, time.May, 5)

	tests := []struct {
		name   string
		params AlignmentRuleParams
		from   time.Time
		want   time.Time
	}{
		{
			name:   "week without weekday moves one week",
			params: AlignmentRuleParams{Unit: AlignmentUnitWeek},
			from:   tuesday,
			want:   date(2020, time.May, 12),
		},
		{
			name:   "week to friday",
			params: AlignmentRuleParams{Unit: AlignmentUnitWeek, DayOfWeek: lo.ToPtr(5)},
			from:   tuesday,
			want:   date(2020, time.May, 8),
		},
		{
			name:   "week to monday wraps",
			params: AlignmentRuleParams{Unit: AlignmentUnitWeek, DayOfWeek: lo.ToPtr(1)},
			from:   tuesday,
			want:   date(2020, time.May, 11),
		},
		{
			name:   "week on matching weekday moves a week",
			params: AlignmentRuleParams{Unit: AlignmentUnitWeek, DayOfWeek: lo.ToPtr(2)},
			from:   tuesday,
			want:   date(2020, time.May, 12),
		},
		{
			name:   "month to first of next month",
			params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfMonth: lo.ToPtr(1)},
			from:   tuesday,
			want:   date(2020, time.June, 1),
		},
		{
			name:   "month later in same month",
			params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfMonth: lo.ToPtr(20)},
			from:   tuesday,
			want:   date(2020, time.May, 20),
		},
		{
			name:   "month without day moves a month",
			params: AlignmentRuleParams{Unit: AlignmentUnitMonth},
			from:   tuesday,
			want:   date(2020, time.June, 5),
		},
		{
			name:   "day 31 capped in february",
			params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfMonth: lo.ToPtr(31)},
			from:   date(2020, time.February, 10),
			want:   date(2020, time.February, 29),
		},
		{
			name:   "day 31 on april 30 moves to may 31",
			params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfMonth: lo.ToPtr(31)},
			from:   date(2020, time.April, 30),
			want:   date(2020, time.May, 31),
		},
		{
			name:   "month crosses year end",
			params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfMonth: lo.ToPtr(15)},
			from:   date(2020, time.December, 20),
			want:   date(2021, time.January, 15),
		},
		{
			name:   "year to january first",
			params: AlignmentRuleParams{Unit: AlignmentUnitYear, MonthOfYear: lo.ToPtr(1), DayOfMonth: lo.ToPtr(1)},
			from:   date(2020, time.July, 1),
			want:   date(2021, time.January, 1),
		},
		{
			name:   "year later in same year",
			params: AlignmentRuleParams{Unit: AlignmentUnitYear, MonthOfYear: lo.ToPtr(10), DayOfMonth: lo.ToPtr(1)},
			from:   date(2020, time.July, 1),
			want:   date(2020, time.October, 1),
		},
		{
			name:   "year on the anchor moves a year",
			params: AlignmentRuleParams{Unit: AlignmentUnitYear, MonthOfYear: lo.ToPtr(7), DayOfMonth: lo.ToPtr(1)},
			from:   date(2020, time.July, 1),
			want:   date(2021, time.July, 1),
		},
		{
			name:   "year month only keeps day",
			params: AlignmentRuleParams{Unit: AlignmentUnitYear, MonthOfYear: lo.ToPtr(2)},
			from:   date(2021, time.March, 30),
			want:   date(2022, time.February, 28),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := NewAlignmentRule(tt.params)
			require.NoError(t, err)
			got := rule.Date(tt.from)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
			assert.True(t, got.After(tt.from))
		})
	}
}

func TestAlignmentRuleKeepsClock(t *testing.T) {
	rule, err := NewAlignmentRule(AlignmentRuleParams{Unit: AlignmentUnitWeek, DayOfWeek: lo.ToPtr(5)})
	require.NoError(t, err)

	from := time.Date(2020, time.May, 5, 14, 30, 0, 0, pst)
	assert.Equal(t, time.Date(2020, time.May, 8, 14, 30, 0, 0, pst), rule.Date(from))
}

func TestNewAlignmentRuleRejectsInvalidCombinations(t *testing.T) {
	tests := []struct {
		name   string
		params AlignmentRuleParams
	}{
		{name: "unknown unit", params: AlignmentRuleParams{Unit: "D"}},
		{name: "week with month of year", params: AlignmentRuleParams{Unit: AlignmentUnitWeek, MonthOfYear: lo.ToPtr(1)}},
		{name: "week with day of month", params: AlignmentRuleParams{Unit: AlignmentUnitWeek, DayOfMonth: lo.ToPtr(1)}},
		{name: "month with weekday", params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfWeek: lo.ToPtr(1)}},
		{name: "month with month of year", params: AlignmentRuleParams{Unit: AlignmentUnitMonth, MonthOfYear: lo.ToPtr(1)}},
		{name: "year with weekday", params: AlignmentRuleParams{Unit: AlignmentUnitYear, DayOfWeek: lo.ToPtr(1)}},
		{name: "weekday out of range", params: AlignmentRuleParams{Unit: AlignmentUnitWeek, DayOfWeek: lo.ToPtr(8)}},
		{name: "day of month out of range", params: AlignmentRuleParams{Unit: AlignmentUnitMonth, DayOfMonth: lo.ToPtr(0)}},
		{name: "month out of range", params: AlignmentRuleParams{Unit: AlignmentUnitYear, MonthOfYear: lo.ToPtr(13)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAlignmentRule(tt.params)
			require.Error(t, err)
			assert.True(t, ierr.IsInvalidArgument(err))
		})
	}
}
