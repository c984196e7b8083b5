package subscription

import (
	"testing"
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func usd(v int64) types.Money {
	return types.NewMoney(decimal.NewFromInt(v), "USD")
}

func newTestPhase(start time.Time, interval string, total *int) *Phase {
	return &Phase{
		SequenceNumber: 1,
		StartDate:      start,
		Interval:       types.MustParseInterval(interval),
		Amount:         usd(10),
		TotalPeriods:   total,
	}
}

func TestPhase_NextPeriod_MonthEndOverflow(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  []time.Time
	}{
		{
			name:  "start on the 31st",
			start: day(2020, time.January, 31),
			want: []time.Time{
				day(2020, time.January, 31),
				day(2020, time.February, 29),
				day(2020, time.March, 31),
				day(2020, time.April, 30),
				day(2020, time.May, 31),
			},
		},
		{
			name:  "start on the 29th in a leap year",
			start: day(2020, time.January, 29),
			want: []time.Time{
				day(2020, time.January, 29),
				day(2020, time.February, 29),
				day(2020, time.March, 29),
				day(2020, time.April, 29),
			},
		},
		{
			name:  "start on the 30th in a common year",
			start: day(2021, time.January, 30),
			want: []time.Time{
				day(2021, time.January, 30),
				day(2021, time.February, 28),
				day(2021, time.March, 30),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase := newTestPhase(tt.start, "P1M", nil)
			for i := 0; i < len(tt.want)-1; i++ {
				period, err := phase.NextPeriod()
				require.NoError(t, err)
				assert.Equal(t, tt.want[i], period.StartDate, "start of period %d", i)
				assert.Equal(t, tt.want[i+1], period.EndDate, "end of period %d", i)
			}
		})
	}
}

func TestPhase_LeapDayYearly(t *testing.T) {
	phase := newTestPhase(day(2020, time.February, 29), "P1Y", lo.ToPtr(4))

	var starts []time.Time
	for !phase.IsCompleted() {
		period, err := phase.NextPeriod()
		require.NoError(t, err)
		starts = append(starts, period.StartDate)
	}

	assert.Equal(t, []time.Time{
		day(2020, time.February, 29),
		day(2021, time.February, 28),
		day(2022, time.February, 28),
		day(2023, time.February, 28),
	}, starts)
	assert.Equal(t, day(2024, time.February, 29), *phase.EndDate())
}

func TestPhase_PeriodsCreatedBound(t *testing.T) {
	for _, total := range []int{1, 2, 6} {
		for calls := 1; calls <= total+2; calls++ {
			phase := newTestPhase(day(2005, time.May, 5), "P1W", lo.ToPtr(total))

			var rejected int
			for i := 0; i < calls; i++ {
				_, err := phase.NextPeriod()
				if err != nil {
					assert.True(t, ierr.IsPrecondition(err))
					rejected++
				}
			}

			assert.Equal(t, min(calls, total), phase.PeriodsCreated)
			assert.Equal(t, max(0, calls-total), rejected)
		}
	}
}

func TestPhase_Contiguity(t *testing.T) {
	for _, interval := range []string{"P1D", "P2W", "P1M", "P3M", "P1Y2M", "P1M15D"} {
		t.Run(interval, func(t *testing.T) {
			phase := newTestPhase(time.Date(2019, time.October, 31, 9, 30, 0, 0, time.UTC), interval, nil)

			prev, err := phase.NextPeriod()
			require.NoError(t, err)
			for i := 0; i < 30; i++ {
				next, err := phase.NextPeriod()
				require.NoError(t, err)
				assert.Equal(t, prev.EndDate, next.StartDate)
				assert.True(t, next.EndDate.After(next.StartDate))
				prev = next
			}
		})
	}
}

func TestPhase_NextStartDateIsPure(t *testing.T) {
	phase := newTestPhase(day(2005, time.May, 5), "P1M", lo.ToPtr(6))

	assert.Equal(t, day(2005, time.May, 5), *phase.NextStartDate())
	assert.Equal(t, day(2005, time.May, 5), *phase.NextStartDate())
	assert.Equal(t, 0, phase.PeriodsCreated)

	_, err := phase.NextPeriod()
	require.NoError(t, err)
	assert.Equal(t, day(2005, time.June, 5), *phase.NextStartDate())
	assert.Equal(t, lo.ToPtr(5), phase.RemainingPeriods())
}

func TestPhase_InfiniteHasNoEnd(t *testing.T) {
	phase := newTestPhase(day(2020, time.May, 5), "P1Y", nil)

	assert.True(t, phase.IsInfinite())
	assert.False(t, phase.IsCompleted())
	assert.Nil(t, phase.EndDate())
	assert.Nil(t, phase.RemainingPeriods())
}

func TestPhase_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Phase)
	}{
		{name: "zero start", mutate: func(p *Phase) { p.StartDate = time.Time{} }},
		{name: "negative interval", mutate: func(p *Phase) { p.Interval = types.MustParseInterval("-P1M") }},
		{name: "zero interval", mutate: func(p *Phase) { p.Interval = types.Interval{} }},
		{name: "no currency", mutate: func(p *Phase) { p.Amount = types.Money{Value: decimal.NewFromInt(1)} }},
		{name: "zero total", mutate: func(p *Phase) { p.TotalPeriods = lo.ToPtr(0) }},
		{name: "created above total", mutate: func(p *Phase) { p.TotalPeriods = lo.ToPtr(1); p.PeriodsCreated = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase := newTestPhase(day(2020, time.May, 5), "P1M", nil)
			require.NoError(t, phase.Validate())

			tt.mutate(phase)
			err := phase.Validate()
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}

func TestPeriod_DaysAndContains(t *testing.T) {
	phase := newTestPhase(day(2020, time.February, 1), "P1M", nil)
	period := phase.PeriodAt(0)

	assert.Equal(t, 29, period.Days())
	assert.True(t, period.Contains(day(2020, time.February, 1)))
	assert.True(t, period.Contains(day(2020, time.February, 29)))
	assert.False(t, period.Contains(day(2020, time.March, 1)))
	assert.False(t, period.Contains(day(2020, time.January, 31)))
}
