package proration

import (
	"testing"
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Calculate(t *testing.T) {
	hundred := types.NewMoney(decimal.NewFromInt(100), "USD")

	tests := []struct {
		name         string
		strategy     types.ProrationStrategy
		params       ProrationParams
		wantAmount   string
		wantDays     int
		wantBaseDays int
	}{
		{
			name:     "calendar year in a leap year",
			strategy: types.ProrationStrategyCalendarYear,
			params: ProrationParams{
				Amount:      hundred,
				Interval:    types.MustParseInterval("P1Y"),
				PeriodStart: time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
				AnchorDate:  time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantAmount:   "50.27", // 100 / 366 * 184
			wantDays:     184,
			wantBaseDays: 366,
		},
		{
			name:     "period length of one year",
			strategy: types.ProrationStrategyPeriod,
			params: ProrationParams{
				Amount:      hundred,
				Interval:    types.MustParseInterval("P1Y"),
				PeriodStart: time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC),
				AnchorDate:  time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantAmount:   "50.41", // 100 / 365 * 184
			wantDays:     184,
			wantBaseDays: 365,
		},
		{
			name:     "monthly period to first of month",
			strategy: types.ProrationStrategyPeriod,
			params: ProrationParams{
				Amount:      types.NewMoney(decimal.NewFromInt(31), "EUR"),
				Interval:    types.MustParseInterval("P1M"),
				PeriodStart: time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC),
				AnchorDate:  time.Date(2021, 4, 1, 0, 0, 0, 0, time.UTC),
			},
			wantAmount:   "17.00", // 31 / 31 * 17
			wantDays:     17,
			wantBaseDays: 31,
		},
		{
			name:     "calendar year in a common year",
			strategy: types.ProrationStrategyCalendarYear,
			params: ProrationParams{
				Amount:      types.NewMoney(decimal.NewFromInt(365), "EUR"),
				Interval:    types.MustParseInterval("P1Y"),
				PeriodStart: time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC),
				AnchorDate:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantAmount:   "31.00",
			wantDays:     31,
			wantBaseDays: 365,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(tt.strategy)
			assert.Equal(t, tt.strategy, calc.Strategy())

			result, err := calc.Calculate(tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, result.Amount.Value.StringFixed(2))
			assert.Equal(t, tt.params.Amount.Currency, result.Amount.Currency)
			assert.Equal(t, tt.wantDays, result.Days)
			assert.Equal(t, tt.wantBaseDays, result.BaseDays)
		})
	}
}

func TestCalculator_InvalidParams(t *testing.T) {
	start := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	hundred := types.NewMoney(decimal.NewFromInt(100), "USD")

	tests := []struct {
		name     string
		strategy types.ProrationStrategy
		params   ProrationParams
	}{
		{
			name:     "anchor before start",
			strategy: types.ProrationStrategyCalendarYear,
			params:   ProrationParams{Amount: hundred, PeriodStart: start, AnchorDate: start.AddDate(0, 0, -1)},
		},
		{
			name:     "anchor on start",
			strategy: types.ProrationStrategyCalendarYear,
			params:   ProrationParams{Amount: hundred, PeriodStart: start, AnchorDate: start},
		},
		{
			name:     "missing currency",
			strategy: types.ProrationStrategyCalendarYear,
			params:   ProrationParams{Amount: types.Money{Value: decimal.NewFromInt(1)}, PeriodStart: start, AnchorDate: start.AddDate(0, 1, 0)},
		},
		{
			name:     "period strategy without interval",
			strategy: types.ProrationStrategyPeriod,
			params:   ProrationParams{Amount: hundred, PeriodStart: start, AnchorDate: start.AddDate(0, 1, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCalculator(tt.strategy).Calculate(tt.params)
			require.Error(t, err)
			assert.True(t, ierr.IsValidation(err))
		})
	}
}
