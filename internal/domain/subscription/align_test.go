package subscription

import (
	"testing"
	"time"

	ierr "github.com/flexprice/payschedule/internal/errors"
	"github.com/flexprice/payschedule/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yearlyPhase() *Phase {
	return &Phase{
		SequenceNumber: 1,
		StartDate:      day(2020, time.July, 1),
		Interval:       types.MustParseInterval("P1Y"),
		Amount:         usd(100),
	}
}

func TestAlignPhase_ProratesOverCalendarYear(t *testing.T) {
	phase := yearlyPhase()

	leadIn, regular, err := AlignPhase(phase, day(2021, time.January, 1), true)
	require.NoError(t, err)

	assert.Equal(t, "50.27", leadIn.Amount.Value.StringFixed(2))
	assert.Equal(t, "USD", leadIn.Amount.Currency)
	assert.Equal(t, types.Interval{Days: 184}, leadIn.Interval)
	assert.Equal(t, lo.ToPtr(1), leadIn.TotalPeriods)
	assert.True(t, leadIn.Prorated)
	assert.Equal(t, day(2021, time.January, 1), *leadIn.EndDate())

	assert.Equal(t, day(2021, time.January, 1), regular.StartDate)
	assert.Equal(t, 2, regular.SequenceNumber)
	assert.True(t, regular.Amount.Equal(usd(100)))

	// the input phase is untouched
	assert.Equal(t, day(2020, time.July, 1), phase.StartDate)
}

func TestAlignPhaseToRule_ProratesOverOnePeriod(t *testing.T) {
	rule, err := types.NewAlignmentRule(types.AlignmentRuleParams{
		Unit:        types.AlignmentUnitYear,
		DayOfMonth:  lo.ToPtr(1),
		MonthOfYear: lo.ToPtr(1),
	})
	require.NoError(t, err)

	leadIn, regular, err := AlignPhaseToRule(yearlyPhase(), rule, true)
	require.NoError(t, err)

	assert.Equal(t, "50.41", leadIn.Amount.Value.StringFixed(2))
	assert.Equal(t, day(2021, time.January, 1), regular.StartDate)
	assert.Equal(t, day(2021, time.January, 1), *leadIn.EndDate())
}

func TestAlignPhase_WithoutProration(t *testing.T) {
	leadIn, _, err := AlignPhase(yearlyPhase(), day(2021, time.January, 1), false)
	require.NoError(t, err)
	assert.True(t, leadIn.Amount.Equal(usd(100)))
}

func TestAlignPhase_KeepsClockOfStart(t *testing.T) {
	phase := yearlyPhase()
	phase.StartDate = time.Date(2020, time.July, 1, 14, 30, 0, 0, time.UTC)

	leadIn, regular, err := AlignPhase(phase, day(2021, time.January, 1), true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, time.January, 1, 14, 30, 0, 0, time.UTC), regular.StartDate)
	assert.Equal(t, regular.StartDate, *leadIn.EndDate())
}

func TestAlignPhase_AlignedSubscriptionBilling(t *testing.T) {
	sub := &Subscription{Status: types.SubscriptionStatusActive}
	require.NoError(t, sub.AddPhase(yearlyPhase()))

	leadIn, regular, err := AlignPhase(sub.Phases[0], day(2021, time.January, 1), true)
	require.NoError(t, err)
	require.NoError(t, sub.ReplacePhase(1, leadIn, regular))

	first, err := sub.NextPeriod()
	require.NoError(t, err)
	assert.Equal(t, day(2020, time.July, 1), first.StartDate)
	assert.Equal(t, day(2021, time.January, 1), first.EndDate)
	assert.True(t, first.Prorated)
	assert.Equal(t, "50.27", first.Amount.Value.StringFixed(2))

	second, err := sub.NextPeriod()
	require.NoError(t, err)
	assert.Equal(t, day(2021, time.January, 1), second.StartDate)
	assert.Equal(t, day(2022, time.January, 1), second.EndDate)
	assert.Equal(t, 2, second.PhaseSequence)
}

func TestAlignPhase_Errors(t *testing.T) {
	t.Run("anchor on start", func(t *testing.T) {
		_, _, err := AlignPhase(yearlyPhase(), day(2020, time.July, 1), true)
		require.Error(t, err)
		assert.True(t, ierr.IsInvalidArgument(err))
	})

	t.Run("anchor before start", func(t *testing.T) {
		_, _, err := AlignPhase(yearlyPhase(), day(2020, time.January, 1), false)
		require.Error(t, err)
		assert.True(t, ierr.IsInvalidArgument(err))
	})

	t.Run("phase already billing", func(t *testing.T) {
		phase := yearlyPhase()
		_, err := phase.NextPeriod()
		require.NoError(t, err)

		_, _, err = AlignPhase(phase, day(2022, time.January, 1), true)
		require.Error(t, err)
		assert.True(t, ierr.IsInvalidOperation(err))
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, _, err := AlignPhaseWith(yearlyPhase(), day(2021, time.January, 1), true, types.ProrationStrategy("daily"))
		require.Error(t, err)
		assert.True(t, ierr.IsValidation(err))
	})
}
